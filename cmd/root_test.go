package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCommandRegistrations(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["serve"])
	assert.True(t, names["ledger"])
}

func TestLedgerSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range ledgerCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["status"])
	assert.True(t, names["prune"])
}

func TestRootUse(t *testing.T) {
	assert.Equal(t, "leadgen-cli", rootCmd.Use)
}
