package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func key(domain string, role model.RoleCategory) model.IdentityKey {
	return model.IdentityKey{Domain: domain, Role: role}
}

func TestSQLite_CommitAndSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	err := st.CommitDelivered(ctx, []Entry{
		{Key: key("acme.de", model.RoleSalesEngineer), CompanyName: "acme", DeliveredAt: now.Add(-24 * time.Hour)},
		{Key: key("beta.ch", model.RoleSAPSales), CompanyName: "beta", DeliveredAt: now.Add(-48 * time.Hour)},
	})
	require.NoError(t, err)

	snap, err := st.Snapshot(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	ts, ok := snap.Contains(key("acme.de", model.RoleSalesEngineer))
	require.True(t, ok)
	assert.WithinDuration(t, now.Add(-24*time.Hour), ts, time.Second)

	_, ok = snap.Contains(key("acme.de", model.RoleSAPSales))
	assert.False(t, ok, "same domain with a different role is a distinct key")
}

func TestSQLite_SnapshotHorizonExcludesOldEntries(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.CommitDelivered(ctx, []Entry{
		{Key: key("old.de", model.RoleSalesEngineer), DeliveredAt: now.Add(-400 * 24 * time.Hour)},
		{Key: key("fresh.de", model.RoleSalesEngineer), DeliveredAt: now.Add(-10 * 24 * time.Hour)},
	}))

	snap, err := st.Snapshot(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	_, ok := snap.Contains(key("old.de", model.RoleSalesEngineer))
	assert.False(t, ok, "entries past the retention horizon are invisible to dedup")
}

func TestSQLite_CommitEmpty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.CommitDelivered(context.Background(), nil))
}

func TestSQLite_UnverifiedKeyRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	k := model.IdentityKey{Domain: "acme gmbh", Role: model.RoleSalesEngineer, Unverified: true}
	require.NoError(t, st.CommitDelivered(ctx, []Entry{{Key: k, CompanyName: "acme gmbh", DeliveredAt: time.Now().UTC()}}))

	snap, err := st.Snapshot(ctx, 365*24*time.Hour)
	require.NoError(t, err)

	_, ok := snap.Contains(k)
	assert.True(t, ok)

	// A verified key for the same name must not collide with the unverified one.
	_, ok = snap.Contains(model.IdentityKey{Domain: "acme gmbh", Role: model.RoleSalesEngineer})
	assert.False(t, ok)
}

func TestSQLite_PruneExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, st.CommitDelivered(ctx, []Entry{
		{Key: key("old.de", model.RoleOther), DeliveredAt: now.Add(-400 * 24 * time.Hour)},
		{Key: key("fresh.de", model.RoleOther), DeliveredAt: now},
	}))

	n, err := st.PruneExpired(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSnapshot_KeepsLatestDeliveryPerKey(t *testing.T) {
	now := time.Now().UTC()
	k := key("acme.de", model.RoleSalesEngineer)
	snap := NewSnapshot(now, []Entry{
		{Key: k, DeliveredAt: now.Add(-300 * 24 * time.Hour)},
		{Key: k, DeliveredAt: now.Add(-30 * 24 * time.Hour)},
	})

	ts, ok := snap.Contains(k)
	require.True(t, ok)
	assert.Equal(t, now.Add(-30*24*time.Hour), ts)
	assert.Equal(t, 1, snap.Len())
	assert.Len(t, snap.Entries(), 2)
}
