// Package ledger owns the delivery ledger: the append-only record of
// identity keys delivered in prior windows. The ledger is read once per
// run as an immutable snapshot and appended to exactly once, after the
// delivery gate commits, so in-run deduplication never races with
// in-run deliveries.
package ledger

import (
	"context"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Entry is one delivered identity key with its delivery timestamp. The
// normalized company name is kept alongside for near-duplicate review.
type Entry struct {
	Key         model.IdentityKey `json:"key"`
	CompanyName string            `json:"company_name"`
	DeliveredAt time.Time         `json:"delivered_at"`
}

// Store is the persistence interface for the delivery ledger.
type Store interface {
	// Snapshot reads all entries delivered within the retention horizon
	// as one consistent view. The snapshot is immutable; a run performs
	// all its dedup checks against it.
	Snapshot(ctx context.Context, horizon time.Duration) (*Snapshot, error)

	// CommitDelivered atomically appends this run's delivered keys.
	// Called once, at the end of a run, for companies that reached a
	// terminal delivered state.
	CommitDelivered(ctx context.Context, entries []Entry) error

	// PruneExpired deletes entries older than the retention horizon and
	// returns the number removed.
	PruneExpired(ctx context.Context, horizon time.Duration) (int, error)

	// Count returns the total number of ledger entries.
	Count(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Snapshot is an immutable in-memory view of the ledger within the
// retention horizon.
type Snapshot struct {
	takenAt time.Time
	byKey   map[string]time.Time
	entries []Entry
}

// NewSnapshot builds a snapshot from entries. Used by stores and tests.
func NewSnapshot(takenAt time.Time, entries []Entry) *Snapshot {
	byKey := make(map[string]time.Time, len(entries))
	for _, e := range entries {
		k := e.Key.String()
		if prev, ok := byKey[k]; !ok || e.DeliveredAt.After(prev) {
			byKey[k] = e.DeliveredAt
		}
	}
	return &Snapshot{takenAt: takenAt, byKey: byKey, entries: entries}
}

// Contains reports whether the key was delivered within the snapshot's
// horizon, and when.
func (s *Snapshot) Contains(key model.IdentityKey) (time.Time, bool) {
	ts, ok := s.byKey[key.String()]
	return ts, ok
}

// Entries returns the snapshot's entries, newest delivery first not
// guaranteed; callers must not mutate the slice.
func (s *Snapshot) Entries() []Entry { return s.entries }

// TakenAt returns the snapshot timestamp.
func (s *Snapshot) TakenAt() time.Time { return s.takenAt }

// Len returns the number of distinct keys in the snapshot.
func (s *Snapshot) Len() int { return len(s.byKey) }
