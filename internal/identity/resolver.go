package identity

import (
	"github.com/sells-group/leadgen-cli/internal/ledger"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
)

// defaultSimilarityThreshold is the bigram Dice coefficient above which
// two normalized company names are treated as probably the same company.
const defaultSimilarityThreshold = 0.85

// Resolver derives identity keys and decides duplicate status against an
// immutable ledger snapshot taken at run start. It also tracks keys
// claimed during the current run so a company+role pair yields at most
// one lead per window.
//
// Resolver is not safe for concurrent use; resolution happens in the
// single-threaded qualification stage.
type Resolver struct {
	snap      *ledger.Snapshot
	threshold float64

	claimed     map[string]bool
	domains     map[string]bool
	namesByRole map[model.RoleCategory][]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSimilarityThreshold overrides the near-duplicate name similarity cutoff.
func WithSimilarityThreshold(f float64) Option {
	return func(r *Resolver) {
		if f > 0 && f <= 1 {
			r.threshold = f
		}
	}
}

// NewResolver builds a Resolver over a ledger snapshot.
func NewResolver(snap *ledger.Snapshot, opts ...Option) *Resolver {
	r := &Resolver{
		snap:        snap,
		threshold:   defaultSimilarityThreshold,
		claimed:     make(map[string]bool),
		domains:     make(map[string]bool),
		namesByRole: make(map[model.RoleCategory][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, e := range snap.Entries() {
		if !e.Key.Unverified {
			r.domains[e.Key.Domain] = true
		}
		if name := normalize.CompanyName(e.CompanyName); name != "" {
			r.namesByRole[e.Key.Role] = append(r.namesByRole[e.Key.Role], name)
		}
	}
	return r
}

// KeyFor derives the canonical identity key for a posting. A posting
// whose website yields no usable domain falls back to the normalized
// company name and is marked unverified, keeping it in a separate
// namespace.
func KeyFor(p model.Posting) model.IdentityKey {
	role := ClassifyRole(p.Title)
	if domain := normalize.Domain(p.Website); domain != "" {
		return model.IdentityKey{Domain: domain, Role: role}
	}
	return model.IdentityKey{Domain: normalize.CompanyName(p.Company), Role: role, Unverified: true}
}

// Key derives the identity key for a posting.
func (r *Resolver) Key(p model.Posting) model.IdentityKey {
	return KeyFor(p)
}

// Resolve decides whether the posting's company+role pair is new, a
// duplicate, or a near-duplicate needing review. The first new key seen
// in a run is claimed; later postings with the same key are duplicates.
func (r *Resolver) Resolve(p model.Posting) model.DedupDecision {
	k := r.Key(p)
	ks := k.String()

	if r.claimed[ks] {
		return model.DedupDecision{Key: k, Duplicate: true, Reason: model.DedupReasonRepeatInRun}
	}
	if _, delivered := r.snap.Contains(k); delivered {
		return model.DedupDecision{Key: k, Duplicate: true, Reason: model.DedupReasonDelivered}
	}
	r.claimed[ks] = true

	name := normalize.CompanyName(p.Company)
	if match, sim := r.closestName(k.Role, name); sim >= r.threshold {
		return model.DedupDecision{
			Key:         k,
			NeedsReview: true,
			Reason:      model.DedupReasonSimilarCompany,
			MatchedName: match,
		}
	}

	// Same domain delivered before under a different role: a distinct
	// lead, noted so downstream reporting can tell it apart from fresh
	// companies.
	if !k.Unverified && r.domains[k.Domain] {
		return model.DedupDecision{Key: k, Reason: model.DedupReasonNewRole}
	}
	return model.DedupDecision{Key: k, Reason: model.DedupReasonNew}
}

func (r *Resolver) closestName(role model.RoleCategory, name string) (string, float64) {
	if name == "" {
		return "", 0
	}
	var (
		best    string
		bestSim float64
	)
	for _, candidate := range r.namesByRole[role] {
		if sim := diceCoefficient(name, candidate); sim > bestSim {
			best, bestSim = candidate, sim
		}
	}
	return best, bestSim
}

// diceCoefficient computes the Sørensen-Dice similarity over character
// bigrams. Returns 1 for identical strings and 0 for no shared bigrams.
func diceCoefficient(a, b string) float64 {
	if a == b {
		return 1
	}
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0
	}
	var shared int
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			if m < n {
				shared += m
			} else {
				shared += n
			}
		}
	}
	var total int
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	return 2 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	runes := []rune(s)
	grams := make(map[string]int, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}
