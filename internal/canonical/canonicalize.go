// Package canonical turns raw retrieved rows into the canonical artifact
// rows: domain-specific totals suppression, first-occurrence deduplication,
// and deterministic ordering. Combined with the stable sort, first-occurrence
// dedup makes the output a pure function of the input multiset rather than of
// request timing.
package canonical

import (
	"sort"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/runlog"
)

// Options controls one canonicalization pass.
type Options struct {
	// DedupKey is the ordered field list used for duplicate detection and
	// for the canonical sort order. Empty means domain.DefaultDedupKey().
	DedupKey []string

	// DropTotals enables totals-row suppression. Only totals-trap tasks
	// require it; suppression elsewhere would silently discard data rows'
	// aggregate siblings.
	DropTotals bool

	// Log, when non-nil, receives suppression and dedup narration.
	Log *runlog.Recorder
}

// Result is the canonical row set plus exact drop counts.
type Result struct {
	Rows              []domain.Row
	TotalsDropped     int
	DuplicatesDropped int
}

// Canonicalize filters, dedups, and orders rows. A row missing a dedup-key
// field contributes null for that field; that is a key value, not an error.
// The pass is idempotent: canonicalizing its own output is a no-op.
func Canonicalize(rows []domain.Row, opts Options) Result {
	key := opts.DedupKey
	if len(key) == 0 {
		key = domain.DefaultDedupKey()
	}

	var res Result

	// Step 1: totals suppression, counted exactly.
	kept := rows
	if opts.DropTotals {
		kept = make([]domain.Row, 0, len(rows))
		for _, row := range rows {
			if row.IsTotals() {
				res.TotalsDropped++
				continue
			}
			kept = append(kept, row)
		}
		if opts.Log != nil {
			opts.Log.Infof("dropped %d totals rows", res.TotalsDropped)
		}
	}

	// Step 2: first occurrence per dedup-key tuple wins; later duplicates
	// are discarded silently but counted.
	seen := make(map[string]struct{}, len(kept))
	unique := make([]domain.Row, 0, len(kept))
	for _, row := range kept {
		k := domain.KeyOf(row, key)
		if _, dup := seen[k]; dup {
			res.DuplicatesDropped++
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, row)
	}
	if res.DuplicatesDropped > 0 && opts.Log != nil {
		opts.Log.Infof("deduplication: %d -> %d rows (%d duplicates discarded)",
			len(kept), len(unique), res.DuplicatesDropped)
	}

	// Step 3: stable ascending sort by the dedup-key tuple.
	sort.SliceStable(unique, func(i, j int) bool {
		return domain.CompareRows(unique[i], unique[j], key) < 0
	})

	res.Rows = unique
	return res
}
