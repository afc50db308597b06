package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field names of the record schema.
const (
	FieldYear       = "year"
	FieldReporter   = "reporter"
	FieldPartner    = "partner"
	FieldFlow       = "flow"
	FieldHS         = "hs"
	FieldTradeValue = "tradeValue"
	FieldNetWeight  = "netWeight"
	FieldQty        = "qty"
	FieldRecordID   = "record_id"
	FieldIsTotal    = "isTotal"
)

// Totals-row marker values. A row is a totals row only when all three
// conditions hold; no weaker rule is authoritative.
const (
	TotalsPartner = "WLD"
	TotalsHS      = "TOTAL"
)

// MandatoryRecordFields lists the fields every record must carry.
var MandatoryRecordFields = []string{
	FieldYear, FieldReporter, FieldPartner, FieldFlow, FieldHS,
	FieldTradeValue, FieldNetWeight, FieldQty, FieldRecordID,
}

// RequiredDedupFields is the minimum member set of any dedup key.
var RequiredDedupFields = []string{
	FieldYear, FieldReporter, FieldPartner, FieldFlow, FieldHS, FieldRecordID,
}

// NonNegativeFields are the numeric fields constrained to values >= 0.
var NonNegativeFields = []string{FieldTradeValue, FieldNetWeight, FieldQty}

// DefaultDedupKey returns the canonical dedup key in declared order.
// Returns a fresh copy to prevent mutation.
func DefaultDedupKey() []string {
	return []string{FieldYear, FieldReporter, FieldPartner, FieldFlow, FieldHS, FieldRecordID}
}

// Row is one retrieved record. Rows are decoded from JSON and keep whatever
// fields the source returned; the mandatory fields are enforced only at
// validation time. Missing fields read as nil.
type Row map[string]any

// IsTotals reports whether the row is a totals row. The rule is conjunctive:
// isTotal == true AND partner == "WLD" AND hs == "TOTAL".
func (r Row) IsTotals() bool {
	isTotal, _ := r[FieldIsTotal].(bool)
	return isTotal && asString(r[FieldPartner]) == TotalsPartner && asString(r[FieldHS]) == TotalsHS
}

// KeyOf encodes the row's dedup-key tuple into a stable string. Missing
// fields contribute null. Two rows are duplicates iff their encoded tuples
// are equal; JSON encoding normalizes numeric representations so int and
// float forms of the same value collide as intended.
func KeyOf(r Row, fields []string) string {
	tuple := make([]any, len(fields))
	for i, f := range fields {
		tuple[i] = r[f]
	}
	b, err := json.Marshal(tuple)
	if err != nil {
		// Values originate from JSON decoding, so this is unreachable in
		// practice; fall back to a fmt rendering rather than panicking.
		return fmt.Sprint(tuple...)
	}
	return string(b)
}

// CompareRows orders two rows by their dedup-key tuple, ascending, field by
// field in the key's declared order. Nil sorts before any value; numbers
// compare numerically, strings lexicographically, bools false-first, and
// anything else by its JSON-ish string form.
func CompareRows(a, b Row, fields []string) int {
	for _, f := range fields {
		if c := compareValues(a[f], b[f]); c != 0 {
			return c
		}
	}
	return 0
}

func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	af, aNum := Numeric(a)
	bf, bNum := Numeric(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs)
	}

	ab, aBool := a.(bool)
	bb, bBool := b.(bool)
	if aBool && bBool {
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}

	// Mixed or exotic types: fall back to a deterministic string ordering.
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// Numeric coerces JSON-decoded numeric values to float64. It accepts the
// representations produced by encoding/json with and without UseNumber, plus
// native Go ints from in-process construction.
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsIntegral reports whether v is a whole number (e.g. a valid year or
// count). Non-numeric values are not integral.
func IsIntegral(v any) bool {
	f, ok := Numeric(v)
	if !ok {
		return false
	}
	return f == float64(int64(f))
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
