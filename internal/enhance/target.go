package enhance

import (
	"slices"
	"strconv"
	"strings"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

// Target is the set of options a search is after: every listed id must be
// acquired and every code must appear at least Codes[code] times.
type Target struct {
	IDs   []catalog.OptionID        `json:"ids,omitempty"`
	Codes map[catalog.ShortCode]int `json:"codes,omitempty"`
}

// NewTarget dedups ids and drops blank or non-positive code requirements.
func NewTarget(ids []catalog.OptionID, codes map[catalog.ShortCode]int) Target {
	var t Target
	seen := make(map[catalog.OptionID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t.IDs = append(t.IDs, id)
	}
	for code, n := range codes {
		if code == "" || n <= 0 {
			continue
		}
		if t.Codes == nil {
			t.Codes = make(map[catalog.ShortCode]int)
		}
		t.Codes[code] = n
	}
	return t
}

// ParseCombo turns a preset such as "가가승" into code requirements.
// Characters that are not catalog codes are ignored.
func ParseCombo(cat *catalog.Catalog, combo string) Target {
	codes := map[catalog.ShortCode]int{}
	for _, r := range combo {
		code := catalog.ShortCode(string(r))
		if cat.IsCode(code) {
			codes[code]++
		}
	}
	return NewTarget(nil, codes)
}

// Empty reports whether nothing is required.
func (t Target) Empty() bool { return len(t.IDs) == 0 && len(t.Codes) == 0 }

// SatisfiedBy reports whether acquired meets every requirement. An empty target
// is always satisfied.
func (t Target) SatisfiedBy(acquired []Acquisition) bool {
	if t.Empty() {
		return true
	}
	have := make(map[catalog.OptionID]bool, len(acquired))
	counts := make(map[catalog.ShortCode]int, len(acquired))
	for _, a := range acquired {
		have[a.Option.ID] = true
		if a.Option.Code != "" {
			counts[a.Option.Code]++
		}
	}
	for _, id := range t.IDs {
		if !have[id] {
			return false
		}
	}
	for code, need := range t.Codes {
		if counts[code] < need {
			return false
		}
	}
	return true
}

// String renders the target deterministically, e.g. "#6 가x2".
func (t Target) String() string {
	if t.Empty() {
		return "<none>"
	}
	var parts []string
	ids := slices.Clone(t.IDs)
	slices.Sort(ids)
	for _, id := range ids {
		parts = append(parts, "#"+strconv.Itoa(int(id)))
	}
	codes := make([]string, 0, len(t.Codes))
	for code := range t.Codes {
		codes = append(codes, string(code))
	}
	slices.Sort(codes)
	for _, c := range codes {
		n := t.Codes[catalog.ShortCode(c)]
		if n == 1 {
			parts = append(parts, c)
		} else {
			parts = append(parts, c+"x"+strconv.Itoa(n))
		}
	}
	return strings.Join(parts, " ")
}
