package enhance

import (
	"sort"
	"strings"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

// UncodedMark stands in for options without a short code in combo notation.
const UncodedMark = "●"

// EnumerateCombos lists every preset of exactly slots codes. Codes are picked in
// catalog priority order without going back to an earlier code, each code at
// most as often as the catalog supplies it, and at most one code from the
// exclusive remodel group.
func EnumerateCombos(cat *catalog.Catalog, slots int) []string {
	if slots <= 0 {
		return nil
	}
	order := cat.CodeOrder()
	var (
		result    []string
		picks     = make([]catalog.ShortCode, 0, slots)
		used      = map[catalog.ShortCode]int{}
		exclusive int
	)

	var dfs func(start int)
	dfs = func(start int) {
		if len(picks) == slots {
			var sb strings.Builder
			for _, p := range picks {
				sb.WriteString(string(p))
			}
			result = append(result, sb.String())
			return
		}
		for i := start; i < len(order); i++ {
			code := order[i]
			if used[code] >= cat.Supply(code) {
				continue
			}
			excl := cat.Exclusive(code)
			if excl && exclusive > 0 {
				continue
			}
			used[code]++
			if excl {
				exclusive++
			}
			picks = append(picks, code)
			dfs(i)
			picks = picks[:len(picks)-1]
			if excl {
				exclusive--
			}
			used[code]--
		}
	}
	dfs(0)
	return result
}

// ComboPresets returns the cached presets for the engine's slot count.
func (e *Engine) ComboPresets() []string {
	e.comboOnce.Do(func() {
		e.combos = EnumerateCombos(e.cat, e.rules.ComboSlots)
	})
	return append([]string(nil), e.combos...)
}

// ComboSummary describes a history in combo notation.
type ComboSummary struct {
	Notation string `json:"notation"`
	// JointProbability is the chance of this exact sequence of draws.
	JointProbability float64 `json:"jointProbability"`
}

// Summarize renders acquired as combo notation, with the inheritance option
// moved last, and multiplies the per-draw probabilities.
func Summarize(acquired []Acquisition) ComboSummary {
	if len(acquired) == 0 {
		return ComboSummary{}
	}
	prob := 1.0
	ordered := make([]catalog.Option, len(acquired))
	for i, a := range acquired {
		if a.PoolSize > 0 {
			prob /= float64(a.PoolSize)
		}
		ordered[i] = a.Option
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Category != catalog.CategoryInheritance &&
			ordered[j].Category == catalog.CategoryInheritance
	})
	var sb strings.Builder
	for _, o := range ordered {
		if o.Code == "" {
			sb.WriteString(UncodedMark)
			continue
		}
		sb.WriteString(string(o.Code))
	}
	return ComboSummary{Notation: sb.String(), JointProbability: prob}
}
