package game

import (
	"fmt"
	"math"
	"strings"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

// ValidateRaw checks semantic constraints of a RawProfile.
func ValidateRaw(cfg RawProfile) error {
	var errs []string

	// rules
	maxGrade := 0
	if cfg.Rules.MaxGrade != nil {
		maxGrade = *cfg.Rules.MaxGrade
		if maxGrade < 1 {
			errs = append(errs, "rules.max_grade must be >= 1")
		}
	}
	seen := map[int]bool{}
	for i, m := range cfg.Rules.Milestones {
		if m < 1 {
			errs = append(errs, fmt.Sprintf("rules.milestones[%d] must be >= 1", i))
		}
		if maxGrade > 0 && m > maxGrade {
			errs = append(errs, fmt.Sprintf("rules.milestones[%d] must be <= max_grade", i))
		}
		if seen[m] {
			errs = append(errs, fmt.Sprintf("rules.milestones[%d] duplicates grade %d", i, m))
		}
		seen[m] = true
	}
	if cfg.Rules.SessionMaxGrade != nil {
		s := *cfg.Rules.SessionMaxGrade
		if s < 1 || (maxGrade > 0 && s > maxGrade) {
			errs = append(errs, "rules.session_max_grade must satisfy 1 <= session_max_grade <= max_grade")
		}
	}
	if cfg.Rules.ComboSlots != nil && (*cfg.Rules.ComboSlots < 1 || *cfg.Rules.ComboSlots > 8) {
		errs = append(errs, "rules.combo_slots must be in [1,8]")
	}

	// limits
	if cfg.Limits != nil {
		errs = append(errs, validateRange("limits.trials", cfg.Limits.Trials, 1)...)
		errs = append(errs, validateRange("limits.attempts", cfg.Limits.Attempts, 1)...)
		errs = append(errs, validateRange("limits.cost", cfg.Limits.Cost, 0)...)
	}

	// filters
	if cfg.Filters != nil {
		switch catalog.ShipClass(cfg.Filters.ShipClass) {
		case catalog.ShipAny, catalog.ShipSail, catalog.ShipGalley:
		default:
			errs = append(errs, "filters.ship_class must be one of: sail, galley")
		}
	}

	// cost (optional)
	if cfg.Cost != nil {
		if !finite(cfg.Cost.Attempt) {
			errs = append(errs, "cost.attempt must be a finite number")
		} else if cfg.Cost.Attempt != nil && *cfg.Cost.Attempt < 0 {
			errs = append(errs, "cost.attempt must be >= 0")
		}
		if !finite(cfg.Cost.Retry) {
			errs = append(errs, "cost.retry must be a finite number")
		} else if cfg.Cost.Retry != nil && *cfg.Cost.Retry < 0 {
			errs = append(errs, "cost.retry must be >= 0")
		}
	}

	if cfg.Search != nil && cfg.Search.BatchSize != nil && *cfg.Search.BatchSize < 1 {
		errs = append(errs, "search.batch_size must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(errs, "; "))
	}
	return nil
}

func validateRange(name string, r *Range, floor float64) []string {
	if r == nil {
		return nil
	}
	if !finite(r.Min) || !finite(r.Max) || !finite(r.Default) {
		return []string{name + " bounds must be finite numbers"}
	}
	var errs []string
	if r.Min != nil && *r.Min < floor {
		errs = append(errs, fmt.Sprintf("%s.min must be >= %v", name, floor))
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		errs = append(errs, name+".min must be <= max")
	}
	if r.Default != nil {
		if (r.Min != nil && *r.Default < *r.Min) || (r.Max != nil && *r.Default > *r.Max) {
			errs = append(errs, name+".default must lie within [min,max]")
		}
	}
	return errs
}

// finite reports whether v is unset or a finite number.
func finite(v *float64) bool {
	return v == nil || !(math.IsNaN(*v) || math.IsInf(*v, 0))
}
