package enhance

import (
	"testing"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

func TestTargetSatisfiedBy(t *testing.T) {
	history := acquire(t, catalog.Accel1, catalog.Accel2, catalog.SkillInheritance)
	cases := []struct {
		name   string
		target Target
		want   bool
	}{
		{"empty", Target{}, true},
		{"id present", NewTarget([]catalog.OptionID{catalog.SkillInheritance}, nil), true},
		{"id missing", NewTarget([]catalog.OptionID{catalog.SkillSlot1}, nil), false},
		{"code count met", NewTarget(nil, map[catalog.ShortCode]int{catalog.CodeAccel: 2}), true},
		{"code count short", NewTarget(nil, map[catalog.ShortCode]int{catalog.CodeAccel: 3}), false},
		{"ids and codes", NewTarget([]catalog.OptionID{catalog.Accel2}, map[catalog.ShortCode]int{catalog.CodeInherit: 1}), true},
		{"code not acquired", NewTarget(nil, map[catalog.ShortCode]int{catalog.CodeSkill: 1}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.target.SatisfiedBy(history); got != tc.want {
				t.Fatalf("SatisfiedBy = %v, want %v", got, tc.want)
			}
		})
	}
	if !NewTarget(nil, nil).SatisfiedBy(nil) {
		t.Fatalf("empty target must be satisfied by an empty history")
	}
}

func TestNewTargetNormalizes(t *testing.T) {
	tg := NewTarget([]catalog.OptionID{6, 6, 8}, map[catalog.ShortCode]int{"": 2, catalog.CodeAccel: 0, catalog.CodeSkill: 1})
	if len(tg.IDs) != 2 {
		t.Fatalf("ids not deduped: %v", tg.IDs)
	}
	if len(tg.Codes) != 1 || tg.Codes[catalog.CodeSkill] != 1 {
		t.Fatalf("codes not cleaned: %v", tg.Codes)
	}
	if got := tg.String(); got != "#6 #8 스" {
		t.Fatalf("String() = %q", got)
	}
}

func TestParseCombo(t *testing.T) {
	tg := ParseCombo(catalog.Default(), "가가승x")
	if tg.Codes[catalog.CodeAccel] != 2 || tg.Codes[catalog.CodeInherit] != 1 || len(tg.Codes) != 2 {
		t.Fatalf("unexpected codes %v", tg.Codes)
	}
	if !ParseCombo(catalog.Default(), "").Empty() {
		t.Fatalf("blank combo must give an empty target")
	}
}
