package enhance

import (
	"errors"
	"testing"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

func TestSessionEnhanceToCap(t *testing.T) {
	e := newTestEngine()
	s := e.NewSession(DefaultFilters(), NewSeededRNG(4))

	for i, grade := range []int{1, 3, 6} {
		step := s.Enhance()
		if step.Grade != grade || step.Draw == nil {
			t.Fatalf("step %d: %+v", i, step)
		}
		if step.Complete != (grade == 6) {
			t.Fatalf("step %d: complete = %v", i, step.Complete)
		}
	}
	if s.CanEnhance() {
		t.Fatalf("session must stop at grade 6")
	}
	step := s.Enhance()
	if !step.Complete || step.Draw != nil || step.Grade != 6 {
		t.Fatalf("enhance past the cap: %+v", step)
	}
	if len(s.Acquired) != 3 {
		t.Fatalf("want 3 acquisitions, got %d", len(s.Acquired))
	}
	if got := s.Summary(); len([]rune(got.Notation)) != 3 || got.JointProbability <= 0 {
		t.Fatalf("summary: %+v", got)
	}
}

func TestSessionCarrierAndReset(t *testing.T) {
	e := newTestEngine()
	s := e.NewSession(DefaultFilters(), NewSeededRNG(8))
	s.Enhance()
	s.Enhance()
	s.UseCarrier()
	s.UseCarrier()
	if s.Carriers != 2 || s.Grade != 0 || len(s.Acquired) != 0 {
		t.Fatalf("after carriers: %+v", s)
	}
	if len(s.Pool()) != 12 {
		t.Fatalf("pool must be back to the full default pool")
	}
	s.Enhance()
	s.Reset()
	if s.Carriers != 0 || s.Grade != 0 || len(s.Acquired) != 0 {
		t.Fatalf("after reset: %+v", s)
	}
}

func TestSessionFix(t *testing.T) {
	e := newTestEngine()
	s := e.NewSession(DefaultFilters(), NewSeededRNG(1))

	if err := s.Fix(catalog.Accel1); err != nil {
		t.Fatal(err)
	}
	if err := s.Fix(catalog.Accel1); !errors.Is(err, ErrDuplicateFixed) {
		t.Fatalf("duplicate fix: %v", err)
	}
	if err := s.Fix(99); !errors.Is(err, ErrUnknownOption) {
		t.Fatalf("unknown option: %v", err)
	}
	if err := s.Fix(catalog.SkillSlot1); err != nil {
		t.Fatal(err)
	}
	if s.Grade != 3 || s.Fixed != 2 || s.Acquired[1].PoolSize != 1 {
		t.Fatalf("after two fixes: %+v", s)
	}

	lines := stepsByLine(s.Chains())
	if lines[catalog.LineAccel].Option.ID != catalog.Accel2 {
		t.Fatalf("fixed options must advance chains")
	}

	step := s.Enhance()
	if step.Grade != 6 || !step.Complete {
		t.Fatalf("enhance after fixes: %+v", step)
	}
	if err := s.Fix(catalog.SkillInheritance); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("fix after enhance: %v", err)
	}

	s.UseCarrier()
	if s.Fixed != 0 {
		t.Fatalf("carrier must drop fixed options")
	}
	if err := s.Fix(catalog.SkillInheritance); err != nil {
		t.Fatalf("fix after carrier: %v", err)
	}
}

func TestSessionFixLimits(t *testing.T) {
	e := newTestEngine()
	s := e.NewSession(DefaultFilters(), NewSeededRNG(1))
	if err := s.Fix(23); !errors.Is(err, ErrUncodedFixed) {
		t.Fatalf("uncoded option: %v", err)
	}
	for _, id := range []catalog.OptionID{catalog.Accel1, catalog.SkillSlot1} {
		if err := s.Fix(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Fix(catalog.SkillInheritance); !errors.Is(err, ErrFixedLimit) {
		t.Fatalf("third fix: %v", err)
	}
	if s.Fixed != 2 || !s.CanEnhance() {
		t.Fatalf("the last milestone must stay drawable: %+v", s)
	}
}

func TestSessionFixRunsOutOfMilestones(t *testing.T) {
	// a session cap of 2 leaves only milestone 1 for manual play
	e := NewEngine(catalog.Default(), Rules{SessionMaxGrade: 2})
	s := e.NewSession(DefaultFilters(), NewSeededRNG(1))
	if err := s.Fix(catalog.Accel1); err != nil {
		t.Fatal(err)
	}
	if err := s.Fix(catalog.SkillSlot1); !errors.Is(err, ErrNoMilestone) {
		t.Fatalf("second fix: %v", err)
	}
	if s.CanEnhance() {
		t.Fatalf("no milestone left under the cap")
	}
}
