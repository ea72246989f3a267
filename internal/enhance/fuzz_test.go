package enhance

import (
	"testing"

	"github.com/xtding233/enhance-sim/internal/catalog"
)

// FuzzRunInvariants drives random runs and checks the pool rules hold on every draw.
func FuzzRunInvariants(f *testing.F) {
	f.Add(uint64(1), uint8(0))
	f.Add(uint64(42), uint8(0x1f))
	f.Add(uint64(7), uint8(0x2a))

	e := newTestEngine()
	f.Fuzz(func(t *testing.T, seed uint64, mask uint8) {
		filters := Filters{
			ShipClass:   catalog.ShipSail,
			Bow:         mask&1 != 0,
			Side:        mask&2 != 0,
			Stern:       mask&4 != 0,
			Remodel:     mask&8 != 0,
			Inheritance: mask&16 != 0,
		}
		if mask&32 != 0 {
			filters.ShipClass = catalog.ShipGalley
		}
		r := e.SimulateRun(RunConfig{Filters: filters}, NewSeededRNG(seed))

		seen := map[catalog.OptionID]bool{}
		for i, a := range r.Acquisitions {
			if seen[a.Option.ID] {
				t.Fatalf("option %d drawn twice", a.Option.ID)
			}
			if a.Option.Requires != 0 && !seen[a.Option.Requires] {
				t.Fatalf("option %d drawn before its prerequisite", a.Option.ID)
			}
			if !categoryEnabled(a.Option.Category, filters) {
				t.Fatalf("option %d drawn from a disabled category", a.Option.ID)
			}
			if a.Option.Class != catalog.ShipAny && a.Option.Class != filters.ShipClass {
				t.Fatalf("option %d drawn for the wrong ship class", a.Option.ID)
			}
			pool := e.Pool(r.Acquisitions[:i], filters)
			if a.PoolSize != len(pool) {
				t.Fatalf("recorded pool size %d, actual %d", a.PoolSize, len(pool))
			}
			seen[a.Option.ID] = true
		}
	})
}
