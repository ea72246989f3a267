package enhance

import "github.com/xtding233/enhance-sim/internal/catalog"

// ChainState is the status of a progression line.
type ChainState string

const (
	ChainDone    ChainState = "done"    // every tier acquired
	ChainNext    ChainState = "next"    // the pending tier can drop on the next draw
	ChainWaiting ChainState = "waiting" // the pending tier is gated or filtered out
)

// ChainStep is the pending tier of one line.
type ChainStep struct {
	Line        string         `json:"line"`
	Tier        int            `json:"tier"`
	Option      catalog.Option `json:"option"`
	State       ChainState     `json:"state"`
	Probability float64        `json:"probability"`
}

// ChainProgress reports, for every line in the catalog, the first tier not yet
// acquired and its chance on the next draw.
func (e *Engine) ChainProgress(acquired []Acquisition, filters Filters) []ChainStep {
	pool := e.Pool(acquired, filters)
	eligible := make(map[catalog.OptionID]bool, len(pool))
	for _, o := range pool {
		eligible[o.ID] = true
	}
	used := make(map[catalog.OptionID]bool, len(acquired))
	for _, a := range acquired {
		used[a.Option.ID] = true
	}

	var steps []ChainStep
	for _, line := range e.cat.Lines() {
		tiers := e.cat.LineTiers(line)
		if len(tiers) == 0 {
			continue
		}
		step := ChainStep{Line: line, Tier: len(tiers), Option: tiers[len(tiers)-1], State: ChainDone}
		for i, o := range tiers {
			if used[o.ID] {
				continue
			}
			step.Tier, step.Option, step.State = i+1, o, ChainWaiting
			if eligible[o.ID] {
				step.State = ChainNext
				step.Probability = 1 / float64(len(pool))
			}
			break
		}
		steps = append(steps, step)
	}
	return steps
}
