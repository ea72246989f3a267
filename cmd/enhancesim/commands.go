package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xtding233/enhance-sim/internal/game"
	"github.com/xtding233/enhance-sim/internal/service"
)

type app struct {
	rulesDir string
	profile  string
	seed     uint64
	noColor  bool

	svc *service.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "enhancesim",
		Short: "Ship enhancement probability simulator",
		Long: `Simulates the option draws a ship receives at enhancement milestones:
the eligible pool, single runs, repeated attempts until a target build
appears, and Monte Carlo predictions over filter strategies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.noColor {
				color.NoColor = true
			}
			svc, err := service.New(game.NewLoader(a.rulesDir), a.profile, service.Options{})
			if err != nil {
				return err
			}
			a.svc = svc
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.svc != nil {
				a.svc.Close()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.rulesDir, "rules-dir", "", "Directory holding profiles/*.yaml (embedded default when empty)")
	pf.StringVarP(&a.profile, "profile", "p", game.DefaultProfile, "Rules profile")
	pf.Uint64Var(&a.seed, "seed", 0, "Seed for reproducible draws")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.presetsCmd(),
		a.poolCmd(),
		a.runCmd(),
		a.autoCmd(),
		a.predictCmd(),
		a.rankCmd(),
	)
	return root
}

// seedFor returns the --seed value only when the user set it.
func (a *app) seedFor(cmd *cobra.Command) *uint64 {
	if !cmd.Flags().Changed("seed") {
		return nil
	}
	s := a.seed
	return &s
}

type filterFlags struct {
	shipClass   string
	bow         bool
	side        bool
	stern       bool
	remodel     bool
	inheritance bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.shipClass, "ship", "", "Ship class: sail or galley")
	fs.BoolVar(&f.bow, "bow", false, "Allow bow cannon options")
	fs.BoolVar(&f.side, "side", false, "Allow side cannon options")
	fs.BoolVar(&f.stern, "stern", false, "Allow stern cannon options")
	fs.BoolVar(&f.remodel, "remodel", false, "Allow remodel options")
	fs.BoolVar(&f.inheritance, "inheritance", true, "Allow skill inheritance")
}

// input keeps profile defaults for every flag the user did not set.
func (f *filterFlags) input(cmd *cobra.Command) service.FilterInput {
	var in service.FilterInput
	fs := cmd.Flags()
	if fs.Changed("ship") {
		in.ShipClass = &f.shipClass
	}
	bools := []struct {
		name string
		val  *bool
		dst  **bool
	}{
		{"bow", &f.bow, &in.Bow},
		{"side", &f.side, &in.Side},
		{"stern", &f.stern, &in.Stern},
		{"remodel", &f.remodel, &in.Remodel},
		{"inheritance", &f.inheritance, &in.Inheritance},
	}
	for _, b := range bools {
		if fs.Changed(b.name) {
			*b.dst = b.val
		}
	}
	return in
}

type targetFlags struct {
	combo string
	ids   []int
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&t.combo, "target", "t", "", "Target combo in short codes, e.g. 가가승")
	cmd.Flags().IntSliceVar(&t.ids, "ids", nil, "Target option ids")
}

func (t *targetFlags) input() service.TargetInput {
	return service.TargetInput{Combo: t.combo, IDs: t.ids}
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the target combo presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printPresets(cmd.OutOrStdout(), a.svc.ComboPresets())
			return nil
		},
	}
}

func (a *app) poolCmd() *cobra.Command {
	var (
		filters  filterFlags
		acquired []int
	)
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show the options eligible for the next draw",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.svc.Pool(cmd.Context(), service.PoolRequest{
				Filters:  filters.input(cmd),
				Acquired: acquired,
			})
			if err != nil {
				return err
			}
			printPool(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().IntSliceVar(&acquired, "acquired", nil, "Option ids already acquired, in order")
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	var (
		filters filterFlags
		target  targetFlags
		fixed   []int
		stop    bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a single enhancement run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.svc.SimulateRun(cmd.Context(), service.RunRequest{
				Filters:           filters.input(cmd),
				Target:            target.input(),
				Fixed:             fixed,
				StopWhenTargetMet: stop,
				Seed:              a.seedFor(cmd),
			})
			if err != nil {
				return err
			}
			printRun(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	filters.register(cmd)
	target.register(cmd)
	cmd.Flags().IntSliceVar(&fixed, "fixed", nil, "Option ids the ship already carries")
	cmd.Flags().BoolVar(&stop, "stop", false, "Stop as soon as the target is met")
	return cmd
}

func (a *app) autoCmd() *cobra.Command {
	var (
		filters  filterFlags
		target   targetFlags
		fixed    []int
		attempts int
	)
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Repeat runs until the target appears",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := service.SearchRequest{
				Filters: filters.input(cmd),
				Target:  target.input(),
				Fixed:   fixed,
				Seed:    a.seedFor(cmd),
			}
			if cmd.Flags().Changed("attempts") {
				req.MaxAttempts = &attempts
			}
			job, err := a.svc.StartSearch(cmd.Context(), req)
			if err != nil {
				return err
			}
			id := job.ID
			job, err = a.svc.WaitSearch(cmd.Context(), id)
			if err != nil {
				// interrupted: report the partial attempt count
				if job, cerr := a.svc.CancelSearch(id); cerr == nil {
					printSearch(cmd.OutOrStdout(), job)
				}
				return err
			}
			printSearch(cmd.OutOrStdout(), job)
			return nil
		},
	}
	filters.register(cmd)
	target.register(cmd)
	cmd.Flags().IntSliceVar(&fixed, "fixed", nil, "Option ids the ship already carries")
	cmd.Flags().IntVar(&attempts, "attempts", 0, "Attempt budget (profile default when unset)")
	return cmd
}

type predictFlags struct {
	filters     filterFlags
	target      targetFlags
	fixed       []int
	trials      int
	attempts    int
	attemptCost float64
	retryCost   float64
}

func (p *predictFlags) register(cmd *cobra.Command) {
	p.filters.register(cmd)
	p.target.register(cmd)
	fs := cmd.Flags()
	fs.IntSliceVar(&p.fixed, "fixed", nil, "Option ids the ship already carries")
	fs.IntVar(&p.trials, "trials", 0, "Simulated trials (profile default when unset)")
	fs.IntVar(&p.attempts, "attempts", 0, "Attempt budget per trial (profile default when unset)")
	fs.Float64Var(&p.attemptCost, "attempt-cost", 0, "Cost of one enhancement session")
	fs.Float64Var(&p.retryCost, "retry-cost", 0, "Cost of one retry carrier")
}

func (p *predictFlags) request(cmd *cobra.Command, seed *uint64) service.PredictRequest {
	req := service.PredictRequest{
		Filters: p.filters.input(cmd),
		Target:  p.target.input(),
		Fixed:   p.fixed,
		Seed:    seed,
	}
	fs := cmd.Flags()
	if fs.Changed("trials") {
		req.Trials = &p.trials
	}
	if fs.Changed("attempts") {
		req.MaxAttempts = &p.attempts
	}
	if fs.Changed("attempt-cost") {
		req.AttemptCost = &p.attemptCost
	}
	if fs.Changed("retry-cost") {
		req.RetryCost = &p.retryCost
	}
	return req
}

func (a *app) predictCmd() *cobra.Command {
	var flags predictFlags
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Estimate attempts needed to reach the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.Predict(cmd.Context(), flags.request(cmd, a.seedFor(cmd)))
			if err != nil {
				return err
			}
			printPrediction(cmd.OutOrStdout(), p)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) rankCmd() *cobra.Command {
	var (
		flags  predictFlags
		metric string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank filter strategies by a prediction metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.svc.RankStrategies(cmd.Context(), service.RankRequest{
				PredictRequest: flags.request(cmd, a.seedFor(cmd)),
				Metric:         metric,
			})
			if err != nil {
				return err
			}
			printRanking(cmd.OutOrStdout(), r)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&metric, "metric", "m", "successRate", "Ranking metric")
	return cmd
}
