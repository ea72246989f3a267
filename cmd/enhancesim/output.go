package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/service"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	failColor    = color.New(color.FgRed)
	infoColor    = color.New(color.FgYellow)
)

func printPresets(w io.Writer, presets []string) {
	titleColor.Fprintf(w, "Combo presets (%d)\n", len(presets))
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"#", "Preset"}))
	for i, p := range presets {
		table.Append([]string{strconv.Itoa(i + 1), p})
	}
	table.Render()
}

func printPool(w io.Writer, resp service.PoolResponse) {
	titleColor.Fprintf(w, "Eligible options: %d\n", resp.Size)
	if resp.Size == 0 {
		infoColor.Fprintln(w, "Nothing left to draw.")
		return
	}
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"ID", "Option", "Code", "Category", "Chance"}))
	chance := 1 / float64(resp.Size)
	for _, o := range resp.Pool {
		table.Append([]string{
			strconv.Itoa(int(o.ID)),
			o.Name,
			string(o.Code),
			string(o.Category),
			percent(chance),
		})
	}
	table.Render()

	if len(resp.Chains) == 0 {
		return
	}
	fmt.Fprintln(w)
	titleColor.Fprintln(w, "Chains")
	chains := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Line", "Tier", "Next option", "State", "Chance"}))
	for _, c := range resp.Chains {
		chains.Append([]string{
			c.Line,
			strconv.Itoa(c.Tier),
			c.Option.Name,
			string(c.State),
			percent(c.Probability),
		})
	}
	chains.Render()
}

func printAcquisitions(w io.Writer, acquisitions []enhance.Acquisition) {
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Grade", "ID", "Option", "Code", "Pool", "Chance"}))
	for _, a := range acquisitions {
		table.Append([]string{
			strconv.Itoa(a.Milestone),
			strconv.Itoa(int(a.Option.ID)),
			a.Option.Name,
			string(a.Option.Code),
			strconv.Itoa(a.PoolSize),
			percent(1 / float64(a.PoolSize)),
		})
	}
	table.Render()
}

func printRun(w io.Writer, resp service.RunResponse) {
	titleColor.Fprintf(w, "Run finished at grade %d\n", resp.Run.FinalGrade)
	printAcquisitions(w, resp.Run.Acquisitions)
	fmt.Fprintf(w, "Combo: %s (probability %s)\n", orDash(resp.Summary.Notation), scientific(resp.Summary.JointProbability))
	if resp.Run.TargetMatched {
		successColor.Fprintln(w, "✓ Target matched")
	} else {
		failColor.Fprintln(w, "✗ Target not matched")
	}
}

func printSearch(w io.Writer, job service.SearchJob) {
	titleColor.Fprintf(w, "Search %s: %s\n", job.Target, job.Status)
	r := job.Result
	if r == nil {
		fmt.Fprintf(w, "Attempts so far: %d / %d\n", job.Done, job.MaxAttempts)
		return
	}
	fmt.Fprintf(w, "Attempts: %d / %d\n", r.AttemptCount, r.MaxAttempts)
	switch {
	case r.Success:
		successColor.Fprintf(w, "✓ Target found on attempt %d\n", r.AttemptCount)
		printAcquisitions(w, r.Run.Acquisitions)
	case r.Status == enhance.StatusStopped:
		infoColor.Fprintln(w, "Search stopped before the target appeared.")
	default:
		failColor.Fprintln(w, "✗ Attempt budget exhausted")
		if r.LastRun != nil {
			fmt.Fprintln(w, "Last run:")
			printAcquisitions(w, r.LastRun.Acquisitions)
		}
	}
}

func printPrediction(w io.Writer, p enhance.Prediction) {
	titleColor.Fprintf(w, "Prediction for %s\n", orDash(p.Target.String()))
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Metric", "Value"}))
	table.Append([]string{"Trials", fmt.Sprintf("%d / %d", p.CompletedTrials, p.Trials)})
	table.Append([]string{"Attempt budget", strconv.Itoa(p.MaxAttempts)})
	table.Append([]string{"Success rate", percent(p.SuccessRate)})
	table.Append([]string{"Successes", strconv.Itoa(p.SuccessCount)})
	table.Append([]string{"Average attempts", floatPtr(p.AverageAttempts)})
	table.Append([]string{"Average attempts (success)", floatPtr(p.AverageAttemptsOnSuccess)})
	table.Append([]string{"P50 attempts", intPtr(p.P50Attempts)})
	table.Append([]string{"P90 attempts", intPtr(p.P90Attempts)})
	table.Append([]string{"P95 attempts", intPtr(p.P95Attempts)})
	table.Append([]string{"Expected cost", decimalPtr(p.ExpectedCost)})
	table.Render()
	if p.Stopped {
		infoColor.Fprintln(w, "Stopped early; statistics cover completed trials only.")
	}
}

func printRanking(w io.Writer, r enhance.Ranking) {
	titleColor.Fprintf(w, "Strategies ranked by %s\n", r.Metric)
	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{
		"#", "Strategy", "Success", "Avg", "P50", "P90", "P95", "Cost",
	}))
	for i, e := range r.Ranked {
		p := e.Prediction
		table.Append([]string{
			strconv.Itoa(i + 1),
			e.Name,
			percent(p.SuccessRate),
			floatPtr(p.AverageAttempts),
			intPtr(p.P50Attempts),
			intPtr(p.P90Attempts),
			intPtr(p.P95Attempts),
			decimalPtr(p.ExpectedCost),
		})
	}
	table.Render()
	if r.Best != nil {
		successColor.Fprintf(w, "Best: %s\n", r.Best.Name)
	}
}

func percent(v float64) string { return strconv.FormatFloat(v*100, 'f', 2, 64) + "%" }

func scientific(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%.3g (1 in %.0f)", v, 1/v)
}

func floatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func intPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func decimalPtr(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return v.StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
