package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodytree/internal/optim"
)

var (
	sweepThetas []float64
	sweepDepths []int
	errorBudget float64
)

func sweepParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := loadSystem(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	probe, err := optim.NewProbe(sys, cfg.WorldSize, cfg.Params())
	if err != nil {
		return err
	}

	depths := make([]float64, len(sweepDepths))
	for i, d := range sweepDepths {
		depths[i] = float64(d)
	}
	g := optim.NewGridSearch(
		[]string{optim.ParamTheta, optim.ParamDepth},
		[][]float64{sweepThetas, depths},
	)

	trials, best, err := g.Search(ctx, probe.Objective(errorBudget))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THETA\tDEPTH\tCOST µs\tRESULT")
	for _, t := range trials {
		result := "ok"
		if t.Err != nil {
			result = t.Err.Error()
		}
		fmt.Fprintf(w, "%.2f\t%.0f\t%.0f\t%s\n", t.Params[optim.ParamTheta], t.Params[optim.ParamDepth], t.Value, result)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"theta": best.Params[optim.ParamTheta],
		"depth": best.Params[optim.ParamDepth],
		"cost":  best.Value,
	}).Info("cheapest setting within budget")
	return nil
}
