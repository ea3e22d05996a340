package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodytree/internal/config"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/sim"
	"github.com/san-kum/nbodytree/internal/storage"
	"github.com/san-kum/nbodytree/internal/viz"
)

var (
	ensemble int
	noSave   bool
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	systems := make([]*sim.System, max(ensemble, 1))
	configs := make([]*config.Config, len(systems))
	for i := range systems {
		c := *cfg
		c.Seed = cfg.Seed + int64(i)
		if systems[i], err = loadSystem(&c); err != nil {
			return err
		}
		configs[i] = &c
	}

	var results []*sim.Result
	var runErr error
	if len(systems) == 1 {
		s, err := newSimulator(cfg)
		if err != nil {
			return err
		}
		var r *sim.Result
		r, runErr = s.Run(ctx, systems[0], cfg.SimConfig())
		results = []*sim.Result{r}
	} else {
		ens := sim.NewEnsemble(func() (*sim.Simulator, error) {
			return newSimulator(cfg)
		})
		results, runErr = ens.Run(ctx, systems, cfg.SimConfig())
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		var se *sim.SimulationError
		if !errors.As(runErr, &se) {
			return runErr
		}
		log.WithError(runErr).Warn("run stopped early")
	}

	st := storage.New(dataDir)
	if !noSave {
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tDRIFT\tMOMENTUM\tCONTAINED\tELAPSED\tRUN")
	for i, r := range results {
		if r == nil {
			continue
		}
		id := "-"
		if !noSave {
			if id, err = saveRun(st, configs[i], r); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "%d\t%d/%d\t%+.3e\t%.3e\t%.2f\t%v\t%s\n",
			configs[i].Seed, r.StepsTaken, cfg.Steps, r.EnergyDrift,
			r.Metrics["momentum_drift"], r.Metrics["containment"], r.Elapsed, id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func saveRun(st *storage.Store, cfg *config.Config, r *sim.Result) (string, error) {
	meta := storage.RunMetadata{
		Scenario:   cfg.Scenario,
		Seed:       cfg.Seed,
		Bodies:     cfg.Bodies,
		WorldSize:  cfg.WorldSize,
		Dt:         cfg.Dt,
		Steps:      cfg.Steps,
		Integrator: cfg.Integrator,
		Backend:    cfg.Backend,
		MaxDepth:   cfg.Tree.MaxDepth,
		Theta:      cfg.Tree.Theta,
		G:          cfg.Physics.G,
		Softening:  cfg.Physics.Softening,
	}
	id, err := st.Save(meta, r)
	if err != nil {
		return "", err
	}

	l, err := cfg.Layout()
	if err != nil {
		return "", err
	}
	tree, err := octree.NewBuilder(cfg.BuilderOptions()...).Build(r.Final.Positions, r.Final.Masses, cfg.WorldSize)
	if err != nil {
		return "", fmt.Errorf("final tree: %w", err)
	}
	if err := st.SaveTree(id, tree, l); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"run": id, "nodes": tree.Len()}).Info("saved run")
	return id, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tDEPTH\tINTEG\tBACKEND\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%d\t%s\t%s\t%+.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Bodies,
			run.StepsTaken, run.Steps,
			run.MaxDepth,
			run.Integrator,
			run.Backend,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	steps, err := st.LoadSteps(args[0])
	if err != nil {
		return err
	}
	if len(steps) < 2 {
		return fmt.Errorf("run %s has %d steps, nothing to plot", meta.ID, len(steps))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s, %d bodies, depth cap %d\n", meta.Scenario, meta.Bodies, meta.MaxDepth)
	fmt.Printf("samples: %d\n\n", len(steps))

	series := []struct {
		caption string
		value   func(sim.StepStats) float64
	}{
		{"tree nodes", func(s sim.StepStats) float64 { return float64(s.Nodes) }},
		{"max depth", func(s sim.StepStats) float64 { return float64(s.MaxDepth) }},
		{"overflow bodies", func(s sim.StepStats) float64 { return float64(s.OverflowBodies) }},
		{"build µs", func(s sim.StepStats) float64 { return float64(s.BuildTime.Microseconds()) }},
		{"force µs", func(s sim.StepStats) float64 { return float64(s.ForceTime.Microseconds()) }},
	}

	for _, ser := range series {
		data := make([]float64, len(steps))
		for i, s := range steps {
			data[i] = ser.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ser.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := loadSystem(cfg)
	if err != nil {
		return err
	}
	s, err := newSimulator(cfg)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	log.SetLevel(log.ErrorLevel)

	m := viz.NewLiveModel(s, sys, cfg.SimConfig())
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSCENARIO\tBODIES\tDEPTH\tTHETA\tINTEG\tSTEPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%s\t%d\n",
			name, p.Scenario, p.Bodies, p.Tree.MaxDepth, p.Tree.Theta, p.Integrator, p.Steps)
	}
	return w.Flush()
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path := "nbodytree.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	log.WithField("file", path).Info("wrote config")
	return nil
}
