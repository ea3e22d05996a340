package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/config"
	"github.com/san-kum/nbodytree/internal/integrators"
	"github.com/san-kum/nbodytree/internal/metrics"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/scenario"
	"github.com/san-kum/nbodytree/internal/sim"
)

var (
	dataDir    string
	configFile string
	verbose    bool

	preset      string
	scenarioArg string
	inputFile   string
	numBodies   int
	seed        int64
	worldSize   float32
	maxDepth    int
	theta       float32
	layoutName  string
	dt          float32
	steps       int
	integrator  string
	backendName string
	gravity     float32
	softening   float32
	workers     int
	validate    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodytree",
		Short:         "Barnes-Hut octree builder and n-body lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodytree", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "build one octree and print its shape",
		Args:  cobra.NoArgs,
		RunE:  buildTree,
	}
	addSimFlags(buildCmd)
	buildCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the encoded node buffer to this file")
	buildCmd.Flags().BoolVar(&jsonOut, "json", false, "print the tree as json")
	buildCmd.Flags().BoolVar(&upload, "upload", false, "upload the buffer to an OpenGL SSBO")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate and save a run",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of runs with consecutive seeds")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-step tree stats of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	decodeCmd := &cobra.Command{
		Use:   "decode [run_id|file]",
		Short: "read back an encoded node buffer",
		Args:  cobra.ExactArgs(1),
		RunE:  decodeTree,
	}
	decodeCmd.Flags().StringVar(&layoutName, "layout", "wgsl", "buffer layout when decoding a file")
	decodeCmd.Flags().Float32Var(&worldSize, "world", config.DefaultWorldSize, "world size when decoding a file")
	decodeCmd.Flags().IntVar(&limit, "limit", 32, "nodes to print (0 for all)")
	decodeCmd.Flags().BoolVar(&jsonOut, "json", false, "print the tree as json")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time tree builds across body counts",
		Args:  cobra.NoArgs,
		RunE:  benchBuild,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{1000, 10000, 100000}, "body counts")
	benchCmd.Flags().IntVar(&benchReps, "reps", 5, "builds per size")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	svgCmd := &cobra.Command{
		Use:   "svg",
		Short: "draw an octree as svg",
		Args:  cobra.NoArgs,
		RunE:  drawSVG,
	}
	addSimFlags(svgCmd)
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().StringVar(&runID, "run", "", "draw the tree saved with this run")
	svgCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy, xz, yz, 3d)")
	svgCmd.Flags().IntVar(&svgSize, "size", 800, "image size in pixels")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "search theta and depth cap for the cheapest setting within an error budget",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepThetas, "thetas", []float64{0.3, 0.5, 0.7, 1.0}, "opening angles to try")
	sweepCmd.Flags().IntSliceVar(&sweepDepths, "depths", []int{8, 12, 16}, "depth caps to try")
	sweepCmd.Flags().Float64Var(&errorBudget, "budget", 0.01, "largest mean relative force error")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list config presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective config as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  dumpConfig,
	}
	addSimFlags(configCmd)

	rootCmd.AddCommand(buildCmd, runCmd, listCmd, plotCmd, decodeCmd, benchCmd, liveCmd, svgCmd, sweepCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "start from a preset")
	f.StringVar(&scenarioArg, "scenario", config.DefaultScenario, "initial conditions")
	f.StringVar(&inputFile, "input", "", "load bodies from csv instead of a scenario")
	f.IntVarP(&numBodies, "bodies", "n", config.DefaultBodies, "number of bodies")
	f.Int64Var(&seed, "seed", 1, "random seed")
	f.Float32Var(&worldSize, "world", config.DefaultWorldSize, "world cube edge")
	f.IntVar(&maxDepth, "depth", octree.DefaultMaxDepth, "depth cap (-1 for unbounded)")
	f.Float32Var(&theta, "theta", config.DefaultTheta, "opening angle")
	f.StringVar(&layoutName, "layout", "wgsl", "buffer layout")
	f.Float32Var(&dt, "dt", config.DefaultDt, "timestep")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	f.StringVar(&backendName, "backend", config.DefaultBackend, "force backend")
	f.Float32Var(&gravity, "g", config.DefaultG, "gravitational constant")
	f.Float32Var(&softening, "softening", config.DefaultSoftening, "softening length")
	f.IntVar(&workers, "workers", 0, "force workers (0 for one per cpu)")
	f.BoolVar(&validate, "validate", false, "check every built tree")
}

// loadConfig layers defaults, a preset or config file, and the flags the user
// actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case preset != "":
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	f := cmd.Flags()
	if f.Changed("scenario") {
		cfg.Scenario = scenarioArg
	}
	if f.Changed("input") {
		cfg.Input = inputFile
	}
	if f.Changed("bodies") {
		cfg.Bodies = numBodies
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("world") {
		cfg.WorldSize = worldSize
	}
	if f.Changed("depth") {
		cfg.Tree.MaxDepth = maxDepth
	}
	if f.Changed("theta") {
		cfg.Tree.Theta = theta
	}
	if f.Changed("layout") {
		cfg.Tree.Layout = layoutName
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("backend") {
		cfg.Backend = backendName
	}
	if f.Changed("g") {
		cfg.Physics.G = gravity
	}
	if f.Changed("softening") {
		cfg.Physics.Softening = softening
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("validate") {
		cfg.Checks.ValidateTree = validate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"scenario": cfg.Scenario,
		"bodies":   cfg.Bodies,
		"depth":    cfg.Tree.MaxDepth,
		"theta":    cfg.Tree.Theta,
	}).Debug("config loaded")
	return cfg, nil
}

func loadSystem(cfg *config.Config) (*sim.System, error) {
	if cfg.Input != "" {
		sys, err := scenario.LoadCSV(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.Input, err)
		}
		cfg.Bodies = sys.Len()
		return sys, nil
	}
	return scenario.Generate(cfg.Scenario, cfg.Bodies, cfg.WorldSize, cfg.Seed, scenario.WithG(cfg.Physics.G))
}

func newSimulator(cfg *config.Config) (*sim.Simulator, error) {
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	backend, err := compute.ByName(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if !backend.Available() {
		return nil, fmt.Errorf("%s: %w", backend.Name(), compute.ErrUnavailable)
	}

	s := sim.New(backend, integ,
		sim.WithBuilder(octree.NewBuilder(cfg.BuilderOptions()...)),
		sim.WithLogger(log.StandardLogger()),
	)
	s.AddMetric(metrics.NewEnergyDrift(cfg.Physics.G, cfg.Physics.Softening))
	s.AddMetric(metrics.NewMomentum())
	s.AddMetric(metrics.NewContainment(cfg.WorldSize))
	return s, nil
}
