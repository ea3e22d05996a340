package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodytree/internal/compute"
	"github.com/san-kum/nbodytree/internal/layout"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/scenario"
	"github.com/san-kum/nbodytree/internal/storage"
	"github.com/san-kum/nbodytree/internal/viz"
)

var (
	outFile    string
	jsonOut    bool
	upload     bool
	limit      int
	runID      string
	plane      string
	svgSize    int
	benchSizes []int
	benchReps  int
)

func buildTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sys, err := loadSystem(cfg)
	if err != nil {
		return err
	}
	l, err := cfg.Layout()
	if err != nil {
		return err
	}

	start := time.Now()
	tree, err := octree.NewBuilder(cfg.BuilderOptions()...).Build(sys.Positions, sys.Masses, cfg.WorldSize)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if cfg.Checks.ValidateTree {
		if err := tree.Validate(sys.Positions, sys.Masses, 1e-3); err != nil {
			return fmt.Errorf("tree failed validation: %w", err)
		}
		log.Info("tree valid")
	}

	if jsonOut {
		return storage.ExportJSON(os.Stdout, tree)
	}
	if err := printStats(tree, elapsed, l); err != nil {
		return err
	}

	if outFile != "" {
		buf := layout.Encode(tree.Nodes, l)
		if err := os.WriteFile(outFile, buf, 0644); err != nil {
			return err
		}
		log.WithFields(log.Fields{"file": outFile, "layout": l.Name, "bytes": len(buf)}).Info("wrote node buffer")
	}

	if upload {
		u := compute.NewGLUploader(0, l)
		if err := u.Init(); err != nil {
			return fmt.Errorf("opengl: %w", err)
		}
		defer u.Cleanup()
		if err := u.Upload(tree); err != nil {
			return err
		}
		log.WithField("nodes", tree.Len()).Info("uploaded node buffer")
	}
	return nil
}

func printStats(tree *octree.Tree, elapsed time.Duration, l layout.Layout) error {
	st := tree.Stats()
	root := tree.Root()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "bodies\t%d\n", tree.Bodies)
	fmt.Fprintf(w, "nodes\t%d\n", st.Nodes)
	fmt.Fprintf(w, "interior\t%d\n", st.Interior)
	fmt.Fprintf(w, "max depth\t%d\n", st.MaxDepth)
	fmt.Fprintf(w, "overflow lists\t%d\n", st.OverflowLists)
	fmt.Fprintf(w, "overflow bodies\t%d\n", st.OverflowBodies)
	fmt.Fprintf(w, "longest run\t%d\n", st.LongestRun)
	fmt.Fprintf(w, "total mass\t%g\n", root.TotalMass)
	fmt.Fprintf(w, "center of mass\t%v\n", root.CenterOfMass)
	fmt.Fprintf(w, "buffer\t%d bytes (%s, stride %d)\n", l.Size(tree.Len()), l.Name, l.Stride)
	fmt.Fprintf(w, "build time\t%v\n", elapsed)
	return w.Flush()
}

func decodeTree(cmd *cobra.Command, args []string) error {
	tree, err := readTree(args[0])
	if err != nil {
		return err
	}
	if jsonOut {
		return storage.ExportJSON(os.Stdout, tree)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tSTATE\tMASS\tCOM\tRANGE\tCHILDREN")
	for i := range tree.Nodes {
		if limit > 0 && i >= limit {
			fmt.Fprintf(w, "...\t%d more\t\t\t\t\n", tree.Len()-limit)
			break
		}
		n := &tree.Nodes[i]
		fmt.Fprintf(w, "%d\t%s\t%g\t%.3f,%.3f,%.3f\t%g\t%s\n",
			i, n.State, n.TotalMass,
			n.CenterOfMass[0], n.CenterOfMass[1], n.CenterOfMass[2],
			n.Range, children(n))
	}
	return w.Flush()
}

// readTree loads a run's saved tree, or decodes arg as a buffer file.
func readTree(arg string) (*octree.Tree, error) {
	if _, err := os.Stat(arg); err != nil {
		return storage.New(dataDir).LoadTree(arg)
	}

	l, err := layout.ByName(layoutName)
	if err != nil {
		return nil, err
	}
	buf, err := os.ReadFile(arg)
	if err != nil {
		return nil, err
	}
	nodes, err := layout.Decode(buf, l)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: no nodes", arg)
	}
	return &octree.Tree{Nodes: nodes, WorldSize: worldSize, MaxDepth: octree.Unbounded}, nil
}

func children(n *octree.Node) string {
	switch n.State {
	case octree.Interior:
		var parts []string
		for oct, c := range n.Children {
			if c != 0 {
				parts = append(parts, fmt.Sprintf("%03b:%d", oct, c))
			}
		}
		return strings.Join(parts, " ")
	case octree.OverflowList:
		start, end := n.Run()
		return fmt.Sprintf("run %d..%d", start, end-1)
	}
	return "-"
}

func drawSVG(cmd *cobra.Command, args []string) error {
	var tree *octree.Tree
	if runID != "" {
		t, err := storage.New(dataDir).LoadTree(runID)
		if err != nil {
			return err
		}
		tree = t
	} else {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sys, err := loadSystem(cfg)
		if err != nil {
			return err
		}
		tree, err = octree.NewBuilder(cfg.BuilderOptions()...).Build(sys.Positions, sys.Masses, cfg.WorldSize)
		if err != nil {
			return err
		}
	}

	var svg string
	if plane == "3d" {
		svg = perspectiveSVG(tree)
	} else {
		s, err := viz.TreeSVG(tree, plane, svgSize)
		if err != nil {
			return err
		}
		svg = s
	}

	if outFile == "" {
		_, err := fmt.Print(svg)
		return err
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": outFile, "nodes": tree.Len()}).Info("wrote svg")
	return nil
}

func perspectiveSVG(tree *octree.Tree) string {
	canvas := viz.NewCanvas(svgSize/8, svgSize/16)
	cam := viz.NewCamera(tree.WorldSize)
	tree.Walk(func(v octree.Visit) bool {
		if v.Depth > 3 || v.InRun {
			return false
		}
		if v.Node.State == octree.Interior || v.Node.State == octree.OverflowList {
			cam.DrawCell(canvas, v.Center, v.Half)
		}
		return true
	})
	positions, _ := tree.Leaves()
	cam.DrawPoints(canvas, positions)
	return viz.CanvasSVG(canvas, 4)
}

func benchBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	backend := compute.NewTreeBackend()
	params := cfg.Params()

	fmt.Printf("benchmarking %s builds, depth cap %d\n\n", cfg.Scenario, cfg.Tree.MaxDepth)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tNODES\tDEPTH\tOVERFLOW\tCOLD\tWARM\tNS/BODY\tFORCE")

	for _, n := range benchSizes {
		sys, err := scenario.Generate(cfg.Scenario, n, cfg.WorldSize, cfg.Seed, scenario.WithG(cfg.Physics.G))
		if err != nil {
			return err
		}
		b := octree.NewBuilder(octree.WithMaxDepth(cfg.Tree.MaxDepth), octree.WithCapacity(n))

		start := time.Now()
		tree, err := b.Build(sys.Positions, sys.Masses, cfg.WorldSize)
		if err != nil {
			return err
		}
		cold := time.Since(start)

		start = time.Now()
		for i := 0; i < benchReps; i++ {
			if tree, err = b.Build(sys.Positions, sys.Masses, cfg.WorldSize); err != nil {
				return err
			}
		}
		warm := time.Since(start) / time.Duration(max(benchReps, 1))

		out := make([]octree.Vec3, n)
		start = time.Now()
		if err := backend.Accelerations(tree, sys.Positions, sys.Masses, params, out); err != nil {
			return err
		}
		force := time.Since(start)

		st := tree.Stats()
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%v\t%v\t%.1f\t%v\n",
			n, st.Nodes, st.MaxDepth, st.OverflowBodies, cold, warm,
			float64(warm.Nanoseconds())/float64(n), force)
	}
	return w.Flush()
}
