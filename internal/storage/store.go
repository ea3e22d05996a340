package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/nbodytree/internal/layout"
	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/scenario"
	"github.com/san-kum/nbodytree/internal/sim"
)

const (
	metadataFile = "metadata.json"
	stepsFile    = "steps.csv"
	treeFile     = "octree.bin"
	bodiesFile   = "bodies.csv"
)

var ErrNoTree = errors.New("storage: run has no saved tree")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scenario    string             `json:"scenario"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Bodies      int                `json:"bodies"`
	WorldSize   float32            `json:"world_size"`
	Dt          float32            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Integrator  string             `json:"integrator"`
	Backend     string             `json:"backend"`
	MaxDepth    int                `json:"max_depth"`
	Theta       float32            `json:"theta"`
	G           float32            `json:"g"`
	Softening   float32            `json:"softening"`
	EnergyDrift float64            `json:"energy_drift"`
	Elapsed     time.Duration      `json:"elapsed_ns"`
	Layout      string             `json:"layout,omitempty"`
	TreeNodes   int                `json:"tree_nodes,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save creates a run directory holding meta, the per-step stats and the
// final bodies of result. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_s%d_%d", meta.Scenario, meta.Seed, now.UnixNano())
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.StepsTaken = result.StepsTaken
	meta.EnergyDrift = result.EnergyDrift
	meta.Elapsed = result.Elapsed
	meta.Metrics = result.Metrics

	if err := s.writeMetadata(&meta); err != nil {
		return "", err
	}
	if err := writeSteps(filepath.Join(runDir, stepsFile), result.Steps); err != nil {
		return "", err
	}
	if result.Final != nil {
		if err := scenario.SaveCSV(filepath.Join(runDir, bodiesFile), result.Final); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func (s *Store) writeMetadata(meta *RunMetadata) error {
	f, err := os.Create(filepath.Join(s.Dir(meta.ID), metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

var stepsHeader = []string{
	"step", "time", "builds", "build_us", "force_us", "nodes",
	"max_depth", "interior", "overflow_lists", "overflow_bodies", "longest_run",
}

func writeSteps(path string, steps []sim.StepStats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stepsHeader); err != nil {
		return err
	}

	itoa := strconv.Itoa
	for _, st := range steps {
		row := []string{
			itoa(st.Step),
			strconv.FormatFloat(st.Time, 'f', 6, 64),
			itoa(st.Builds),
			strconv.FormatInt(st.BuildTime.Microseconds(), 10),
			strconv.FormatInt(st.ForceTime.Microseconds(), 10),
			itoa(st.Nodes),
			itoa(st.MaxDepth),
			itoa(st.Interior),
			itoa(st.OverflowLists),
			itoa(st.OverflowBodies),
			itoa(st.LongestRun),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// SaveTree stores tree encoded in l next to an existing run.
func (s *Store) SaveTree(runID string, tree *octree.Tree, l layout.Layout) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}

	buf := layout.Encode(tree.Nodes, l)
	if err := os.WriteFile(filepath.Join(s.Dir(runID), treeFile), buf, 0644); err != nil {
		return err
	}

	meta.Layout = l.Name
	meta.TreeNodes = tree.Len()
	return s.writeMetadata(meta)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s metadata: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadSteps(runID string) ([]sim.StepStats, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), stepsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.StepStats{}, nil
	}

	steps := make([]sim.StepStats, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(stepsHeader) {
			return nil, fmt.Errorf("storage: %s line %d: %d fields", stepsFile, i+2, len(rec))
		}
		ints := make([]int64, len(rec))
		var tm float64
		for j, field := range rec {
			if j == 1 {
				tm, err = strconv.ParseFloat(field, 64)
			} else {
				ints[j], err = strconv.ParseInt(field, 10, 64)
			}
			if err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", stepsFile, i+2, err)
			}
		}
		steps = append(steps, sim.StepStats{
			Step:           int(ints[0]),
			Time:           tm,
			Builds:         int(ints[2]),
			BuildTime:      time.Duration(ints[3]) * time.Microsecond,
			ForceTime:      time.Duration(ints[4]) * time.Microsecond,
			Nodes:          int(ints[5]),
			MaxDepth:       int(ints[6]),
			Interior:       int(ints[7]),
			OverflowLists:  int(ints[8]),
			OverflowBodies: int(ints[9]),
			LongestRun:     int(ints[10]),
		})
	}
	return steps, nil
}

// LoadTree decodes the tree saved with SaveTree.
func (s *Store) LoadTree(runID string) (*octree.Tree, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if meta.Layout == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoTree, runID)
	}
	l, err := layout.ByName(meta.Layout)
	if err != nil {
		return nil, err
	}

	buf, err := os.ReadFile(filepath.Join(s.Dir(runID), treeFile))
	if err != nil {
		return nil, err
	}
	nodes, err := layout.Decode(buf, l)
	if err != nil {
		return nil, err
	}
	return &octree.Tree{
		Nodes:     nodes,
		WorldSize: meta.WorldSize,
		MaxDepth:  meta.MaxDepth,
		Bodies:    meta.Bodies,
	}, nil
}

func (s *Store) LoadBodies(runID string) (*sim.System, error) {
	return scenario.LoadCSV(filepath.Join(s.Dir(runID), bodiesFile))
}
