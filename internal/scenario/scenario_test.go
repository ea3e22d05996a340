package scenario

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/nbodytree/internal/octree"
	"github.com/san-kum/nbodytree/internal/sim"
)

func TestGenerate(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			sys, err := Generate(name, 64, 100, 1)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if sys.Len() != 64 {
				t.Fatalf("expected 64 bodies, got %d", sys.Len())
			}
			if err := sys.Validate(); err != nil {
				t.Fatalf("invalid system: %v", err)
			}

			tree, err := octree.Build(sys.Positions, sys.Masses, 100)
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if err := tree.Validate(sys.Positions, sys.Masses, 1e-3); err != nil {
				t.Errorf("tree: %v", err)
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, _ := Generate("uniform", 50, 100, 7)
	b, _ := Generate("uniform", 50, 100, 7)
	c, _ := Generate("uniform", 50, 100, 8)

	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			t.Fatalf("body %d differs for the same seed", i)
		}
	}
	if a.Positions[0] == c.Positions[0] {
		t.Error("different seeds gave the same first body")
	}
}

func TestUniformRange(t *testing.T) {
	sys, _ := Generate("uniform", 500, 90, 3)
	for i, p := range sys.Positions {
		for k := 0; k < 3; k++ {
			if p[k] < 30 || p[k] > 60 {
				t.Fatalf("body %d axis %d at %v, outside the middle third", i, k, p[k])
			}
		}
		if m := sys.Masses[i]; m < 0.5 || m > 500 {
			t.Fatalf("body %d mass %v", i, m)
		}
	}
}

func TestCornersOccupyEveryOctant(t *testing.T) {
	sys, _ := Generate("corners", 8, 10, 0)
	tree, err := octree.Build(sys.Positions, sys.Masses, 10)
	if err != nil {
		t.Fatal(err)
	}
	root := tree.Root()
	for oct, c := range root.Children {
		if c == 0 || tree.Nodes[c].State != octree.Body {
			t.Errorf("octant %03b not a body leaf", oct)
		}
	}
}

func TestCoincidentOverflows(t *testing.T) {
	sys, _ := Generate("coincident", 5, 100, 0)
	tree, err := octree.Build(sys.Positions, sys.Masses, 100)
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Stats().OverflowBodies; got != 5 {
		t.Errorf("expected 5 bodies in overflow lists, got %d", got)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate("plummer", 10, 100, 0); !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}
	if _, err := Generate("uniform", -1, 100, 0); !errors.Is(err, ErrBodyCount) {
		t.Errorf("expected ErrBodyCount, got %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	sys, _ := Generate("disk", 20, 100, 5)
	path := filepath.Join(t.TempDir(), "bodies.csv")

	if err := SaveCSV(path, sys); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != sys.Len() {
		t.Fatalf("expected %d bodies, got %d", sys.Len(), loaded.Len())
	}
	for i := range sys.Positions {
		if loaded.Positions[i] != sys.Positions[i] || loaded.Velocities[i] != sys.Velocities[i] || loaded.Masses[i] != sys.Masses[i] {
			t.Errorf("body %d differs after round trip", i)
		}
	}
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		err   error
	}{
		{"positions only", "1,2,3,4\n5,6,7,8\n", 2, nil},
		{"with header and comment", "x,y,z,mass,vx,vy,vz\n# seed 1\n1,2,3,4,0,1,0\n", 1, nil},
		{"wrong field count", "1,2,3\n", 0, ErrBadRow},
		{"not a number", "1,2,three,4\n", 0, ErrBadRow},
		{"negative mass", "1,2,3,-4\n", 0, sim.ErrInvalidSystem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys, err := ReadCSV(strings.NewReader(tt.input))
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
			if err == nil && sys.Len() != tt.n {
				t.Errorf("expected %d bodies, got %d", tt.n, sys.Len())
			}
		})
	}
}
