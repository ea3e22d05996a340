package scenario

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/nbodytree/internal/sim"
)

var ErrBadRow = errors.New("scenario: malformed csv row")

var csvHeader = []string{"x", "y", "z", "mass", "vx", "vy", "vz"}

// LoadCSV reads rows of x,y,z,mass with optional vx,vy,vz. A leading header
// row is skipped.
func LoadCSV(path string) (*sim.System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) (*sim.System, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	sys := sim.NewSystem(0)
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && rec[0] == csvHeader[0] {
			continue
		}
		if len(rec) != 4 && len(rec) != 7 {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrBadRow, line, len(rec))
		}

		vals := make([]float32, 7)
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d field %d: %v", ErrBadRow, line, i+1, err)
			}
			vals[i] = float32(v)
		}
		sys.Positions = append(sys.Positions, sim.Vec3{vals[0], vals[1], vals[2]})
		sys.Masses = append(sys.Masses, vals[3])
		sys.Velocities = append(sys.Velocities, sim.Vec3{vals[4], vals[5], vals[6]})
	}

	if err := sys.Validate(); err != nil {
		return nil, err
	}
	return sys, nil
}

func SaveCSV(path string, sys *sim.System) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, sys); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteCSV(w io.Writer, sys *sim.System) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	format := func(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) }
	for i := range sys.Positions {
		p, v := sys.Positions[i], sys.Velocities[i]
		row := []string{
			format(p[0]), format(p[1]), format(p[2]),
			format(sys.Masses[i]),
			format(v[0]), format(v[1]), format(v[2]),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
