package formats

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Motion format errors.
var (
	ErrEmptyMotion    = errors.New("motion sequence has no frames")
	ErrInvalidRate    = errors.New("motion sample rate must be positive")
	ErrShortMotionRow = errors.New("motion row too short for a root pose")
)

// rootPoseWidth is the fixed prefix of every configuration row:
// root position xyz plus orientation quaternion xyzw.
const rootPoseWidth = 7

// Motion is a read-only sequence of configuration vectors sampled at a
// fixed rate. Row layout: [root_pos(3), root_quat_xyzw(4), joint_angles(N)].
type Motion struct {
	rate   float64
	frames [][]float64
}

// ReadMotion parses comma-separated configuration rows. All rows must have
// the same width; the rate (frames per second) is declared by the caller
// since the format does not encode it.
func ReadMotion(r io.Reader, rate float64) (*Motion, error) {
	if rate <= 0 {
		return nil, ErrInvalidRate
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var frames [][]float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading motion row %d: %w", len(frames)+1, err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("motion row %d column %d: %w", len(frames)+1, i+1, err)
			}
			row[i] = v
		}
		if len(row) < rootPoseWidth {
			return nil, fmt.Errorf("motion row %d has %d columns: %w", len(frames)+1, len(row), ErrShortMotionRow)
		}
		frames = append(frames, row)
	}
	if len(frames) == 0 {
		return nil, ErrEmptyMotion
	}
	return &Motion{rate: rate, frames: frames}, nil
}

// LoadMotion reads and parses a motion CSV file.
func LoadMotion(path string, rate float64) (*Motion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening motion %s: %w", path, err)
	}
	defer f.Close()

	motion, err := ReadMotion(f, rate)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return motion, nil
}

// Frames returns the number of frames in the sequence.
func (m *Motion) Frames() int {
	return len(m.frames)
}

// Config returns the configuration vector for a frame. The slice is shared
// and must not be modified.
func (m *Motion) Config(i int) []float64 {
	return m.frames[i]
}

// Width returns the number of scalars per frame.
func (m *Motion) Width() int {
	return len(m.frames[0])
}

// Rate returns the declared sample rate in frames per second.
func (m *Motion) Rate() float64 {
	return m.rate
}

// Duration returns the total playback time in seconds.
func (m *Motion) Duration() float64 {
	return float64(len(m.frames)) / m.rate
}
