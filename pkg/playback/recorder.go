package playback

import (
	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/math"
)

// TransformRecord is one recorded transform emission.
type TransformRecord struct {
	Frame  int
	Entity string
	TF     math.Transform
}

// MeshRecord is one recorded static mesh emission.
type MeshRecord struct {
	Entity string
	Mesh   *formats.Mesh
}

// Recorder is a Sink that captures everything emitted to it, in order.
// It backs tests and offline inspection of a playback run.
type Recorder struct {
	Times      []int
	Transforms []TransformRecord
	Meshes     []MeshRecord
	Up         string
	Handedness string

	frame int
}

// SetTime records the logical frame index.
func (r *Recorder) SetTime(frame int) {
	r.frame = frame
	r.Times = append(r.Times, frame)
}

// LogTransform records a transform tagged with the current frame.
func (r *Recorder) LogTransform(entity string, tf math.Transform) error {
	r.Transforms = append(r.Transforms, TransformRecord{Frame: r.frame, Entity: entity, TF: tf})
	return nil
}

// LogMesh records a static mesh emission.
func (r *Recorder) LogMesh(entity string, mesh *formats.Mesh) error {
	r.Meshes = append(r.Meshes, MeshRecord{Entity: entity, Mesh: mesh})
	return nil
}

// LogViewCoordinates records the announced view convention.
func (r *Recorder) LogViewCoordinates(up, handedness string) error {
	r.Up = up
	r.Handedness = handedness
	return nil
}

// TransformsForFrame returns the transforms recorded for one frame index.
func (r *Recorder) TransformsForFrame(frame int) []TransformRecord {
	var out []TransformRecord
	for _, tr := range r.Transforms {
		if tr.Frame == frame {
			out = append(out, tr)
		}
	}
	return out
}
