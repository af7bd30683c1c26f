// Package playback replays a motion capture sequence against a bound
// kinematic model, emitting timed pose and mesh updates to a
// visualization sink.
package playback

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/kinematics"
	"github.com/Faultbox/reviz/pkg/math"
)

// Sink is the visualization boundary. Implementations receive a logical
// time index, named rigid transforms, and static mesh geometry; the
// engine never reads back from the sink.
type Sink interface {
	// SetTime sets the logical frame index for subsequent emissions.
	SetTime(frame int)
	// LogTransform reports a named entity's rigid transform.
	LogTransform(entity string, tf math.Transform) error
	// LogMesh reports a named entity's static mesh geometry once.
	LogMesh(entity string, mesh *formats.Mesh) error
}

// ViewSink is optionally implemented by sinks that want the scene's view
// coordinate convention announced before any geometry.
type ViewSink interface {
	LogViewCoordinates(up string, handedness string) error
}

// OutOfRangeError reports a frame index beyond the motion sequence.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("frame %d out of range, motion has %d frames", e.Index, e.Len)
}

// Options controls a playback run.
type Options struct {
	// Prefix is the root entity path. Empty defaults to "urdf_<model>".
	Prefix string
	// Pacer spaces frames in wall-clock time. Nil defaults to a fixed
	// rate taken from the motion's declared sample rate.
	Pacer Pacer
	// Loop restarts the sequence after the last frame until the process
	// is terminated. Static geometry is only emitted once.
	Loop bool

	Logger *zap.Logger
}

// Engine drives a bound model through motion sequences. The model and
// bound meshes are shared read-only; per-frame transforms are recomputed
// and discarded each frame.
type Engine struct {
	bound  *kinematics.BoundModel
	prefix string
	log    *zap.Logger

	// entity paths precomputed per joint and per bound link
	jointEntities []string
	linkEntities  []string
}

// NewEngine prepares an engine for one bound model.
func NewEngine(bound *kinematics.BoundModel, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "urdf_" + bound.Model.Name
	}

	e := &Engine{bound: bound, prefix: prefix, log: log}
	e.jointEntities = make([]string, len(bound.Model.Joints))
	for i, j := range bound.Model.Joints {
		e.jointEntities[i] = prefix + "/" + j.Name
	}
	e.linkEntities = make([]string, len(bound.Links))
	for i, bl := range bound.Links {
		link := bound.Model.Links[bl.Link]
		e.linkEntities[i] = e.jointEntities[link.Joint] + "/" + link.Name
	}
	return e
}

// EmitStatic announces the view coordinate convention (for sinks that
// accept one) and logs every bound mesh once, in its owning joint's local
// frame. The sink composes the joint transform with the static mesh on
// every subsequent frame.
func (e *Engine) EmitStatic(sink Sink) error {
	if vs, ok := sink.(ViewSink); ok {
		if err := vs.LogViewCoordinates("+z", "right"); err != nil {
			return fmt.Errorf("emitting view coordinates: %w", err)
		}
	}
	for i, bl := range e.bound.Links {
		if err := sink.LogMesh(e.linkEntities[i], bl.Mesh); err != nil {
			return fmt.Errorf("emitting mesh %s: %w", e.linkEntities[i], err)
		}
	}
	e.log.Debug("emitted static geometry", zap.Int("meshes", len(e.bound.Links)))
	return nil
}

// EmitFrame solves forward kinematics for one frame of the motion and
// emits every joint transform tagged with that frame index. Nothing is
// emitted if the frame's configuration is malformed.
func (e *Engine) EmitFrame(sink Sink, motion *formats.Motion, frame int) error {
	if frame < 0 || frame >= motion.Frames() {
		return &OutOfRangeError{Index: frame, Len: motion.Frames()}
	}

	world, err := kinematics.Solve(e.bound.Model, motion.Config(frame))
	if err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}

	sink.SetTime(frame)
	for i := range world {
		if err := sink.LogTransform(e.jointEntities[i], world[i]); err != nil {
			return fmt.Errorf("frame %d: emitting %s: %w", frame, e.jointEntities[i], err)
		}
	}
	return nil
}

// Play replays the whole motion sequence in strictly increasing frame
// order: static geometry once, then one solved frame per sample, spaced
// by the pacer. A malformed frame aborts playback with no partial
// emission for that frame.
func Play(bound *kinematics.BoundModel, motion *formats.Motion, sink Sink, opts Options) error {
	e := NewEngine(bound, opts)
	pacer := opts.Pacer
	if pacer == nil {
		pacer = NewFixedRate(motion.Rate())
	}

	if err := e.EmitStatic(sink); err != nil {
		return err
	}

	e.log.Info("starting playback",
		zap.String("prefix", e.prefix),
		zap.Int("frames", motion.Frames()),
		zap.Float64("rate", motion.Rate()),
		zap.Bool("loop", opts.Loop))

	for {
		for frame := 0; frame < motion.Frames(); frame++ {
			if frame > 0 {
				pacer.Wait()
			}
			if err := e.EmitFrame(sink, motion, frame); err != nil {
				return err
			}
		}
		if !opts.Loop {
			return nil
		}
		pacer.Wait()
	}
}

// PlayFrame renders a single frame of the motion: static geometry plus
// that frame's transforms.
func PlayFrame(bound *kinematics.BoundModel, motion *formats.Motion, frame int, sink Sink, opts Options) error {
	e := NewEngine(bound, opts)
	if frame < 0 || frame >= motion.Frames() {
		return &OutOfRangeError{Index: frame, Len: motion.Frames()}
	}
	if err := e.EmitStatic(sink); err != nil {
		return err
	}
	return e.EmitFrame(sink, motion, frame)
}
