package kinematics

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/reviz/pkg/formats"
	"github.com/Faultbox/reviz/pkg/math"
)

// MeshSource resolves a link's mesh path to loaded geometry. Tests inject
// in-memory meshes; production uses DirMeshSource.
type MeshSource func(path string) (*formats.Mesh, error)

// DirMeshSource loads STL meshes with paths resolved against a base
// directory.
func DirMeshSource(dir string) MeshSource {
	return func(path string) (*formats.Mesh, error) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return formats.LoadSTL(path)
	}
}

// BindOptions controls asset binding.
type BindOptions struct {
	// Reference is the configuration the relative transforms are computed
	// at. Nil means the model's neutral configuration. The choice does not
	// affect the result for rigidly attached meshes, but it must be a
	// valid configuration for the model.
	Reference []float64

	// SkipMissing continues binding when a link's mesh fails to load,
	// recording the link in BoundModel.Skipped. Default is fail-fast.
	SkipMissing bool

	Logger *zap.Logger
}

// BoundLink pairs a model link with its mesh re-expressed in the owning
// joint's frame.
type BoundLink struct {
	Link int // index into Model.Links
	Mesh *formats.Mesh
	// Rel is the fixed transform from the mesh's authored space into the
	// owning joint's frame, computed once at bind time.
	Rel math.Transform
}

// BoundModel is a model with loaded, joint-local visual geometry. It is
// immutable and shared read-only across playback frames.
type BoundModel struct {
	Model   *Model
	Links   []BoundLink
	Skipped []string // links skipped under SkipMissing
}

// Bind loads every visual mesh and computes its fixed placement in the
// owning joint's frame: solving forward kinematics at the reference
// configuration, the relative transform is jointWorld⁻¹ · meshWorld.
// The returned meshes are new objects carrying the link's base color;
// source meshes are never mutated, so binding twice yields identical
// results.
func Bind(m *Model, src MeshSource, opts BindOptions) (*BoundModel, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ref := opts.Reference
	if ref == nil {
		ref = Neutral(m)
	}
	world, err := Solve(m, ref)
	if err != nil {
		return nil, err
	}

	bound := &BoundModel{Model: m}
	for i := range m.Links {
		link := &m.Links[i]
		mesh, err := src(link.MeshPath)
		if err != nil {
			loadErr := &AssetLoadError{Link: link.Name, Path: link.MeshPath, Err: err}
			if !opts.SkipMissing {
				return nil, loadErr
			}
			log.Warn("skipping link with unloadable mesh",
				zap.String("link", link.Name),
				zap.String("path", link.MeshPath),
				zap.Error(err))
			bound.Skipped = append(bound.Skipped, link.Name)
			continue
		}

		jointWorld := world[link.Joint]
		meshWorld := jointWorld.Mul(link.Placement)
		rel := jointWorld.Inverse().Mul(meshWorld)

		local := mesh.Transformed(rel)
		local.SetColor(link.Color)
		bound.Links = append(bound.Links, BoundLink{Link: i, Mesh: local, Rel: rel})
	}

	log.Debug("bound visual assets",
		zap.Int("links", len(bound.Links)),
		zap.Int("skipped", len(bound.Skipped)))
	return bound, nil
}
