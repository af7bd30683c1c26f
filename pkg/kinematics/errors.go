package kinematics

import "fmt"

// MalformedModelError reports an invalid robot description topology:
// cycles, unknown parent references, duplicated names, or multiple roots.
// Construction of a model aborts on the first such defect.
type MalformedModelError struct {
	Element string // joint or link name, empty for whole-model defects
	Reason  string
}

func (e *MalformedModelError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("malformed model: %s", e.Reason)
	}
	return fmt.Sprintf("malformed model: %q: %s", e.Element, e.Reason)
}

// AssetLoadError reports a link whose visual mesh could not be loaded.
type AssetLoadError struct {
	Link string
	Path string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("loading mesh for link %q from %s: %v", e.Link, e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports a configuration vector whose length does
// not match the model's expected dimension.
type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("configuration has %d values, model expects %d", e.Got, e.Expected)
}
