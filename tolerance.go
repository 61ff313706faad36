package fluxion

import "github.com/fluxionfmt/fluxion/internal/model"

// Tolerance holds the float-comparison epsilons used by DeepEqual and by
// the v3 writer's reference/dedup optimizer. The same tolerance used to
// write a v3 file must be supplied to any equality check against it, or
// the comparison will disagree with what the optimizer actually merged.
type Tolerance = model.Tolerance

// DefaultTolerance matches the format's documented defaults: f32 and f64
// epsilon of 0.001.
var DefaultTolerance = model.DefaultTolerance

// DeepEqual reports whether a and b have the same name, value, and
// recursively equal ordered children and attributes, comparing floats
// within tol.
func DeepEqual(a, b *Node, tol Tolerance) bool {
	return model.DeepEqual(a, b, tol)
}
