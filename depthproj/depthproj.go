// Package depthproj implements C1, the DepthProjector: unprojecting a 16-bit
// depth image into world-frame points, filtered by range, pixel margin, and
// pixel skip, in the vocabulary of the teacher's rimage/transform and
// rimage/depthadapter packages (PinholeCameraIntrinsics, per-pixel
// unprojection).
package depthproj

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynobstacle/obstacle"
	"go.viam.com/dynobstacle/spatialmath"
)

// PinholeCameraIntrinsics is the pinhole camera model: image size, focal
// lengths, and principal point, named after the teacher's
// rimage/transform.PinholeCameraIntrinsics.
type PinholeCameraIntrinsics struct {
	Width, Height int
	Fx, Fy        float64
	Ppx, Ppy      float64
}

// DepthImage is a row-major 16-bit depth buffer.
type DepthImage struct {
	Rows, Cols int
	Pix        []uint16 // len == Rows*Cols
}

// At returns the raw depth value at (row, col).
func (d DepthImage) At(row, col int) uint16 {
	return d.Pix[row*d.Cols+col]
}

// Params bundles the per-pixel filtering rules of §4.1.
type Params struct {
	ScaleFactor   float64 // raw units per meter, e.g. 1000
	Skip          int     // pixel stride
	Margin        int     // border pixels excluded on each side
	DMin, DMax    float64 // valid depth range, meters
	RaycastMax    float64 // far-clip emission distance, meters
}

// Result is the output of Project: the world-frame points, each carrying its
// camera-Z depth in meters in Point3.Depth.
type Result struct {
	Points []obstacle.Point3
}

// Project unprojects depth pixels to world-frame points per §4.1: raw=0 is
// treated as "far" (raycastMax+0.1 emitted), raw/S < dMin is discarded,
// raw/S > dMax is clamped to raycastMax+0.1 and emitted, otherwise raw/S is
// used directly.
func Project(depth DepthImage, intr PinholeCameraIntrinsics, pose spatialmath.Pose, p Params) Result {
	skip := p.Skip
	if skip < 1 {
		skip = 1
	}

	capacity := (depth.Rows * depth.Cols) / (skip * skip)
	if capacity < 0 {
		capacity = 0
	}
	out := make([]obstacle.Point3, 0, capacity)

	for v := p.Margin; v < depth.Rows-p.Margin; v += skip {
		for u := p.Margin; u < depth.Cols-p.Margin; u += skip {
			raw := depth.At(v, u)

			var d float64
			switch {
			case raw == 0:
				d = p.RaycastMax + 0.1
			default:
				meters := float64(raw) / p.ScaleFactor
				switch {
				case meters < p.DMin:
					continue
				case meters > p.DMax:
					d = p.RaycastMax + 0.1
				default:
					d = meters
				}
			}

			camPoint := r3.Vector{
				X: (float64(u) - intr.Ppx) * d / intr.Fx,
				Y: (float64(v) - intr.Ppy) * d / intr.Fy,
				Z: d,
			}
			worldPoint := spatialmath.TransformPoint(camPoint, pose)
			out = append(out, obstacle.Point3{Pos: worldPoint, Depth: d})
		}
	}

	return Result{Points: out}
}

// Unproject inverts the camera-frame projection for a single camera-frame
// point, recovering the pixel it came from — used by the round-trip test in
// §8 property 7. It does not apply any pose transform; callers that have a
// world point must first bring it into the camera frame (e.g. via
// spatialmath.WorldToCamera).
func Unproject(camPoint r3.Vector, intr PinholeCameraIntrinsics) (u, v float64) {
	u = camPoint.X*intr.Fx/camPoint.Z + intr.Ppx
	v = camPoint.Y*intr.Fy/camPoint.Z + intr.Ppy
	return u, v
}
