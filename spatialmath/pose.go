// Package spatialmath provides the minimal pose/orientation vocabulary and
// the rigid-transform box-corner helper shared by every detector that has to
// move a camera-frame box into the world frame (UVDetector, YoloLifter).
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynobstacle/obstacle"
)

// Orientation produces the 3x3 rotation matrix it represents.
type Orientation interface {
	RotationMatrix() *mat.Dense
}

// EulerAngles is an orientation expressed as roll (X), pitch (Y), yaw (Z)
// radians, composed in that order: R = Rz(yaw)*Ry(pitch)*Rx(roll).
type EulerAngles struct {
	Roll, Pitch, Yaw float64
}

// NewZeroOrientation returns the identity orientation.
func NewZeroOrientation() Orientation {
	return &EulerAngles{}
}

// RotationMatrix implements Orientation.
func (e *EulerAngles) RotationMatrix() *mat.Dense {
	sr, cr := math.Sincos(e.Roll)
	sp, cp := math.Sincos(e.Pitch)
	sy, cy := math.Sincos(e.Yaw)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cr, -sr,
		0, sr, cr,
	})
	ry := mat.NewDense(3, 3, []float64{
		cp, 0, sp,
		0, 1, 0,
		-sp, 0, cp,
	})
	rz := mat.NewDense(3, 3, []float64{
		cy, -sy, 0,
		sy, cy, 0,
		0, 0, 1,
	})

	var ryx, r mat.Dense
	ryx.Mul(ry, rx)
	r.Mul(rz, &ryx)
	return &r
}

// Pose is a rigid-body transform: a world-frame position plus an
// orientation.
type Pose struct {
	Position    r3.Vector
	Orientation Orientation
}

// NewPoseFromOrientation constructs a Pose from a position and an
// orientation, matching the teacher's referenceframe vocabulary
// (spatial.NewPoseFromOrientation).
func NewPoseFromOrientation(position r3.Vector, o Orientation) Pose {
	return Pose{Position: position, Orientation: o}
}

// NewZeroPose returns the identity pose at the origin.
func NewZeroPose() Pose {
	return Pose{Position: r3.Vector{}, Orientation: NewZeroOrientation()}
}

// RotationMatrixArray returns p's orientation as a plain 3x3 array, the
// dependency-free representation obstacle.PoseHistory stores.
func (p Pose) RotationMatrixArray() obstacle.RotationMatrix {
	return matToArray(p.Orientation.RotationMatrix())
}

func matToArray(m *mat.Dense) obstacle.RotationMatrix {
	var out obstacle.RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// TransformPoint rotates and translates a camera-frame point into the world
// frame: Xw = R*Xc + t.
func TransformPoint(camPoint r3.Vector, pose Pose) r3.Vector {
	r := pose.Orientation.RotationMatrix()
	v := mat.NewVecDense(3, []float64{camPoint.X, camPoint.Y, camPoint.Z})
	var out mat.VecDense
	out.MulVec(r, v)
	return r3.Vector{X: out.AtVec(0) + pose.Position.X, Y: out.AtVec(1) + pose.Position.Y, Z: out.AtVec(2) + pose.Position.Z}
}

// WorldToCamera brings worldPoint into the camera frame of a pose given as a
// position plus a plain obstacle.RotationMatrix, for callers (e.g. the
// classifier's FoV test) that only have the array form of a past pose: it
// applies the inverse transform r = R^T * (p - t).
func WorldToCamera(worldPoint, position r3.Vector, rot obstacle.RotationMatrix) r3.Vector {
	d := worldPoint.Sub(position)
	// R^T * d
	return r3.Vector{
		X: rot[0][0]*d.X + rot[1][0]*d.Y + rot[2][0]*d.Z,
		Y: rot[0][1]*d.X + rot[1][1]*d.Y + rot[2][1]*d.Z,
		Z: rot[0][2]*d.X + rot[1][2]*d.Y + rot[2][2]*d.Z,
	}
}

// TransformBoxToWorld transforms an axis-aligned box specified in a local
// (camera) frame — center and extents — into an axis-aligned box in the
// world frame under pose: it enumerates the 8 corners, rotates and
// translates each, then takes the per-axis min/max (§4.11).
func TransformBoxToWorld(center, extents r3.Vector, pose Pose) (worldCenter, worldExtents r3.Vector) {
	hx, hy, hz := extents.X/2, extents.Y/2, extents.Z/2
	signs := [8][3]float64{
		{-1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {-1, 1, 1},
		{1, -1, -1}, {1, -1, 1}, {1, 1, -1}, {1, 1, 1},
	}

	var corners [8]r3.Vector
	for i, s := range signs {
		local := r3.Vector{X: center.X + s[0]*hx, Y: center.Y + s[1]*hy, Z: center.Z + s[2]*hz}
		corners[i] = TransformPoint(local, pose)
	}

	min, max := corners[0], corners[0]
	for _, c := range corners[1:] {
		min = r3.Vector{X: math.Min(min.X, c.X), Y: math.Min(min.Y, c.Y), Z: math.Min(min.Z, c.Z)}
		max = r3.Vector{X: math.Max(max.X, c.X), Y: math.Max(max.Y, c.Y), Z: math.Max(max.Z, c.Z)}
	}

	worldCenter = r3.Vector{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2, Z: (min.Z + max.Z) / 2}
	worldExtents = max.Sub(min)
	return worldCenter, worldExtents
}
