// Package obstacle defines the shared geometric and bookkeeping types used
// across the detection, fusion, tracking, and classification stages of the
// perception pipeline: world-frame points, axis-aligned boxes, point
// clusters, and the bounded pose history the classifier uses for
// field-of-view gating.
package obstacle

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"
)

// minExtentXY is the floor applied to a Box3's x and y extents after any
// geometric computation; z is never floored.
const minExtentXY = 0.1

// Point3 is a world-frame 3D coordinate paired with the raw camera-Z depth
// it was unprojected from.
type Point3 struct {
	Pos   r3.Vector
	Depth float64
}

// Box3 is an axis-aligned 3D bounding box in the world frame, annotated with
// an estimated 2D velocity, an identity, and a dynamic/static label.
type Box3 struct {
	Center  r3.Vector
	Extents r3.Vector // x_width, y_width, z_width
	Vx, Vy  float64
	ID      int
	IsDynamic bool
}

// NewBox3 constructs a Box3 from a center and extents, clamping x/y extents
// to minExtentXY and z to a non-negative value.
func NewBox3(center, extents r3.Vector, id int) Box3 {
	return Box3{
		Center:  center,
		Extents: r3.Vector{X: math.Max(extents.X, minExtentXY), Y: math.Max(extents.Y, minExtentXY), Z: math.Max(extents.Z, 0)},
		ID:      id,
	}
}

// Min returns the box's lower corner (center - extents/2) on each axis.
func (b Box3) Min() r3.Vector {
	return r3.Vector{X: b.Center.X - b.Extents.X/2, Y: b.Center.Y - b.Extents.Y/2, Z: b.Center.Z - b.Extents.Z/2}
}

// Max returns the box's upper corner (center + extents/2) on each axis.
func (b Box3) Max() r3.Vector {
	return r3.Vector{X: b.Center.X + b.Extents.X/2, Y: b.Center.Y + b.Extents.Y/2, Z: b.Center.Z + b.Extents.Z/2}
}

// DistanceTo returns the Euclidean distance from the box's center to p.
func (b Box3) DistanceTo(p r3.Vector) float64 {
	return b.Center.Sub(p).Norm()
}

// PointCluster is an ordered sequence of Point3 produced by one DBSCAN
// cluster, along with its derived center (mean) and std (per-axis sample
// standard deviation).
type PointCluster struct {
	Points []Point3
	Center r3.Vector
	Std    r3.Vector
}

// NewPointCluster computes Center and Std from pts and returns the cluster.
func NewPointCluster(pts []Point3) PointCluster {
	pc := PointCluster{Points: pts}
	pc.Center = pc.computeCenter()
	pc.Std = pc.computeStd(pc.Center)
	return pc
}

func (pc PointCluster) computeCenter() r3.Vector {
	if len(pc.Points) == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	for _, p := range pc.Points {
		sum = sum.Add(p.Pos)
	}
	n := float64(len(pc.Points))
	return r3.Vector{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

func (pc PointCluster) computeStd(center r3.Vector) r3.Vector {
	n := len(pc.Points)
	if n < 2 {
		return r3.Vector{}
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, p := range pc.Points {
		xs[i], ys[i], zs[i] = p.Pos.X, p.Pos.Y, p.Pos.Z
	}
	return r3.Vector{X: stat.StdDev(xs, nil), Y: stat.StdDev(ys, nil), Z: stat.StdDev(zs, nil)}
}

// BoundingBox returns the axis-aligned box spanning pc's points, with x/y
// extents floored at minExtentXY and id set to id.
func (pc PointCluster) BoundingBox(id int) Box3 {
	if len(pc.Points) == 0 {
		return NewBox3(r3.Vector{}, r3.Vector{}, id)
	}
	min := pc.Points[0].Pos
	max := pc.Points[0].Pos
	for _, p := range pc.Points[1:] {
		min = r3.Vector{X: math.Min(min.X, p.Pos.X), Y: math.Min(min.Y, p.Pos.Y), Z: math.Min(min.Z, p.Pos.Z)}
		max = r3.Vector{X: math.Max(max.X, p.Pos.X), Y: math.Max(max.Y, p.Pos.Y), Z: math.Max(max.Z, p.Pos.Z)}
	}
	center := r3.Vector{X: (min.X + max.X) / 2, Y: (min.Y + max.Y) / 2, Z: (min.Z + max.Z) / 2}
	extents := max.Sub(min)
	return Box3{
		Center:  center,
		Extents: r3.Vector{X: math.Max(extents.X, minExtentXY), Y: math.Max(extents.Y, minExtentXY), Z: extents.Z},
		ID:      id,
	}
}

// PoseHistory holds the bounded deques of camera position and orientation
// matched to past detect ticks, capacity K = skip_frame. Index 0 is always
// the newest pose.
type PoseHistory struct {
	Positions    []r3.Vector
	Orientations []RotationMatrix
	capacity     int
}

// RotationMatrix is a 3x3 row-major rotation matrix, kept dependency-free at
// this layer; spatialmath.Pose converts to/from it.
type RotationMatrix [3][3]float64

// NewPoseHistory returns an empty PoseHistory bounded to capacity entries.
func NewPoseHistory(capacity int) *PoseHistory {
	return &PoseHistory{capacity: capacity}
}

// Push always pushes (position, orientation) to the front of the history,
// then truncates to capacity. This never pops before pushing, fixing the
// source gap where the deque could drain to empty under continuous running
// (see DESIGN.md, Open question 2).
func (h *PoseHistory) Push(position r3.Vector, orientation RotationMatrix) {
	h.Positions = append([]r3.Vector{position}, h.Positions...)
	h.Orientations = append([]RotationMatrix{orientation}, h.Orientations...)
	if len(h.Positions) > h.capacity {
		h.Positions = h.Positions[:h.capacity]
	}
	if len(h.Orientations) > h.capacity {
		h.Orientations = h.Orientations[:h.capacity]
	}
}

// Len returns the number of poses currently retained.
func (h *PoseHistory) Len() int {
	return len(h.Positions)
}

// At returns the position/orientation pair at index i (0 = newest) and
// whether i is in range.
func (h *PoseHistory) At(i int) (r3.Vector, RotationMatrix, bool) {
	if i < 0 || i >= len(h.Positions) {
		return r3.Vector{}, RotationMatrix{}, false
	}
	return h.Positions[i], h.Orientations[i], true
}
