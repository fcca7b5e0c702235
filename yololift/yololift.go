// Package yololift implements C5, the YoloLifter: lifting an external 2D
// detection in the aligned-depth image into a world-frame 3D box using
// double-MAD-named (but single-MAD, per §9 open question 4) depth
// statistics, then human-size sanity clamping.
package yololift

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/dynobstacle/depthproj"
	"go.viam.com/dynobstacle/external"
	"go.viam.com/dynobstacle/obstacle"
	"go.viam.com/dynobstacle/spatialmath"
)

// humanSize is the predefined human bounding size (x,y,z) in meters used for
// the sanity clamp in step 6 of §4.5.
var humanSize = r3.Vector{X: 0.5, Y: 0.5, Z: 1.8}

const (
	madScale        = 1.5
	clampRatioMin   = 0.5
	clampRatioMax   = 2.0
)

// Params bundles C5's tunables.
type Params struct {
	ScaleFactor float64 // raw units per meter
	Margin      int
	DMin, DMax  float64 // valid depth range, meters
}

// Lift lifts one 2D detection into a world-frame Box3. It returns
// (Box3{}, false) for any of the §4.5 failure cases: empty ROI, no valid
// depth in range, or a MAD pass that yields no bounded min/max.
func Lift(det external.YoloDetection2D, frame depthproj.DepthImage, intr depthproj.PinholeCameraIntrinsics, colorPose spatialmath.Pose, p Params) (obstacle.Box3, bool) {
	x0 := clamp(int(det.TopLeftX)+p.Margin, 0, frame.Cols-1)
	y0 := clamp(int(det.TopLeftY)+p.Margin, 0, frame.Rows-1)
	x1 := clamp(int(det.TopLeftX+det.SizeX)-p.Margin, 0, frame.Cols-1)
	y1 := clamp(int(det.TopLeftY+det.SizeY)-p.Margin, 0, frame.Rows-1)
	if x1 <= x0 || y1 <= y0 {
		return obstacle.Box3{}, false
	}

	var depths []float64
	for v := y0; v <= y1; v++ {
		for u := x0; u <= x1; u++ {
			raw := frame.At(v, u)
			if raw == 0 {
				continue
			}
			d := float64(raw) / p.ScaleFactor
			if d < p.DMin || d > p.DMax {
				continue
			}
			depths = append(depths, d)
		}
	}
	if len(depths) == 0 {
		return obstacle.Box3{}, false
	}

	depthMedian := median(depths)
	mad := medianAbsoluteDeviation(depths, depthMedian)

	lowerBound := depthMedian - madScale*mad
	upperBound := depthMedian + madScale*mad

	var depthMin, depthMax float64
	haveMin, haveMax := false, false
	for _, d := range depths {
		if d >= lowerBound && (!haveMin || d < depthMin) {
			depthMin = d
			haveMin = true
		}
		if d <= upperBound && (!haveMax || d > depthMax) {
			depthMax = d
			haveMax = true
		}
	}
	if !haveMin || !haveMax {
		return obstacle.Box3{}, false
	}

	midU := (float64(x0) + float64(x1)) / 2
	midV := (float64(y0) + float64(y1)) / 2
	camCenter := r3.Vector{
		X: (midU - intr.Ppx) * depthMedian / intr.Fx,
		Y: (midV - intr.Ppy) * depthMedian / intr.Fy,
		Z: depthMedian,
	}

	camExtents := r3.Vector{
		X: (float64(x1-x0)) * depthMedian / intr.Fx,
		Y: (float64(y1-y0)) * depthMedian / intr.Fy,
		Z: depthMax - depthMin,
	}

	worldCenter, worldExtents := spatialmath.TransformBoxToWorld(camCenter, camExtents, colorPose)

	worldCenter, worldExtents = clampToHumanSize(worldCenter, worldExtents)

	box := obstacle.NewBox3(worldCenter, worldExtents, 0)
	box.IsDynamic = true
	return box, true
}

// clampToHumanSize applies step 6 of §4.5: any extent whose ratio to the
// predefined human size falls outside [0.5, 2.0] is overwritten with the
// predefined size; if z is clamped, the center's z is also snapped to
// humanSize.Z/2.
func clampToHumanSize(center, extents r3.Vector) (r3.Vector, r3.Vector) {
	clampedZ := false

	if outOfRatio(extents.X, humanSize.X) {
		extents.X = humanSize.X
	}
	if outOfRatio(extents.Y, humanSize.Y) {
		extents.Y = humanSize.Y
	}
	if outOfRatio(extents.Z, humanSize.Z) {
		extents.Z = humanSize.Z
		clampedZ = true
	}

	if clampedZ {
		center.Z = humanSize.Z / 2
	}
	return center, extents
}

func outOfRatio(extent, reference float64) bool {
	if reference == 0 {
		return false
	}
	ratio := extent / reference
	return ratio < clampRatioMin || ratio > clampRatioMax
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func median(xs []float64) float64 {
	sorted := append([]float64{}, xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

func medianAbsoluteDeviation(xs []float64, center float64) float64 {
	devs := make([]float64, len(xs))
	for i, x := range xs {
		devs[i] = math.Abs(x - center)
	}
	return median(devs)
}
