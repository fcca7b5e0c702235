package boxfuser

import "go.viam.com/dynobstacle/obstacle"

// IoU computes the C-IoU variant of §4.6: per-axis separation lengths with a
// full-containment correction, folded into a volumetric intersection over
// union. IoU(a,b) == IoU(b,a); IoU(a,a) == 1; IoU == 0 whenever the boxes
// have an empty overlap on any axis.
func IoU(a, b obstacle.Box3) float64 {
	ox, ok := axisOverlap(a.Min().X, a.Max().X, a.Extents.X, b.Min().X, b.Max().X, b.Extents.X)
	if !ok {
		return 0
	}
	oy, ok := axisOverlap(a.Min().Y, a.Max().Y, a.Extents.Y, b.Min().Y, b.Max().Y, b.Extents.Y)
	if !ok {
		return 0
	}
	oz, ok := axisOverlap(a.Min().Z, a.Max().Z, a.Extents.Z, b.Min().Z, b.Max().Z, b.Extents.Z)
	if !ok {
		return 0
	}

	overlapVol := ox * oy * oz
	vol1 := a.Extents.X * a.Extents.Y * a.Extents.Z
	vol2 := b.Extents.X * b.Extents.Y * b.Extents.Z
	denom := vol1 + vol2 - overlapVol
	if denom <= 0 {
		return 0
	}
	return overlapVol / denom
}

// axisOverlap computes the 1D overlap length on one axis, per §4.6: L1 is
// the distance from box1's far face to box2's near face, L2 the reverse;
// overlap is min(L1,L2), corrected to min(width1,width2) under full
// containment (max(L1,L2) <= max(width1,width2)). Returns ok=false when the
// resulting overlap is <= 0 (no intersection on this axis).
func axisOverlap(min1, max1, width1, min2, max2, width2 float64) (float64, bool) {
	l1 := max1 - min2
	l2 := max2 - min1

	overlap := l1
	if l2 < overlap {
		overlap = l2
	}

	maxWidth := width1
	if width2 > maxWidth {
		maxWidth = width2
	}
	maxL := l1
	if l2 > maxL {
		maxL = l2
	}
	if maxL <= maxWidth {
		overlap = width1
		if width2 < overlap {
			overlap = width2
		}
	}

	if overlap <= 0 {
		return 0, false
	}
	return overlap, true
}

// conservativeUnion returns the axis-aligned box spanning both a and b
// completely: per-axis min/max of the two boxes, extents = max-min. The
// result is never smaller than either input on any axis, so repeated fusion
// only grows a box.
func conservativeUnion(a, b obstacle.Box3, id int) obstacle.Box3 {
	aMin, aMax := a.Min(), a.Max()
	bMin, bMax := b.Min(), b.Max()

	min := componentMin(aMin, bMin)
	max := componentMax(aMax, bMax)

	center := min.Add(max).Scale(0.5)
	extents := max.Sub(min)
	return obstacle.NewBox3(center, extents, id)
}
