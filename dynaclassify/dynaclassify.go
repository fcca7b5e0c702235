// Package dynaclassify implements C9, the DynamicClassifier: per-track
// point-voting motion detection gated by a hard-coded depth-camera
// field-of-view test.
package dynaclassify

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/dynobstacle/obstacle"
	"go.viam.com/dynobstacle/spatialmath"
	"go.viam.com/dynobstacle/tracker"
)

// Half-angle FoV tangents hard-coded per §4.9: a nominal 62°x43.6° depth
// camera.
var (
	tanHalfHFoV = math.Tan(31.0 * math.Pi / 180.0)
	tanHalfVFoV = math.Tan(21.8 * math.Pi / 180.0)
)

// maxNeighborDist caps the nearest-neighbor search distance at 2 m; points
// with no prior-frame correspondence within range do not vote.
const maxNeighborDist = 2.0

// Params bundles C9's tunables (§4.9, §6).
type Params struct {
	DT              float64 // time_difference
	SkipFrame       int     // K = frame_skip
	VelocityThresh  float64 // dyna_vel_thresh, default 0.35 m/s
	VoteThresh      float64 // dyna_vote_thresh, default 0.8
	MaxSkipRatio    float64 // max_skip_ratio, default 0.5
	DepthMaxValue   float64 // depthMaxValue, the far FoV clip
}

// Classify decides whether tr should be labeled dynamic this tick. It
// returns false (not dynamic) whenever there isn't yet enough point-cluster
// history to run the motion test, per §4.9's skip rule.
func Classify(tr *tracker.Track, poses *obstacle.PoseHistory, p Params) bool {
	if len(tr.BoxHist) > 0 && tr.BoxHist[0].IsDynamic {
		return true
	}

	k := p.SkipFrame
	if len(tr.PCHist) < k+1 {
		return false
	}

	curPC := tr.PCHist[0]
	prevPC := tr.PCHist[k]
	poseKPos, poseKRot, ok := poses.At(k)
	if !ok {
		return false
	}

	vBox := boxVelocity(tr.BoxHist[0].Center, tr.BoxHist[k].Center, p.DT, k)
	vKF := r3.Vector{X: tr.BoxHist[0].Vx, Y: tr.BoxHist[0].Vy, Z: 0}

	var total, skip, votes int
	for _, pt := range curPC.Points {
		total++

		if !insideFoV(pt.Pos, poseKPos, poseKRot, p.DepthMaxValue) {
			skip++
			continue
		}

		q, found := nearestNeighbor(pt.Pos, prevPC)
		if !found {
			skip++
			continue
		}

		vCur := r3.Vector{X: (pt.Pos.X - q.X) / (p.DT * float64(k)), Y: (pt.Pos.Y - q.Y) / (p.DT * float64(k)), Z: 0}

		if vCur.Dot(vBox) < 0 {
			skip++
			continue
		}

		if vCur.Norm() > p.VelocityThresh {
			votes++
		}
	}

	n := total - skip
	if n <= 0 {
		return false
	}

	voteRatio := float64(votes) / float64(n)
	skipRatio := float64(skip) / float64(n)

	return voteRatio >= p.VoteThresh && vKF.Norm() >= p.VelocityThresh && skipRatio < p.MaxSkipRatio
}

func boxVelocity(cur, prev r3.Vector, dt float64, k int) r3.Vector {
	denom := dt * float64(k)
	return r3.Vector{X: (cur.X - prev.X) / denom, Y: (cur.Y - prev.Y) / denom, Z: (cur.Z - prev.Z) / denom}
}

// insideFoV implements §4.9's FoV test: transform p into the camera frame of
// (position, rotation), then test the two half-angle tangent ratios and the
// far depth clip.
func insideFoV(p, position r3.Vector, rotation obstacle.RotationMatrix, depthMaxValue float64) bool {
	r := spatialmath.WorldToCamera(p, position, rotation)
	rx, ry, rz := math.Abs(r.X), math.Abs(r.Y), math.Abs(r.Z)
	if rz == 0 {
		return false
	}
	return rx/rz < tanHalfHFoV && ry/rz < tanHalfVFoV && rz < depthMaxValue
}

// nearestNeighbor returns the closest point in pc to p within
// maxNeighborDist, or ok=false if none qualifies.
func nearestNeighbor(p r3.Vector, pc obstacle.PointCluster) (r3.Vector, bool) {
	best := -1
	bestDist := maxNeighborDist
	for i, q := range pc.Points {
		d := p.Sub(q.Pos).Norm()
		if d <= bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return r3.Vector{}, false
	}
	return pc.Points[best].Pos, true
}
