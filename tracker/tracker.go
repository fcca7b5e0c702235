package tracker

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynobstacle/boxfuser"
	"go.viam.com/dynobstacle/kalman"
	"go.viam.com/dynobstacle/obstacle"
)

// featureWeights are the §4.7 weights applied, in order, to
// (x-ex, y-ey, z-ez, xW, yW, zW, count, sx, sy, sz).
var featureWeights = []float64{2, 2, 2, 1, 1, 1, 0.5, 0.5, 0.5, 0.5}

// Params bundles C7's tunables (§4.7, §6).
type Params struct {
	HistorySize int     // H, default 5 — also the unmatched-tick eviction threshold
	SimThresh   float64 // default 0.9
	DT          float64 // Δt, default 0.033 s
}

// Tracker maintains the set of Tracks described in §3, associating each
// tick's fused detections to existing tracks by feature-cosine similarity
// gated on a positive predicted-box IoU.
type Tracker struct {
	params Params
	kf     *kalman.Filter
	tracks []*Track
	nextID int
}

// New builds a Tracker backed by a Kalman filter configured from kcfg.
func New(p Params, kcfg kalman.Config) *Tracker {
	return &Tracker{params: p, kf: kalman.NewFilter(kcfg)}
}

// Tracks returns the tracker's current track set, ordered as maintained
// internally (not the per-tick detection order — see Update's return value
// for that).
func (t *Tracker) Tracks() []*Track {
	return t.tracks
}

// Update runs one detect-tick's worth of fused boxes through boxAssociation
// (§4.7), creating, updating, and evicting tracks, and returns the tracks
// matched to (or created for) this tick's detections in the same order as
// fused.
func (t *Tracker) Update(fused []boxfuser.Fused, egoPos r3.Vector) []*Track {
	if len(t.tracks) == 0 {
		out := make([]*Track, len(fused))
		for i, f := range fused {
			nt := newTrack(t.nextID, f, t.kf)
			t.nextID++
			t.tracks = append(t.tracks, nt)
			out[i] = nt
		}
		return out
	}

	predicted := make([]obstacle.Box3, len(t.tracks))
	predictedFeat := make([][]float64, len(t.tracks))
	for j, tr := range t.tracks {
		predicted[j] = tr.predictedBox(t.params.DT)
		predictedFeat[j] = featureVector(predicted[j], tr.latestCluster(), egoPos)
	}

	matchedTrack := make([]int, len(fused)) // -1 if unmatched
	out := make([]*Track, len(fused))
	seenThisTick := make(map[*Track]bool) // matched or freshly created

	for i, f := range fused {
		var cluster obstacle.PointCluster
		if f.Cluster != nil {
			cluster = *f.Cluster
		}
		g := featureVector(f.Box, cluster, egoPos)

		best, bestSim := -1, -1.0
		for j := range t.tracks {
			sim := cosineSimilarity(predictedFeat[j], g)
			if sim > bestSim {
				bestSim = sim
				best = j
			}
		}

		matchedTrack[i] = -1
		if best >= 0 && bestSim > t.params.SimThresh && boxfuser.IoU(f.Box, predicted[best]) > 0 {
			matchedTrack[i] = best
		}
	}

	for i, f := range fused {
		var cluster obstacle.PointCluster
		if f.Cluster != nil {
			cluster = *f.Cluster
		}

		j := matchedTrack[i]
		if j < 0 {
			nt := newTrack(t.nextID, f, t.kf)
			t.nextID++
			t.tracks = append(t.tracks, nt)
			seenThisTick[nt] = true
			out[i] = nt
			continue
		}

		tr := t.tracks[j]
		prevX, prevY := tr.BoxHist[0].Center.X, tr.BoxHist[0].Center.Y
		z := observation(f.Box.Center.X, f.Box.Center.Y, prevX, prevY, t.params.DT)

		predictedState := t.kf.Predict(tr.Kalman)
		updated := t.kf.Update(predictedState, z)
		tr.Kalman = updated

		x, y, vx, vy := updated.PositionVelocity()
		newBox := f.Box
		newBox.Center = r3.Vector{X: x, Y: y, Z: f.Box.Center.Z}
		newBox.Vx, newBox.Vy = vx, vy
		newBox.IsDynamic = f.Box.IsDynamic

		tr.pushHistory(newBox, cluster, t.params.HistorySize)
		tr.UnmatchedTicks = 0
		seenThisTick[tr] = true
		out[i] = tr
	}

	t.evictUnmatched(seenThisTick)
	return out
}

// evictUnmatched increments unmatchedTicks for every pre-existing track not
// referenced in seen this tick (tracks created this tick are exempt — they
// start their life at zero), then drops any track whose unmatchedTicks has
// reached H (§9 open question 1).
func (t *Tracker) evictUnmatched(seen map[*Track]bool) {
	var kept []*Track
	for _, tr := range t.tracks {
		if !seen[tr] {
			tr.UnmatchedTicks++
		}
		if tr.UnmatchedTicks >= t.params.HistorySize {
			continue
		}
		kept = append(kept, tr)
	}
	t.tracks = kept
}

// observation builds z = [x, y, Vx, Vy] from the current detection and the
// track's previous (x, y), per §4.8.
func observation(x, y, prevX, prevY, dt float64) mat.VecDense {
	return *mat.NewVecDense(4, []float64{x, y, (x - prevX) / dt, (y - prevY) / dt})
}

// featureVector builds the 10-dim weighted vector of §4.7b for a box and the
// cluster associated with it.
func featureVector(box obstacle.Box3, pc obstacle.PointCluster, egoPos r3.Vector) []float64 {
	raw := []float64{
		box.Center.X - egoPos.X,
		box.Center.Y - egoPos.Y,
		box.Center.Z - egoPos.Z,
		box.Extents.X,
		box.Extents.Y,
		box.Extents.Z,
		float64(len(pc.Points)),
		pc.Std.X,
		pc.Std.Y,
		pc.Std.Z,
	}
	out := make([]float64, len(raw))
	floats.MulTo(out, raw, featureWeights)
	return out
}

// cosineSimilarity returns ⟨a,b⟩ / (‖a‖·‖b‖), or 0 if either vector is zero.
func cosineSimilarity(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
