// Package tracker implements C7, the Tracker: feature-cosine association of
// fused detections to persistent Tracks across frames, propagation via
// constant-velocity prediction, and bounded history management.
package tracker

import (
	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"go.viam.com/dynobstacle/boxfuser"
	"go.viam.com/dynobstacle/kalman"
	"go.viam.com/dynobstacle/obstacle"
)

// Track is a persistent identity bundling bounded box/cluster history and a
// Kalman state, per §3.
type Track struct {
	ID             int
	UUID           string
	BoxHist        []obstacle.Box3
	PCHist         []obstacle.PointCluster
	Kalman         *kalman.State
	UnmatchedTicks int
}

// pushHistory pushes box/pc to the front of the track's bounded history,
// popping the back once length exceeds capacity. Maintains the §3
// invariant len(BoxHist) == len(PCHist) <= capacity.
func (t *Track) pushHistory(box obstacle.Box3, pc obstacle.PointCluster, capacity int) {
	t.BoxHist = append([]obstacle.Box3{box}, t.BoxHist...)
	t.PCHist = append([]obstacle.PointCluster{pc}, t.PCHist...)
	if len(t.BoxHist) > capacity {
		t.BoxHist = t.BoxHist[:capacity]
	}
	if len(t.PCHist) > capacity {
		t.PCHist = t.PCHist[:capacity]
	}
}

func newTrackID() string {
	return uuid.NewString()
}

// predictedBox returns the track's newest history box propagated forward by
// dt using its constant-velocity estimate, per §4.7 step 2a.
func (t *Track) predictedBox(dt float64) obstacle.Box3 {
	box := t.BoxHist[0]
	box.Center = r3.Vector{X: box.Center.X + box.Vx*dt, Y: box.Center.Y + box.Vy*dt, Z: box.Center.Z}
	return box
}

// latestCluster returns the track's most recent point cluster, or a zero
// cluster if none has been recorded yet.
func (t *Track) latestCluster() obstacle.PointCluster {
	if len(t.PCHist) == 0 {
		return obstacle.PointCluster{}
	}
	return t.PCHist[0]
}

// newTrack seeds a fresh Track from one fused detection: the box becomes the
// newest history entry, the cluster (if any) the newest pc-history entry,
// and a fresh Kalman state is centered on (x,y) with zero velocity (§4.7
// step 1).
func newTrack(id int, f boxfuser.Fused, kf *kalman.Filter) *Track {
	t := &Track{ID: id, UUID: newTrackID(), Kalman: kf.NewState(f.Box.Center.X, f.Box.Center.Y)}
	var pc obstacle.PointCluster
	if f.Cluster != nil {
		pc = *f.Cluster
	}
	t.BoxHist = []obstacle.Box3{f.Box}
	t.PCHist = []obstacle.PointCluster{pc}
	return t
}
