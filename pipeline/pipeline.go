// Package pipeline implements C10, the orchestrator: one cooperative,
// single-threaded tick driving detect, track, classify, and visualize in
// order, wiring together every upstream component. Modeled after the
// teacher's single-worker timer-driven executors (cf. the control package's
// periodic loops) rather than a goroutine-per-phase design (§9 design
// notes — no internal mutexes, suspension only at tick boundaries).
package pipeline

import (
	"context"
	"time"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/dynobstacle/boxfuser"
	"go.viam.com/dynobstacle/config"
	"go.viam.com/dynobstacle/dbscan"
	"go.viam.com/dynobstacle/depthproj"
	"go.viam.com/dynobstacle/dynaclassify"
	"go.viam.com/dynobstacle/external"
	"go.viam.com/dynobstacle/kalman"
	"go.viam.com/dynobstacle/logging"
	"go.viam.com/dynobstacle/obstacle"
	"go.viam.com/dynobstacle/spatialmath"
	"go.viam.com/dynobstacle/tracker"
	"go.viam.com/dynobstacle/voxelfilter"
	"go.viam.com/dynobstacle/yololift"
)

// Collaborators bundles the external, per-camera sensor/service boundaries
// the pipeline treats as black boxes (§1, §6).
type Collaborators struct {
	Depth         external.DepthFrameSource
	AlignedDepth  external.AlignedDepthFrameSource
	Pose          external.PoseSource
	Yolo          external.YoloDetector
	UV            external.UVDetector
}

// FrameState is the shared state described in §3, readable by callers after
// each tick for diagnostics or downstream consumption. Renderers are out of
// scope (§1); only the data backing the two named diagnostic visuals is
// kept (§4.10 expanded visualize contract).
type FrameState struct {
	NewDetection bool

	FilteredDepthCloud []obstacle.Point3
	Tracks             []*tracker.Track
	DynamicTrackIDs    []int
	HistoryTrajectories map[int][]r3.Vector
}

// Pipeline is one camera's full detect/track/classify/visualize loop.
type Pipeline struct {
	cfg     config.Config
	log     logging.Logger
	collab  Collaborators
	tracker *tracker.Tracker
	poses   *obstacle.PoseHistory

	state FrameState
}

// New builds a Pipeline from cfg and its collaborators.
func New(cfg config.Config, log logging.Logger, collab Collaborators) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		log:    log.Named("pipeline"),
		collab: collab,
		tracker: tracker.New(
			tracker.Params{HistorySize: cfg.HistorySize, SimThresh: cfg.SimilarityThresh, DT: cfg.TimeDifference},
			kalman.Config{DT: cfg.TimeDifference, EP: cfg.EP, EQ: cfg.EQ, ER: cfg.ER},
		),
		poses: obstacle.NewPoseHistory(cfg.FrameSkip),
	}
}

// State returns the FrameState as of the end of the most recently completed
// tick.
func (p *Pipeline) State() FrameState {
	return p.state
}

// Run drives Tick once per cfg.TimeDifference seconds until ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Duration(p.cfg.TimeDifference * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.log.Errorw("tick failed", "error", err)
			}
		}
	}
}

// Tick runs one period's four phases in order: detect, track, classify,
// visualize (§4.10).
func (p *Pipeline) Tick(ctx context.Context) error {
	fused, egoPos, err := p.detect(ctx)
	if err != nil {
		return err
	}
	p.state.NewDetection = true

	p.track(fused, egoPos)
	p.state.NewDetection = false

	p.classify()
	p.visualize()

	return nil
}

// detect runs C1-C6: depth unprojection, voxel filtering, DBSCAN
// clustering, UV and Yolo detection, and box fusion. Pose history is
// updated here, as part of detection, per §4.10.
func (p *Pipeline) detect(ctx context.Context) ([]boxfuser.Fused, r3.Vector, error) {
	depthFrame, err := p.collab.Depth.NextDepthFrame(ctx)
	if err != nil {
		return nil, r3.Vector{}, err
	}

	depthPose, colorPose, err := p.collab.Pose.CurrentPose(ctx)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	p.poses.Push(depthPose.Position, depthPose.RotationMatrixArray())

	projected := depthproj.Project(depthFrame, p.depthIntrinsics(), depthPose, p.depthprojParams())
	filtered := voxelfilter.Filter(projected.Points, p.voxelParams(depthPose.Position))
	clusters, dbscanBoxes := dbscan.Cluster(filtered, p.dbscanParams())

	var errs error

	uvBoxes, uvErr := p.detectUV(ctx, depthFrame, depthPose)
	errs = multierr.Append(errs, uvErr)

	yoloBoxes, yoloErr := p.detectYolo(ctx, colorPose)
	errs = multierr.Append(errs, yoloErr)
	if errs != nil {
		p.log.Warnw("detect tick had partial sub-detector failures", "error", errs)
	}

	fused := boxfuser.Fuse(uvBoxes, dbscanBoxes, clusters, yoloBoxes, depthPose.Position, p.boxfuserParams())

	p.state.FilteredDepthCloud = filtered
	return fused, depthPose.Position, nil
}

func (p *Pipeline) detectUV(ctx context.Context, depthFrame depthproj.DepthImage, depthPose spatialmath.Pose) ([]obstacle.Box3, error) {
	if p.collab.UV == nil {
		return nil, nil
	}
	camBoxes, err := p.collab.UV.Detect(ctx, depthFrame, p.depthIntrinsics(), p.cfg.RaycastMaxLength*p.cfg.DepthScaleFactor)
	if err != nil {
		return nil, err
	}

	out := make([]obstacle.Box3, len(camBoxes))
	for i, cb := range camBoxes {
		center := r3.Vector{X: cb.X, Y: cb.Y, Z: cb.Z}
		extents := r3.Vector{X: cb.XWidth, Y: cb.YWidth, Z: cb.ZWidth}
		worldCenter, worldExtents := spatialmath.TransformBoxToWorld(center, extents, depthPose)
		out[i] = obstacle.NewBox3(worldCenter, worldExtents, i+1)
	}
	return out, nil
}

func (p *Pipeline) detectYolo(ctx context.Context, colorPose spatialmath.Pose) ([]obstacle.Box3, error) {
	if p.collab.Yolo == nil || p.collab.AlignedDepth == nil {
		return nil, nil
	}
	aligned, err := p.collab.AlignedDepth.NextAlignedDepthFrame(ctx)
	if err != nil {
		return nil, err
	}
	dets, err := p.collab.Yolo.Detect(ctx, aligned)
	if err != nil {
		return nil, err
	}

	var out []obstacle.Box3
	for _, det := range dets {
		box, ok := yololift.Lift(det, aligned, p.colorIntrinsics(), colorPose, p.yololiftParams())
		if !ok {
			continue
		}
		out = append(out, box)
	}
	return out, nil
}

// track runs C7/C8: feature-cosine association, Kalman-fed estimate update,
// and bounded history management.
func (p *Pipeline) track(fused []boxfuser.Fused, egoPos r3.Vector) {
	p.tracker.Update(fused, egoPos)
	p.state.Tracks = p.tracker.Tracks()
}

// classify runs C9 over the full current track set.
func (p *Pipeline) classify() {
	params := dynaclassify.Params{
		DT:             p.cfg.TimeDifference,
		SkipFrame:      p.cfg.FrameSkip,
		VelocityThresh: p.cfg.DynamicVelocityThreshold,
		VoteThresh:     p.cfg.DynamicVotingThreshold,
		MaxSkipRatio:   p.cfg.MaximumSkipRatio,
		DepthMaxValue:  p.cfg.DepthMaxValue,
	}

	var dynamic []int
	for _, tr := range p.state.Tracks {
		if dynaclassify.Classify(tr, p.poses, params) {
			dynamic = append(dynamic, tr.ID)
		}
	}
	p.state.DynamicTrackIDs = dynamic
}

// visualize builds the data backing the two diagnostic visuals named in §6
// (U-map stays opaque to the UVDetector collaborator).
func (p *Pipeline) visualize() {
	trajectories := make(map[int][]r3.Vector, len(p.state.Tracks))
	for _, tr := range p.state.Tracks {
		positions := make([]r3.Vector, len(tr.BoxHist))
		for i, b := range tr.BoxHist {
			positions[i] = b.Center
		}
		trajectories[tr.ID] = positions
	}
	p.state.HistoryTrajectories = trajectories
}

func (p *Pipeline) depthIntrinsics() depthproj.PinholeCameraIntrinsics {
	return depthproj.PinholeCameraIntrinsics{
		Width: p.cfg.ImageCols, Height: p.cfg.ImageRows,
		Fx: p.cfg.DepthIntrinsics.Fx, Fy: p.cfg.DepthIntrinsics.Fy,
		Ppx: p.cfg.DepthIntrinsics.Cx, Ppy: p.cfg.DepthIntrinsics.Cy,
	}
}

func (p *Pipeline) colorIntrinsics() depthproj.PinholeCameraIntrinsics {
	return depthproj.PinholeCameraIntrinsics{
		Width: p.cfg.ImageCols, Height: p.cfg.ImageRows,
		Fx: p.cfg.ColorIntrinsics.Fx, Fy: p.cfg.ColorIntrinsics.Fy,
		Ppx: p.cfg.ColorIntrinsics.Cx, Ppy: p.cfg.ColorIntrinsics.Cy,
	}
}

func (p *Pipeline) depthprojParams() depthproj.Params {
	return depthproj.Params{
		ScaleFactor: p.cfg.DepthScaleFactor,
		Skip:        p.cfg.DepthSkipPixel,
		Margin:      p.cfg.DepthFilterMargin,
		DMin:        p.cfg.DepthMinValue,
		DMax:        p.cfg.DepthMaxValue,
		RaycastMax:  p.cfg.RaycastMaxLength,
	}
}

func (p *Pipeline) voxelParams(egoPos r3.Vector) voxelfilter.Params {
	return voxelfilter.Params{
		Center:       egoPos,
		Resolution:   0.1,
		GroundHeight: p.cfg.GroundHeight,
		RaycastMax:   p.cfg.RaycastMaxLength,
		Occupied:     p.cfg.VoxelOccupiedThresh,
	}
}

func (p *Pipeline) dbscanParams() dbscan.Params {
	return dbscan.Params{MinPts: p.cfg.DBSCANMinPointsCluster, Epsilon: p.cfg.DBSCANSearchEpsilon}
}

func (p *Pipeline) yololiftParams() yololift.Params {
	return yololift.Params{
		ScaleFactor: p.cfg.DepthScaleFactor,
		Margin:      p.cfg.DepthFilterMargin,
		DMin:        p.cfg.DepthMinValue,
		DMax:        p.cfg.DepthMaxValue,
	}
}

func (p *Pipeline) boxfuserParams() boxfuser.Params {
	return boxfuser.Params{IOUThreshold: p.cfg.FilteringBBoxIOUThreshold, YoloOverwriteDistance: p.cfg.YoloOverwriteDistance}
}
