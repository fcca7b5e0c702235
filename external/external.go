// Package external defines the collaborator contracts §6 treats as black
// boxes: the depth/aligned-depth frame sources, the pose source, the
// external 2D (Yolo) detector, and the geometric UV disparity detector.
// These mirror the teacher's pattern of exposing every external
// sensor/service as a narrow Go interface (cf. components/camera's
// NextPointCloud, lidar's client interfaces) rather than a shared abstract
// base class (§9 design notes).
package external

import (
	"context"

	"go.viam.com/dynobstacle/depthproj"
	"go.viam.com/dynobstacle/spatialmath"
)

// DepthFrameSource produces the depth-camera-frame depth image stream.
type DepthFrameSource interface {
	NextDepthFrame(ctx context.Context) (depthproj.DepthImage, error)
}

// AlignedDepthFrameSource produces the color-camera-aligned depth image
// stream Yolo detections are indexed against.
type AlignedDepthFrameSource interface {
	NextAlignedDepthFrame(ctx context.Context) (depthproj.DepthImage, error)
}

// PoseSource produces the current world-frame pose of the depth camera and,
// separately, the color camera (the body-to-sensor extrinsics differ).
type PoseSource interface {
	CurrentPose(ctx context.Context) (depthPose, colorPose spatialmath.Pose, err error)
}

// YoloDetection2D is one external 2D object detection in the aligned-depth
// image frame: a top-left corner and a size, both in pixels.
type YoloDetection2D struct {
	TopLeftX, TopLeftY float64
	SizeX, SizeY       float64
	Class              string
}

// YoloDetector produces the external 2D detections for the current aligned
// depth frame.
type YoloDetector interface {
	Detect(ctx context.Context, frame depthproj.DepthImage) ([]YoloDetection2D, error)
}

// CameraBox is an axis-aligned box expressed in the depth camera's own
// frame, the shape the UVDetector and (pre-transform) YoloLifter work in.
type CameraBox struct {
	X, Y, Z                   float64
	XWidth, YWidth, ZWidth    float64
}

// UVDetector proposes 3D boxes from raw depth by geometric U-V disparity
// analysis (bird-view/U-map construction), treated as a black box per §1.
type UVDetector interface {
	Detect(ctx context.Context, depth depthproj.DepthImage, intr depthproj.PinholeCameraIntrinsics, maxDistMillimeters float64) ([]CameraBox, error)
}
