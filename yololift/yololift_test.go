package yololift

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/dynobstacle/depthproj"
	"go.viam.com/dynobstacle/external"
	"go.viam.com/dynobstacle/spatialmath"
)

func testIntrinsics() depthproj.PinholeCameraIntrinsics {
	return depthproj.PinholeCameraIntrinsics{Width: 100, Height: 100, Fx: 100, Fy: 100, Ppx: 50, Ppy: 50}
}

func flatFrame(rows, cols int, raw uint16) depthproj.DepthImage {
	pix := make([]uint16, rows*cols)
	for i := range pix {
		pix[i] = raw
	}
	return depthproj.DepthImage{Rows: rows, Cols: cols, Pix: pix}
}

func testParams() Params {
	return Params{ScaleFactor: 1000, Margin: 0, DMin: 0.2, DMax: 10.0}
}

// TestLiftFarOverwriteS4 mirrors scenario S4: a Yolo box at 5.0 m, far
// enough that the human-size clamp applies, with is_dynamic always true.
func TestLiftFarOverwriteS4(t *testing.T) {
	frame := flatFrame(100, 100, 5000) // 5.0 m everywhere
	det := external.YoloDetection2D{TopLeftX: 30, TopLeftY: 30, SizeX: 40, SizeY: 40}
	pose := spatialmath.NewZeroPose()

	box, ok := Lift(det, frame, testIntrinsics(), pose, testParams())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, box.IsDynamic, test.ShouldBeTrue)
	// The 40px ROI at 5 m spans 2.0 m on x and y (4x the human size), and a
	// flat depth ROI has zero z-extent, so all three axes should clamp.
	test.That(t, box.Extents.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, box.Extents.Y, test.ShouldAlmostEqual, 0.5)
	test.That(t, box.Extents.Z, test.ShouldAlmostEqual, 1.8)
	test.That(t, box.Center.Z, test.ShouldAlmostEqual, 0.9)
}

func TestLiftEmptyROIFails(t *testing.T) {
	frame := flatFrame(100, 100, 5000)
	det := external.YoloDetection2D{TopLeftX: 30, TopLeftY: 30, SizeX: 0, SizeY: 0}
	_, ok := Lift(det, frame, testIntrinsics(), spatialmath.NewZeroPose(), testParams())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLiftNoValidDepthFails(t *testing.T) {
	frame := flatFrame(100, 100, 0) // all raw=0, treated as no-depth in ROI scan
	det := external.YoloDetection2D{TopLeftX: 30, TopLeftY: 30, SizeX: 20, SizeY: 20}
	_, ok := Lift(det, frame, testIntrinsics(), spatialmath.NewZeroPose(), testParams())
	test.That(t, ok, test.ShouldBeFalse)
}

func TestLiftWithinClampNoOverwrite(t *testing.T) {
	// Build a ROI sized so the camera-frame extent lands within the human
	// size ratio bounds on x/y; z-extent is flat (0) so it always clamps.
	pix := make([]uint16, 100*100)
	for i := range pix {
		pix[i] = 3000 // 3.0 m
	}
	frame := depthproj.DepthImage{Rows: 100, Cols: 100, Pix: pix}
	// ROI width 20px at 3m, fx=100 => extent = 20*3/100 = 0.6m -> ratio 1.2 (within bounds for x, since humanSize.X=0.5)
	det := external.YoloDetection2D{TopLeftX: 40, TopLeftY: 40, SizeX: 20, SizeY: 20}

	box, ok := Lift(det, frame, testIntrinsics(), spatialmath.NewZeroPose(), testParams())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, box.Extents.X, test.ShouldAlmostEqual, 0.6)
	test.That(t, box.Extents.Y, test.ShouldAlmostEqual, 0.6)
	// z is still flat (0 extent) so it clamps regardless.
	test.That(t, box.Extents.Z, test.ShouldAlmostEqual, 1.8)
}

func TestLiftTransformsToWorldFrame(t *testing.T) {
	frame := flatFrame(100, 100, 3000)
	det := external.YoloDetection2D{TopLeftX: 40, TopLeftY: 40, SizeX: 20, SizeY: 20}
	pose := spatialmath.NewPoseFromOrientation(r3.Vector{X: 10, Y: 0, Z: 0}, spatialmath.NewZeroOrientation())

	box, ok := Lift(det, frame, testIntrinsics(), pose, testParams())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, box.Center.X >= 10, test.ShouldBeTrue)
}
