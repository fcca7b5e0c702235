package depthproj

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/dynobstacle/spatialmath"
)

func testIntrinsics() PinholeCameraIntrinsics {
	return PinholeCameraIntrinsics{Width: 64, Height: 48, Fx: 60, Fy: 60, Ppx: 32, Ppy: 24}
}

func flatDepthImage(rows, cols int, raw uint16) DepthImage {
	pix := make([]uint16, rows*cols)
	for i := range pix {
		pix[i] = raw
	}
	return DepthImage{Rows: rows, Cols: cols, Pix: pix}
}

func TestProjectDiscardsBelowDMin(t *testing.T) {
	img := flatDepthImage(48, 64, 100) // 0.1 m at scale 1000, below dMin=0.2
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	test.That(t, len(result.Points), test.ShouldEqual, 0)
}

func TestProjectBoundaryDMinRetained(t *testing.T) {
	// Exactly at dMin: 200 raw units / 1000 = 0.2 m, must be retained.
	img := flatDepthImage(48, 64, 200)
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	test.That(t, len(result.Points) > 0, test.ShouldBeTrue)
	for _, p := range result.Points {
		test.That(t, p.Depth, test.ShouldAlmostEqual, 0.2)
	}
}

func TestProjectBoundaryDMaxRetainedNotClamped(t *testing.T) {
	// Exactly at dMax: 5000/1000 = 5.0 m, must be retained as-is, not
	// replaced by the far-clip value.
	img := flatDepthImage(48, 64, 5000)
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	test.That(t, len(result.Points) > 0, test.ShouldBeTrue)
	for _, p := range result.Points {
		test.That(t, p.Depth, test.ShouldAlmostEqual, 5.0)
	}
}

func TestProjectAboveDMaxClampedToRaycast(t *testing.T) {
	img := flatDepthImage(48, 64, 6000) // 6.0 m, above dMax=5.0
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	test.That(t, len(result.Points) > 0, test.ShouldBeTrue)
	for _, p := range result.Points {
		test.That(t, p.Depth, test.ShouldAlmostEqual, 5.1)
	}
}

func TestProjectZeroRawIsFarClip(t *testing.T) {
	img := flatDepthImage(48, 64, 0)
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	test.That(t, len(result.Points) > 0, test.ShouldBeTrue)
	for _, p := range result.Points {
		test.That(t, p.Depth, test.ShouldAlmostEqual, 5.1)
	}
}

func TestProjectMarginAndSkip(t *testing.T) {
	img := flatDepthImage(48, 64, 1000)
	params := Params{ScaleFactor: 1000, Skip: 2, Margin: 4, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	result := Project(img, testIntrinsics(), spatialmath.NewZeroPose(), params)
	expectedRows := 0
	for v := 4; v < 48-4; v += 2 {
		for u := 4; u < 64-4; u += 2 {
			_ = u
			expectedRows++
		}
	}
	test.That(t, len(result.Points), test.ShouldEqual, expectedRows)
}

// TestProjectUnprojectRoundTrip exercises §8 property 7: unprojecting a
// non-clamped pixel and reprojecting it with the same intrinsics recovers
// the original pixel within +-1.
func TestProjectUnprojectRoundTrip(t *testing.T) {
	intr := testIntrinsics()
	for _, uv := range [][2]int{{32, 24}, {10, 10}, {50, 5}, {20, 40}} {
		u, v := uv[0], uv[1]
		d := 2.5
		camPoint := r3.Vector{
			X: (float64(u) - intr.Ppx) * d / intr.Fx,
			Y: (float64(v) - intr.Ppy) * d / intr.Fy,
			Z: d,
		}
		ru, rv := Unproject(camPoint, intr)
		test.That(t, math.Abs(ru-float64(u)) <= 1.0, test.ShouldBeTrue)
		test.That(t, math.Abs(rv-float64(v)) <= 1.0, test.ShouldBeTrue)
	}
}

func TestProjectAppliesPose(t *testing.T) {
	img := flatDepthImage(48, 64, 2000) // 2.0 m
	params := Params{ScaleFactor: 1000, Skip: 1, Margin: 0, DMin: 0.2, DMax: 5.0, RaycastMax: 5.0}
	pose := spatialmath.NewPoseFromOrientation(r3.Vector{X: 10, Y: 0, Z: 0}, spatialmath.NewZeroOrientation())
	result := Project(img, testIntrinsics(), pose, params)
	test.That(t, len(result.Points) > 0, test.ShouldBeTrue)
	// The principal-point pixel projects straight ahead in camera frame, so
	// its world X should be offset by the pose translation.
	center := result.Points[24*64+32] // row Ppy=24, column Ppx=32
	test.That(t, center.Pos.X >= 9, test.ShouldBeTrue)
}
