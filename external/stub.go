package external

import (
	"context"

	"go.viam.com/dynobstacle/depthproj"
)

// StubUVDetector is a deterministic in-process UVDetector used by tests and
// simulations in place of the real geometric bird-view/U-map collaborator:
// it always returns the boxes it was constructed with, ignoring its inputs.
type StubUVDetector struct {
	Boxes []CameraBox
}

// Detect implements UVDetector.
func (s *StubUVDetector) Detect(
	ctx context.Context,
	depth depthproj.DepthImage,
	intr depthproj.PinholeCameraIntrinsics,
	maxDistMillimeters float64,
) ([]CameraBox, error) {
	return s.Boxes, nil
}
