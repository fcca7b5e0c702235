package config

import (
	"testing"

	"go.viam.com/test"
)

func validAttrs() AttributeMap {
	return AttributeMap{
		"depth_intrinsics": map[string]interface{}{
			"fx": 600.0, "fy": 600.0, "cx": 320.0, "cy": 240.0,
		},
	}
}

func TestDefaultConfigMatchesSpecTable(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.DepthScaleFactor, test.ShouldEqual, 1000.0)
	test.That(t, cfg.DepthMinValue, test.ShouldEqual, 0.2)
	test.That(t, cfg.DepthMaxValue, test.ShouldEqual, 5.0)
	test.That(t, cfg.VoxelOccupiedThresh, test.ShouldEqual, 10)
	test.That(t, cfg.DBSCANMinPointsCluster, test.ShouldEqual, 18)
	test.That(t, cfg.DBSCANSearchEpsilon, test.ShouldEqual, 0.3)
	test.That(t, cfg.FilteringBBoxIOUThreshold, test.ShouldEqual, 0.5)
	test.That(t, cfg.YoloOverwriteDistance, test.ShouldEqual, 3.5)
	test.That(t, cfg.HistorySize, test.ShouldEqual, 5)
	test.That(t, cfg.TimeDifference, test.ShouldEqual, 0.033)
	test.That(t, cfg.SimilarityThresh, test.ShouldEqual, 0.9)
	test.That(t, cfg.FrameSkip, test.ShouldEqual, 5)
	test.That(t, cfg.DynamicVelocityThreshold, test.ShouldEqual, 0.35)
	test.That(t, cfg.DynamicVotingThreshold, test.ShouldEqual, 0.8)
	test.That(t, cfg.MaximumSkipRatio, test.ShouldEqual, 0.5)
	test.That(t, cfg.EP, test.ShouldEqual, 0.5)
	test.That(t, cfg.EQ, test.ShouldEqual, 0.5)
	test.That(t, cfg.ER, test.ShouldEqual, 0.5)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	attrs := validAttrs()
	attrs["history_size"] = 8
	attrs["frame_skip"] = 3

	cfg, err := Decode(attrs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.HistorySize, test.ShouldEqual, 8)
	test.That(t, cfg.FrameSkip, test.ShouldEqual, 3)
	// Untouched keys keep their defaults.
	test.That(t, cfg.DBSCANMinPointsCluster, test.ShouldEqual, 18)
}

func TestDecodeMissingIntrinsicsIsFatal(t *testing.T) {
	_, err := Decode(AttributeMap{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateRejectsFrameSkipAboveHistory(t *testing.T) {
	attrs := validAttrs()
	attrs["frame_skip"] = 9
	attrs["history_size"] = 5

	_, err := Decode(attrs)
	test.That(t, err, test.ShouldNotBeNil)
}

// TestKalmanConfigDistinctKeys pins §9 open question 3: e_q must not load
// under e_p's key, and vice versa.
func TestKalmanConfigDistinctKeys(t *testing.T) {
	attrs := validAttrs()
	attrs["e_q"] = 1.25

	cfg, err := Decode(attrs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.EQ, test.ShouldEqual, 1.25)
	test.That(t, cfg.EP, test.ShouldEqual, 0.5)
	test.That(t, cfg.ER, test.ShouldEqual, 0.5)
}
