// Package config defines the pipeline's configuration surface: the typed
// struct enumerated in spec §6, decodable from an AttributeMap the same way
// the teacher's config package decodes component attributes via
// mapstructure, plus the defaults and validation spec §7 requires.
package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// LocalizationMode selects whether pose comes from a 6-DoF pose stream or an
// odometry stream.
type LocalizationMode int

const (
	// LocalizationModePose consumes a 6-DoF pose-with-timestamp stream.
	LocalizationModePose LocalizationMode = 0
	// LocalizationModeOdom consumes an odometry stream.
	LocalizationModeOdom LocalizationMode = 1
)

// Intrinsics is a pinhole camera model: focal lengths and principal point.
type Intrinsics struct {
	Fx float64 `mapstructure:"fx"`
	Fy float64 `mapstructure:"fy"`
	Cx float64 `mapstructure:"cx"`
	Cy float64 `mapstructure:"cy"`
}

// Extrinsics is a fixed body-to-sensor 4x4 rigid transform.
type Extrinsics [4][4]float64

// IdentityExtrinsics returns the identity 4x4 transform.
func IdentityExtrinsics() Extrinsics {
	var e Extrinsics
	for i := 0; i < 4; i++ {
		e[i][i] = 1
	}
	return e
}

// AttributeMap is a loosely-typed attribute bag, decoded into Config via
// mapstructure, matching the teacher's config.AttributeMap pattern.
type AttributeMap map[string]interface{}

// Config is the full configuration surface of spec §6.
type Config struct {
	LocalizationMode LocalizationMode `mapstructure:"localization_mode"`

	DepthIntrinsics Intrinsics `mapstructure:"depth_intrinsics"`
	ColorIntrinsics Intrinsics `mapstructure:"color_intrinsics"`

	BodyToCamera      Extrinsics `mapstructure:"body_to_camera"`
	BodyToCameraColor Extrinsics `mapstructure:"body_to_camera_color"`

	DepthScaleFactor float64 `mapstructure:"depth_scale_factor"`
	DepthMinValue    float64 `mapstructure:"depth_min_value"`
	DepthMaxValue    float64 `mapstructure:"depth_max_value"`

	DepthFilterMargin int `mapstructure:"depth_filter_margin"`
	DepthSkipPixel    int `mapstructure:"depth_skip_pixel"`

	ImageCols int `mapstructure:"image_cols"`
	ImageRows int `mapstructure:"image_rows"`

	RaycastMaxLength float64 `mapstructure:"raycast_max_length"`

	VoxelOccupiedThresh int     `mapstructure:"voxel_occupied_thresh"`
	GroundHeight        float64 `mapstructure:"ground_height"`

	DBSCANMinPointsCluster int     `mapstructure:"dbscan_min_points_cluster"`
	DBSCANSearchEpsilon    float64 `mapstructure:"dbscan_search_range_epsilon"`

	FilteringBBoxIOUThreshold float64 `mapstructure:"filtering_BBox_IOU_threshold"`
	YoloOverwriteDistance     float64 `mapstructure:"yolo_overwrite_distance"`

	HistorySize      int     `mapstructure:"history_size"`
	TimeDifference   float64 `mapstructure:"time_difference"`
	SimilarityThresh float64 `mapstructure:"similarity_threshold"`
	FrameSkip        int     `mapstructure:"frame_skip"`

	DynamicVelocityThreshold float64 `mapstructure:"dynamic_velocity_threshold"`
	DynamicVotingThreshold   float64 `mapstructure:"dynamic_voting_threshold"`
	MaximumSkipRatio         float64 `mapstructure:"maximum_skip_ratio"`

	EP float64 `mapstructure:"e_p"`
	EQ float64 `mapstructure:"e_q"`
	ER float64 `mapstructure:"e_r"`
}

// DefaultConfig returns a Config populated with every default from spec §6.
// Intrinsics and extrinsics have no sane default and are left zero; Validate
// treats zero-valued depth intrinsics as a configuration error. Zero color
// intrinsics and zero extrinsics are not rejected.
func DefaultConfig() Config {
	return Config{
		LocalizationMode: LocalizationModePose,

		DepthScaleFactor: 1000,
		DepthMinValue:    0.2,
		DepthMaxValue:    5.0,

		DepthFilterMargin: 0,
		DepthSkipPixel:    1,

		ImageCols: 640,
		ImageRows: 480,

		RaycastMaxLength: 5.0,

		VoxelOccupiedThresh: 10,
		GroundHeight:        0.1,

		DBSCANMinPointsCluster: 18,
		DBSCANSearchEpsilon:    0.3,

		FilteringBBoxIOUThreshold: 0.5,
		YoloOverwriteDistance:     3.5,

		HistorySize:      5,
		TimeDifference:   0.033,
		SimilarityThresh: 0.9,
		FrameSkip:        5,

		DynamicVelocityThreshold: 0.35,
		DynamicVotingThreshold:   0.8,
		MaximumSkipRatio:         0.5,

		EP: 0.5,
		EQ: 0.5,
		ER: 0.5,
	}
}

// Decode merges attrs over DefaultConfig() via mapstructure, matching the
// teacher's AttributeMap decode pattern, then validates the result.
func Decode(attrs AttributeMap) (Config, error) {
	cfg := DefaultConfig()
	if attrs == nil {
		return cfg, cfg.Validate()
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, fmt.Errorf("building config decoder: %w", err)
	}
	if err := decoder.Decode(map[string]interface{}(attrs)); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate enforces the §3 invariant skip_frame <= history_size and rejects
// missing depth intrinsics, both fatal configuration errors per §7. Color
// intrinsics and the extrinsics are not checked.
func (c Config) Validate() error {
	if c.FrameSkip > c.HistorySize {
		return fmt.Errorf("frame_skip (%d) must be <= history_size (%d)", c.FrameSkip, c.HistorySize)
	}
	if c.DepthIntrinsics == (Intrinsics{}) {
		return fmt.Errorf("depth_intrinsics is required")
	}
	if c.ImageCols <= 0 || c.ImageRows <= 0 {
		return fmt.Errorf("image_cols/image_rows must be positive")
	}
	return nil
}
