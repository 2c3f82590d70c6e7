// Package config holds the tuning parameters for course reconstruction and
// lap detection. The JSON schema matches the /api/config endpoint so the
// same file can be used for startup configuration and runtime inspection.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/circuit.report/internal/course"
)

// Tuning is the root tuning configuration. All fields are optional
// pointers; the Get* accessors supply defaults for anything omitted, so
// partial configs are safe.
type Tuning struct {
	// Course reconstruction params
	Direction      *string  `json:"direction,omitempty"` // "cw", "ccw", or omitted for auto
	LapSource      *string  `json:"lap_source,omitempty"`
	BaseSpeed      *float64 `json:"base_speed,omitempty"`
	SteerGain      *float64 `json:"steer_gain,omitempty"`
	SteerSpeedLoss *float64 `json:"steer_speed_loss,omitempty"`
	BrakeSpeedLoss *float64 `json:"brake_speed_loss,omitempty"`
	SteerGamma     *float64 `json:"steer_gamma,omitempty"`
	SmoothWindow   *int     `json:"smooth_window,omitempty"`
	BaseDtMs       *float64 `json:"base_dt_ms,omitempty"`
}

// DefaultTuning returns a Tuning with all fields unset, so every accessor
// reports its default.
func DefaultTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The file must have a .json
// extension and stay under the max file size. Omitted fields retain their
// defaults.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that set values are in range.
func (t *Tuning) Validate() error {
	if t.Direction != nil {
		switch *t.Direction {
		case string(course.Clockwise), string(course.CounterClockwise), "":
		default:
			return fmt.Errorf("direction must be %q or %q, got %q",
				course.Clockwise, course.CounterClockwise, *t.Direction)
		}
	}
	if t.LapSource != nil {
		switch *t.LapSource {
		case course.LapSourcePeriodicity, course.LapSourceLap:
		default:
			return fmt.Errorf("lap_source must be %q or %q, got %q",
				course.LapSourcePeriodicity, course.LapSourceLap, *t.LapSource)
		}
	}
	if t.SteerGamma != nil {
		if *t.SteerGamma < 0.4 || *t.SteerGamma > 2.5 {
			return fmt.Errorf("steer_gamma must be between 0.4 and 2.5, got %f", *t.SteerGamma)
		}
	}
	if t.SteerSpeedLoss != nil {
		if *t.SteerSpeedLoss < 0 || *t.SteerSpeedLoss > 1 {
			return fmt.Errorf("steer_speed_loss must be between 0 and 1, got %f", *t.SteerSpeedLoss)
		}
	}
	if t.BrakeSpeedLoss != nil {
		if *t.BrakeSpeedLoss < 0 || *t.BrakeSpeedLoss > 1 {
			return fmt.Errorf("brake_speed_loss must be between 0 and 1, got %f", *t.BrakeSpeedLoss)
		}
	}
	if t.SmoothWindow != nil {
		if *t.SmoothWindow < 0 {
			return fmt.Errorf("smooth_window must be non-negative, got %d", *t.SmoothWindow)
		}
	}
	if t.BaseDtMs != nil {
		if *t.BaseDtMs <= 0 {
			return fmt.Errorf("base_dt_ms must be positive, got %f", *t.BaseDtMs)
		}
	}
	return nil
}

// GetDirection returns the configured direction, or empty for auto-detect.
func (t *Tuning) GetDirection() course.Direction {
	if t.Direction == nil {
		return ""
	}
	return course.Direction(*t.Direction)
}

// GetLapSource returns the lap_source value or the default.
func (t *Tuning) GetLapSource() string {
	if t.LapSource == nil {
		return course.LapSourcePeriodicity
	}
	return *t.LapSource
}

// GetBaseSpeed returns the base_speed value or the default.
func (t *Tuning) GetBaseSpeed() float64 {
	if t.BaseSpeed == nil {
		return 1.0
	}
	return *t.BaseSpeed
}

// GetSteerGain returns the steer_gain value or the default.
func (t *Tuning) GetSteerGain() float64 {
	if t.SteerGain == nil {
		return 1.0
	}
	return *t.SteerGain
}

// GetSteerSpeedLoss returns the steer_speed_loss value or the default.
func (t *Tuning) GetSteerSpeedLoss() float64 {
	if t.SteerSpeedLoss == nil {
		return 0.3
	}
	return *t.SteerSpeedLoss
}

// GetBrakeSpeedLoss returns the brake_speed_loss value or the default.
func (t *Tuning) GetBrakeSpeedLoss() float64 {
	if t.BrakeSpeedLoss == nil {
		return 0.5
	}
	return *t.BrakeSpeedLoss
}

// GetSteerGamma returns the steer_gamma value or the default.
func (t *Tuning) GetSteerGamma() float64 {
	if t.SteerGamma == nil {
		return 1.0
	}
	return *t.SteerGamma
}

// GetSmoothWindow returns the smooth_window value or the default.
func (t *Tuning) GetSmoothWindow() int {
	if t.SmoothWindow == nil {
		return 5
	}
	return *t.SmoothWindow
}

// GetBaseDtMs returns the base_dt_ms value or the default.
func (t *Tuning) GetBaseDtMs() float64 {
	if t.BaseDtMs == nil {
		return 60
	}
	return *t.BaseDtMs
}

// CourseOptions builds the reconstruction options snapshot from this
// config. Period and boundaries are filled in by the caller.
func (t *Tuning) CourseOptions() course.Options {
	return course.Options{
		Direction:      t.GetDirection(),
		LapSource:      t.GetLapSource(),
		BaseSpeed:      t.GetBaseSpeed(),
		SteerGain:      t.GetSteerGain(),
		SteerSpeedLoss: t.GetSteerSpeedLoss(),
		BrakeSpeedLoss: t.GetBrakeSpeedLoss(),
		SteerGamma:     t.GetSteerGamma(),
		SmoothWindow:   t.GetSmoothWindow(),
		BaseDtMs:       t.GetBaseDtMs(),
	}
}
