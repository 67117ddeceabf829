package core

import (
	"fmt"

	"github.com/emirhncann/portable-thermal-printer/internal/dither"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

// PrintSettings is resolved once when a job is submitted and never re-read
// mid-job.
type PrintSettings struct {
	PaperWidthMM float64      `json:"paper_width_mm" yaml:"paper_width_mm"`
	Sensing      tspl.Sensing `json:"sensing" yaml:"sensing"`
	Darkness     int          `json:"darkness" yaml:"darkness"`
	Speed        int          `json:"speed" yaml:"speed"`
	DitherMode   dither.Mode  `json:"dither_mode" yaml:"dither_mode"`
	Threshold    int          `json:"threshold" yaml:"threshold"`
	Contrast     float64      `json:"contrast" yaml:"contrast"`
	Brightness   float64      `json:"brightness" yaml:"brightness"`
	Copies       int          `json:"copies" yaml:"copies"`
}

func DefaultSettings() PrintSettings {
	return PrintSettings{
		PaperWidthMM: 58,
		Sensing:      tspl.SensingGap,
		Darkness:     4,
		Speed:        2,
		DitherMode:   dither.ModeFloydSteinberg,
		Threshold:    128,
		Contrast:     1.0,
		Brightness:   0,
		Copies:       1,
	}
}

func (s *PrintSettings) Validate() error {
	if s.PaperWidthMM <= 0 {
		return fmt.Errorf("paper width must be positive, got %g", s.PaperWidthMM)
	}

	if !tspl.ValidSensing(s.Sensing) {
		return fmt.Errorf("invalid sensing mode: %s (valid: gap, black_mark, continuous)", s.Sensing)
	}

	if s.Darkness < 0 || s.Darkness > 8 {
		return fmt.Errorf("darkness must be between 0 and 8, got %d", s.Darkness)
	}

	if s.Speed < 0 || s.Speed > 4 {
		return fmt.Errorf("speed must be between 0 and 4, got %d", s.Speed)
	}

	if !dither.ValidMode(s.DitherMode) {
		return fmt.Errorf("invalid dither mode: %s (valid: threshold, floyd_steinberg, atkinson, ordered)", s.DitherMode)
	}

	if s.Threshold < 0 || s.Threshold > 255 {
		return fmt.Errorf("threshold must be between 0 and 255, got %d", s.Threshold)
	}

	if s.Contrast < 0 || s.Contrast > 2 {
		return fmt.Errorf("contrast must be between 0.0 and 2.0, got %g", s.Contrast)
	}

	if s.Brightness < -128 || s.Brightness > 128 {
		return fmt.Errorf("brightness must be between -128 and 128, got %g", s.Brightness)
	}

	if s.Copies < 1 {
		return fmt.Errorf("copies must be at least 1, got %d", s.Copies)
	}

	return nil
}
