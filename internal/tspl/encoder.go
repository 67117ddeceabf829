package tspl

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
)

type Sensing string

const (
	SensingGap        Sensing = "gap"
	SensingBlackMark  Sensing = "black_mark"
	SensingContinuous Sensing = "continuous"
)

func ValidSensing(s Sensing) bool {
	switch s {
	case SensingGap, SensingBlackMark, SensingContinuous:
		return true
	}
	return false
}

// Capabilities describes the optional directives the connected device (or
// the transport stack in front of it) actually understands.
type Capabilities struct {
	BlackMark      bool
	ExtendedBitmap bool
}

// Ordinal mapping tables. User-facing speed levels 0-4 and darkness levels
// 0-8 map to device-absolute values.
var (
	speedTable   = [5]int{1, 2, 3, 4, 5}
	densityTable = [9]int{1, 3, 5, 7, 8, 10, 12, 14, 15}
)

const defaultDensity = 8

const defaultGapMM = 2.0

// PageSettings is the per-job subset the encoder needs. Speed and Darkness
// are ordinals; a negative value omits the directive.
type PageSettings struct {
	PaperWidthMM float64
	Sensing      Sensing
	Speed        int
	Darkness     int
	Copies       int
}

// Encoder assembles one CommandStream per page. Capability fallbacks are
// negotiated once at construction, not per call: a missing black-mark
// primitive degrades to a zero-gap directive, a missing extended bitmap
// signature degrades to the legacy one.
type Encoder struct {
	caps   Capabilities
	bitmap func(*PackedBitmap) Directive
	log    *zap.Logger
}

func NewEncoder(caps Capabilities, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Encoder{caps: caps, log: log}

	if caps.ExtendedBitmap {
		e.bitmap = bitmapDirective
	} else {
		log.Warn("extended bitmap signature unsupported, using legacy transfer")
		e.bitmap = legacyBitmapDirective
	}
	if !caps.BlackMark {
		log.Warn("black-mark sensing unsupported, jobs requesting it fall back to zero gap")
	}

	return e
}

func mapSpeed(ordinal int) int {
	if ordinal < 0 {
		ordinal = 0
	}
	if ordinal >= len(speedTable) {
		ordinal = len(speedTable) - 1
	}
	return speedTable[ordinal]
}

func mapDensity(ordinal int) int {
	if ordinal < 0 || ordinal >= len(densityTable) {
		return defaultDensity
	}
	return densityTable[ordinal]
}

func (e *Encoder) sensingDirective(s Sensing) Directive {
	switch s {
	case SensingContinuous:
		return gapDirective(0)
	case SensingBlackMark:
		if e.caps.BlackMark {
			return blineDirective(defaultGapMM)
		}
		e.log.Warn("black-mark sensing requested but unsupported, using zero gap")
		return gapDirective(0)
	default:
		return gapDirective(defaultGapMM)
	}
}

// EncodePage serializes a dithered page. The bitmap transfer is the one
// mandatory step: an empty buffer fails the page.
func (e *Encoder) EncodePage(bits *raster.BitBuffer, settings PageSettings) (*CommandStream, error) {
	if bits == nil || bits.Width <= 0 || bits.Height <= 0 {
		return nil, fmt.Errorf("cannot encode empty bitmap")
	}

	packed := Pack(bits)
	heightMM := float64(packed.Height()) / raster.DotsPerMM

	copies := settings.Copies
	if copies < 1 {
		copies = 1
	}

	stream := &CommandStream{}
	stream.Append(sizeDirective(settings.PaperWidthMM, heightMM))
	if settings.Speed >= 0 {
		stream.Append(speedDirective(mapSpeed(settings.Speed)))
	}
	if settings.Darkness >= 0 {
		stream.Append(densityDirective(mapDensity(settings.Darkness)))
	}
	stream.Append(e.sensingDirective(settings.Sensing))
	stream.Append(clearDirective())
	stream.Append(e.bitmap(packed))
	stream.Append(printDirective(copies))

	return stream, nil
}
