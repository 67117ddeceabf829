package tspl

import "fmt"

type DirectiveKind int

const (
	DirectiveSize DirectiveKind = iota
	DirectiveSpeed
	DirectiveDensity
	DirectiveSensing
	DirectiveClear
	DirectiveBitmap
	DirectivePrint
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveSize:
		return "size"
	case DirectiveSpeed:
		return "speed"
	case DirectiveDensity:
		return "density"
	case DirectiveSensing:
		return "sensing"
	case DirectiveClear:
		return "clear"
	case DirectiveBitmap:
		return "bitmap"
	case DirectivePrint:
		return "print"
	default:
		return "unknown"
	}
}

type Directive struct {
	Kind DirectiveKind
	Data []byte
}

// CommandStream is one page's printer program: an ordered directive
// sequence with the size directive first and the print trigger last.
type CommandStream struct {
	directives []Directive
}

func (s *CommandStream) Append(d Directive) {
	s.directives = append(s.directives, d)
}

func (s *CommandStream) Directives() []Directive {
	return s.directives
}

func (s *CommandStream) Bytes() []byte {
	var total int
	for _, d := range s.directives {
		total += len(d.Data)
	}
	out := make([]byte, 0, total)
	for _, d := range s.directives {
		out = append(out, d.Data...)
	}
	return out
}

func sizeDirective(widthMM, heightMM float64) Directive {
	return Directive{
		Kind: DirectiveSize,
		Data: []byte(fmt.Sprintf("SIZE %.1f mm,%.1f mm\r\n", widthMM, heightMM)),
	}
}

func speedDirective(deviceSpeed int) Directive {
	return Directive{
		Kind: DirectiveSpeed,
		Data: []byte(fmt.Sprintf("SPEED %d\r\n", deviceSpeed)),
	}
}

func densityDirective(deviceDensity int) Directive {
	return Directive{
		Kind: DirectiveDensity,
		Data: []byte(fmt.Sprintf("DENSITY %d\r\n", deviceDensity)),
	}
}

func gapDirective(gapMM float64) Directive {
	return Directive{
		Kind: DirectiveSensing,
		Data: []byte(fmt.Sprintf("GAP %.0f mm,0 mm\r\n", gapMM)),
	}
}

func blineDirective(heightMM float64) Directive {
	return Directive{
		Kind: DirectiveSensing,
		Data: []byte(fmt.Sprintf("BLINE %.0f mm,0 mm\r\n", heightMM)),
	}
}

func clearDirective() Directive {
	return Directive{
		Kind: DirectiveClear,
		Data: []byte("CLS\r\n"),
	}
}

// bitmapDirective carries the full BITMAP signature: origin, packed row
// width, height and the overwrite compositing mode.
func bitmapDirective(b *PackedBitmap) Directive {
	header := []byte(fmt.Sprintf("BITMAP 0,0,%d,%d,0,", b.Stride(), b.Height()))
	data := make([]byte, 0, len(header)+len(b.Data())+2)
	data = append(data, header...)
	data = append(data, b.Data()...)
	data = append(data, '\r', '\n')
	return Directive{Kind: DirectiveBitmap, Data: data}
}

// legacyBitmapDirective is the narrower signature accepted by firmware that
// predates the compositing mode argument. Origin and overwrite mode are
// implicit.
func legacyBitmapDirective(b *PackedBitmap) Directive {
	header := []byte(fmt.Sprintf("BITMAP %d,%d,", b.Stride(), b.Height()))
	data := make([]byte, 0, len(header)+len(b.Data())+2)
	data = append(data, header...)
	data = append(data, b.Data()...)
	data = append(data, '\r', '\n')
	return Directive{Kind: DirectiveBitmap, Data: data}
}

func printDirective(copies int) Directive {
	return Directive{
		Kind: DirectivePrint,
		Data: []byte(fmt.Sprintf("PRINT %d\r\n", copies)),
	}
}
