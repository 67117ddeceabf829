package dither

import (
	"testing"

	"github.com/emirhncann/portable-thermal-printer/internal/raster"
)

func grayFrom(width, height int, values []float32) *raster.GrayBuffer {
	g := raster.NewGrayBuffer(width, height)
	copy(g.Pix, values)
	return g
}

func TestNew(t *testing.T) {
	tests := []struct {
		mode    Mode
		wantErr bool
	}{
		{ModeThreshold, false},
		{ModeFloydSteinberg, false},
		{ModeAtkinson, false},
		{ModeOrdered, false},
		{Mode("sierra"), true},
		{Mode(""), true},
	}

	for _, tt := range tests {
		d, err := New(tt.mode)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error, got none", tt.mode)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q): unexpected error: %v", tt.mode, err)
		}
		if d == nil {
			t.Errorf("New(%q): returned nil ditherer", tt.mode)
		}
	}
}

func TestValidMode(t *testing.T) {
	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg, ModeAtkinson, ModeOrdered} {
		if !ValidMode(mode) {
			t.Errorf("ValidMode(%q) = false, want true", mode)
		}
	}
	if ValidMode("sierra") {
		t.Error("ValidMode(\"sierra\") = true, want false")
	}
}

func TestOutputIsBinary(t *testing.T) {
	values := []float32{0, 17, 64, 127, 128, 129, 200, 254, 255,
		33, 99, 150, 127.5, 128.5, 1, 254, 100, 155}

	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg, ModeAtkinson, ModeOrdered} {
		d, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		out := d.Dither(grayFrom(6, 3, values), 128)
		for i, v := range out.Pix {
			if v != 0 && v != 255 {
				t.Errorf("%s: sample %d is %d, want 0 or 255", mode, i, v)
			}
		}
	}
}

func TestThresholdBoundary(t *testing.T) {
	d, _ := New(ModeThreshold)

	tests := []struct {
		value     float32
		threshold int
		want      uint8
	}{
		{127, 128, 0},
		{127.9, 128, 0},
		{128, 128, 255}, // exactly at threshold prints white
		{129, 128, 255},
		{0, 1, 0},
		{0, 0, 255},
		{255, 255, 255},
		{254, 255, 0},
	}

	for _, tt := range tests {
		out := d.Dither(grayFrom(1, 1, []float32{tt.value}), tt.threshold)
		if out.Pix[0] != tt.want {
			t.Errorf("threshold %d, value %g: got %d, want %d",
				tt.threshold, tt.value, out.Pix[0], tt.want)
		}
	}
}

func TestFloydSteinbergDiffusesRight(t *testing.T) {
	// 100 quantizes black with error +100; the right neighbour receives
	// 100*7/16 = 43.75 and crosses the threshold.
	d, _ := New(ModeFloydSteinberg)
	out := d.Dither(grayFrom(2, 1, []float32{100, 110}), 128)

	if out.Pix[0] != 0 {
		t.Errorf("pixel 0 = %d, want 0", out.Pix[0])
	}
	if out.Pix[1] != 255 {
		t.Errorf("pixel 1 = %d, want 255 after receiving 7/16 of the error", out.Pix[1])
	}
}

func TestFloydSteinbergDiffusesDown(t *testing.T) {
	// The pixel directly below receives 5/16 of the error: 110 + 31.25
	// crosses the threshold.
	d, _ := New(ModeFloydSteinberg)
	out := d.Dither(grayFrom(1, 2, []float32{100, 110}), 128)

	if out.Pix[0] != 0 {
		t.Errorf("pixel (0,0) = %d, want 0", out.Pix[0])
	}
	if out.Pix[1] != 255 {
		t.Errorf("pixel (0,1) = %d, want 255 after receiving 5/16 of the error", out.Pix[1])
	}
}

func TestFloydSteinbergNegativeError(t *testing.T) {
	// 200 quantizes white with error -55; the right neighbour is pulled
	// from 0 to -24.06 and stays black.
	d, _ := New(ModeFloydSteinberg)
	out := d.Dither(grayFrom(2, 1, []float32{200, 0}), 128)

	if out.Pix[0] != 255 {
		t.Errorf("pixel 0 = %d, want 255", out.Pix[0])
	}
	if out.Pix[1] != 0 {
		t.Errorf("pixel 1 = %d, want 0", out.Pix[1])
	}
}

func TestAtkinsonDiffusesTwoRight(t *testing.T) {
	// Each of the six neighbours receives err/8. With a row of
	// [100, 115, 120]: pixel 0 contributes 12.5 to the next two pixels,
	// pixel 1 lands at 127.5 and still quantizes black, and its own error
	// (15.9) pushes pixel 2 over the threshold.
	d, _ := New(ModeAtkinson)
	out := d.Dither(grayFrom(3, 1, []float32{100, 115, 120}), 128)

	want := []uint8{0, 0, 255}
	for i, w := range want {
		if out.Pix[i] != w {
			t.Errorf("pixel %d = %d, want %d", i, out.Pix[i], w)
		}
	}
}

func TestAtkinsonDiscardsError(t *testing.T) {
	// Atkinson spreads only 6/8 of the error. From [100, 110] the right
	// neighbour receives 12.5, reaching 122.5, and stays black; the same
	// input under Floyd-Steinberg flips it.
	d, _ := New(ModeAtkinson)
	out := d.Dither(grayFrom(2, 1, []float32{100, 110}), 128)

	if out.Pix[1] != 0 {
		t.Errorf("pixel 1 = %d, want 0 (err/8 is not enough to flip it)", out.Pix[1])
	}
}

func TestOrderedCheckerboard(t *testing.T) {
	// Uniform 50% gray against the 4x4 Bayer matrix: a cell prints white
	// exactly when its matrix entry is 8 or more, which is a checkerboard.
	d, _ := New(ModeOrdered)
	g := raster.NewGrayBuffer(4, 4)
	for i := range g.Pix {
		g.Pix[i] = 128
	}
	out := d.Dither(g, 128)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			var want uint8
			if (x+y)%2 == 1 {
				want = 255
			}
			if got := out.At(x, y); got != want {
				t.Errorf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestOrderedIsLocal(t *testing.T) {
	// The decision for a pixel depends only on its own value and position.
	// Changing a distant pixel must not change anything else.
	d, _ := New(ModeOrdered)

	a := raster.NewGrayBuffer(8, 8)
	b := raster.NewGrayBuffer(8, 8)
	for i := range a.Pix {
		a.Pix[i] = 128
		b.Pix[i] = 128
	}
	b.Pix[0] = 255

	outA := d.Dither(a, 128)
	outB := d.Dither(b, 128)

	for i := 1; i < len(outA.Pix); i++ {
		if outA.Pix[i] != outB.Pix[i] {
			t.Fatalf("sample %d differs (%d vs %d) after changing an unrelated pixel",
				i, outA.Pix[i], outB.Pix[i])
		}
	}
}

func TestOrderedThresholdShift(t *testing.T) {
	// Threshold 0 maps to cutoff 128: mid gray always prints white.
	d, _ := New(ModeOrdered)
	g := raster.NewGrayBuffer(4, 4)
	for i := range g.Pix {
		g.Pix[i] = 128
	}
	out := d.Dither(g, 0)

	for i, v := range out.Pix {
		if v != 255 {
			t.Errorf("sample %d = %d, want 255 with threshold 0", i, v)
		}
	}
}

func TestExtremesStayExtreme(t *testing.T) {
	// The ordered cutoff is threshold+128, so pure white survives only for
	// thresholds up to 127; the white half of the check uses 127 so all four
	// modes share the same expectation.
	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg, ModeAtkinson, ModeOrdered} {
		d, _ := New(mode)

		white := raster.NewGrayBuffer(8, 8)
		for i := range white.Pix {
			white.Pix[i] = 255
		}
		out := d.Dither(white, 127)
		for i, v := range out.Pix {
			if v != 255 {
				t.Errorf("%s: white input produced %d at sample %d", mode, v, i)
				break
			}
		}

		black := raster.NewGrayBuffer(8, 8)
		out = d.Dither(black, 128)
		for i, v := range out.Pix {
			if v != 0 {
				t.Errorf("%s: black input produced %d at sample %d", mode, v, i)
				break
			}
		}
	}
}

func TestBinaryInputIsFixedPoint(t *testing.T) {
	// A buffer that is already binary quantizes to itself with zero error,
	// in every mode.
	pattern := []float32{0, 255, 255, 0, 255, 0, 0, 255,
		255, 255, 0, 0, 0, 255, 255, 0}

	for _, mode := range []Mode{ModeThreshold, ModeFloydSteinberg, ModeAtkinson, ModeOrdered} {
		d, _ := New(mode)
		out := d.Dither(grayFrom(4, 4, append([]float32(nil), pattern...)), 127)
		for i, v := range out.Pix {
			if float32(v) != pattern[i] {
				t.Errorf("%s: sample %d = %d, want %g", mode, i, v, pattern[i])
			}
		}
	}
}

func TestErrorDiffusionKeepsFlatGrayBalanced(t *testing.T) {
	// On a flat 50% gray field the diffused error keeps the black/white
	// counts close to even. Atkinson drifts a little more because it
	// discards 2/8 of the error.
	for _, mode := range []Mode{ModeFloydSteinberg, ModeAtkinson} {
		d, _ := New(mode)
		g := raster.NewGrayBuffer(32, 32)
		for i := range g.Pix {
			g.Pix[i] = 128
		}
		out := d.Dither(g, 128)

		white := 0
		for _, v := range out.Pix {
			if v == 255 {
				white++
			}
		}
		frac := float64(white) / float64(len(out.Pix))
		if frac < 0.4 || frac > 0.6 {
			t.Errorf("%s: white fraction %.3f on flat mid gray, want roughly half", mode, frac)
		}
	}
}
