package render

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/mask"
)

func testFrame(t *testing.T) mask.Frame {
	t.Helper()
	c := mask.NewCanvas(mask.Options{Size: 200, Margin: 10})
	if err := c.Load([]domain.BoundaryPoint{{Alt: 10, Az: 0}, {Alt: 30, Az: 120}, {Alt: 20, Az: 240}}); err != nil {
		t.Fatal(err)
	}
	c.SetLivePosition(domain.MountPosition{Alt: 45, Az: 90})
	return c.Frame()
}

func TestRender_ProducesPNG(t *testing.T) {
	r := New(DefaultTheme(), 0, 0)
	data, err := r.Render(testFrame(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Errorf("bounds = %v", b)
	}

	// Corners are background, the centre is open sky.
	bg := DefaultTheme().Background
	cr, cg, cb, _ := img.At(0, 0).RGBA()
	if diff(cr, bg.R) || diff(cg, bg.G) || diff(cb, bg.B) {
		t.Errorf("corner pixel is not background")
	}
	sr, sg, sb, _ := img.At(100, 100).RGBA()
	if sr == cr && sg == cg && sb == cb {
		t.Errorf("centre pixel should differ from background")
	}
}

func diff(v uint32, want float64) bool {
	got := float64(v) / 0xffff
	d := got - want
	return d > 0.02 || d < -0.02
}

func TestRender_CachesIdenticalFrames(t *testing.T) {
	r := New(DefaultTheme(), 8, time.Minute)
	f := testFrame(t)
	a, err := r.Render(f)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Render(f)
	if err != nil {
		t.Fatal(err)
	}
	if &a[0] != &b[0] {
		t.Error("second render of an identical frame should come from cache")
	}
	if r.cache.Len() != 1 {
		t.Errorf("cache len = %d", r.cache.Len())
	}
}

func TestRenderPoints(t *testing.T) {
	r := New(DefaultTheme(), 0, 0)
	data, err := r.RenderPoints(nil, 128)
	if err != nil {
		t.Fatalf("empty set: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 128 {
		t.Errorf("width = %d", img.Bounds().Dx())
	}

	if _, err := r.RenderPoints([]domain.BoundaryPoint{{Alt: 100, Az: 0}}, 128); err == nil {
		t.Error("invalid points must be rejected")
	}
}
