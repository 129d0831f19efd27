package canvas

import (
	"image/color"
	"testing"

	"github.com/drawdash/drawdash-client/internal/wire"
)

func redHalf() Tool {
	return Tool{ColorHex: "#ff0000", BrushPx: 4, Alpha: 0.5}
}

func committedAt(p *Pipeline, x, y int) color.RGBA {
	return p.Committed().RGBAAt(x, y)
}

func overlayAt(p *Pipeline, x, y int) color.RGBA {
	return p.Overlay().RGBAAt(x, y)
}

func TestDrawerStroke_AlphaDoesNotCompound(t *testing.T) {
	p := NewPipeline()

	if _, ok := p.PointerDown(100, 100, redHalf()); !ok {
		t.Fatalf("pointer down rejected")
	}
	// Drag back and forth over the same pixels many times.
	for i := 0; i < 10; i++ {
		p.PointerMove(140, 100)
		p.PointerMove(100, 100)
	}

	// While in progress the paint lives on the overlay only.
	if got := committedAt(p, 100, 100); got.A != 0 {
		t.Fatalf("committed touched mid-stroke: %+v", got)
	}
	ov := overlayAt(p, 100, 100)
	if ov.A != 127 {
		t.Fatalf("overlay alpha=%d want=127 (replace semantics)", ov.A)
	}

	lift, path, ok := p.PointerUp()
	if !ok {
		t.Fatalf("pointer up rejected")
	}
	if !lift.IsPenLift() {
		t.Fatalf("lift=%+v is not the sentinel", lift)
	}
	if path.ID == "" {
		t.Fatalf("path id missing")
	}
	if last := path.Strokes[len(path.Strokes)-1]; !last.IsPenLift() {
		t.Fatalf("path must end with the sentinel, got %+v", last)
	}

	// One commit of a 50% red stroke: exactly half-alpha, not darker.
	got := committedAt(p, 100, 100)
	want := color.RGBA{R: 127, G: 0, B: 0, A: 127}
	if got != want {
		t.Fatalf("committed=%+v want=%+v", got, want)
	}
	if ov := overlayAt(p, 100, 100); ov.A != 0 {
		t.Fatalf("overlay not cleared after commit: %+v", ov)
	}
}

func TestDrawerStroke_StateGuards(t *testing.T) {
	p := NewPipeline()

	if _, ok := p.PointerMove(10, 10); ok {
		t.Fatalf("move without down must be rejected")
	}
	if _, _, ok := p.PointerUp(); ok {
		t.Fatalf("up without down must be rejected")
	}

	if _, ok := p.PointerDown(10, 10, DefaultTool()); !ok {
		t.Fatalf("pointer down rejected")
	}
	if _, ok := p.PointerDown(20, 20, DefaultTool()); ok {
		t.Fatalf("second down during a stroke must be rejected")
	}
}

func TestEraser_HitsCommittedImmediately(t *testing.T) {
	p := NewPipeline()

	// Lay down an opaque stroke first.
	p.PointerDown(50, 50, Tool{ColorHex: "#0000ff", BrushPx: 6, Alpha: 1})
	p.PointerMove(70, 50)
	p.PointerUp()
	if committedAt(p, 60, 50).A == 0 {
		t.Fatalf("setup stroke missing")
	}

	p.PointerDown(60, 50, Tool{BrushPx: 8, Eraser: true})
	if got := committedAt(p, 60, 50); got.A != 0 {
		t.Fatalf("eraser must clear committed pixels mid-stroke, got %+v", got)
	}
	lift, _, ok := p.PointerUp()
	if !ok || !lift.IsPenLift() {
		t.Fatalf("eraser pen-up: lift=%+v ok=%v", lift, ok)
	}
}

func remoteStroke(x, y float64, alpha float64) wire.DrawStroke {
	return wire.DrawStroke{X: x, Y: y, ColorHex: "#ff0000", Alpha: alpha, BrushPx: 4}
}

func TestApplyRemote_CommitsOnceOnSentinel(t *testing.T) {
	p := NewPipeline()

	p.ApplyRemote(remoteStroke(200, 200, 0.5))
	for i := 0; i < 10; i++ {
		p.ApplyRemote(remoteStroke(240, 200, 0.5))
		p.ApplyRemote(remoteStroke(200, 200, 0.5))
	}

	if got := committedAt(p, 200, 200); got.A != 0 {
		t.Fatalf("committed touched before sentinel: %+v", got)
	}
	if ov := overlayAt(p, 200, 200); ov.A != 127 {
		t.Fatalf("overlay alpha=%d want=127", ov.A)
	}

	p.ApplyRemote(wire.DrawStroke{X: wire.PenLiftX, Y: wire.PenLiftY})

	got := committedAt(p, 200, 200)
	want := color.RGBA{R: 127, G: 0, B: 0, A: 127}
	if got != want {
		t.Fatalf("committed=%+v want=%+v", got, want)
	}
	if ov := overlayAt(p, 200, 200); ov.A != 0 {
		t.Fatalf("overlay not cleared on sentinel: %+v", ov)
	}

	// The sentinel also ends the path: the next stroke starts fresh.
	p.ApplyRemote(remoteStroke(300, 300, 1))
	if ov := overlayAt(p, 200, 200); ov.A != 0 {
		t.Fatalf("old path leaked into the new overlay: %+v", ov)
	}
}

func TestApplyRemote_EraserIsImmediate(t *testing.T) {
	p := NewPipeline()

	p.ApplyRemote(remoteStroke(100, 100, 1))
	p.ApplyRemote(wire.DrawStroke{X: wire.PenLiftX, Y: wire.PenLiftY})
	if committedAt(p, 100, 100).A == 0 {
		t.Fatalf("setup stroke missing")
	}

	p.ApplyRemote(wire.DrawStroke{X: 100, Y: 100, IsEraser: true, BrushPx: 8})
	if got := committedAt(p, 100, 100); got.A != 0 {
		t.Fatalf("remote eraser must clear committed pixels, got %+v", got)
	}
}

func TestReplayPath_SingleCommit(t *testing.T) {
	p := NewPipeline()

	path := wire.DrawPath{
		ID:       "path-1",
		PlayerID: "p2",
		Strokes: []wire.DrawStroke{
			remoteStroke(400, 300, 0.5),
			remoteStroke(440, 300, 0.5),
			remoteStroke(400, 300, 0.5),
			{X: wire.PenLiftX, Y: wire.PenLiftY},
		},
	}
	p.ReplayPath(path)

	got := committedAt(p, 400, 300)
	want := color.RGBA{R: 127, G: 0, B: 0, A: 127}
	if got != want {
		t.Fatalf("committed=%+v want=%+v (historical replay must not compound)", got, want)
	}
}

func TestReplayPath_EraseAfterPaintLandsOnCommittedPaint(t *testing.T) {
	p := NewPipeline()

	// One historical path: draw, lift, then erase the same spot, lift. The
	// live stream committed the paint at its sentinel before the eraser ran,
	// so the replay must end with the pixel cleared.
	path := wire.DrawPath{
		ID:       "path-2",
		PlayerID: "p2",
		Strokes: []wire.DrawStroke{
			remoteStroke(400, 300, 1),
			{X: wire.PenLiftX, Y: wire.PenLiftY},
			{X: 400, Y: 300, IsEraser: true, BrushPx: 8},
			{X: wire.PenLiftX, Y: wire.PenLiftY},
		},
	}
	p.ReplayPath(path)

	if got := committedAt(p, 400, 300); got.A != 0 {
		t.Fatalf("committed=%+v want cleared (erase ran after the paint committed)", got)
	}
}

func TestReplayPath_EraserRunIsInterpolated(t *testing.T) {
	p := NewPipeline()

	p.ReplayPath(wire.DrawPath{
		ID: "base",
		Strokes: []wire.DrawStroke{
			remoteStroke(100, 300, 1),
			remoteStroke(140, 300, 1),
			{X: wire.PenLiftX, Y: wire.PenLiftY},
		},
	})
	if committedAt(p, 120, 300).A == 0 {
		t.Fatalf("setup line missing at midpoint")
	}

	// Sparse eraser samples, like the live stream delivers: the segment
	// between them must be erased too.
	p.ReplayPath(wire.DrawPath{
		ID: "wipe",
		Strokes: []wire.DrawStroke{
			{X: 100, Y: 300, IsEraser: true, BrushPx: 6},
			{X: 140, Y: 300, IsEraser: true, BrushPx: 6},
			{X: wire.PenLiftX, Y: wire.PenLiftY},
		},
	})

	if got := committedAt(p, 120, 300); got.A != 0 {
		t.Fatalf("midpoint survived an interpolated eraser run: %+v", got)
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	p := NewPipeline()

	p.PointerDown(10, 10, DefaultTool())
	p.PointerMove(30, 10)
	p.PointerUp()
	p.ApplyRemote(remoteStroke(50, 50, 1))

	p.Reset()

	if got := committedAt(p, 10, 10); got.A != 0 {
		t.Fatalf("committed survived reset: %+v", got)
	}
	if ov := overlayAt(p, 50, 50); ov.A != 0 {
		t.Fatalf("overlay survived reset: %+v", ov)
	}
	// Both authoring and replay state restart cleanly.
	if _, ok := p.PointerDown(10, 10, DefaultTool()); !ok {
		t.Fatalf("pointer down rejected after reset")
	}
}

func TestStrokesLeaveCanvasBoundsSafely(t *testing.T) {
	p := NewPipeline()
	p.PointerDown(1, 1, Tool{ColorHex: "#00ff00", BrushPx: 10, Alpha: 1})
	p.PointerMove(-20, -20)
	p.PointerMove(Width+20, Height+20)
	if _, _, ok := p.PointerUp(); !ok {
		t.Fatalf("pen up rejected")
	}
}

func TestParseHex(t *testing.T) {
	cases := []struct {
		in      string
		r, g, b uint8
	}{
		{"#ff0000", 255, 0, 0},
		{"00ff00", 0, 255, 0},
		{" #0000ff ", 0, 0, 255},
		{"garbage", 0, 0, 0},
		{"#ffff", 0, 0, 0},
	}
	for _, tc := range cases {
		r, g, b := parseHex(tc.in)
		if r != tc.r || g != tc.g || b != tc.b {
			t.Fatalf("parseHex(%q)=(%d,%d,%d) want=(%d,%d,%d)", tc.in, r, g, b, tc.r, tc.g, tc.b)
		}
	}
}
