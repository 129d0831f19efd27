// Package canvas is the live drawing pipeline: drawer input to an ordered
// stroke stream, and remote stroke replay into pixels.
package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/drawdash/drawdash-client/internal/wire"
)

const (
	Width  = 800
	Height = 600
)

// Tool is the drawer's current paint attributes.
type Tool struct {
	ColorHex string
	BrushPx  uint32
	Alpha    float64
	Eraser   bool
}

func DefaultTool() Tool {
	return Tool{ColorHex: "#000000", BrushPx: 4, Alpha: 1.0}
}

// Pipeline owns the two pixel layers: the committed canvas and the
// in-progress overlay. Translucent strokes are rendered on the overlay with
// replace semantics and composited onto the committed layer exactly once per
// physical stroke, so incremental redraw never compounds alpha.
//
// The pipeline has a single logical owner at a time (the drawer's input
// handlers or the observer's frame handler, never both for one room) and is
// not internally synchronized.
type Pipeline struct {
	committed *image.RGBA
	overlay   *image.RGBA

	// drawer authoring state
	drawing bool
	tool    Tool
	lastX   float64
	lastY   float64
	path    wire.ClientPath

	// observer replay state
	remote       []wire.DrawStroke
	remoteActive bool
	remoteLastX  float64
	remoteLastY  float64
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		committed: image.NewRGBA(image.Rect(0, 0, Width, Height)),
		overlay:   image.NewRGBA(image.Rect(0, 0, Width, Height)),
	}
}

// Committed exposes the committed layer for rendering and tests.
func (p *Pipeline) Committed() *image.RGBA { return p.committed }

// Overlay exposes the in-progress layer for rendering and tests.
func (p *Pipeline) Overlay() *image.RGBA { return p.overlay }

// Reset clears both layers fully. Called on every round start and round end.
func (p *Pipeline) Reset() {
	clearLayer(p.committed)
	clearLayer(p.overlay)
	p.drawing = false
	p.path = wire.ClientPath{}
	p.remote = nil
	p.remoteActive = false
}

// PointerDown anchors a new stroke path. The caller has already checked that
// the local actor is the drawer, the channel is open, and a word is chosen.
// The returned stroke is transmitted live to the backend.
func (p *Pipeline) PointerDown(x, y float64, tool Tool) (wire.ClientStroke, bool) {
	if p.drawing {
		return wire.ClientStroke{}, false
	}
	p.drawing = true
	p.tool = tool
	p.lastX, p.lastY = x, y

	s := strokeAt(x, y, tool)
	p.path = wire.ClientPath{ID: uuid.NewString(), Strokes: []wire.ClientStroke{s}}

	if tool.Eraser {
		// Erasing is destructive and has no alpha-compounding concern, so it
		// hits the committed layer immediately.
		eraseSegment(p.committed, x, y, x, y, tool.BrushPx)
	} else {
		p.redrawOverlay()
	}
	return s, true
}

// PointerMove extends the active stroke by one segment and returns the live
// stroke event for transmission.
func (p *Pipeline) PointerMove(x, y float64) (wire.ClientStroke, bool) {
	if !p.drawing {
		return wire.ClientStroke{}, false
	}
	s := strokeAt(x, y, p.tool)
	p.path.Strokes = append(p.path.Strokes, s)

	if p.tool.Eraser {
		eraseSegment(p.committed, p.lastX, p.lastY, x, y, p.tool.BrushPx)
	} else {
		// Re-render the whole in-progress path with replace semantics; the
		// overlay never accumulates repeated blends.
		p.redrawOverlay()
	}
	p.lastX, p.lastY = x, y
	return s, true
}

// PointerUp commits the accumulated overlay onto the committed layer in one
// atomic paint, clears the overlay, and returns the pen-lift sentinel plus
// the completed path for the durable DrawUpdate record.
func (p *Pipeline) PointerUp() (wire.ClientStroke, wire.ClientPath, bool) {
	if !p.drawing {
		return wire.ClientStroke{}, wire.ClientPath{}, false
	}
	p.drawing = false

	if !p.tool.Eraser {
		commitLayer(p.committed, p.overlay)
		clearLayer(p.overlay)
	}

	lift := wire.PenLift(p.tool.ColorHex, p.tool.BrushPx, p.tool.Alpha)
	done := p.path
	done.Strokes = append(done.Strokes, lift)
	p.path = wire.ClientPath{}
	return lift, done, true
}

// ApplyRemote replays one live stroke from the active drawer. The caller
// guards against self-echo; strokes reaching here are someone else's.
func (p *Pipeline) ApplyRemote(s wire.DrawStroke) {
	if s.IsPenLift() {
		// One-time atomic commit, mirroring the drawer's own pen-up.
		commitLayer(p.committed, p.overlay)
		clearLayer(p.overlay)
		p.remote = nil
		p.remoteActive = false
		return
	}

	if s.IsEraser {
		if !p.remoteActive {
			p.remoteLastX, p.remoteLastY = s.X, s.Y
			p.remoteActive = true
		}
		eraseSegment(p.committed, p.remoteLastX, p.remoteLastY, s.X, s.Y, s.BrushPx)
		p.remoteLastX, p.remoteLastY = s.X, s.Y
		return
	}

	p.remoteActive = true

	p.remote = append(p.remote, s)
	p.redrawRemoteOverlay()
}

// ReplayPath paints a full historical path onto the committed layer in the
// order the live stream would have produced it: paint accumulates on a scratch
// layer until each pen-lift commits it, while eraser samples hit the committed
// layer immediately, interpolated along their run. Used when joining mid-round
// from the snapshot's accumulated paths.
func (p *Pipeline) ReplayPath(path wire.DrawPath) {
	scratch := image.NewRGBA(p.committed.Bounds())
	var lastX, lastY float64
	var eraseX, eraseY float64
	painting := false
	erasing := false
	for _, s := range path.Strokes {
		if s.IsPenLift() {
			commitLayer(p.committed, scratch)
			clearLayer(scratch)
			painting = false
			erasing = false
			continue
		}
		if s.IsEraser {
			if !erasing {
				eraseX, eraseY = s.X, s.Y
				erasing = true
			}
			eraseSegment(p.committed, eraseX, eraseY, s.X, s.Y, s.BrushPx)
			eraseX, eraseY = s.X, s.Y
			continue
		}
		erasing = false
		col := strokeColor(s.ColorHex, s.Alpha)
		if !painting {
			paintSegment(scratch, s.X, s.Y, s.X, s.Y, col, s.BrushPx)
			painting = true
		} else {
			paintSegment(scratch, lastX, lastY, s.X, s.Y, col, s.BrushPx)
		}
		lastX, lastY = s.X, s.Y
	}
	// A path that does not end with the sentinel still lands its paint.
	commitLayer(p.committed, scratch)
}

func (p *Pipeline) redrawOverlay() {
	clearLayer(p.overlay)
	col := toolColor(p.tool)
	var lastX, lastY float64
	for i, s := range p.path.Strokes {
		if i == 0 {
			paintSegment(p.overlay, s.X, s.Y, s.X, s.Y, col, p.tool.BrushPx)
		} else {
			paintSegment(p.overlay, lastX, lastY, s.X, s.Y, col, p.tool.BrushPx)
		}
		lastX, lastY = s.X, s.Y
	}
}

func (p *Pipeline) redrawRemoteOverlay() {
	clearLayer(p.overlay)
	var lastX, lastY float64
	for i, s := range p.remote {
		col := strokeColor(s.ColorHex, s.Alpha)
		if i == 0 {
			paintSegment(p.overlay, s.X, s.Y, s.X, s.Y, col, s.BrushPx)
		} else {
			paintSegment(p.overlay, lastX, lastY, s.X, s.Y, col, s.BrushPx)
		}
		lastX, lastY = s.X, s.Y
	}
}

func strokeAt(x, y float64, tool Tool) wire.ClientStroke {
	return wire.ClientStroke{
		X:         x,
		Y:         y,
		Color:     tool.ColorHex,
		BrushSize: tool.BrushPx,
		BrushPx:   tool.BrushPx,
		Alpha:     tool.Alpha,
		IsEraser:  tool.Eraser,
	}
}

func toolColor(t Tool) color.RGBA {
	return strokeColor(t.ColorHex, t.Alpha)
}

// strokeColor parses "#rrggbb" and premultiplies by alpha. Unparseable hex
// degrades to black rather than failing the paint.
func strokeColor(hex string, alpha float64) color.RGBA {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	r, g, b := parseHex(hex)
	return color.RGBA{
		R: uint8(float64(r) * alpha),
		G: uint8(float64(g) * alpha),
		B: uint8(float64(b) * alpha),
		A: uint8(255 * alpha),
	}
}

func parseHex(hex string) (uint8, uint8, uint8) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

func clearLayer(img *image.RGBA) {
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// commitLayer composites src over dst in a single paint operation.
func commitLayer(dst, src *image.RGBA) {
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Over)
}

// paintSegment stamps the brush along the segment with replace semantics:
// every covered pixel ends at exactly the stroke color, regardless of how
// many stamps touch it.
func paintSegment(img *image.RGBA, x0, y0, x1, y1 float64, col color.RGBA, brushPx uint32) {
	forEachStamp(x0, y0, x1, y1, func(cx, cy float64) {
		stamp(img, cx, cy, brushPx, func(px, py int) {
			img.SetRGBA(px, py, col)
		})
	})
}

func eraseSegment(img *image.RGBA, x0, y0, x1, y1 float64, brushPx uint32) {
	blank := color.RGBA{}
	forEachStamp(x0, y0, x1, y1, func(cx, cy float64) {
		stamp(img, cx, cy, brushPx, func(px, py int) {
			img.SetRGBA(px, py, blank)
		})
	})
}

// forEachStamp interpolates stamp centers at roughly one-pixel steps.
func forEachStamp(x0, y0, x1, y1 float64, fn func(cx, cy float64)) {
	dx := x1 - x0
	dy := y1 - y0
	steps := int(maxf(absf(dx), absf(dy)))
	if steps < 1 {
		fn(x1, y1)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		fn(x0+dx*t, y0+dy*t)
	}
}

func stamp(img *image.RGBA, cx, cy float64, brushPx uint32, set func(px, py int)) {
	r := int(brushPx)
	if r < 1 {
		r = 1
	}
	b := img.Bounds()
	icx, icy := int(cx), int(cy)
	for py := icy - r; py <= icy+r; py++ {
		if py < b.Min.Y || py >= b.Max.Y {
			continue
		}
		for px := icx - r; px <= icx+r; px++ {
			if px < b.Min.X || px >= b.Max.X {
				continue
			}
			ddx, ddy := px-icx, py-icy
			if ddx*ddx+ddy*ddy <= r*r {
				set(px, py)
			}
		}
	}
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
