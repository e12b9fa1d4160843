package scene

import (
	"errors"
	"strings"
	"testing"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100">
  <g id="layer">
    <path id="CN-GD" d="M0 0L10 0L10 10Z"/>
    <path id="CN-GX" d="M10 0L20 0L20 10Z"/>
    <path d="M0 0"/>
    <polygon id="CN-TW" points="0,0 1,1 2,0"/>
  </g>
</svg>`

func TestLoadEnumeratesFeatures(t *testing.T) {
	d, err := Load(strings.NewReader(testSVG), "path[id], polygon[id]")
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(d.Features(), ",")
	if got != "CN-GD,CN-GX,CN-TW" {
		t.Fatalf("Features = %s", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader("<html><body><p>no map</p></body></html>"), ""); !errors.Is(err, ErrNotSVG) {
		t.Errorf("want ErrNotSVG, got %v", err)
	}
	if _, err := Load(strings.NewReader(`<svg><rect width="1"/></svg>`), ""); !errors.Is(err, ErrNoFeatures) {
		t.Errorf("want ErrNoFeatures, got %v", err)
	}
	if _, err := LoadFile("/nonexistent/map.svg", ""); err == nil {
		t.Error("want error for missing file")
	}
}

func TestSetPaintAndRender(t *testing.T) {
	d, err := LoadBytes([]byte(testSVG), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.SetPaint("CN-GD", Paint{Fill: "#ff0000", Stroke: "#333333", StrokeWidth: 1.5}); err != nil {
		t.Fatal(err)
	}
	p, ok := d.PaintOf("CN-GD")
	if !ok || p.Fill != "#ff0000" || p.Stroke != "#333333" || p.StrokeWidth != 1.5 {
		t.Fatalf("PaintOf = %+v,%v", p, ok)
	}
	if err := d.SetPaint("nope", Paint{Fill: "#000"}); !errors.Is(err, ErrUnknownFeature) {
		t.Fatalf("want ErrUnknownFeature, got %v", err)
	}
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.HasPrefix(out, "<svg") || !strings.Contains(out, `fill="#ff0000"`) {
		t.Fatalf("Render = %s", out)
	}
}

func TestDispatchRouting(t *testing.T) {
	d, err := LoadBytes([]byte(testSVG), "")
	if err != nil {
		t.Fatal(err)
	}
	var gd, gx, moves int
	d.On("CN-GD", Enter, func(Event) { gd++ })
	d.On("CN-GX", Enter, func(Event) { gx++ })
	mv := d.OnDocument(Move, func(Event) { moves++ })

	if n := d.Dispatch(Event{Type: Enter, FeatureID: "CN-GD"}); n != 1 {
		t.Fatalf("dispatched to %d handlers", n)
	}
	d.Dispatch(Event{Type: Leave, FeatureID: "CN-GD"})
	d.Dispatch(Event{Type: Move, FeatureID: "CN-GD", X: 1, Y: 2})
	if gd != 1 || gx != 0 || moves != 1 {
		t.Fatalf("gd=%d gx=%d moves=%d", gd, gx, moves)
	}
	if d.DocumentListenerCount() != 1 || d.ListenerCount() != 3 {
		t.Fatalf("counts: doc=%d total=%d", d.DocumentListenerCount(), d.ListenerCount())
	}
	d.Off(mv)
	d.Dispatch(Event{Type: Move})
	if moves != 1 || d.DocumentListenerCount() != 0 {
		t.Fatalf("listener not released: moves=%d", moves)
	}
}

func TestHandlersMayUnsubscribeDuringDispatch(t *testing.T) {
	d, err := LoadBytes([]byte(testSVG), "")
	if err != nil {
		t.Fatal(err)
	}
	var id ListenerID
	id = d.On("CN-GD", Click, func(Event) { d.Off(id) })
	d.Dispatch(Event{Type: Click, FeatureID: "CN-GD"})
	if d.ListenerCount() != 0 {
		t.Fatalf("ListenerCount = %d", d.ListenerCount())
	}
}
