package view

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"recipe-map/internal/content"
	"recipe-map/internal/datahook"
	"recipe-map/internal/scene"
	"recipe-map/internal/taxonomy"
)

const northSVG = `<svg viewBox="0 0 30 10">
  <path id="X1" d="M0 0h10v10z"/>
  <path id="X2" d="M10 0h10v10z"/>
  <path id="X3" d="M20 0h10v10z"/>
</svg>`

type stubSource struct {
	mu   sync.Mutex
	err  error
	p    *datahook.Payload
	gate chan struct{}
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Fetch(ctx context.Context) (*datahook.Payload, error) {
	s.mu.Lock()
	gate, err, p := s.gate, s.err, s.p
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return p, err
}

type harness struct {
	tax      *taxonomy.Taxonomy
	res      *content.Resolver
	hook     *datahook.Hook
	src      *stubSource
	selected []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tax := taxonomy.MustNew([]taxonomy.Region{
		{ID: "north", Name: "North", Colors: taxonomy.Colors{Base: "#n0", Hover: "#n1", Selected: "#n2"}, Members: []string{"a", "b"}},
		{ID: "south", Name: "South", Colors: taxonomy.Colors{Base: "#s0", Hover: "#s1", Selected: "#s2"}, Members: []string{"c"}},
	}, []taxonomy.Subdivision{
		{Name: "a", Code: "X1", Display: "Alpha"},
		{Name: "b", Code: "X2", Display: "Beta"},
		{Name: "c", Code: "X3", Display: "Gamma"},
	})
	res := content.NewResolver(tax, content.WithStatic(map[string]int{"a": 5, "b": 6, "c": 7}))
	src := &stubSource{p: &datahook.Payload{Regions: map[string]datahook.RegionEntry{}}}
	hook := datahook.New(src, datahook.WithOnPayload(func(p *datahook.Payload) { res.SetFetched(p.Counts()) }))
	return &harness{tax: tax, res: res, hook: hook, src: src}
}

func (h *harness) mount(t *testing.T, active string) *View {
	t.Helper()
	v := Mount(Deps{Tax: h.tax, Content: h.res, Hook: h.hook}, Props{
		ActiveRegion:   active,
		OnRegionSelect: func(id string) { h.selected = append(h.selected, id) },
	})
	t.Cleanup(v.Unmount)
	return v
}

func loadScene(t *testing.T) *scene.Document {
	t.Helper()
	doc, err := scene.LoadBytes([]byte(northSVG), "")
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRegionThenFeatureClickScenario(t *testing.T) {
	h := newHarness(t)
	v := h.mount(t, "")
	doc := loadScene(t)
	if err := v.SceneLoaded(doc, nil); err != nil {
		t.Fatal(err)
	}

	if r, _ := h.tax.RegionOf("a"); r.ID != "north" {
		t.Fatalf("RegionOf(a) = %q", r.ID)
	}
	snap, err := v.SelectTile("north")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Panel == nil || snap.Panel.Kind != "region" || snap.Panel.Count != 11 {
		t.Fatalf("region panel = %+v", snap.Panel)
	}
	if p, _ := doc.PaintOf("X1"); p.Fill != "#n2" {
		t.Fatalf("X1 fill after region select = %s", p.Fill)
	}

	snap, err = v.Dispatch(scene.Event{Type: scene.Click, FeatureID: "X1"})
	if err != nil {
		t.Fatal(err)
	}
	if name, ok := snap.Selection.Subdivision(); !ok || name != "a" {
		t.Fatalf("selection = %s", snap.Selection)
	}
	if _, ok := snap.Selection.Region(); ok {
		t.Fatal("residual region selection")
	}
	if snap.Panel == nil || snap.Panel.Count != 5 || snap.Panel.Key != "a" {
		t.Fatalf("subdivision panel = %+v", snap.Panel)
	}
	if want := h.res.SampleContentFor("a", "North"); !reflect.DeepEqual(snap.Panel.Entries, want) {
		t.Fatalf("entries = %+v, want %+v", snap.Panel.Entries, want)
	}
	if p, _ := doc.PaintOf("X2"); p.Fill != "#n0" {
		t.Fatalf("X2 fill after feature click = %s", p.Fill)
	}
	if !reflect.DeepEqual(h.selected, []string{"north", ""}) {
		t.Fatalf("OnRegionSelect calls = %q", h.selected)
	}
}

func TestSceneFailureKeepsTilesUsable(t *testing.T) {
	h := newHarness(t)
	v := h.mount(t, "")
	if err := v.SceneLoaded(nil, errors.New("load-error")); !errors.Is(err, scene.ErrNoFeatures) {
		t.Fatalf("SceneLoaded err = %v", err)
	}
	snap := v.Snapshot()
	if !snap.Degraded || len(snap.Tiles) != 2 {
		t.Fatalf("degraded snapshot = %+v", snap)
	}
	if _, err := v.SelectTile("south"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.SelectTile("south"); err != nil {
		t.Fatal(err)
	}
	if _, err := v.SelectTile("north"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(h.selected, []string{"south", "", "north"}) {
		t.Fatalf("OnRegionSelect calls = %q", h.selected)
	}
	if _, err := v.Dispatch(scene.Event{Type: scene.Click, FeatureID: "X1"}); err != nil {
		t.Fatal(err)
	}
	if id, _ := v.Snapshot().Selection.Region(); id != "north" {
		t.Fatal("pointer event changed selection in degraded mode")
	}
	var buf strings.Builder
	if err := v.RenderScene(&buf); !errors.Is(err, scene.ErrNoFeatures) {
		t.Fatalf("RenderScene err = %v", err)
	}
}

func TestUnknownTileAndActiveRegion(t *testing.T) {
	h := newHarness(t)
	v := h.mount(t, "south")
	if id, _ := v.Snapshot().Selection.Region(); id != "south" {
		t.Fatalf("initial selection = %s", v.Snapshot().Selection)
	}
	if _, err := v.SelectTile("west"); !errors.Is(err, ErrUnknownRegion) {
		t.Fatalf("err = %v", err)
	}
	if len(h.selected) != 0 {
		t.Fatalf("initial activeRegion must not notify: %q", h.selected)
	}
	w := h.mount(t, "nowhere")
	if !w.Snapshot().Selection.IsNone() {
		t.Fatal("unknown activeRegion selected")
	}
}

func TestLoadingUntilDataAndSceneSettle(t *testing.T) {
	h := newHarness(t)
	h.src.gate = make(chan struct{})
	v := h.mount(t, "")
	if !v.Snapshot().Loading {
		t.Fatal("expected loading before scene load")
	}
	h.hook.Fetch(context.Background())
	_ = v.SceneLoaded(loadScene(t), nil)
	close(h.src.gate)
	h.hook.Wait()
	if v.Snapshot().Loading {
		t.Fatal("still loading after both settled")
	}
}

func TestLoadingWhileHookNeverFetched(t *testing.T) {
	h := newHarness(t)
	v := h.mount(t, "")
	if err := v.SceneLoaded(loadScene(t), nil); err != nil {
		t.Fatal(err)
	}
	if !v.Snapshot().Loading {
		t.Fatal("placeholder dropped before the data hook settled")
	}
	if err := h.hook.FetchSync(context.Background()); err != nil {
		t.Fatal(err)
	}
	if v.Snapshot().Loading {
		t.Fatal("still loading after first fetch")
	}
}

func TestFetchErrorShowsRetryAndMapStaysInteractive(t *testing.T) {
	h := newHarness(t)
	h.src.err = errors.New("backend down")
	v := h.mount(t, "")
	_ = v.SceneLoaded(loadScene(t), nil)
	_ = h.hook.FetchSync(context.Background())

	snap := v.Snapshot()
	if snap.Error == nil || snap.Error.Message != "backend down" || !snap.Error.Retry {
		t.Fatalf("error affordance = %+v", snap.Error)
	}
	if snap.Tiles[0].Count != 11 {
		t.Fatalf("static fallback count = %d", snap.Tiles[0].Count)
	}
	snap, _ = v.Dispatch(scene.Event{Type: scene.Click, FeatureID: "X3"})
	if name, _ := snap.Selection.Subdivision(); name != "c" {
		t.Fatalf("click during error: %s", snap.Selection)
	}

	h.src.mu.Lock()
	h.src.err = nil
	h.src.p = &datahook.Payload{Regions: map[string]datahook.RegionEntry{"north": {Count: 40, Specialties: []string{"dumplings"}}}}
	h.src.mu.Unlock()
	if err := v.Retry(context.Background()); err != nil {
		t.Fatal(err)
	}
	h.hook.Wait()
	snap = v.Snapshot()
	if snap.Error != nil {
		t.Fatalf("error not cleared: %+v", snap.Error)
	}
	if snap.Tiles[0].Count != 40 || !reflect.DeepEqual(snap.Tiles[0].Specialties, []string{"dumplings"}) {
		t.Fatalf("fetched tile = %+v", snap.Tiles[0])
	}
}

func TestHoverTooltipAndUnmountReleasesListeners(t *testing.T) {
	h := newHarness(t)
	v := h.mount(t, "")
	doc := loadScene(t)
	_ = v.SceneLoaded(doc, nil)
	base := doc.ListenerCount()

	snap, _ := v.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X2", X: 10, Y: 50})
	if snap.Tooltip == nil || snap.Tooltip.Text != "Beta: 6 recipes" || snap.Hover != "b" {
		t.Fatalf("hover snapshot = %+v", snap)
	}
	snap, _ = v.Dispatch(scene.Event{Type: scene.Move, X: 20, Y: 60})
	if snap.Tooltip.X != 32 || snap.Tooltip.Y != 32 {
		t.Fatalf("tooltip = %+v", snap.Tooltip)
	}
	if v.ActiveTrackers() != 1 {
		t.Fatalf("trackers = %d", v.ActiveTrackers())
	}

	v.Unmount()
	if doc.ListenerCount() != 0 || doc.DocumentListenerCount() != 0 {
		t.Fatalf("listeners after unmount: %d/%d (bound %d)", doc.ListenerCount(), doc.DocumentListenerCount(), base)
	}
	if _, err := v.SelectTile("north"); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("err after unmount = %v", err)
	}
}

func TestUnmountedViewIgnoresLateFetch(t *testing.T) {
	h := newHarness(t)
	h.src.gate = make(chan struct{})
	v := h.mount(t, "")
	var calls int
	v.Watch(func(Snapshot) { calls++ })
	h.hook.Fetch(context.Background())
	v.Unmount()
	close(h.src.gate)
	h.hook.Wait()
	if calls > 1 {
		t.Fatalf("watcher notified after unmount: %d", calls)
	}
}
