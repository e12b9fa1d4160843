package mapctl

import (
	"errors"
	"testing"

	"recipe-map/internal/content"
	"recipe-map/internal/scene"
	"recipe-map/internal/selection"
	"recipe-map/internal/taxonomy"
)

const fixtureSVG = `<svg viewBox="0 0 30 10">
  <path id="X1" d="M0 0h10v10z"/>
  <path id="X2" d="M10 0h10v10z"/>
  <path id="X3" d="M20 0h10v10z"/>
  <path id="ZZ" d="M0 0h1v1z"/>
</svg>`

var (
	north = taxonomy.Region{ID: "north", Name: "North", Colors: taxonomy.Colors{Base: "#n0", Hover: "#n1", Selected: "#n2"}, Members: []string{"a", "b"}}
	south = taxonomy.Region{ID: "south", Name: "South", Colors: taxonomy.Colors{Base: "#s0", Hover: "#s1", Selected: "#s2"}, Members: []string{"c"}}
)

type fixture struct {
	tax *taxonomy.Taxonomy
	sm  *selection.Machine
	doc *scene.Document
	c   *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tax := taxonomy.MustNew([]taxonomy.Region{north, south}, []taxonomy.Subdivision{
		{Name: "a", Code: "X1", Display: "Alpha"},
		{Name: "b", Code: "X2", Display: "Beta"},
		{Name: "c", Code: "X3", Display: "Gamma"},
	})
	doc, err := scene.LoadBytes([]byte(fixtureSVG), "path[id]")
	if err != nil {
		t.Fatal(err)
	}
	sm := selection.New()
	res := content.NewResolver(tax, content.WithStatic(map[string]int{"a": 5, "b": 6, "c": 7}))
	c := New(tax, res, sm)
	if err := c.Bind(doc); err != nil {
		t.Fatal(err)
	}
	return &fixture{tax: tax, sm: sm, doc: doc, c: c}
}

func (f *fixture) fill(t *testing.T, id string) string {
	t.Helper()
	p, ok := f.doc.PaintOf(id)
	if !ok {
		t.Fatalf("no feature %s", id)
	}
	return p.Fill
}

func TestBindAppliesBaseColors(t *testing.T) {
	f := newFixture(t)
	want := map[string]string{"X1": "#n0", "X2": "#n0", "X3": "#s0", "ZZ": NeutralFill}
	for id, fill := range want {
		if got := f.fill(t, id); got != fill {
			t.Errorf("%s fill = %s want %s", id, got, fill)
		}
	}
	if f.doc.ListenerCount() != 3*4 {
		t.Errorf("ListenerCount = %d want 12", f.doc.ListenerCount())
	}
	if _, ok := f.c.Tooltip(); !ok {
		t.Error("tooltip should exist after bind")
	}
}

func TestHoverCyclesReleaseListeners(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X1", X: 10, Y: 10})
		if f.doc.DocumentListenerCount() != 1 {
			t.Fatalf("cycle %d: document listeners = %d during hover", i, f.doc.DocumentListenerCount())
		}
		f.doc.Dispatch(scene.Event{Type: scene.Move, X: 15, Y: 20})
		f.doc.Dispatch(scene.Event{Type: scene.Leave, FeatureID: "X1"})
	}
	if n := f.doc.DocumentListenerCount(); n != 0 {
		t.Fatalf("document listeners after hover cycles = %d", n)
	}
	if f.c.ActiveTrackers() != 0 {
		t.Fatalf("ActiveTrackers = %d", f.c.ActiveTrackers())
	}
	if got := f.fill(t, "X1"); got != "#n0" {
		t.Fatalf("fill after hover cycles = %s want base", got)
	}
}

func TestRapidEnterWithoutLeave(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X1"})
	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X2"})
	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X3"})
	if n := f.doc.DocumentListenerCount(); n != 1 {
		t.Fatalf("document listeners = %d want 1", n)
	}
	if got := f.fill(t, "X1"); got != "#n0" {
		t.Errorf("X1 should revert when hover moves on, got %s", got)
	}
	if got := f.fill(t, "X3"); got != "#s1" {
		t.Errorf("X3 hover fill = %s", got)
	}
	f.c.Teardown()
	if n := f.doc.ListenerCount(); n != 0 {
		t.Fatalf("listeners after teardown = %d", n)
	}
	if _, ok := f.c.Tooltip(); ok {
		t.Fatal("tooltip should be destroyed on teardown")
	}
}

func TestTooltipFollowsPointer(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X2", X: 100, Y: 100})
	tt, _ := f.c.Tooltip()
	if !tt.Visible || tt.Text != "Beta: 6 recipes" {
		t.Fatalf("tooltip = %+v", tt)
	}
	f.doc.Dispatch(scene.Event{Type: scene.Move, X: 140, Y: 90})
	tt, _ = f.c.Tooltip()
	if tt.X != 140+tooltipOffsetX || tt.Y != 90+tooltipOffsetY {
		t.Fatalf("tooltip position = %v,%v", tt.X, tt.Y)
	}
	f.doc.Dispatch(scene.Event{Type: scene.Leave, FeatureID: "X2"})
	tt, _ = f.c.Tooltip()
	if tt.Visible {
		t.Fatal("tooltip visible after leave")
	}
	f.doc.Dispatch(scene.Event{Type: scene.Move, X: 1, Y: 1})
	tt, _ = f.c.Tooltip()
	if tt.X != 140+tooltipOffsetX {
		t.Fatal("tooltip moved while hidden")
	}
}

func TestClickSelectsSubdivisionAndClearsRegion(t *testing.T) {
	f := newFixture(t)
	var prev, next selection.State
	f.c.OnSelect(func(p, n selection.State) { prev, next = p, n })
	f.sm.SelectRegion("north")
	f.c.Resync()
	if f.fill(t, "X1") != "#n2" || f.fill(t, "X2") != "#n2" || f.fill(t, "X3") != "#s0" {
		t.Fatalf("region resync fills: %s %s %s", f.fill(t, "X1"), f.fill(t, "X2"), f.fill(t, "X3"))
	}

	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "X1"})
	f.doc.Dispatch(scene.Event{Type: scene.Click, FeatureID: "X1"})
	if s := f.sm.State(); s.String() != "subdivision(a)" {
		t.Fatalf("state after click = %v", s)
	}
	if p, _ := prev.Region(); p != "north" || next.String() != "subdivision(a)" {
		t.Fatalf("OnSelect prev=%v next=%v", prev, next)
	}
	if f.fill(t, "X1") != "#n2" || f.fill(t, "X2") != "#n0" {
		t.Fatalf("fills after click: X1=%s X2=%s", f.fill(t, "X1"), f.fill(t, "X2"))
	}
	f.doc.Dispatch(scene.Event{Type: scene.Leave, FeatureID: "X1"})
	if f.fill(t, "X1") != "#n2" {
		t.Fatalf("selected feature lost its color on leave: %s", f.fill(t, "X1"))
	}
}

func TestHoverPairRestoresExpectedColor(t *testing.T) {
	cases := []struct {
		name  string
		setup func(sm *selection.Machine)
		id    string
		want  string
	}{
		{"none", func(sm *selection.Machine) {}, "X3", "#s0"},
		{"selected subdivision", func(sm *selection.Machine) { sm.SelectSubdivision("c") }, "X3", "#s2"},
		{"member of selected region", func(sm *selection.Machine) { sm.SelectRegion("north") }, "X2", "#n2"},
		{"outside selected region", func(sm *selection.Machine) { sm.SelectRegion("north") }, "X3", "#s0"},
		{"unresolved", func(sm *selection.Machine) {}, "ZZ", NeutralFill},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f.sm)
			f.c.Resync()
			for i := 0; i < 3; i++ {
				f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: tc.id})
				f.doc.Dispatch(scene.Event{Type: scene.Leave, FeatureID: tc.id})
			}
			if got := f.fill(t, tc.id); got != tc.want {
				t.Fatalf("fill = %s want %s", got, tc.want)
			}
		})
	}
}

func TestUnresolvedClickIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(scene.Event{Type: scene.Click, FeatureID: "ZZ"})
	if !f.sm.State().IsNone() {
		t.Fatalf("state = %v", f.sm.State())
	}
	f.doc.Dispatch(scene.Event{Type: scene.Enter, FeatureID: "ZZ"})
	tt, _ := f.c.Tooltip()
	if tt.Text != "ZZ" {
		t.Fatalf("tooltip text = %q", tt.Text)
	}
}

func TestResyncClearRevertsAll(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(scene.Event{Type: scene.Click, FeatureID: "X3"})
	f.sm.Clear()
	f.c.Resync()
	for id, want := range map[string]string{"X1": "#n0", "X2": "#n0", "X3": "#s0"} {
		if got := f.fill(t, id); got != want {
			t.Errorf("%s = %s want %s", id, got, want)
		}
	}
}

func TestBindDegraded(t *testing.T) {
	tax := taxonomy.Default()
	c := New(tax, content.NewResolver(tax), selection.New())
	if err := c.Bind(nil); !errors.Is(err, scene.ErrNoFeatures) {
		t.Fatalf("Bind(nil) = %v", err)
	}
	if c.Bound() {
		t.Fatal("controller bound without a scene")
	}
	c.Resync()
	c.Teardown()
}

func TestPlanIsPure(t *testing.T) {
	feats := []Feature{
		{ID: "X1", Name: "a", Region: north, Resolved: true},
		{ID: "X3", Name: "c", Region: south, Resolved: true},
	}
	p := Plan(feats, selection.RegionState("north"), "c")
	if p["X1"].Fill != "#n2" || p["X3"].Fill != "#s0" {
		t.Fatalf("region plan ignores hover: %+v", p)
	}
	p = Plan(feats, selection.NoneState(), "c")
	if p["X3"].Fill != "#s1" || p["X1"].Fill != "#n0" {
		t.Fatalf("hover plan: %+v", p)
	}
}
