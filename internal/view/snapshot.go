package view

import (
	"strings"

	"recipe-map/internal/content"
	"recipe-map/internal/datahook"
	"recipe-map/internal/mapctl"
	"recipe-map/internal/scene"
	"recipe-map/internal/selection"
	"recipe-map/internal/taxonomy"
)

// Tile：大区汇总瓦片
type Tile struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Members     int             `json:"members"`
	Count       int             `json:"count"`
	Selected    bool            `json:"selected"`
	Colors      taxonomy.Colors `json:"colors"`
	Specialties []string        `json:"specialties,omitempty"`
}

// Panel：内容面板
type Panel struct {
	Kind    string          `json:"kind"`
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Count   int             `json:"count"`
	Entries []content.Entry `json:"entries"`
}

// ErrorAffordance：数据拉取失败时的提示与重试入口
type ErrorAffordance struct {
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type Snapshot struct {
	Loading   bool                   `json:"loading"`
	Degraded  bool                   `json:"degraded"`
	Selection selection.State        `json:"selection"`
	Hover     string                 `json:"hover,omitempty"`
	Tiles     []Tile                 `json:"tiles"`
	Panel     *Panel                 `json:"panel,omitempty"`
	Tooltip   *mapctl.Tooltip        `json:"tooltip,omitempty"`
	Error     *ErrorAffordance       `json:"error,omitempty"`
	Paints    map[string]scene.Paint `json:"paints,omitempty"`
}

func (v *View) snapshotLocked() Snapshot {
	st := v.sm.State()
	s := Snapshot{
		Loading:   v.data.IsLoading || !v.settled,
		Degraded:  v.settled && v.doc == nil,
		Selection: st,
		Tiles:     v.tilesLocked(st),
		Panel:     v.panelLocked(st),
	}
	if h, ok := v.sm.Hovered(); ok {
		s.Hover = h
	}
	if t, ok := v.ctl.Tooltip(); ok && t.Visible {
		s.Tooltip = &t
	}
	if v.data.Error != "" {
		s.Error = &ErrorAffordance{Message: v.data.Error, Retry: true}
	}
	if v.ctl.Bound() {
		s.Paints = v.ctl.Plan()
	}
	return s
}

func (v *View) tilesLocked(st selection.State) []Tile {
	sel, _ := st.Region()
	return Tiles(v.deps.Tax, v.deps.Content, v.data.Regions, sel)
}

// Tiles：每个大区一块瓦片，顺序与分类表一致；selected 为当前选中的大区 id
func Tiles(tax *taxonomy.Taxonomy, res *content.Resolver, data map[string]datahook.RegionEntry, selected string) []Tile {
	regions := tax.Regions()
	out := make([]Tile, 0, len(regions))
	for _, r := range regions {
		t := Tile{
			ID:       r.ID,
			Name:     r.Name,
			Members:  len(r.Members),
			Count:    res.RegionCount(r.ID),
			Selected: selected != "" && selected == r.ID,
			Colors:   r.Colors,
		}
		if e, ok := entryFor(data, r.ID, r.Name); ok {
			t.Specialties = e.Specialties
		}
		out = append(out, t)
	}
	return out
}

// Panel：未选中时为空；选中大区展示大区汇总，选中省份展示省份自身的数量
func (v *View) panelLocked(st selection.State) *Panel {
	if id, ok := st.Region(); ok {
		r, ok := v.deps.Tax.Region(id)
		if !ok {
			return nil
		}
		return &Panel{
			Kind:    st.Kind().String(),
			Key:     r.ID,
			Title:   r.Name,
			Count:   v.deps.Content.RegionCount(r.ID),
			Entries: v.deps.Content.SampleContentFor(r.Name, r.Name),
		}
	}
	if name, ok := st.Subdivision(); ok {
		title, ctxLabel := name, ""
		if s, ok := v.deps.Tax.Subdivision(name); ok {
			title = s.DisplayName()
		}
		if r, ok := v.deps.Tax.RegionOf(name); ok {
			ctxLabel = r.Name
		}
		return &Panel{
			Kind:    st.Kind().String(),
			Key:     name,
			Title:   title,
			Count:   v.deps.Content.CountFor(name),
			Entries: v.deps.Content.SampleContentFor(name, ctxLabel),
		}
	}
	return nil
}

func entryFor(data map[string]datahook.RegionEntry, keys ...string) (datahook.RegionEntry, bool) {
	for _, k := range keys {
		if e, ok := data[k]; ok {
			return e, true
		}
		for name, e := range data {
			if strings.EqualFold(name, k) {
				return e, true
			}
		}
	}
	return datahook.RegionEntry{}, false
}
