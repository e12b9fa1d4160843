package mapctl

import (
	"recipe-map/internal/scene"
	"recipe-map/internal/selection"
	"recipe-map/internal/taxonomy"
)

// 未归属要素（分类表之外）的中性色
const (
	NeutralFill  = "#e0e0e0"
	NeutralHover = "#cfcfcf"
)

const (
	strokeBase     = "#ffffff"
	strokeSelected = "#333333"
	widthBase      = 0.75
	widthHover     = 1.5
	widthSelected  = 2
)

// Feature：场景要素与分类表的解析结果
// 约束：Resolved 为 false 时 Name 与 Region 为零值
type Feature struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Display  string          `json:"display"`
	Region   taxonomy.Region `json:"-"`
	Resolved bool            `json:"resolved"`
}

// Key：悬停状态中标识该要素的键（已归属为规范名，否则为要素 id）
func (f Feature) Key() string {
	if f.Resolved {
		return f.Name
	}
	return f.ID
}

// Selected：该要素在给定选中状态下是否处于选中
func (f Feature) Selected(s selection.State) bool {
	if !f.Resolved {
		return false
	}
	if name, ok := s.Subdivision(); ok {
		return name == f.Name
	}
	if id, ok := s.Region(); ok {
		return id == f.Region.ID
	}
	return false
}

// BasePaint：要素常规样式（大区常规色或中性色）
func (f Feature) BasePaint() scene.Paint {
	if !f.Resolved {
		return scene.Paint{Fill: NeutralFill, Stroke: strokeBase, StrokeWidth: widthBase}
	}
	return scene.Paint{Fill: f.Region.Colors.Base, Stroke: strokeBase, StrokeWidth: widthBase}
}

// PaintFor：根据选中与悬停计算要素样式；选中优先于悬停
func PaintFor(f Feature, s selection.State, hover string) scene.Paint {
	if f.Selected(s) {
		return scene.Paint{Fill: f.Region.Colors.Selected, Stroke: strokeSelected, StrokeWidth: widthSelected}
	}
	if hover != "" && hover == f.Key() {
		fill := NeutralHover
		if f.Resolved {
			fill = f.Region.Colors.Hover
		}
		return scene.Paint{Fill: fill, Stroke: strokeBase, StrokeWidth: widthHover}
	}
	return f.BasePaint()
}

// Plan：给定状态计算全部要素的目标样式（纯函数，不触达场景）
// 约束：选中大区时忽略悬停，成员统一为选中色，其余为常规色
func Plan(features []Feature, s selection.State, hover string) map[string]scene.Paint {
	if _, ok := s.Region(); ok {
		hover = ""
	}
	out := make(map[string]scene.Paint, len(features))
	for _, f := range features {
		out[f.ID] = PaintFor(f, s, hover)
	}
	return out
}
