// 包 selection：用户焦点状态机
// 背景：选中状态为单一标签值（无 / 大区 / 省份），两种粒度互斥；悬停状态独立存在，只用于高亮与浮层
package selection

import (
	"github.com/goccy/go-json"

	"recipe-map/internal/metrics"
)

// Kind：选中状态的标签
type Kind int

const (
	None Kind = iota
	Region
	Subdivision
)

func (k Kind) String() string {
	switch k {
	case Region:
		return "region"
	case Subdivision:
		return "subdivision"
	}
	return "none"
}

// State：选中状态值
// 约束：字段不导出，只能通过构造函数获得，不存在“同时选中大区与省份”的取值
type State struct {
	kind Kind
	key  string
}

func NoneState() State { return State{} }

func RegionState(id string) State {
	if id == "" {
		return State{}
	}
	return State{kind: Region, key: id}
}

func SubdivisionState(name string) State {
	if name == "" {
		return State{}
	}
	return State{kind: Subdivision, key: name}
}

func (s State) Kind() Kind   { return s.kind }
func (s State) IsNone() bool { return s.kind == None }

// Region：选中大区时返回大区 id
func (s State) Region() (string, bool) {
	if s.kind != Region {
		return "", false
	}
	return s.key, true
}

// Subdivision：选中省份时返回规范名
func (s State) Subdivision() (string, bool) {
	if s.kind != Subdivision {
		return "", false
	}
	return s.key, true
}

func (s State) String() string {
	if s.kind == None {
		return "none"
	}
	return s.kind.String() + "(" + s.key + ")"
}

type stateJSON struct {
	Kind string `json:"kind"`
	Key  string `json:"key,omitempty"`
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{Kind: s.kind.String(), Key: s.key})
}

func (s *State) UnmarshalJSON(b []byte) error {
	var v stateJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.Kind {
	case "region":
		*s = RegionState(v.Key)
	case "subdivision":
		*s = SubdivisionState(v.Key)
	default:
		*s = NoneState()
	}
	return nil
}

// Machine：选中 + 悬停状态
// 约束：非并发安全，由持有者（视图）串行化调用；没有终止态，只能 Clear 或随视图卸载丢弃
type Machine struct {
	state State
	hover string
}

func New() *Machine { return &Machine{} }

func (m *Machine) State() State { return m.state }

// Hovered：当前悬停的省份
func (m *Machine) Hovered() (string, bool) { return m.hover, m.hover != "" }

// SelectRegion：选中大区；重复选中同一大区视为取消
// 约束：切换到大区时清除省份选中与悬停
func (m *Machine) SelectRegion(id string) State {
	if cur, ok := m.state.Region(); ok && cur == id {
		return m.set(NoneState())
	}
	m.hover = ""
	return m.set(RegionState(id))
}

// SelectSubdivision：选中省份并清除大区选中；悬停保留用于高亮
func (m *Machine) SelectSubdivision(name string) State {
	return m.set(SubdivisionState(name))
}

// Clear：回到无选中
func (m *Machine) Clear() State { return m.set(NoneState()) }

// Hover：记录悬停省份（进入要素）
func (m *Machine) Hover(name string) { m.hover = name }

// Unhover：清除悬停（离开要素）
func (m *Machine) Unhover() { m.hover = "" }

func (m *Machine) set(s State) State {
	m.state = s
	metrics.SelectionTransitionsTotal.WithLabelValues(s.kind.String()).Inc()
	return s
}
