// 包 scene：外部矢量场景（SVG）的薄适配层
// 背景：场景由前端或设计工具产出，本服务不负责绘制，只在加载完成后按 id 枚举要素、修改填充/描边属性并转发指针事件
// 约束：所有对场景节点的属性修改都集中在本包，交互控制器只依赖 Surface 接口，便于在无真实文档时测试
package scene

import (
	"errors"
)

// EventType：指针事件类型
type EventType string

const (
	Enter EventType = "pointerenter"
	Leave EventType = "pointerleave"
	Click EventType = "click"
	Move  EventType = "pointermove"
)

// Event：指针事件；Move 事件属于文档级，不携带要素 id
type Event struct {
	Type      EventType `json:"type"`
	FeatureID string    `json:"feature,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// Handler：事件回调，在派发方的调用栈上同步执行
type Handler func(Event)

// ListenerID：订阅句柄，用于精确释放
type ListenerID uint64

// Paint：要素的目标样式
type Paint struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

var (
	ErrNotSVG         = errors.New("scene: document has no svg root")
	ErrNoFeatures     = errors.New("scene: no addressable features")
	ErrUnknownFeature = errors.New("scene: unknown feature")
)

// Surface：控制器可触达的全部场景能力
type Surface interface {
	// Features：按文档顺序返回可寻址要素 id
	Features() []string
	SetPaint(id string, p Paint) error
	// On：订阅单个要素的 enter/leave/click
	On(id string, t EventType, h Handler) ListenerID
	// OnDocument：订阅文档级事件（指针移动）
	OnDocument(t EventType, h Handler) ListenerID
	Off(l ListenerID)
}
