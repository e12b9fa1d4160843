// 包 mapctl：地图交互控制器
// 背景：在外部矢量场景加载完成后接管其要素：按分类表着色、绑定悬停/离开/点击、维护浮层，并在外部选中变化时重新着色
// 约束：非并发安全，由视图串行化调用；处理器只在要素枚举完成后挂载，因此绑定完成前不会有事件进入
package mapctl

import (
	"fmt"
	"log/slog"

	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
	"recipe-map/internal/scene"
	"recipe-map/internal/selection"
	"recipe-map/internal/taxonomy"
)

// 浮层相对指针的偏移
const (
	tooltipOffsetX = 12
	tooltipOffsetY = -28
)

// Tooltip：悬停浮层
type Tooltip struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Text    string  `json:"text"`
	Visible bool    `json:"visible"`
}

// Counter：浮层中展示的菜谱数来源
type Counter interface {
	CountFor(name string) int
}

// SelectFunc：点击要素引起选中变化后的通知
type SelectFunc func(prev, next selection.State)

type Controller struct {
	tax      *taxonomy.Taxonomy
	counts   Counter
	sm       *selection.Machine
	log      *slog.Logger
	onSelect SelectFunc

	surface  scene.Surface
	features []Feature
	byID     map[string]int
	byKey    map[string]int
	handlers []scene.ListenerID
	tracking map[string]scene.ListenerID
	tooltip  *Tooltip
}

func New(tax *taxonomy.Taxonomy, counts Counter, sm *selection.Machine) *Controller {
	return &Controller{tax: tax, counts: counts, sm: sm, log: logger.L(), tracking: make(map[string]scene.ListenerID)}
}

// OnSelect：设置点击选中回调
func (c *Controller) OnSelect(fn SelectFunc) { c.onSelect = fn }

// Bind：场景就绪后执行绑定
// 背景：枚举要素 → 解析大区并着常规色 → 挂载 enter/leave/click → 按当前选中状态同步一次
// 返回：场景为空或没有要素时返回 scene.ErrNoFeatures，控制器保持未绑定（降级模式，由大区瓦片承担选择入口）
func (c *Controller) Bind(s scene.Surface) error {
	if c.surface != nil {
		c.Teardown()
	}
	if s == nil {
		metrics.SceneBindTotal.WithLabelValues("degraded").Inc()
		return scene.ErrNoFeatures
	}
	ids := s.Features()
	if len(ids) == 0 {
		metrics.SceneBindTotal.WithLabelValues("degraded").Inc()
		return scene.ErrNoFeatures
	}
	c.surface = s
	c.byID = make(map[string]int, len(ids))
	c.byKey = make(map[string]int, len(ids))
	unresolved := 0
	for _, id := range ids {
		f := c.resolve(id)
		if !f.Resolved {
			unresolved++
		}
		c.byID[id] = len(c.features)
		c.byKey[f.Key()] = len(c.features)
		c.features = append(c.features, f)
		c.paint(f, f.BasePaint())
	}
	for i := range c.features {
		f := c.features[i]
		c.handlers = append(c.handlers,
			s.On(f.ID, scene.Enter, func(ev scene.Event) { c.enter(f, ev) }),
			s.On(f.ID, scene.Leave, func(ev scene.Event) { c.leave(f) }),
			s.On(f.ID, scene.Click, func(ev scene.Event) { c.click(f) }),
		)
	}
	c.tooltip = &Tooltip{}
	metrics.FeaturesBoundTotal.WithLabelValues("true").Add(float64(len(ids) - unresolved))
	metrics.FeaturesBoundTotal.WithLabelValues("false").Add(float64(unresolved))
	metrics.SceneBindTotal.WithLabelValues("ok").Inc()
	c.log.Debug("scene_bind_ok", "features", len(ids), "unresolved", unresolved)
	c.Resync()
	return nil
}

// Bound：是否已绑定场景
func (c *Controller) Bound() bool { return c.surface != nil }

// Features：已绑定要素的解析结果
func (c *Controller) Features() []Feature {
	out := make([]Feature, len(c.features))
	copy(out, c.features)
	return out
}

// Plan：按当前选中与悬停状态计算目标样式
func (c *Controller) Plan() map[string]scene.Paint {
	hover, _ := c.sm.Hovered()
	return Plan(c.features, c.sm.State(), hover)
}

// Resync：外部选中变化（如点击大区瓦片）后重新着色全部要素
func (c *Controller) Resync() {
	if c.surface == nil {
		return
	}
	plan := c.Plan()
	for _, f := range c.features {
		c.paint(f, plan[f.ID])
	}
}

// Tooltip：当前浮层；未绑定或已卸载时返回 false
func (c *Controller) Tooltip() (Tooltip, bool) {
	if c.tooltip == nil {
		return Tooltip{}, false
	}
	return *c.tooltip, true
}

// ActiveTrackers：当前持有的指针跟踪订阅数
func (c *Controller) ActiveTrackers() int { return len(c.tracking) }

// Teardown：释放全部订阅并销毁浮层
// 约束：可重复调用；视图卸载或重新绑定时调用，保证悬停未正常离开时跟踪订阅也被释放
func (c *Controller) Teardown() {
	c.releaseTrackers()
	if c.surface != nil {
		for _, h := range c.handlers {
			c.surface.Off(h)
		}
	}
	c.handlers = nil
	c.features = nil
	c.byID = nil
	c.byKey = nil
	c.tooltip = nil
	c.surface = nil
	c.sm.Unhover()
}

func (c *Controller) resolve(id string) Feature {
	sub, ok := c.tax.Subdivision(id)
	if !ok {
		return Feature{ID: id, Display: id}
	}
	reg, ok := c.tax.RegionOf(sub.Name)
	if !ok {
		return Feature{ID: id, Display: sub.DisplayName()}
	}
	return Feature{ID: id, Name: sub.Name, Display: sub.DisplayName(), Region: reg, Resolved: true}
}

func (c *Controller) enter(f Feature, ev scene.Event) {
	c.releaseTrackers()
	prev, hadPrev := c.sm.Hovered()
	c.sm.Hover(f.Key())
	if hadPrev && prev != f.Key() {
		if i, ok := c.byKey[prev]; ok {
			p := c.features[i]
			c.paint(p, PaintFor(p, c.sm.State(), ""))
		}
	}
	c.paint(f, PaintFor(f, c.sm.State(), f.Key()))
	if c.tooltip != nil {
		c.tooltip.Text = c.tooltipText(f)
		c.tooltip.X = ev.X + tooltipOffsetX
		c.tooltip.Y = ev.Y + tooltipOffsetY
		c.tooltip.Visible = true
	}
	c.tracking[f.ID] = c.surface.OnDocument(scene.Move, c.follow)
	metrics.PointerListenersActive.Inc()
}

func (c *Controller) leave(f Feature) {
	if h, ok := c.sm.Hovered(); ok && h == f.Key() {
		c.sm.Unhover()
	}
	c.paint(f, PaintFor(f, c.sm.State(), ""))
	if c.tooltip != nil {
		c.tooltip.Visible = false
	}
	c.release(f.ID)
}

// click：清除大区选中，其余要素恢复常规色，本要素着选中色，并驱动状态机选中省份
// 约束：未归属要素不可选中
func (c *Controller) click(f Feature) {
	if !f.Resolved {
		return
	}
	prev := c.sm.State()
	next := c.sm.SelectSubdivision(f.Name)
	for _, o := range c.features {
		if o.ID == f.ID {
			continue
		}
		c.paint(o, o.BasePaint())
	}
	c.paint(f, PaintFor(f, next, ""))
	c.log.Debug("feature_click", "feature", f.ID, "prev", prev.String(), "next", next.String())
	if c.onSelect != nil {
		c.onSelect(prev, next)
	}
}

func (c *Controller) follow(ev scene.Event) {
	if c.tooltip == nil || !c.tooltip.Visible {
		return
	}
	c.tooltip.X = ev.X + tooltipOffsetX
	c.tooltip.Y = ev.Y + tooltipOffsetY
}

func (c *Controller) release(featureID string) {
	id, ok := c.tracking[featureID]
	if !ok {
		return
	}
	if c.surface != nil {
		c.surface.Off(id)
	}
	delete(c.tracking, featureID)
	metrics.PointerListenersActive.Dec()
}

func (c *Controller) releaseTrackers() {
	for fid := range c.tracking {
		c.release(fid)
	}
}

func (c *Controller) tooltipText(f Feature) string {
	if !f.Resolved {
		return f.Display
	}
	return fmt.Sprintf("%s: %d recipes", f.Display, c.counts.CountFor(f.Name))
}

func (c *Controller) paint(f Feature, p scene.Paint) {
	if err := c.surface.SetPaint(f.ID, p); err != nil {
		c.log.Debug("scene_paint_error", "feature", f.ID, "err", err)
	}
}
