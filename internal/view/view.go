// 包 view：大区地图视图
// 背景：组合大区瓦片、矢量场景与内容面板；场景就绪后挂载交互控制器，数据钩子与场景都就绪前显示加载占位
// 约束：视图内部以互斥锁串行化所有变更；父组件回调与快照观察者均在锁外调用，允许其回调视图
package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"recipe-map/internal/content"
	"recipe-map/internal/datahook"
	"recipe-map/internal/logger"
	"recipe-map/internal/mapctl"
	"recipe-map/internal/metrics"
	"recipe-map/internal/scene"
	"recipe-map/internal/selection"
	"recipe-map/internal/taxonomy"
)

var ErrUnmounted = errors.New("view: unmounted")

// Props：父组件传入的属性
type Props struct {
	// ActiveRegion：初始选中的大区 id；未知 id 被忽略
	ActiveRegion string
	// OnRegionSelect：每次大区级选中变化时调用（含取消选中，此时参数为空串）
	OnRegionSelect func(regionID string)
}

// Deps：视图依赖
type Deps struct {
	Tax     *taxonomy.Taxonomy
	Content *content.Resolver
	Hook    *datahook.Hook
}

type View struct {
	deps  Deps
	props Props
	log   *slog.Logger

	mu       sync.Mutex
	sm       *selection.Machine
	ctl      *mapctl.Controller
	doc      *scene.Document
	settled  bool
	sceneErr error
	data     datahook.State
	unsub    func()
	mounted  bool
	pending  []string
	watchers map[int]func(Snapshot)
	nextW    int
}

// Mount：挂载视图并订阅数据钩子
func Mount(deps Deps, props Props) *View {
	if deps.Tax == nil {
		deps.Tax = taxonomy.Default()
	}
	if deps.Content == nil {
		deps.Content = content.NewResolver(deps.Tax)
	}
	if deps.Hook == nil {
		deps.Hook = datahook.New(nil)
		_ = deps.Hook.FetchSync(context.Background())
	}
	v := &View{
		deps:     deps,
		props:    props,
		log:      logger.L(),
		sm:       selection.New(),
		mounted:  true,
		watchers: make(map[int]func(Snapshot)),
	}
	if _, ok := deps.Tax.Region(props.ActiveRegion); ok {
		v.sm.SelectRegion(props.ActiveRegion)
	}
	v.ctl = mapctl.New(deps.Tax, deps.Content, v.sm)
	v.ctl.OnSelect(v.onFeatureSelect)
	v.data = deps.Hook.State()
	v.unsub = deps.Hook.Subscribe(v.onData)
	metrics.ViewsMounted.Inc()
	v.log.Debug("view_mount", "active_region", props.ActiveRegion)
	return v
}

// SceneLoaded：场景加载信号
// 约束：加载失败或没有要素时进入降级模式，瓦片仍可选择；重复调用会先释放上一次的绑定
func (v *View) SceneLoaded(doc *scene.Document, err error) error {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return ErrUnmounted
	}
	v.settled = true
	v.sceneErr = err
	v.doc = nil
	var bindErr error
	if err != nil || doc == nil {
		// 传入无类型 nil，避免带类型的空指针被视为有效场景
		bindErr = v.ctl.Bind(nil)
	} else if bindErr = v.ctl.Bind(doc); bindErr == nil {
		v.doc = doc
	}
	if err == nil && bindErr != nil {
		v.sceneErr = bindErr
	}
	if v.sceneErr != nil {
		v.log.Warn("view_scene_degraded", "err", v.sceneErr)
	}
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.publish(snap)
	return bindErr
}

// SelectTile：点击大区瓦片，与在地图上选择大区等价
func (v *View) SelectTile(regionID string) (Snapshot, error) {
	return v.mutate(func() error {
		if _, ok := v.deps.Tax.Region(regionID); !ok {
			return ErrUnknownRegion
		}
		prev := v.sm.State()
		next := v.sm.SelectRegion(regionID)
		v.regionChanged(prev, next)
		v.ctl.Resync()
		return nil
	})
}

var ErrUnknownRegion = errors.New("view: unknown region")

// Dispatch：将指针事件投递到场景；降级模式下忽略
func (v *View) Dispatch(ev scene.Event) (Snapshot, error) {
	return v.mutate(func() error {
		if v.doc == nil {
			return nil
		}
		v.doc.Dispatch(ev)
		return nil
	})
}

// Clear：清除选中
func (v *View) Clear() (Snapshot, error) {
	return v.mutate(func() error {
		prev := v.sm.State()
		next := v.sm.Clear()
		v.regionChanged(prev, next)
		v.ctl.Resync()
		return nil
	})
}

// Retry：错误提示中的重试动作
func (v *View) Retry(ctx context.Context) error {
	v.mu.Lock()
	mounted := v.mounted
	v.mu.Unlock()
	if !mounted {
		return ErrUnmounted
	}
	v.deps.Hook.Refetch(ctx)
	return nil
}

// Snapshot：当前渲染结果
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// RenderScene：输出着色后的 SVG；降级模式返回 scene.ErrNoFeatures
func (v *View) RenderScene(w io.Writer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		return ErrUnmounted
	}
	if v.doc == nil {
		return scene.ErrNoFeatures
	}
	return v.doc.Render(w)
}

// ActiveTrackers：控制器当前持有的指针跟踪订阅数
func (v *View) ActiveTrackers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctl.ActiveTrackers()
}

// Watch：订阅快照变化，返回取消函数
func (v *View) Watch(fn func(Snapshot)) (cancel func()) {
	v.mu.Lock()
	id := v.nextW
	v.nextW++
	v.watchers[id] = fn
	v.mu.Unlock()
	return func() {
		v.mu.Lock()
		delete(v.watchers, id)
		v.mu.Unlock()
	}
}

// Unmount：卸载视图
// 约束：释放场景订阅与数据钩子订阅；之后完成的拉取对本视图不可见；可重复调用
func (v *View) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.ctl.Teardown()
	v.doc = nil
	unsub := v.unsub
	v.unsub = nil
	v.watchers = make(map[int]func(Snapshot))
	v.mu.Unlock()
	if unsub != nil {
		unsub()
	}
	metrics.ViewsMounted.Dec()
	v.log.Debug("view_unmount")
}

func (v *View) mutate(fn func() error) (Snapshot, error) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return Snapshot{}, ErrUnmounted
	}
	if err := fn(); err != nil {
		v.mu.Unlock()
		return Snapshot{}, err
	}
	snap := v.snapshotLocked()
	pending := v.pending
	v.pending = nil
	v.mu.Unlock()
	if v.props.OnRegionSelect != nil {
		for _, id := range pending {
			v.props.OnRegionSelect(id)
		}
	}
	v.publish(snap)
	return snap, nil
}

// onFeatureSelect：控制器点击回调；在视图锁内执行，只登记待通知的大区变化
func (v *View) onFeatureSelect(prev, next selection.State) {
	v.regionChanged(prev, next)
}

func (v *View) regionChanged(prev, next selection.State) {
	p, _ := prev.Region()
	n, _ := next.Region()
	if p == n {
		return
	}
	v.pending = append(v.pending, n)
}

func (v *View) onData(st datahook.State) {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.data = st
	v.ctl.Resync()
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.publish(snap)
}

func (v *View) publish(s Snapshot) {
	v.mu.Lock()
	fns := make([]func(Snapshot), 0, len(v.watchers))
	for _, fn := range v.watchers {
		fns = append(fns, fn)
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}
