package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSelector：默认要素选择器（带 id 的路径、多边形与分组）
const DefaultSelector = "path[id], polygon[id], g[id]"

type listener struct {
	feature string
	typ     EventType
	h       Handler
}

// Document：基于 goquery 的 SVG 文档，实现 Surface
// 背景：SVG 嵌入 HTML 解析后位于 body 下；只操作根 svg 节点内的要素
// 约束：属性修改与订阅表均受同一把锁保护；回调在锁外执行，允许回调内再次订阅或释放
type Document struct {
	mu        sync.Mutex
	root      *goquery.Selection
	order     []string
	features  map[string]*goquery.Selection
	next      ListenerID
	listeners map[ListenerID]listener
}

// Load：解析 SVG 并枚举要素
// 返回：无 svg 根节点返回 ErrNotSVG；没有任何可寻址要素返回 ErrNoFeatures
func Load(r io.Reader, selector string) (*Document, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("scene: parse: %w", err)
	}
	root := doc.Find("svg").First()
	if root.Length() == 0 {
		return nil, ErrNotSVG
	}
	d := &Document{
		root:      root,
		features:  make(map[string]*goquery.Selection),
		listeners: make(map[ListenerID]listener),
	}
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		if !ok || id == "" {
			return
		}
		if _, dup := d.features[id]; dup {
			return
		}
		d.features[id] = s
		d.order = append(d.order, id)
	})
	if len(d.order) == 0 {
		return nil, ErrNoFeatures
	}
	return d, nil
}

// LoadBytes：从内存中的 SVG 字节解析（每次挂载得到独立可变的文档）
func LoadBytes(b []byte, selector string) (*Document, error) {
	return Load(bytes.NewReader(b), selector)
}

// LoadFile：从文件解析
func LoadFile(path, selector string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, selector)
}

func (d *Document) Features() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

func (d *Document) SetPaint(id string, p Paint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.features[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFeature, id)
	}
	s.SetAttr("fill", p.Fill)
	if p.Stroke != "" {
		s.SetAttr("stroke", p.Stroke)
	}
	if p.StrokeWidth > 0 {
		s.SetAttr("stroke-width", strconv.FormatFloat(p.StrokeWidth, 'f', -1, 64))
	}
	return nil
}

// PaintOf：读取要素当前属性
func (d *Document) PaintOf(id string) (Paint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.features[id]
	if !ok {
		return Paint{}, false
	}
	var p Paint
	p.Fill, _ = s.Attr("fill")
	p.Stroke, _ = s.Attr("stroke")
	if w, ok := s.Attr("stroke-width"); ok {
		p.StrokeWidth, _ = strconv.ParseFloat(w, 64)
	}
	return p, true
}

func (d *Document) On(id string, t EventType, h Handler) ListenerID {
	return d.add(listener{feature: id, typ: t, h: h})
}

func (d *Document) OnDocument(t EventType, h Handler) ListenerID {
	return d.add(listener{typ: t, h: h})
}

func (d *Document) add(l listener) ListenerID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.listeners[d.next] = l
	return d.next
}

func (d *Document) Off(id ListenerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.listeners, id)
}

// ListenerCount：当前订阅总数（要素级 + 文档级）
func (d *Document) ListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

// DocumentListenerCount：文档级订阅数（悬停期间的指针跟踪）
func (d *Document) DocumentListenerCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, l := range d.listeners {
		if l.feature == "" {
			n++
		}
	}
	return n
}

// Dispatch：把一次指针事件投递给订阅者，返回被调用的回调数
// 约束：Move 只投递给文档级订阅；其余事件只投递给对应要素的订阅
func (d *Document) Dispatch(ev Event) int {
	d.mu.Lock()
	var ids []ListenerID
	for id, l := range d.listeners {
		if l.typ != ev.Type {
			continue
		}
		if ev.Type == Move {
			if l.feature == "" {
				ids = append(ids, id)
			}
			continue
		}
		if l.feature == ev.FeatureID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	hs := make([]Handler, 0, len(ids))
	for _, id := range ids {
		hs = append(hs, d.listeners[id].h)
	}
	d.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
	return len(hs)
}

// Render：输出当前 SVG 标记（含已修改的属性）
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	html, err := goquery.OuterHtml(d.root)
	d.mu.Unlock()
	if err != nil {
		return fmt.Errorf("scene: render: %w", err)
	}
	_, err = io.WriteString(w, html)
	return err
}
