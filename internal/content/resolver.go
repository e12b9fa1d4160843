// 包 content：菜谱数量与示例菜品的解析层
// 背景：后端数据（数据钩子）可能缺失或不完整，按“后端数据 → 静态兜底表 → 确定性估算”顺序解析，保证任何名称都有稳定的展示值
package content

import (
	"hash/fnv"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"recipe-map/internal/metrics"
	"recipe-map/internal/taxonomy"
)

// CountSource：单级数量来源；未命中返回 false 交由下一级处理
type CountSource interface {
	Count(name string) (int, bool)
	Name() string
}

// 估算区间：[estimateMin, estimateMin+estimateSpan)
const (
	estimateMin  = 20
	estimateSpan = 100
)

// Resolver：数量与示例内容解析器
// 约束：可被多个视图并发调用；后端数据通过 SetFetched 原子替换
type Resolver struct {
	tax     *taxonomy.Taxonomy
	fetched atomic.Pointer[fetchedSource]
	static  staticSource
	cache   *LRU
	gen     atomic.Uint64
}

// Option：解析器可选项
type Option func(*Resolver)

// WithStatic：替换静态兜底表（键为规范名或大区 id）
func WithStatic(m map[string]int) Option {
	return func(r *Resolver) { r.static = newStatic(m) }
}

// WithCache：指定缓存容量与 TTL
func WithCache(capacity int, ttl time.Duration) Option {
	return func(r *Resolver) { r.cache = NewLRU(capacity, ttl) }
}

func NewResolver(tax *taxonomy.Taxonomy, opts ...Option) *Resolver {
	r := &Resolver{tax: tax, static: newStatic(defaultStatic), cache: NewLRU(4096, time.Hour)}
	for _, o := range opts {
		o(r)
	}
	r.fetched.Store(&fetchedSource{})
	return r
}

// SetFetched：替换后端数据（名称 → 菜谱数）
// 背景：数据钩子每次成功拉取后调用；代次递增使缓存中旧代次的键全部失效
func (r *Resolver) SetFetched(counts map[string]int) {
	fs := &fetchedSource{counts: make(map[string]int, len(counts))}
	for k, v := range counts {
		if v < 0 {
			continue
		}
		fs.counts[normKey(k)] = v
	}
	r.fetched.Store(fs)
	r.gen.Add(1)
}

// CountFor：解析名称对应的菜谱数（≥0）
// 约束：后端数据不变时同一输入必然得到同一结果
func (r *Resolver) CountFor(name string) int {
	key := "s:" + strconv.FormatUint(r.gen.Load(), 10) + ":" + normKey(name)
	if v, ok := r.cache.Get(key); ok {
		metrics.ContentCacheHitsTotal.Inc()
		return v
	}
	metrics.ContentCacheMissesTotal.Inc()
	v := r.resolve(r.candidates(name))
	r.cache.Set(key, v)
	return v
}

// RegionCount：大区菜谱数
// 背景：后端大区条目优先；其次分类表中缓存的大区数；都缺失时按成员数量求和
func (r *Resolver) RegionCount(id string) int {
	reg, ok := r.tax.Region(id)
	if !ok {
		return r.CountFor(id)
	}
	key := "r:" + strconv.FormatUint(r.gen.Load(), 10) + ":" + reg.ID
	if v, ok := r.cache.Get(key); ok {
		metrics.ContentCacheHitsTotal.Inc()
		return v
	}
	metrics.ContentCacheMissesTotal.Inc()
	fs := r.fetched.Load()
	v, hit := 0, false
	for _, k := range []string{reg.ID, reg.Name} {
		if n, ok := fs.Count(normKey(k)); ok {
			v, hit = n, true
			metrics.ContentFallbackTotal.WithLabelValues(fs.Name()).Inc()
			break
		}
	}
	if !hit && reg.Count > 0 {
		v, hit = reg.Count, true
		metrics.ContentFallbackTotal.WithLabelValues(r.static.Name()).Inc()
	}
	if !hit {
		for _, m := range reg.Members {
			v += r.CountFor(m)
		}
	}
	r.cache.Set(key, v)
	return v
}

// resolve：依次尝试后端数据、静态表，全部未命中时使用确定性估算
func (r *Resolver) resolve(cands []string) int {
	chain := []CountSource{r.fetched.Load(), r.static}
	for _, src := range chain {
		for _, c := range cands {
			if v, ok := src.Count(c); ok {
				metrics.ContentFallbackTotal.WithLabelValues(src.Name()).Inc()
				return v
			}
		}
	}
	metrics.ContentFallbackTotal.WithLabelValues("estimate").Inc()
	return Estimate(cands[0])
}

// candidates：同一地点可能以规范名、展示名或本地化名称出现在后端数据中
func (r *Resolver) candidates(name string) []string {
	out := []string{normKey(name)}
	if r.tax == nil {
		return out
	}
	if s, ok := r.tax.Subdivision(name); ok {
		out[0] = s.Name
		if s.Display != "" {
			out = append(out, normKey(s.Display))
		}
		if s.Label != "" {
			out = append(out, s.Label)
		}
	}
	return out
}

// Estimate：无任何数据时的确定性估算值（FNV-1a 映射到固定区间）
func Estimate(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normKey(name)))
	return estimateMin + int(h.Sum32()%estimateSpan)
}

func normKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

type fetchedSource struct{ counts map[string]int }

func (f *fetchedSource) Count(name string) (int, bool) {
	v, ok := f.counts[name]
	return v, ok
}

func (f *fetchedSource) Name() string { return "fetched" }

type staticSource map[string]int

func newStatic(m map[string]int) staticSource {
	out := make(staticSource, len(m))
	for k, v := range m {
		out[normKey(k)] = v
	}
	return out
}

func (s staticSource) Count(name string) (int, bool) {
	v, ok := s[name]
	return v, ok
}

func (s staticSource) Name() string { return "static" }

// 静态兜底表：后端无数据时的省级菜谱数
var defaultStatic = map[string]int{
	"sichuan":   86,
	"guangdong": 92,
	"shandong":  64,
	"jiangsu":   58,
	"zhejiang":  55,
	"fujian":    47,
	"hunan":     61,
	"anhui":     39,
	"beijing":   44,
	"shanghai":  41,
	"yunnan":    36,
	"xinjiang":  28,
	"shaanxi":   33,
	"hong-kong": 30,
}
