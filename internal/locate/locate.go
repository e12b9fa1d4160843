// 包 locate：由访客 IP 推断所在大区，作为视图初始 activeRegion 的默认值
package locate

import (
	"net"
	"strings"

	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
	"recipe-map/internal/taxonomy"
)

// Locator：IP 到省级行政区的单一数据源；返回值可为规范名、ISO 代码或中文标签
type Locator interface {
	Name() string
	Lookup(ip string) (string, bool)
}

// Chain：按顺序首命中
// 约束：任一数据源返回的值需能被分类表解析，否则继续尝试下一个
type Chain struct {
	tax      *taxonomy.Taxonomy
	locators []Locator
}

func NewChain(tax *taxonomy.Taxonomy, locators ...Locator) *Chain {
	var ls []Locator
	for _, l := range locators {
		if l != nil {
			ls = append(ls, l)
		}
	}
	return &Chain{tax: tax, locators: ls}
}

func (c *Chain) Len() int { return len(c.locators) }

// Subdivision：返回访客所在省级行政区的规范名
func (c *Chain) Subdivision(ip string) (string, bool) {
	ip = strings.TrimSpace(ip)
	if net.ParseIP(ip) == nil {
		return "", false
	}
	for _, l := range c.locators {
		v, ok := l.Lookup(ip)
		if !ok || v == "" {
			metrics.LocateTotal.WithLabelValues(l.Name(), "miss").Inc()
			continue
		}
		if name, ok := c.resolve(v); ok {
			metrics.LocateTotal.WithLabelValues(l.Name(), "hit").Inc()
			logger.L().Debug("locate_hit", "ip", ip, "locator", l.Name(), "subdivision", name)
			return name, true
		}
		metrics.LocateTotal.WithLabelValues(l.Name(), "unresolved").Inc()
		logger.L().Debug("locate_unresolved", "ip", ip, "locator", l.Name(), "value", v)
	}
	return "", false
}

// RegionFor：返回访客所在大区 id；无法推断时返回空串
func (c *Chain) RegionFor(ip string) string {
	if c == nil || len(c.locators) == 0 {
		return ""
	}
	name, ok := c.Subdivision(ip)
	if !ok {
		return ""
	}
	reg, ok := c.tax.RegionOf(name)
	if !ok {
		return ""
	}
	return reg.ID
}

// RegionOfValue：把任意形式的省级标识（规范名、ISO 代码、中文标签）解析为大区 id
// 背景：边缘节点（EdgeOne）改写的地理请求头已经带有省份，无需再按 IP 查询
func (c *Chain) RegionOfValue(v string) string {
	if c == nil || strings.TrimSpace(v) == "" {
		return ""
	}
	name, ok := c.resolve(strings.TrimSpace(v))
	if !ok {
		return ""
	}
	if reg, ok := c.tax.RegionOf(name); ok {
		return reg.ID
	}
	return ""
}

func (c *Chain) resolve(v string) (string, bool) { return resolveValue(c.tax, v) }

// 先按规范名或 ISO 代码，再按中文标签前缀
func resolveValue(tax *taxonomy.Taxonomy, v string) (string, bool) {
	if name, ok := tax.Canonical(v); ok {
		return name, true
	}
	if s, ok := tax.ByLabel(v); ok {
		return s.Name, true
	}
	return "", false
}
