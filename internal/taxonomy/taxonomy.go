// 包 taxonomy：行政区划与菜系大区的静态分类表，提供省级单元与大区之间的双向查询
// 背景：矢量地图中的要素以外部编码（如 CN-GD）标识，业务侧以小写规范名（guangdong）标识，需在两套标识间稳定互查
// 约束：进程启动时构建一次，之后只读；所有查询均为纯函数，可被多个视图并发共享
package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// Colors：大区的三种展示色（常规/悬停/选中）
type Colors struct {
	Base     string `json:"base"`
	Hover    string `json:"hover"`
	Selected string `json:"selected"`
}

// Region：菜系大区，持有有序的成员省份规范名
// 约束：Members 中的每个规范名在整个分类表中只能归属一个大区
type Region struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Colors  Colors   `json:"colors"`
	Members []string `json:"members"`
	Count   int      `json:"count"`
}

// Subdivision：最小可寻址地理单元（省/直辖市/自治区/特别行政区）
// 背景：Code 为矢量场景中使用的外部编码；Label 为本地化名称，用于匹配 IP 归属地返回的省份文本
type Subdivision struct {
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
	Label   string `json:"label,omitempty"`
}

var (
	ErrDuplicateMember = errors.New("taxonomy: subdivision belongs to more than one region")
	ErrDuplicateCode   = errors.New("taxonomy: legacy code maps to more than one subdivision")
	ErrDuplicateRegion = errors.New("taxonomy: duplicate region id")
)

// Taxonomy：只读分类表
type Taxonomy struct {
	regions []Region
	byID    map[string]int
	subs    map[string]Subdivision
	codes   map[string]string
	owner   map[string]int
}

// New：由大区与省份描述构建分类表并校验不变量
// 背景：省份列表只补充编码与本地化名称；仅出现在大区成员中的规范名会生成最小 Subdivision
// 约束：同一规范名出现在两个大区、同一外部编码对应两个规范名、大区 id 重复均返回错误
func New(regions []Region, subs []Subdivision) (*Taxonomy, error) {
	t := &Taxonomy{
		byID:  make(map[string]int, len(regions)),
		subs:  make(map[string]Subdivision),
		codes: make(map[string]string),
		owner: make(map[string]int),
	}
	for _, s := range subs {
		s.Name = normName(s.Name)
		if s.Name == "" {
			continue
		}
		if s.Code != "" {
			c := normCode(s.Code)
			if prev, ok := t.codes[c]; ok && prev != s.Name {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, c)
			}
			t.codes[c] = s.Name
			s.Code = c
		}
		t.subs[s.Name] = s
	}
	for i, r := range regions {
		if _, ok := t.byID[r.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRegion, r.ID)
		}
		members := make([]string, 0, len(r.Members))
		for _, m := range r.Members {
			m = normName(m)
			if prev, ok := t.owner[m]; ok {
				return nil, fmt.Errorf("%w: %s in %s and %s", ErrDuplicateMember, m, regions[prev].ID, r.ID)
			}
			t.owner[m] = i
			if _, ok := t.subs[m]; !ok {
				t.subs[m] = Subdivision{Name: m}
			}
			members = append(members, m)
		}
		r.Members = members
		t.regions = append(t.regions, r)
		t.byID[r.ID] = i
	}
	return t, nil
}

// MustNew：New 的 panic 版本，仅用于内置静态表
func MustNew(regions []Region, subs []Subdivision) *Taxonomy {
	t, err := New(regions, subs)
	if err != nil {
		panic(err)
	}
	return t
}

// Canonical：把外部编码或规范名统一为规范名
// 约束：外部编码优先；未知输入原样小写返回并以 false 标记
func (t *Taxonomy) Canonical(nameOrCode string) (string, bool) {
	if c, ok := t.codes[normCode(nameOrCode)]; ok {
		return c, true
	}
	n := normName(nameOrCode)
	_, ok := t.subs[n]
	return n, ok
}

// RegionOf：查询省份所属大区
// 背景：先把外部编码翻译为规范名，再在各大区成员中查找；矢量场景可能包含分类表之外的要素（争议或暂不支持的区域），此时返回 false，由调用方使用中性色
func (t *Taxonomy) RegionOf(nameOrCode string) (Region, bool) {
	n, _ := t.Canonical(nameOrCode)
	i, ok := t.owner[n]
	if !ok {
		return Region{}, false
	}
	return t.regions[i].clone(), true
}

// Subdivision：按外部编码或规范名查询省份
func (t *Taxonomy) Subdivision(nameOrCode string) (Subdivision, bool) {
	n, ok := t.Canonical(nameOrCode)
	if !ok {
		return Subdivision{}, false
	}
	return t.subs[n], true
}

// ByLabel：按本地化名称查询省份，兼容省略“省/市/自治区”后缀的写法
func (t *Taxonomy) ByLabel(label string) (Subdivision, bool) {
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) < 2 {
		return Subdivision{}, false
	}
	for _, r := range t.regions {
		for _, m := range r.Members {
			s := t.subs[m]
			if s.Label == "" {
				continue
			}
			if s.Label == label || strings.HasPrefix(s.Label, label) {
				return s, true
			}
		}
	}
	return Subdivision{}, false
}

// Region：按 id 查询大区
func (t *Taxonomy) Region(id string) (Region, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Region{}, false
	}
	return t.regions[i].clone(), true
}

// Regions：按定义顺序返回全部大区的副本
func (t *Taxonomy) Regions() []Region {
	out := make([]Region, len(t.regions))
	for i, r := range t.regions {
		out[i] = r.clone()
	}
	return out
}

// 成员切片单独复制，调用方修改返回值不影响分类表
func (r Region) clone() Region {
	r.Members = slices.Clone(r.Members)
	return r
}

// Subdivisions：按大区与成员顺序返回全部省份
func (t *Taxonomy) Subdivisions() []Subdivision {
	var out []Subdivision
	for _, r := range t.regions {
		for _, m := range r.Members {
			out = append(out, t.subs[m])
		}
	}
	return out
}

// DisplayName：省份的展示名，缺省时回退到规范名
func (s Subdivision) DisplayName() string {
	if s.Display != "" {
		return s.Display
	}
	return s.Name
}

func normName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normCode(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
