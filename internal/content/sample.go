package content

import (
	"fmt"
	"strings"
)

// SampleSize：内容面板每次展示的示例菜品数
const SampleSize = 3

// Entry：内容面板中的一条示例菜品
// 约束：Placeholder 恒为 true，表示非持久化数据；接入真实菜谱后整体替换本生成器，不在此处扩展持久化
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Origin      string `json:"origin"`
	Context     string `json:"context"`
	Minutes     int    `json:"minutes"`
	Placeholder bool   `json:"placeholder"`
}

var sampleTemplates = [SampleSize]string{
	"%s Braised Pork",
	"%s Noodle Soup",
	"%s Street Dumplings",
}

// SampleContentFor：为地点生成固定数量的占位菜品，标注所属地点与上下文（通常为大区名）
func (r *Resolver) SampleContentFor(name, contextLabel string) []Entry {
	display := strings.TrimSpace(name)
	if r.tax != nil {
		if s, ok := r.tax.Subdivision(name); ok {
			display = s.DisplayName()
		}
	}
	slug := strings.ReplaceAll(normKey(name), " ", "-")
	out := make([]Entry, 0, SampleSize)
	for i, tpl := range sampleTemplates {
		out = append(out, Entry{
			ID:          fmt.Sprintf("%s-sample-%d", slug, i+1),
			Title:       fmt.Sprintf(tpl, display),
			Origin:      display,
			Context:     contextLabel,
			Minutes:     15 + (Estimate(slug)+i*17)%60,
			Placeholder: true,
		})
	}
	return out
}
