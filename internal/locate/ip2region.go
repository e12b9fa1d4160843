package locate

import (
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// IP2Region：基于 v4 XDB 文件的离线查询
// 背景：记录格式为 国家|区域|省份|城市|ISP，仅取中国境内的省份字段交给分类表按标签解析
type IP2Region struct {
	v4 *xdb.Searcher
}

func OpenIP2Region(v4Path string) (*IP2Region, error) {
	s, err := xdb.NewWithFileOnly(xdb.IPv4, v4Path)
	if err != nil {
		return nil, err
	}
	return &IP2Region{v4: s}, nil
}

func (c *IP2Region) Name() string { return "ip2region" }

func (c *IP2Region) Lookup(ip string) (string, bool) {
	if c == nil || c.v4 == nil || ip == "" {
		return "", false
	}
	region, err := c.v4.SearchByStr(ip)
	if err != nil || region == "" {
		return "", false
	}
	return provinceOf(region)
}

func (c *IP2Region) Close() {
	if c != nil && c.v4 != nil {
		c.v4.Close()
	}
}

func provinceOf(record string) (string, bool) {
	parts := strings.Split(record, "|")
	if len(parts) < 3 {
		return "", false
	}
	country := safe(parts[0])
	if country != "" && country != "中国" && !strings.EqualFold(country, "china") {
		return "", false
	}
	p := safe(parts[2])
	return p, p != ""
}

func safe(s string) string {
	s = strings.TrimSpace(s)
	if s == "0" || strings.EqualFold(s, "unknown") {
		return ""
	}
	return s
}
