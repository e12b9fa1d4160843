package api

import (
	"net"
	"net/http"
	"strings"
)

// 文档注释：获取访问者 IP（用于推断默认大区）
// 背景：多层代理环境下，优先显式参数，其次常见反向代理头，最后回退远端地址；确保在复杂链路中得到稳定来源 IP。
// 约束：头部存在伪造风险，只用于选择初始大区这类无安全影响的场景。
func getVisitorIP(r *http.Request) string {
	if q := r.URL.Query().Get("ip"); q != "" {
		return q
	}
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		i := strings.Index(strings.ToLower(x), "for=")
		if i >= 0 {
			y := x[i+4:]
			y = strings.Trim(y, "\" ")
			if p := strings.IndexByte(y, ';'); p >= 0 {
				y = y[:p]
			}
			if p := strings.IndexByte(y, ','); p >= 0 {
				y = y[:p]
			}
			return strings.Trim(y, "\" []")
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// 文档注释：读取边缘节点改写的省级地理头
// 背景：经 EdgeOne 回源时，控制台可配置把访客省份写入 X-EO-Geo-RegionCode / X-EO-Geo-Region；存在时优先于 IP 推断。
// 约束：字段名大小写需与控制台配置一致；值的形式由定位层统一解析。
func edgeRegionHints(r *http.Request) []string {
	var out []string
	for _, k := range []string{"X-EO-Geo-RegionCode", "X-EO-Geo-Region"} {
		if v := strings.TrimSpace(r.Header.Get(k)); v != "" {
			out = append(out, v)
		}
	}
	return out
}
