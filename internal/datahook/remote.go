package datahook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// 文档注释：BaaS REST 数据源
// 背景：前端原先直接通过后端即服务的 REST 接口读取 region_stats 与 cuisines 两张表；服务端沿用同一契约（apikey + Bearer 头，select=*）。
// 约束：任一请求非 2xx 视为整体失败，不返回部分数据；重试由 resty 负责，超时由钩子上下文控制。
type Remote struct {
	client *resty.Client
	base   string
}

type regionRow struct {
	Name        string   `json:"name"`
	Count       int      `json:"count"`
	Specialties []string `json:"specialties"`
	ColorClass  string   `json:"color_class"`
}

func NewRemote(baseURL, apiKey string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		c.SetHeader("apikey", apiKey).SetAuthToken(apiKey)
	}
	return &Remote{client: c, base: strings.TrimRight(baseURL, "/")}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Fetch(ctx context.Context) (*Payload, error) {
	var rows []regionRow
	if err := r.get(ctx, "/rest/v1/region_stats?select=*", &rows); err != nil {
		return nil, err
	}
	var cuisines []Cuisine
	if err := r.get(ctx, "/rest/v1/cuisines?select=*", &cuisines); err != nil {
		return nil, err
	}
	p := &Payload{Regions: make(map[string]RegionEntry, len(rows)), Cuisines: cuisines}
	for _, row := range rows {
		if row.Name == "" {
			continue
		}
		p.Regions[row.Name] = RegionEntry{Count: row.Count, Specialties: row.Specialties, ColorClass: row.ColorClass}
	}
	return p, nil
}

func (r *Remote) get(ctx context.Context, path string, out any) error {
	resp, err := r.client.R().SetContext(ctx).SetResult(out).Get(r.base + path)
	if err != nil {
		return fmt.Errorf("datahook: remote %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("datahook: remote %s: status %d", path, resp.StatusCode())
	}
	return nil
}

// Close：释放底层连接
func (r *Remote) Close() error { return r.client.Close() }
