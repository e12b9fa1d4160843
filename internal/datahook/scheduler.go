package datahook

import (
	"context"
	"time"
)

// RunPeriodic：按固定间隔在后台刷新数据，直到 ctx 结束
// 背景：后端数据由管理工具维护，服务进程定期重新拉取；错误由钩子记录并保留上一次数据，调度继续
// 约束：interval<=0 时不调度；阻塞调用，应在独立协程中运行
func (h *Hook) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.log.Debug("datahook_refresh_tick", "source", h.src.Name())
			_ = h.FetchSync(ctx)
		}
	}
}
