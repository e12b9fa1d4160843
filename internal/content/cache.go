package content

import (
	"container/list"
	"sync"
	"time"
)

// 文档注释：本地 LRU 缓存（名称 + 数据代次为键）
// 背景：同一渲染周期内瓦片、浮层、内容面板会反复查询同一名称的菜谱数；缓存避免重复走回退链。
// 约束：键由调用方携带数据代次，后端数据替换后旧键自然失效并被淘汰；TTL 兜底过期。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
}

type kv struct {
	k   string
	v   int
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element)}
}

func (c *LRU) Get(k string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if time.Now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return 0, false
}

func (c *LRU) Set(k string, v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: time.Now().Add(c.ttl)}
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(kv{k: k, v: v, exp: time.Now().Add(c.ttl)})
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back == nil {
			break
		}
		delete(c.dict, back.Value.(kv).k)
		c.lst.Remove(back)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
