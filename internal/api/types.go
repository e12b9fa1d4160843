package api

import (
	"recipe-map/internal/view"
)

// 文档注释：挂载请求
// 约束：activeRegion 为空时依次按定位坐标、边缘地理头、访问者 IP 推断；推断失败则不选中
type mountRequest struct {
	ActiveRegion string   `json:"activeRegion"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	// CoordSys：wgs84（默认）或 gcj-02
	CoordSys string `json:"coordSys,omitempty"`
}

type mountResponse struct {
	ID       string        `json:"id"`
	Snapshot view.Snapshot `json:"snapshot"`
}

// 文档注释：视图事件
// 背景：前端把 SVG 上的指针事件与瓦片点击统一回传；type 取值 enter|leave|move|click|tile|clear|retry
type eventRequest struct {
	Type    string  `json:"type"`
	Feature string  `json:"feature"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Region  string  `json:"region"`
}

type regionsResponse struct {
	Tiles     []view.Tile `json:"tiles"`
	IsLoading bool        `json:"isLoading"`
	Error     string      `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}
