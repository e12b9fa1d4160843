package locate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"recipe-map/internal/logger"
	"recipe-map/internal/metrics"
	"recipe-map/internal/taxonomy"
)

// 文档注释：按经纬度归属省份（浏览器定位兜底）
// 背景：访客授权定位后，前端上报坐标；先用包围盒过滤，再做点入多边形判定，未命中时按最近省份中心兜底。
// 约束：边界文件为 GeoJSON FeatureCollection，properties 中的 code 或 name 需能被分类表识别；无法识别的要素在加载时丢弃。
type Boundaries struct {
	tax         *taxonomy.Taxonomy
	units       []unit
	maxRadiusKm float64
}

type point struct{ Lat, Lon float64 }

type polygon struct {
	rings [][]point
	bbox  [4]float64 // minLon, minLat, maxLon, maxLat
}

type unit struct {
	name   string
	polys  []polygon
	center point
}

type geoFeature struct {
	Properties map[string]any `json:"properties"`
	Geometry   struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

var ErrNoBoundaries = errors.New("locate: boundary file has no usable features")

// LoadBoundaries：读取省级边界 GeoJSON
func LoadBoundaries(path string, tax *taxonomy.Taxonomy) (*Boundaries, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBoundaries(b, tax)
}

func ParseBoundaries(b []byte, tax *taxonomy.Taxonomy) (*Boundaries, error) {
	var fc struct {
		Type     string       `json:"type"`
		Features []geoFeature `json:"features"`
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("locate: parse boundaries: %w", err)
	}
	out := &Boundaries{tax: tax, maxRadiusKm: 300}
	for _, f := range fc.Features {
		name := ""
		for _, k := range []string{"code", "iso_3166_2", "name"} {
			if v, ok := f.Properties[k].(string); ok {
				if n, ok := resolveValue(tax, v); ok {
					name = n
					break
				}
			}
		}
		if name == "" {
			continue
		}
		polys, err := parsePolygons(f.Geometry.Type, f.Geometry.Coordinates)
		if err != nil || len(polys) == 0 {
			logger.L().Debug("boundary_feature_skip", "name", name, "err", err)
			continue
		}
		out.units = append(out.units, unit{name: name, polys: polys, center: centerOf(polys)})
	}
	if len(out.units) == 0 {
		return nil, ErrNoBoundaries
	}
	logger.L().Info("boundaries_loaded", "units", len(out.units))
	return out, nil
}

func parsePolygons(typ string, raw json.RawMessage) ([]polygon, error) {
	switch strings.ToLower(typ) {
	case "polygon":
		var c [][][]float64
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return []polygon{toPolygon(c)}, nil
	case "multipolygon":
		var c [][][][]float64
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		out := make([]polygon, 0, len(c))
		for _, part := range c {
			out = append(out, toPolygon(part))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported geometry %q", typ)
}

// 第一环为外环，其余为洞；坐标顺序为 [lon, lat]
func toPolygon(rings [][][]float64) polygon {
	p := polygon{bbox: [4]float64{180, 90, -180, -90}}
	for _, ring := range rings {
		rr := make([]point, 0, len(ring))
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pt := point{Lat: c[1], Lon: c[0]}
			rr = append(rr, pt)
			p.bbox[0] = math.Min(p.bbox[0], pt.Lon)
			p.bbox[1] = math.Min(p.bbox[1], pt.Lat)
			p.bbox[2] = math.Max(p.bbox[2], pt.Lon)
			p.bbox[3] = math.Max(p.bbox[3], pt.Lat)
		}
		p.rings = append(p.rings, rr)
	}
	return p
}

func centerOf(polys []polygon) point {
	var lat, lon float64
	var n int
	for _, p := range polys {
		if len(p.rings) == 0 {
			continue
		}
		for _, pt := range p.rings[0] {
			lat += pt.Lat
			lon += pt.Lon
			n++
		}
	}
	if n == 0 {
		return point{}
	}
	return point{Lat: lat / float64(n), Lon: lon / float64(n)}
}

// SetMaxRadius：最近中心兜底的最大距离（千米），<=0 表示关闭兜底
func (b *Boundaries) SetMaxRadius(km float64) { b.maxRadiusKm = km }

func (b *Boundaries) Len() int {
	if b == nil {
		return 0
	}
	return len(b.units)
}

// 文档注释：坐标归属
// 背景：国内地图 SDK 多返回 GCJ-02 坐标，coordSys 为 "gcj-02" 时先转换为 WGS84。
// 返回：省份规范名；approx 表示为最近中心兜底而非多边形命中。
func (b *Boundaries) At(lat, lon float64, coordSys string) (name string, approx bool, ok bool) {
	if b == nil || math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "", false, false
	}
	if strings.EqualFold(coordSys, "gcj-02") {
		lat, lon = gcj02ToWGS84(lat, lon)
	}
	pt := point{Lat: lat, Lon: lon}
	for _, u := range b.units {
		for _, p := range u.polys {
			if inBBox(pt, p.bbox) && pointInPoly(pt, p) {
				metrics.LocateTotal.WithLabelValues("coords", "hit").Inc()
				return u.name, false, true
			}
		}
	}
	if b.maxRadiusKm > 0 {
		best, bestD := "", math.MaxFloat64
		for _, u := range b.units {
			if d := haversine(pt, u.center); d < bestD {
				best, bestD = u.name, d
			}
		}
		if bestD <= b.maxRadiusKm {
			metrics.LocateTotal.WithLabelValues("coords", "approx").Inc()
			return best, true, true
		}
	}
	metrics.LocateTotal.WithLabelValues("coords", "miss").Inc()
	return "", false, false
}

// RegionAt：坐标所在大区 id
func (b *Boundaries) RegionAt(lat, lon float64, coordSys string) (string, bool) {
	name, _, ok := b.At(lat, lon, coordSys)
	if !ok {
		return "", false
	}
	r, ok := b.tax.RegionOf(name)
	if !ok {
		return "", false
	}
	return r.ID, true
}

func inBBox(pt point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}

// 外环命中且不在洞内视为命中（Even-Odd）
func pointInPoly(pt point, p polygon) bool {
	if len(p.rings) == 0 || !pointInRing(pt, p.rings[0]) {
		return false
	}
	for _, hole := range p.rings[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

func pointInRing(pt point, ring []point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, c := ring[i], ring[j]
		if (a.Lat > pt.Lat) != (c.Lat > pt.Lat) &&
			pt.Lon < (c.Lon-a.Lon)*(pt.Lat-a.Lat)/(c.Lat-a.Lat+1e-12)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

// 球面距离，千米
func haversine(a, b point) float64 {
	const r = 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * r * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// 简化实现，误差在数十米级；境外坐标原样返回
func gcj02ToWGS84(lat, lon float64) (float64, float64) {
	if lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271 {
		return lat, lon
	}
	const a, ee = 6378245.0, 0.00669342162296594323
	x, y := lon-105.0, lat-35.0
	dLat := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	dLat += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	dLat += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	dLat += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	dLon := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	dLon += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	dLon += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	dLon += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	rad := lat / 180.0 * math.Pi
	magic := 1 - ee*math.Sin(rad)*math.Sin(rad)
	sq := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((a * (1 - ee)) / (magic * sq) * math.Pi)
	dLon = (dLon * 180.0) / (a / sq * math.Cos(rad) * math.Pi)
	return lat*2 - (lat + dLat), lon*2 - (lon + dLon)
}
