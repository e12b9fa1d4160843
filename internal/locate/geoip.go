package locate

import (
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP：基于 MaxMind City 库，输出 ISO 3166-2 省级代码（如 CN-SC）
type GeoIP struct {
	r *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIP, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIP{r: r}, nil
}

func (g *GeoIP) Name() string { return "geoip" }

func (g *GeoIP) Lookup(ip string) (string, bool) {
	if g == nil || g.r == nil {
		return "", false
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		return "", false
	}
	rec, err := g.r.City(addr)
	if err != nil || !strings.EqualFold(rec.Country.IsoCode, "CN") || len(rec.Subdivisions) == 0 {
		return "", false
	}
	code := rec.Subdivisions[0].IsoCode
	if code == "" {
		return "", false
	}
	return "CN-" + strings.ToUpper(code), true
}

func (g *GeoIP) Close() error {
	if g == nil || g.r == nil {
		return nil
	}
	return g.r.Close()
}
