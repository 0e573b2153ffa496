package csgeo

import (
	"net/http"
	"net/netip"
	"strings"

	"github.com/oschwald/geoip2-golang/v2"
	"github.com/rs/zerolog/log"
)

// Resolver answers best-effort country/city questions about client
// addresses. It wraps a MaxMind City database; a nil Resolver (no database
// configured) is valid and always answers "unknown".
type Resolver struct {
	reader *geoip2.Reader
}

// Open loads the MaxMind database at path. An empty path returns a nil
// Resolver without error.
func Open(path string) (*Resolver, error) {
	if path == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Resolver{reader: reader}, nil
}

func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// FromHeaders reads the geolocation that CDN edges inject into the request
// (Vercel, Cloudflare, CloudFront). Empty strings when no edge is in front.
func FromHeaders(h http.Header) (country, city string) {
	for _, key := range []string{"x-vercel-ip-country", "cf-ipcountry", "x-country-code"} {
		if v := h.Get(key); v != "" {
			country = v
			break
		}
	}
	for _, key := range []string{"x-vercel-ip-city", "x-city"} {
		if v := h.Get(key); v != "" {
			city = v
			break
		}
	}
	return country, city
}

// Locate returns the ISO country code and english city name for ip, empty
// strings when unknown.
func (r *Resolver) Locate(ip string) (country, city string) {
	if r == nil || r.reader == nil {
		return "", ""
	}

	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", ""
	}

	record, err := r.reader.City(addr)
	if err != nil {
		log.Debug().Err(err).Str("ip", ip).Msg("geoip lookup failed")
		return "", ""
	}

	return record.Country.ISOCode, record.City.Names.English
}
