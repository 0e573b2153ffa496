package csgeo

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		name        string
		headers     map[string]string
		wantCountry string
		wantCity    string
	}{
		{"No headers", nil, "", ""},
		{"Cloudflare", map[string]string{"cf-ipcountry": "CH"}, "CH", ""},
		{"Vercel", map[string]string{"x-vercel-ip-country": "FR", "x-vercel-ip-city": "Paris"}, "FR", "Paris"},
		{"Generic CDN", map[string]string{"x-country-code": "DE", "x-city": "Berlin"}, "DE", "Berlin"},
		{"Vercel wins over Cloudflare", map[string]string{"x-vercel-ip-country": "FR", "cf-ipcountry": "CH"}, "FR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			country, city := FromHeaders(h)
			assert.Equal(t, tt.wantCountry, country)
			assert.Equal(t, tt.wantCity, city)
		})
	}
}

func TestLocateWithoutDatabase(t *testing.T) {
	var r *Resolver
	country, city := r.Locate("203.0.113.7")
	assert.Empty(t, country)
	assert.Empty(t, city)
}
