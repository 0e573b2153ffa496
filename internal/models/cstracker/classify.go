package cstracker

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Acquisition channels frozen on a visitor's first visit.
const (
	SourceDirect   = "direct"
	SourceReferral = "referral"
)

// HashIP returns the salted SHA-256 of a client address. Raw addresses are
// never stored.
func HashIP(salt, ip string) string {
	sum := sha256.Sum256([]byte(salt + ip))
	return hex.EncodeToString(sum[:])
}

// ClassifySource maps a referrer URL to an acquisition channel. host is the
// site's own hostname; traffic from it counts as direct. Pure function,
// computed once per visitor and immutable afterwards.
func ClassifySource(referrer, host string) string {
	if referrer == "" {
		return SourceDirect
	}

	refURL, err := url.Parse(referrer)
	if err != nil || refURL.Hostname() == "" {
		return SourceDirect
	}
	hostname := strings.ToLower(refURL.Hostname())

	switch {
	case strings.Contains(hostname, "google"):
		return "google"
	case strings.Contains(hostname, "facebook"):
		return "facebook"
	case strings.Contains(hostname, "twitter"), strings.Contains(hostname, "x.com"):
		return "twitter"
	case strings.Contains(hostname, "linkedin"):
		return "linkedin"
	case strings.Contains(hostname, "instagram"):
		return "instagram"
	}

	if host != "" && strings.Contains(hostname, strings.ToLower(host)) {
		return SourceDirect
	}
	return SourceReferral
}

// ClassifyDevice buckets a user agent into mobile, tablet or desktop.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return "mobile"
	case strings.Contains(ua, "tablet"):
		return "tablet"
	default:
		return "desktop"
	}
}
