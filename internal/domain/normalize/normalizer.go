// Package normalize turns loosely shaped platform payloads into the
// canonical entity model. Everything here is pure: the local session id is
// always an argument, and no function touches the network or global state.
package normalize

import (
	"regexp"
	"strings"
)

type Options struct {
	// AssetBaseURL is prepended to relative media paths.
	AssetBaseURL string
	// DevOrigins are absolute origins that leak from development builds and
	// are rewritten onto AssetBaseURL.
	DevOrigins []string
	// LogoMarkers are URL substrings of the shared branding image that must
	// never be shown as an avatar.
	LogoMarkers []string
}

type Normalizer struct {
	assetBase   string
	devOrigins  []string
	logoMarkers []string
}

func New(opts Options) *Normalizer {
	n := &Normalizer{
		assetBase: strings.TrimRight(strings.TrimSpace(opts.AssetBaseURL), "/"),
	}
	for _, o := range opts.DevOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			n.devOrigins = append(n.devOrigins, o)
		}
	}
	for _, m := range opts.LogoMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			n.logoMarkers = append(n.logoMarkers, m)
		}
	}
	return n
}

var cloudinaryPath = regexp.MustCompile(`(?i)(?:^|/)([a-z0-9_-]+)/(image|video)/upload/(.+)`)

// AbsURL rewrites a media reference into an absolute URL, or "" when it
// cannot be made absolute.
func (n *Normalizer) AbsURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, origin := range n.devOrigins {
		if strings.HasPrefix(s, origin) && n.assetBase != "" {
			return n.assetBase + strings.TrimPrefix(s, origin)
		}
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"),
		strings.HasPrefix(lower, "data:"), strings.HasPrefix(lower, "blob:"):
		return s
	case strings.HasPrefix(s, "//"):
		return "https:" + s
	}

	if m := cloudinaryPath.FindStringSubmatch(s); m != nil && !strings.EqualFold(m[1], "uploads") {
		return "https://res.cloudinary.com/" + m[1] + "/" + strings.ToLower(m[2]) + "/upload/" + m[3]
	}

	if n.assetBase == "" {
		return ""
	}
	if strings.HasPrefix(s, "/") {
		return n.assetBase + s
	}
	return n.assetBase + "/" + s
}

func (n *Normalizer) isPlatformLogo(url string) bool {
	lower := strings.ToLower(url)
	for _, m := range n.logoMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
