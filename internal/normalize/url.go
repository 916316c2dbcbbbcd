// Package normalize implements the Normalizer component of spec.md §4.2:
// URL canonicalization, mojibake repair, time handling, and source-name
// display fixes.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// trackingParams are stripped during canonicalization; hand-picked from the
// parameters the original Python crawler's URLs carried.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"ref":          {},
	"ref_src":      {},
	"spm":          {},
	"from":         {},
	"source":       {},
}

// CanonicalURL lowercases the scheme and host, strips the fragment and any
// tracking parameters, and returns a stable string. Two URLs differing only
// in these features canonicalize identically; canon(canon(u)) == canon(u).
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if _, tracked := trackingParams[strings.ToLower(key)]; tracked {
				q.Del(key)
			}
		}
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) == 0 {
			u.RawQuery = ""
		} else {
			u.RawQuery = q.Encode()
		}
	}

	// Drop a single trailing slash on the path (but not the root "/").
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String()
}

// ItemID derives the stable hash spec.md §3 calls id = md5(url), computed
// over the canonical URL so URL variants collapse to the same ID.
func ItemID(rawURL string) string {
	sum := md5.Sum([]byte(CanonicalURL(rawURL)))
	return hex.EncodeToString(sum[:])
}
