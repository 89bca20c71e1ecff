package polyhttp

import "strings"

// URIKind selects which request-target form a URI holds (RFC 9112 §3.2 /
// RFC 7230 §5.3), matching spec §2 "Uri"'s tagged variant.
type URIKind uint8

const (
	// URIAsterisk is the "*" form, valid only for OPTIONS.
	URIAsterisk URIKind = iota
	// URIAbsolutePath is the ordinary "/p/a/t/h?query" origin-form.
	URIAbsolutePath
	// URIAbsoluteURI is a full "scheme://host[:port]/path" form, used by
	// requests sent through a forward proxy.
	URIAbsoluteURI
	// URIAuthority is the "host:port" CONNECT-method form.
	URIAuthority
)

// QueryParam is one insertion-ordered key/value pair of a parsed query
// string (spec §3 "Path owns {raw_path, search: mapping from key to value
// (insertion order preserved for serialization, lookup by key), fragment?}").
type QueryParam struct {
	Key   string
	Value string
}

// URI is a parsed HTTP request target. Only the fields relevant to Kind are
// populated; callers should switch on Kind before reading them.
//
// Grounded on spec §2's Uri variant; the teacher has no equivalent type (it
// only ever stores RequestHeader.path as a raw byte slice) so this is built
// directly from RFC 9112 §3.2/§3.3, with plain string fields
// (Path/RawPath/Search/Fragment) rather than net/url.URL.
type URI struct {
	Kind URIKind

	// AbsolutePath / AbsoluteURI
	Scheme   string
	RawPath  string
	Search   []QueryParam
	Fragment string

	// AbsoluteURI / Authority
	UserInfo string
	Host     string
	Port     string
}

// Query looks up the first value for key in Search (spec §3 "lookup by
// key"), reporting whether it was present.
func (u *URI) Query(key string) (string, bool) {
	for _, p := range u.Search {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// RawQuery re-serializes Search back into a "k=v&k2=v2" string, preserving
// insertion order (spec §3 "insertion order preserved for serialization").
func (u *URI) RawQuery() string {
	if len(u.Search) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range u.Search {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(p.Key)
		if p.Value != "" {
			sb.WriteByte('=')
			sb.WriteString(p.Value)
		}
	}
	return sb.String()
}

// ParseURI parses target per the request-target form implied by method and
// the raw bytes of the request line's target component.
func ParseURI(method, target string) *URI {
	u := &URI{}

	switch {
	case target == "*":
		u.Kind = URIAsterisk
		return u
	case method == "CONNECT":
		u.Kind = URIAuthority
		host, port := splitHostPort(target)
		u.Host, u.Port = host, port
		return u
	case strings.Contains(target, "://"):
		u.Kind = URIAbsoluteURI
		scheme, rest, _ := strings.Cut(target, "://")
		u.Scheme = scheme
		authority, path := rest, "/"
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			authority, path = rest[:i], rest[i:]
		}
		if at := strings.LastIndexByte(authority, '@'); at >= 0 {
			u.UserInfo = authority[:at]
			authority = authority[at+1:]
		}
		u.Host, u.Port = splitHostPort(authority)
		u.parsePathQueryFragment(path)
		return u
	default:
		u.Kind = URIAbsolutePath
		u.parsePathQueryFragment(target)
		return u
	}
}

func (u *URI) parsePathQueryFragment(s string) {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		u.Fragment = s[i+1:]
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		u.Search = parseSearch(s[i+1:])
		s = s[:i]
	}
	u.RawPath = s
}

// parseSearch splits a raw query string into insertion-ordered key/value
// pairs (spec §3); a key with no '=' is kept with an empty value rather than
// dropped, matching RFC 3986 §3.4's permissive query grammar.
func parseSearch(raw string) []QueryParam {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "&")
	out := make([]QueryParam, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		k, v, _ := strings.Cut(p, "=")
		out = append(out, QueryParam{Key: k, Value: v})
	}
	return out
}

func splitHostPort(s string) (host, port string) {
	if i := strings.LastIndexByte(s, ':'); i >= 0 && !strings.Contains(s[i:], "]") {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// Path returns the request-target's path component for forms that carry
// one, falling back to "/" for Asterisk/Authority forms.
func (u *URI) Path() string {
	if u.RawPath == "" {
		return "/"
	}
	return u.RawPath
}
