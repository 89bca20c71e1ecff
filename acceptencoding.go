package polyhttp

import (
	"strconv"
	"strings"
)

// EncodingKind tags one Accept-Encoding entry's value (spec §2
// "AcceptEncoding"'s tagged variant).
type EncodingKind uint8

const (
	// EncodingNone is the literal "identity" token.
	EncodingNone EncodingKind = iota
	// EncodingAll is the "*" wildcard token.
	EncodingAll
	// EncodingNormal is a named algorithm (gzip, br, zstd, deflate, ...).
	EncodingNormal
)

// AcceptEncodingEntry is one parsed, weighted Accept-Encoding token.
type AcceptEncodingEntry struct {
	Kind   EncodingKind
	Name   string // only meaningful when Kind == EncodingNormal
	Weight float64
	order  int
}

// supportedEncodings is this server's preference-ordered set of algorithms
// it negotiates, per spec §2's resolution order for "*":
// br > zstd > gzip > deflate > compress. CompressBody has no "compress"
// codec, so a body negotiated as "compress" is sent uncompressed.
// "identity" is always supported (it is a no-op) and is deliberately absent
// from this list.
var supportedEncodings = []string{"br", "zstd", "gzip", "deflate", "compress"}

// ParseAcceptEncoding parses a raw Accept-Encoding header value into its
// weighted entries (RFC 9110 §12.5.3), preserving original order for
// tie-breaking.
func ParseAcceptEncoding(header string) []AcceptEncodingEntry {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	entries := make([]AcceptEncodingEntry, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qpart, hasQ := strings.Cut(part, ";")
		name = strings.TrimSpace(name)
		weight := 1.0
		if hasQ {
			qpart = strings.TrimSpace(qpart)
			if q, ok := strings.CutPrefix(qpart, "q="); ok {
				if v, err := strconv.ParseFloat(strings.TrimSpace(q), 64); err == nil {
					weight = v
				}
			}
		}

		e := AcceptEncodingEntry{Weight: weight, order: i}
		switch {
		case strings.EqualFold(name, "identity"):
			e.Kind = EncodingNone
		case name == "*":
			e.Kind = EncodingAll
		default:
			e.Kind = EncodingNormal
			e.Name = strings.ToLower(name)
		}
		entries = append(entries, e)
	}
	return entries
}

// SelectEncoding applies spec §2's selection algorithm: highest weight
// among entries whose algorithm this server supports (or "identity", which
// is always supported); ties broken by original header order; "*" resolves
// to the best entry in supportedEncodings not otherwise explicitly
// disqualified with q=0.
//
// Returns "" (identity, send uncompressed) when nothing negotiates.
func SelectEncoding(entries []AcceptEncodingEntry) string {
	disqualified := make(map[string]bool)
	// identityWeight only competes when the client names "identity"
	// explicitly (spec §2 "identity wins if chosen") — an unweighted
	// gzip/br/etc. entry must not lose to an implicit identity default.
	var identityWeight = -1.0
	identityExplicit := false
	var starWeight float64 = -1
	starSeen := false

	type candidate struct {
		name   string
		weight float64
		order  int
	}
	var candidates []candidate

	for _, e := range entries {
		switch e.Kind {
		case EncodingNone:
			identityWeight = e.Weight
			identityExplicit = true
		case EncodingAll:
			starWeight = e.Weight
			starSeen = true
		case EncodingNormal:
			if e.Weight <= 0 {
				disqualified[e.Name] = true
				continue
			}
			candidates = append(candidates, candidate{e.Name, e.Weight, e.order})
		}
	}

	if starSeen && starWeight > 0 {
		for _, name := range supportedEncodings {
			if disqualified[name] {
				continue
			}
			already := false
			for _, c := range candidates {
				if c.name == name {
					already = true
					break
				}
			}
			if !already {
				candidates = append(candidates, candidate{name, starWeight, len(entries)})
			}
		}
	}

	best := candidate{weight: -1}
	for _, c := range candidates {
		if !isSupported(c.name) {
			continue
		}
		if c.weight > best.weight || (c.weight == best.weight && c.order < best.order) {
			best = c
		}
	}

	if best.weight <= 0 {
		return ""
	}
	if identityExplicit && identityWeight >= best.weight {
		return ""
	}
	return best.name
}

func isSupported(name string) bool {
	for _, s := range supportedEncodings {
		if s == name {
			return true
		}
	}
	return false
}
