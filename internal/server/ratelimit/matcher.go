package ratelimit

import (
	"strings"
)

// exempt endpoints are never limited
var exempt = []EndpointConfig{
	{Path: "/health", Method: "GET"},
}

// MatchEndpoint returns the most specific config matching the request, or nil.
//
// Patterns compare path segments: "*" matches any one segment, and a pattern
// ending in "/" matches any path below it. A full-length match beats a prefix
// match, and literal segments beat wildcards. Exempt endpoints match with a
// zero Limit.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	for _, e := range exempt {
		if e.Path == path && e.Method == method {
			return &EndpointConfig{Path: e.Path, Method: e.Method}
		}
	}

	var best *EndpointConfig
	bestScore := -1
	for i := range configs {
		config := &configs[i]
		if config.Method != "" && config.Method != method {
			continue
		}
		if score, ok := matchPattern(config.Path, path); ok && score > bestScore {
			best, bestScore = config, score
		}
	}
	return best
}

// matchPattern reports whether path matches pattern, and how specifically
func matchPattern(pattern, path string) (int, bool) {
	prefix := strings.HasSuffix(pattern, "/")
	want := splitPath(pattern)
	got := splitPath(path)

	if prefix {
		if len(got) <= len(want) {
			return 0, false
		}
	} else if len(got) != len(want) {
		return 0, false
	}

	score := 0
	for i, seg := range want {
		switch seg {
		case "*":
			score++
		case got[i]:
			score += 2
		default:
			return 0, false
		}
	}
	if !prefix {
		score += 1000
	}
	return score, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
