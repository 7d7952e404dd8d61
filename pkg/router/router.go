// Package router classifies user queries before the LLM sees them.
// A cheap lexical pass decides whether a query is clearly about one
// platform, a generic cross-platform incident, or neither.
package router

import (
	"regexp"
	"strings"
)

// Route selects which execution path handles a query.
type Route string

const (
	// RouteMain sends the query to the main agent with full tool access.
	RouteMain Route = "main"

	// RouteParallelRCA fans the query out to every specialist agent.
	RouteParallelRCA Route = "parallel_rca"
)

// rcaIndicators flags troubleshooting intent. Matched as substrings of
// the lowercased query.
var rcaIndicators = []string{
	"failing", "failed", "error", "broken", "not working", "issue",
	"problem", "why", "debug", "troubleshoot", "investigate", "rca",
	"root cause", "crashing", "down", "unavailable", "timeout", "stuck",
	"help",
}

// Platform is one routable platform: a peer name plus its trigger keywords.
type Platform struct {
	Name     string
	Keywords []string
}

// Decision is the outcome of classifying one query.
type Decision struct {
	Route Route

	// Platform is the matched peer name when the query was
	// platform-specific, empty otherwise.
	Platform string

	// RCAIntent records whether a troubleshooting indicator was present,
	// regardless of the chosen route.
	RCAIntent bool
}

// Router performs lexical query classification. Built once at startup
// from the connected peers; safe for concurrent use.
type Router struct {
	platforms []Platform // registration order, used for tie-breaking
	patterns  map[string][]*regexp.Regexp
}

// New builds a router over the given platforms. Keyword matching is
// whole-word and case-insensitive, tolerating plural forms ("pods",
// "deployments", "namespaces"); platform order decides ties.
func New(platforms []Platform) *Router {
	r := &Router{
		platforms: platforms,
		patterns:  make(map[string][]*regexp.Regexp, len(platforms)),
	}
	for _, p := range platforms {
		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `(?:e?s)?\b`)
			r.patterns[p.Name] = append(r.patterns[p.Name], pattern)
		}
	}
	return r
}

// Classify decides how a query should be handled.
//
// A platform keyword match always wins and routes to the main agent
// (the instruction steers it toward that platform's tools). A generic
// query with troubleshooting intent fans out to parallel RCA, but only
// when at least two specialists exist to compare. Everything else goes
// to the main agent.
func (r *Router) Classify(query string) Decision {
	lowered := strings.ToLower(query)

	platform := r.matchPlatform(lowered)
	rcaIntent := hasRCAIntent(lowered)

	if platform != "" {
		return Decision{Route: RouteMain, Platform: platform, RCAIntent: rcaIntent}
	}
	if rcaIntent && len(r.platforms) >= 2 {
		return Decision{Route: RouteParallelRCA, RCAIntent: true}
	}
	return Decision{Route: RouteMain, RCAIntent: rcaIntent}
}

// Platforms returns the registered platform names in order.
func (r *Router) Platforms() []string {
	names := make([]string, len(r.platforms))
	for i, p := range r.platforms {
		names[i] = p.Name
	}
	return names
}

// matchPlatform returns the first platform (in registration order) with
// a keyword hit, or "".
func (r *Router) matchPlatform(lowered string) string {
	for _, p := range r.platforms {
		for _, pattern := range r.patterns[p.Name] {
			if pattern.MatchString(lowered) {
				return p.Name
			}
		}
	}
	return ""
}

func hasRCAIntent(lowered string) bool {
	for _, ind := range rcaIndicators {
		if strings.Contains(lowered, ind) {
			return true
		}
	}
	return false
}
