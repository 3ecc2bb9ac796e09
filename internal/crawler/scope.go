package crawler

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
	"github.com/temoto/robotstxt"

	"github.com/nao1215/pagebinder/internal/model"
)

// Verdict explains a scope decision.
type Verdict int

const (
	// InScope means the location may be fetched.
	InScope Verdict = iota

	// OtherHost means the host differs from the base host.
	OtherHost

	// Ignored means the path matched an ignore pattern.
	Ignored

	// NotFollowed means follow patterns are set and none matched.
	NotFollowed

	// RobotsDisallowed means robots.txt forbids the path.
	RobotsDisallowed
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case InScope:
		return "in_scope"
	case OtherHost:
		return "other_host"
	case Ignored:
		return "ignored"
	case NotFollowed:
		return "not_followed"
	case RobotsDisallowed:
		return "robots_disallowed"
	default:
		return "unknown"
	}
}

// Scope decides which discovered locations belong to a crawl.
//
// Rules are applied in order: host equality with the base host
// (case-insensitive), ignore patterns, follow patterns, then robots.txt.
// Patterns are globs over the URL path with '/' as separator, so "*" stays
// inside one segment and "**" spans segments.
type Scope struct {
	host   string
	ignore []glob.Glob
	follow []glob.Glob
	robots *robotstxt.Group
}

// NewScope creates a scope for the given base location.
func NewScope(base model.Location, ignorePatterns, followPatterns []string) (*Scope, error) {
	host := base.Host()
	if host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBase, base)
	}
	s := &Scope{host: host}

	var err error
	if s.ignore, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	if s.follow, err = compilePatterns(followPatterns); err != nil {
		return nil, err
	}
	return s, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// SetRobots applies a robots.txt group. A nil group allows everything.
func (s *Scope) SetRobots(group *robotstxt.Group) {
	s.robots = group
}

// Host returns the base host.
func (s *Scope) Host() string {
	return s.host
}

// Check returns the verdict for a location.
func (s *Scope) Check(loc model.Location) Verdict {
	if !strings.EqualFold(loc.Host(), s.host) {
		return OtherHost
	}

	path := loc.Path()
	for _, g := range s.ignore {
		if g.Match(path) {
			return Ignored
		}
	}

	if len(s.follow) > 0 {
		matched := false
		for _, g := range s.follow {
			if g.Match(path) {
				matched = true
				break
			}
		}
		if !matched {
			return NotFollowed
		}
	}

	if s.robots != nil && !s.robots.Test(path) {
		return RobotsDisallowed
	}

	return InScope
}

// Allows reports whether a location is in scope.
func (s *Scope) Allows(loc model.Location) bool {
	return s.Check(loc) == InScope
}
