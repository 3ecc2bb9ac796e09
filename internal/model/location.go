package model

import (
	"net/url"
	"strings"
)

// Location is a normalized absolute page address (scheme, host, path, query).
// Two locations are the same page if and only if their strings are equal, so
// normalization must happen exactly once, when the location is discovered.
type Location string

// String returns the location as a plain string.
func (l Location) String() string {
	return string(l)
}

// Host returns the lowercased host (including port, if any) of the location.
// An unparsable location has an empty host and is never in scope.
func (l Location) Host() string {
	u, err := url.Parse(string(l))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Hostname returns the lowercased host without port.
func (l Location) Hostname() string {
	u, err := url.Parse(string(l))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Path returns the path component, "/" when empty.
func (l Location) Path() string {
	u, err := url.Parse(string(l))
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// SameHost reports whether both locations share a host.
func (l Location) SameHost(other Location) bool {
	h := l.Host()
	return h != "" && h == other.Host()
}
