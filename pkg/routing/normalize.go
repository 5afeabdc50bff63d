package routing

import "strings"

// Endpoint paths follow /api/v1/<entity>[/...]. Permission overrides match
// most-specific-first: the full path, then the base path produced here.

// NormalizeEndpoint reduces a path to its base form, the first three
// segments: /api/v1/employees/123/photo → /api/v1/employees. Paths that are
// already base (or shorter) are returned unchanged, minus any trailing
// slash.
func NormalizeEndpoint(path string) string {
	path = strings.TrimRight(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) > 4 {
		return strings.Join(parts[:4], "/")
	}
	return path
}

// IsBaseEndpoint reports whether the path is already in base form.
func IsBaseEndpoint(path string) bool {
	path = strings.TrimRight(path, "/")
	return strings.Count(path, "/") == 3
}

// HasPathPrefixOnBoundary reports whether path starts with prefix at a
// segment boundary, so /api/v1/employees does not match /api/v1/employee.
func HasPathPrefixOnBoundary(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	prefix = strings.TrimRight(prefix, "/")
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/")
}
