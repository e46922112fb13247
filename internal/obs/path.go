package obs

import "strings"

// CanonicalPath collapses resource identifiers so metric labels stay low
// cardinality. Unrecognized paths pass through untouched.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "sessions" && parts[2] != "revoke":
		return "/v1/sessions/:id"
	case len(parts) == 3 && parts[0] == "v1" && parts[1] == "users":
		return "/v1/users/:id"
	case len(parts) == 4 && parts[0] == "v1" && parts[1] == "users":
		return "/v1/users/:id/" + parts[3]
	}
	return path
}
