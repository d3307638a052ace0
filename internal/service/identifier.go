package service

import "strings"

// ParseIdentifier extrae el usuario de una URL de perfil:
// "https://github.com/alice/" -> "alice". Acepta tambien "github.com/alice" o "alice".
func ParseIdentifier(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &ValidationError{Field: "profile_url", Reason: "required"}
	}

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.IndexByte(s, '/'); j >= 0 {
			s = s[j+1:]
		} else {
			s = ""
		}
	} else if first, rest, found := strings.Cut(s, "/"); found && strings.Contains(first, ".") {
		s = rest
	}

	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "/")
	first, _, _ := strings.Cut(s, "/")
	first = strings.TrimPrefix(strings.TrimSpace(first), "@")
	if first == "" {
		return "", &ValidationError{Field: "profile_url", Reason: "no identifier in url"}
	}
	return first, nil
}
