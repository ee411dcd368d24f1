package razerdiag

import "strings"

// ParseDeviceAllowlist splits a raw allowlist value into normalized serials.
// Separators: comma, semicolon, pipe and any whitespace. Blanks and
// duplicates are dropped while preserving first-seen order.
func ParseDeviceAllowlist(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', '\n', '\r', '\t', ' ', '|':
			return true
		default:
			return false
		}
	})
	return NormalizeDeviceAllowlist(parts)
}

// NormalizeDeviceAllowlist trims and dedups serials, returning nil when the
// result is empty so callers can treat "no allowlist" uniformly.
func NormalizeDeviceAllowlist(serials []string) []string {
	if len(serials) == 0 {
		return nil
	}
	out := make([]string, 0, len(serials))
	seen := make(map[string]struct{}, len(serials))
	for _, serial := range serials {
		trimmed := strings.TrimSpace(serial)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// BuildDeviceAllowlistSet converts serials to a lookup set; nil means allow
// everything.
func BuildDeviceAllowlistSet(serials []string) map[string]struct{} {
	serials = NormalizeDeviceAllowlist(serials)
	if len(serials) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(serials))
	for _, serial := range serials {
		set[serial] = struct{}{}
	}
	return set
}
