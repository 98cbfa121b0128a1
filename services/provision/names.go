package provision

import (
	"strings"
	"unicode"

	"github.com/procureflow/platform/sso"
)

// extractNames resolves first/last name from an external profile. Explicit
// given/family fields win; otherwise a single display name is split with a
// locale-aware heuristic: CJK scripts write surname first, others given
// name first.
func extractNames(profile *sso.ExternalProfile) (first, last string) {
	if profile.GivenName.Set && profile.GivenName.Value != "" {
		first = profile.GivenName.Value
	}
	if profile.FamilyName.Set && profile.FamilyName.Value != "" {
		last = profile.FamilyName.Value
	}
	if first != "" || last != "" {
		return first, last
	}

	if !profile.DisplayName.Set {
		return "", ""
	}
	return splitDisplayName(profile.DisplayName.Value)
}

func splitDisplayName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	fields := strings.Fields(name)
	if len(fields) == 1 {
		// Unspaced CJK names: single-rune surname, rest given name
		runes := []rune(fields[0])
		if isCJK(runes[0]) && len(runes) > 1 {
			return string(runes[1:]), string(runes[0])
		}
		return fields[0], ""
	}

	if isCJK([]rune(fields[0])[0]) {
		// Surname first
		return strings.Join(fields[1:], " "), fields[0]
	}
	// Given name first
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana)
}
