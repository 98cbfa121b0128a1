package sso

import (
	"fmt"

	"github.com/procureflow/platform/services"
)

// ExternalProfile is the normalized shape of an identity-provider profile.
// Optional fields are tagged with Set so callers can distinguish "absent
// upstream" from "empty value" instead of silently coercing.
type ExternalProfile struct {
	Provider    string
	Subject     string
	Email       string
	GivenName   OptionalField
	FamilyName  OptionalField
	DisplayName OptionalField
	JobTitle    OptionalField
}

// OptionalField is an explicitly-optional profile value
type OptionalField struct {
	Value string
	Set   bool
}

// fieldSources lists, in priority order, the raw claim keys each profile
// field may arrive under across identity-provider payload versions.
var fieldSources = map[string][]string{
	"subject":      {"sub", "oid", "user_id"},
	"email":        {"email", "preferred_username", "upn"},
	"given_name":   {"given_name", "first_name", "givenName"},
	"family_name":  {"family_name", "last_name", "surname"},
	"display_name": {"name", "display_name", "displayName"},
	"job_title":    {"job_title", "jobTitle", "title"},
}

// ExtractProfile normalizes a raw identity-provider claim set. Subject and
// email are required and fail loudly when missing under every known key;
// the remaining fields are optional.
func ExtractProfile(provider string, raw map[string]interface{}) (*ExternalProfile, error) {
	subject, ok := extractString(raw, fieldSources["subject"])
	if !ok || subject.Value == "" {
		return nil, services.ErrInvalidInput.Wrap(fmt.Errorf("identity provider profile missing subject (tried %v)", fieldSources["subject"]))
	}

	email, ok := extractString(raw, fieldSources["email"])
	if !ok || email.Value == "" {
		return nil, services.ErrInvalidInput.Wrap(fmt.Errorf("identity provider profile missing email (tried %v)", fieldSources["email"]))
	}

	given, _ := extractString(raw, fieldSources["given_name"])
	family, _ := extractString(raw, fieldSources["family_name"])
	display, _ := extractString(raw, fieldSources["display_name"])
	title, _ := extractString(raw, fieldSources["job_title"])

	return &ExternalProfile{
		Provider:    provider,
		Subject:     subject.Value,
		Email:       email.Value,
		GivenName:   given,
		FamilyName:  family,
		DisplayName: display,
		JobTitle:    title,
	}, nil
}

// extractString tries each source key in order and returns the first
// present string value.
func extractString(raw map[string]interface{}, keys []string) (OptionalField, bool) {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok {
				return OptionalField{Value: s, Set: true}, true
			}
		}
	}
	return OptionalField{}, false
}
