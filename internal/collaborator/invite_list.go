package collaborator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBulkInvites caps one bulk request
const maxBulkInvites = 50

var validate = validator.New()

// ParseInviteList splits a pasted list of addresses. Any mix of commas,
// semicolons and whitespace separates entries. Valid addresses come back
// lowercased and deduplicated in input order; the rest are returned as typed.
func ParseInviteList(raw string) (valid, invalid []string) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', ';', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})

	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		email := strings.ToLower(strings.TrimSpace(field))
		if email == "" {
			continue
		}
		if err := validate.Var(email, "required,email"); err != nil {
			invalid = append(invalid, field)
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		valid = append(valid, email)
	}
	return valid, invalid
}
