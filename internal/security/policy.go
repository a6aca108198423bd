package security

import "strings"

const (
	passwordMinLength = 8
	passwordMaxLength = 50
	allowedSymbols    = "@$!%*?&"
)

// CheckPasswordStrength returns every rule the candidate password violates,
// or an empty slice when the password is acceptable. Returning the full
// list lets the caller report all problems in one response instead of
// making the user fix them one at a time.
func CheckPasswordStrength(password string) []string {
	var violations []string

	if len(password) < passwordMinLength {
		violations = append(violations, "password must be at least 8 characters")
	}
	if len(password) > passwordMaxLength {
		violations = append(violations, "password must be at most 50 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol, hasForbidden bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(allowedSymbols, r):
			hasSymbol = true
		default:
			hasForbidden = true
		}
	}

	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain a symbol from "+allowedSymbols)
	}
	if hasForbidden {
		violations = append(violations, "password may only contain letters, digits and "+allowedSymbols)
	}

	return violations
}
