package validation

import (
	"regexp"
	"strings"
)

// Email messages are user-facing and each failure has its own text.
const (
	MsgEmailRequired        = "Email address is required"
	MsgEmailShape           = "Please enter a valid email address (e.g., name@example.com)"
	MsgEmailCharacters      = "Email contains invalid characters"
	MsgEmailConsecutiveDots = "Email cannot contain consecutive dots"
	MsgEmailTooLong         = "Email address is too long"
	MsgEmailLocalTooLong    = "Email username is too long"
	MsgEmailLocalDot        = "Email username cannot start or end with a dot"
	MsgEmailDomainTooLong   = "Email domain is too long"
	MsgEmailDomainHyphen    = "Email domain cannot start or end with a hyphen"
	MsgEmailTLDTooShort     = "Email domain extension is too short"
)

var (
	emailShapeRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailStrictRegex = regexp.MustCompile(`^[a-zA-Z0-9._%-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type EmailResult struct {
	Valid   bool
	Message string
}

// ValidateEmail applies the portal's email rules in order and reports the
// first failure.
func ValidateEmail(email string) EmailResult {
	email = strings.TrimSpace(email)

	switch {
	case email == "":
		return EmailResult{Message: MsgEmailRequired}
	case !emailShapeRegex.MatchString(email):
		return EmailResult{Message: MsgEmailShape}
	case !emailStrictRegex.MatchString(email):
		return EmailResult{Message: MsgEmailCharacters}
	case strings.Contains(email, ".."):
		return EmailResult{Message: MsgEmailConsecutiveDots}
	case len(email) > 254:
		return EmailResult{Message: MsgEmailTooLong}
	}

	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]

	switch {
	case len(local) > 64:
		return EmailResult{Message: MsgEmailLocalTooLong}
	case strings.HasPrefix(local, ".") || strings.HasSuffix(local, "."):
		return EmailResult{Message: MsgEmailLocalDot}
	case len(domain) > 253:
		return EmailResult{Message: MsgEmailDomainTooLong}
	case strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-"):
		return EmailResult{Message: MsgEmailDomainHyphen}
	}

	labels := strings.Split(domain, ".")
	if len(labels[len(labels)-1]) < 2 {
		return EmailResult{Message: MsgEmailTLDTooShort}
	}
	return EmailResult{Valid: true}
}

func IsValidEmail(email string) bool {
	return ValidateEmail(email).Valid
}
