package invite

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ExpiryLayout is the minute-precision timestamp the provider expects.
const ExpiryLayout = "2006-01-02T15:04"

// Sanitize strips everything outside [A-Za-z0-9] and lowercases the rest.
func Sanitize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// ExpiresAt returns now plus days, truncated to the minute.
func ExpiresAt(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, days).Truncate(time.Minute)
}

// FormatExpiry renders t in ExpiryLayout.
func FormatExpiry(t time.Time) string {
	return t.Format(ExpiryLayout)
}

// RegistrationURL is where the invitee redeems token.
func RegistrationURL(akURL, slug, token string) string {
	return fmt.Sprintf("%s/if/flow/%s/?itoken=%s", akURL, slug, token)
}

// FormatMessage builds the delivery text. A configured template gets
// {token}, {ak_url}, {slug} and {expiration} substituted; "{{" and "}}" are
// literal braces.
func FormatMessage(cfg Config, token, slug string) string {
	if cfg.Message != "" {
		return strings.NewReplacer(
			"{{", "{",
			"}}", "}",
			"{token}", token,
			"{ak_url}", cfg.AkURL,
			"{slug}", slug,
			"{expiration}", strconv.Itoa(cfg.ExpirationDays),
		).Replace(cfg.Message)
	}

	return strings.Join([]string{
		"Invitation link created!",
		"",
		"Your unique url for registering is:",
		RegistrationURL(cfg.AkURL, slug, token),
		fmt.Sprintf("This invite will expire in %d days.", cfg.ExpirationDays),
		"If it expires before use, you must request a new invitation.",
	}, "<br />")
}
