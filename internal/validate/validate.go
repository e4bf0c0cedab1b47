package validate

import (
	"fmt"
	"linkbrief/internal/domain"
	"net/url"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	MsgEmptyURL   = "Please enter a URL."
	MsgInvalidURL = "Please enter a valid URL."
)

//nolint:gochecknoglobals // Validator caches struct metadata and is safe for concurrent use.
var v = validator.New(validator.WithRequiredStructEnabled())

// URL checks that raw is a non-empty URL with a scheme and a host and no
// whitespace. On success raw is returned unchanged.
// Returned errors wrap domain.ErrValidation and read as user-facing messages.
func URL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, MsgEmptyURL)
	}

	if strings.IndexFunc(raw, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, MsgInvalidURL)
	}

	if err := v.Var(raw, "url"); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, MsgInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrValidation, MsgInvalidURL)
	}

	return raw, nil
}

// Message strips the error kind prefix so the text can be shown as is.
func Message(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, domain.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}
