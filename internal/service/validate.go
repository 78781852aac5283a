package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
)

// usernamePattern applies to the lower-cased name: letters, digits, _ and -,
// not starting or ending with _ or -.
var usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9_-]*[a-z0-9])?$`)

var (
	usernameRules = []validation.Rule{
		validation.Required.Error("can't be blank"),
		validation.Length(3, 255).Error("must be between 3 and 255 characters"),
		validation.Match(usernamePattern).Error("may only contain letters, digits, _ and -, and must start and end with a letter or digit"),
	}
	bioRules   = []validation.Rule{validation.RuneLength(0, 1000).Error("must be at most 1000 characters")}
	imageRules = []validation.Rule{validation.RuneLength(0, 500).Error("must be at most 500 characters")}

	passwordRules = []validation.Rule{
		validation.Required.Error("can't be blank"),
		validation.By(passwordLength),
	}
)

func passwordLength(value any) error {
	s, _ := value.(string)
	if len(s) < 8 || len(s) > auth.MaxPasswordBytes {
		return fmt.Errorf("must be between 8 and %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

// required is validation.Required with the RealWorld wording.
var required = validation.Required.Error("can't be blank")

// invalid converts ozzo-validation's field errors into an apperror
// validation error. Anything else (an internal rule failure) passes through.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make(map[string]string, len(fieldErrs))
	for name, fe := range fieldErrs {
		if fe != nil {
			fields[name] = fe.Error()
		}
	}
	return apperror.Invalid(fields)
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
