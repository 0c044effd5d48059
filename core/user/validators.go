package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/rekodi/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	// password policy
	pwdMinLen     = 8
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNotAllNumText = "password cannot be entirely numeric"
	pwdNoSpaceText   = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimText = "password cannot be similar to user attributes"

	spaceRegex = regexp.MustCompile(`\s`)
)

// InitValidators registers user-specific validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)
}

// allRolesValidation checks that all provided roles are known.
func allRolesValidation(fl validator.FieldLevel) bool {
	if roles, ok := fl.Field().Interface().([]string); ok {
		for _, role := range roles {
			if RolePriority(role) == 0 {
				return false
			}
		}
		return true
	}
	return false
}

// ValidatePassword enforces the password policy for a (new) user's password:
// minimum length, not all-numeric, no whitespace and not too similar to the
// user's own attributes.
func ValidatePassword(pwd string, usr User) error {
	if len(pwd) < pwdMinLen {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdMinLenText})
	}
	if spaceRegex.MatchString(pwd) {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdNoSpaceText})
	}

	allNum := true
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			allNum = false
			break
		}
	}
	if allNum {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdNotAllNumText})
	}

	lowPwd := strings.ToLower(pwd)
	for _, attr := range []string{usr.Name, usr.Username, usr.Email} {
		if attr == "" {
			continue
		}
		matcher := difflib.NewMatcher(strings.Split(lowPwd, ""), strings.Split(strings.ToLower(attr), ""))
		if matcher.QuickRatio() >= pwdMaxSim {
			return core.NewValidationError(nil, core.FieldError{Field: "password", Error: pwdAttrSimText})
		}
	}
	return nil
}
