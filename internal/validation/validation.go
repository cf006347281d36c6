// Package validation holds the input predicates and display formatters used
// by the login form and the property wizard. None of them panic or return
// errors: invalid input is reported with a boolean.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Struct tags registered by RegisterValidators.
const (
	TagPhone = "br_phone"
	TagOTP   = "otp"
	TagCEP   = "cep"
)

var (
	otpPattern = regexp.MustCompile(`^[0-9]{6}$`)
	cepPattern = regexp.MustCompile(`^[0-9]{5}-?[0-9]{3}$`)
)

// DigitsOnly strips every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether s is a Brazilian mobile number. Formatting
// characters are ignored but letters are not. Accepted digit shapes:
//
//	55 DD 9XXXXXX    11 digits, country code, 9 at index 4
//	DD 9XXXXXXXX     11 digits, 9 at index 2
//	DD 9XXXXXXX      10 digits, 9 at index 2 (legacy numbering)
func ValidPhone(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}

	d := DigitsOnly(s)
	switch len(d) {
	case 11:
		return (strings.HasPrefix(d, "55") && d[4] == '9') || d[2] == '9'
	case 10:
		return d[2] == '9'
	default:
		return false
	}
}

// ValidOTP reports whether s is exactly six digits.
func ValidOTP(s string) bool {
	return otpPattern.MatchString(s)
}

// ValidCEP reports whether s is a postal code: 8 digits, optionally NNNNN-NNN.
func ValidCEP(s string) bool {
	return cepPattern.MatchString(s)
}

// FormatCEP renders an 8-digit postal code as NNNNN-NNN.
// Anything else is returned unchanged.
func FormatCEP(s string) string {
	d := DigitsOnly(s)
	if len(d) != 8 {
		return s
	}
	return d[:5] + "-" + d[5:]
}

// FormatPhone applies the progressive "(DD) 9 XXXX-XXXX" input mask.
// Input longer than 11 digits is returned unchanged.
func FormatPhone(s string) string {
	d := DigitsOnly(s)
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 3:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:3] + " " + d[3:]
	case len(d) <= 11:
		return "(" + d[:2] + ") " + d[2:3] + " " + d[3:7] + "-" + d[7:]
	default:
		return s
	}
}

// RegisterValidators exposes the predicates as validator struct tags so
// request bodies can be checked during binding. Field errors are reported
// under the JSON name of the field when it has one.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]func(string) bool{
		TagPhone: ValidPhone,
		TagOTP:   ValidOTP,
		TagCEP:   ValidCEP,
	}
	for tag, fn := range rules {
		check := fn
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
