// Package inputval validates request payloads before they reach a store.
//
// Request structs carry `validate` tags; field names in reported errors
// come from the `json` tag so the client can map them onto form inputs.
package inputval

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/dalemusser/channelhub/internal/app/system/youtube"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	notBlankTag = "notblank"
	phoneTag    = "phone"
	roleTag     = "role"
	youtubeTag  = "youtube"
	decimalTag  = "money"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	_ = validate.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && IsValidPhone(s)
	})
	_ = validate.RegisterValidation(roleTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && models.IsRole(s)
	})
	_ = validate.RegisterValidation(youtubeTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		_, found := youtube.VideoID(s)
		return found
	})
	_ = validate.RegisterValidation(decimalTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		m, err := models.NewMoney(s)
		return err == nil && m.IsPositive()
	})

	registerCustomTranslations(map[string]string{
		notBlankTag: "{0} cannot be blank",
		phoneTag:    "{0} must be a phone number",
		roleTag:     "{0} is not a known role",
		youtubeTag:  "{0} must be a YouTube link",
		decimalTag:  "{0} must be a positive amount",
	})
}

func registerCustomTranslations(msgs map[string]string) {
	for tag, text := range msgs {
		text := text
		_ = validate.RegisterTranslation(tag, translator,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(fe.Tag(), fe.Field())
				return msg
			})
	}
}

// Error reports the fields that failed validation, keyed by json name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v. It returns nil or an *Error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = fe.Translate(translator)
	}
	return out
}

// Fields extracts the field map from a validation error, or nil.
func Fields(err error) map[string]string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

var phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// IsValidPhone accepts 7 to 15 digits with an optional leading +. Spaces,
// dashes, dots and parentheses are ignored.
func IsValidPhone(s string) bool {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	return phoneRe.MatchString(s)
}
