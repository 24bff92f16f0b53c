// Package rekuest validates request bodies and parameters, reporting
// violations as apperr values with English messages.
package rekuest

import (
	"database/sql/driver"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/pkg/textutil"
)

var (
	Validate   = newValidator()
	translator ut.Translator
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("caseinsensitiveoneof", caseInsensitiveOneOf)
	_ = v.RegisterValidation("urlname", urlName)
	v.RegisterCustomTypeFunc(nullValuer, null.Int{}, null.String{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func init() {
	english := en.New()
	translator, _ = ut.New(english, english).GetTranslator("en")

	if err := enTranslations.RegisterDefaultTranslations(Validate, translator); err != nil {
		log.Warn().Err(err).Str("locale", "en").Msg("could not register translation")
	}

	custom := map[string]string{
		"caseinsensitiveoneof": "{0} must be one of [{1}]",
		"urlname":              "{0} must be lowercase and only contain letters, digits and dashes",
	}
	for tag, text := range custom {
		tag, text := tag, text
		err := Validate.RegisterTranslation(tag, translator, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field(), fe.Param())
			return t
		})
		if err != nil {
			log.Warn().Err(err).Str("tag", tag).Msg("could not register translation")
		}
	}
}

func caseInsensitiveOneOf(fl validator.FieldLevel) bool {
	val := strings.ToLower(fl.Field().String())
	for _, v := range strings.Split(strings.ToLower(fl.Param()), " ") {
		if val == v {
			return true
		}
	}
	return false
}

// urlName accepts names that NormalizeForURL leaves as they are.
func urlName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	return val == "" || textutil.NormalizeForURL(val) == val
}

func nullValuer(field reflect.Value) any {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		val, err := valuer.Value()
		if err == nil {
			return val
		}
	}
	return nil
}

type ErrorResponse struct {
	Field     string `json:"field,omitempty"`
	Violation string `json:"violation"`
	Message   string `json:"message"`
}

func translate(ve validator.ValidationErrors) []*ErrorResponse {
	trans := make([]*ErrorResponse, 0, len(ve))
	for _, fe := range ve {
		trans = append(trans, &ErrorResponse{
			Field:     fe.Namespace(),
			Violation: fe.Tag(),
			Message:   fe.Translate(translator),
		})
	}
	return trans
}

func violations(err error) error {
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.ErrInvalidReq.Msg("invalid request: %s", err)
	}
	return apperr.NewInvalidViolations(translate(ve))
}

// ValidBody will get the body from *fiber.Ctx using fiber#BodyParser(),
// and validate it using the validator singleton. Notice that dest shall
// always be a pointer.
func ValidBody(ctx *fiber.Ctx, dest any) error {
	if err := ctx.BodyParser(dest); err != nil {
		return apperr.ErrInvalidReq.Msg("invalid request: %s", err)
	}
	return ValidStruct(dest)
}

func ValidStruct(dest any) error {
	return violations(Validate.Struct(dest))
}

func ValidVar(field any, tag string) error {
	return violations(Validate.Var(field, tag))
}
