package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
)

// Localized texts keyed by locale.
type Texts map[string]string

var (
	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = Texts{
		LocaleES: "{0} no puede estar vacío",
		LocaleEN: "{0} cannot be blank",
	}

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = Texts{
		LocaleES: "{0} es obligatorio",
		LocaleEN: "{0} is required",
	}
)

// InitValidators instantiates the validator for use with every locale of uni.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator) {
	esTrans, _ := uni.GetTranslator(LocaleES)
	_ = es_translations.RegisterDefaultTranslations(validate, esTrans)
	enTrans, _ := uni.GetTranslator(LocaleEN)
	_ = en_translations.RegisterDefaultTranslations(validate, enTrans)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, uni, notBlankTag, notBlankText)

	RegisterCustomTranslation(validate, uni, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, uni, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag in every locale of texts.
func RegisterCustomTranslation(validate *validator.Validate, uni *ut.UniversalTranslator, tag string, texts Texts, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	for locale, text := range texts {
		trans, found := uni.GetTranslator(locale)
		if !found {
			continue
		}
		text := text
		_ = validate.RegisterTranslation(
			tag, trans,
			func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
			func(t ut.Translator, fe validator.FieldError) string {
				s, _ := t.T(tag, fe.Field())
				return s
			},
		)
	}
}

// Custom Global Validators

// notBlankValidation rejects strings made only of whitespace.
func notBlankValidation(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
