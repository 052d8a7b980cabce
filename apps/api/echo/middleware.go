package echoapi

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core/user"
)

// adminMiddleware lets only administrators through. The role is read from the stored user, not from the token.
func adminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.IsAdmin() {
				return next(ctx)
			}
			return errForbidden
		}
	}
}

// localeMiddleware picks the translator matching the Accept-Language header, falling back to the default locale.
func localeMiddleware(uni *ut.UniversalTranslator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			trans, _ := uni.FindTranslator(acceptedLocales(ctx.Request().Header.Get("Accept-Language"))...)
			ctx.Set(contextTranslatorKey, trans)
			return next(ctx)
		}
	}
}

// acceptedLocales returns the primary language subtags of an Accept-Language header, in the order given.
// Quality values are ignored.
func acceptedLocales(header string) []string {
	var locales []string
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		tag = strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if tag != "" && tag != "*" {
			locales = append(locales, tag)
		}
	}
	return locales
}
