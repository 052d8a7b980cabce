package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "auth.unauthorized")
	errAuthenticationFailed = core.NewError(core.ErrInvalidArgument, "auth.failed")
	errAccountDeactivated   = core.NewError(core.ErrForbidden, "auth.deactivated")
	errRefreshExpired       = core.NewError(core.ErrForbidden, "auth.refresh_expired")
	errForbidden            = core.NewError(core.ErrForbidden, "general.forbidden")
)

// kindStatus maps the core error kinds to HTTP status codes.
var kindStatus = map[error]int{
	core.ErrInvalidArgument: http.StatusBadRequest,
	core.ErrForbidden:       http.StatusForbidden,
	core.ErrNotFound:        http.StatusNotFound,
	core.ErrInvalidState:    http.StatusConflict,
}

// httpStatusKeys holds the message keys of the echo errors we may surface.
var httpStatusKeys = map[int]string{
	http.StatusBadRequest:          "general.validation",
	http.StatusUnauthorized:        "auth.unauthorized",
	http.StatusForbidden:           "general.forbidden",
	http.StatusNotFound:            "general.not_found",
	http.StatusInternalServerError: "general.server_error",
}

// errorStatus returns the HTTP status code err will be rendered with.
func errorStatus(err error) int {
	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		if origErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized
		}
		return origErr.Code
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	case *core.Error:
		if code, ok := kindStatus[origErr.Kind]; ok {
			return code
		}
	}
	return http.StatusInternalServerError
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler rendering errors in the response envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		trans := contextTranslator(ctx)
		code := errorStatus(err)
		res := Response{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			key, ok := httpStatusKeys[code]
			if !ok {
				key = http.StatusText(code)
			}
			res.Message = core.Translate(trans, key)
		case validator.ValidationErrors:
			res.Message = core.Translate(trans, "general.validation")
			res.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				res.Errors[vErr.Field()] = vErr.Translate(trans)
			}
		case *core.ValidationError:
			res.Message = core.Translate(trans, "general.validation")
			if cErr, ok := errors.Cause(origErr.Err).(*core.Error); ok {
				res.Message = core.TranslateError(trans, cErr)
			}
			if origErr.Fields != nil {
				res.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					res.Errors[fErr.Field] = core.Translate(trans, fErr.Error)
				}
			}
		case *core.Error:
			res.Message = core.TranslateError(trans, origErr)
		}

		if code == http.StatusInternalServerError {
			msg := http.StatusText(http.StatusInternalServerError)
			res.Message = core.Translate(trans, "general.server_error")

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Email = claims.Email
				usr.Role = claims.Role
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			if ctx.Echo().Debug {
				res.Message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
