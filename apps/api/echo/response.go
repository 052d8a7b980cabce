package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"

	"github.com/sistematutorias/tutorias/core"
)

const contextTranslatorKey = "translator"

// Response is the envelope of every API response.
type Response struct {
	Message string            `json:"message"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// respond writes data in the envelope, with the localized text of key as message.
func respond(ctx echo.Context, code int, key string, data interface{}) error {
	return ctx.JSON(code, Response{
		Message: core.Translate(contextTranslator(ctx), key),
		Data:    data,
	})
}

// created responds with 201 and a Location header pointing at the new resource.
func created(ctx echo.Context, key, id string, data interface{}) error {
	ctx.Response().Header().Set(echo.HeaderLocation, strings.TrimRight(ctx.Request().URL.Path, "/")+"/"+id)
	return respond(ctx, http.StatusCreated, key, data)
}

func contextTranslator(ctx echo.Context) ut.Translator {
	if trans, ok := ctx.Get(contextTranslatorKey).(ut.Translator); ok {
		return trans
	}
	return nil
}
