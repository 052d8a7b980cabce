package echoapi

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/swaggest/swgui/v5emb"
)

const (
	docsPath     = "/docs/"
	docsSpecPath = "/docs/openapi.yaml"
)

//go:embed openapi.yaml
var openAPISpec []byte

func registerDocs(app *echo.Echo, title string) {
	ui := echo.WrapHandler(v5emb.New(title, docsSpecPath, docsPath))

	app.GET(docsSpecPath, func(ctx echo.Context) error {
		return ctx.Blob(http.StatusOK, "application/yaml", openAPISpec)
	})
	app.GET("/docs", func(ctx echo.Context) error {
		return ctx.Redirect(http.StatusMovedPermanently, docsPath)
	})
	app.GET(docsPath+"*", ui)
}
