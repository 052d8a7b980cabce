package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
)

type chapterApi struct {
	svc      chapter.Service
	validate *validator.Validate
}

func registerChapterAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc chapter.Service, usrSvc user.Service, validate *validator.Validate) {
	api := chapterApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/chapter", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware(usrSvc))
	cg.GET("/:id", api.retrieve)
}

func (api *chapterApi) create(ctx echo.Context) error {
	var data chapter.NewChapter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChapter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ch, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating chapter")
	}
	return created(ctx, "chapter.created", ch.ID, ch)
}

func (api *chapterApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	chapters, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying chapters")
	}
	if chapters == nil {
		chapters = []chapter.Chapter{}
	}
	return respond(ctx, http.StatusOK, "chapter.listed", chapters)
}

func (api *chapterApi) retrieve(ctx echo.Context) error {
	ch, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding chapter by ID")
	}
	return respond(ctx, http.StatusOK, "chapter.found", ch)
}
