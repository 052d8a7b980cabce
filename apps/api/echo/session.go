package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type sessionApi struct {
	svc      tutoring.SessionService
	tSvc     tutoring.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tutoring.SessionService,
	tSvc tutoring.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := sessionApi{
		svc:      svc,
		tSvc:     tSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/tutoring-session", jwt)
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id/status", api.updateStatus)
}

func (api *sessionApi) create(ctx echo.Context) error {
	var data tutoring.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	s, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return created(ctx, "session.created", s.ID, s)
}

func (api *sessionApi) query(ctx echo.Context) error {
	filter := new(tutoring.SessionFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to SessionFilter")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sessions, err := api.svc.Query(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []tutoring.Session{}
	}
	return respond(ctx, http.StatusOK, "session.listed", sessions)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	s, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding session by ID")
	}
	if err := checkTutoringAccess(ctx, api.tSvc, api.usrSvc, s.TutoringID); err != nil {
		if errors.Cause(err) == tutoring.ErrNotFound {
			return tutoring.ErrSessionNotFound
		}
		return err
	}
	return respond(ctx, http.StatusOK, "session.found", s)
}

func (api *sessionApi) updateStatus(ctx echo.Context) error {
	var data tutoring.UpdateSessionStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSessionStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	s, err := api.svc.UpdateStatus(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating session status")
	}
	return respond(ctx, http.StatusOK, "session.updated", s)
}
