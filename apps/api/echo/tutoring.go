package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type tutoringApi struct {
	svc       tutoring.Service
	statusSvc tutoring.StatusService
	usrSvc    user.Service
	validate  *validator.Validate
	metrics   *metrics
}

func registerTutoringAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tutoring.Service,
	statusSvc tutoring.StatusService,
	usrSvc user.Service,
	validate *validator.Validate,
	m *metrics,
) {
	api := tutoringApi{
		svc:       svc,
		statusSvc: statusSvc,
		usrSvc:    usrSvc,
		validate:  validate,
		metrics:   m,
	}

	tg := g.Group("/tutoring", jwt)
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.GET("/:id", api.retrieve)
	tg.PATCH("/:id/complete", api.complete)
	tg.PATCH("/:id/cancel", api.cancel)
}

func (api *tutoringApi) create(ctx echo.Context) error {
	var data tutoring.NewTutoring
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTutoring")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	t, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating tutoring")
	}
	return created(ctx, "tutoring.created", t.ID, t)
}

// query lists every tutoring for administrators and the context user's own tutorings for anyone else.
func (api *tutoringApi) query(ctx echo.Context) error {
	filter := new(tutoring.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsAdmin() {
		filter.ParticipantID = ctxUsr.ID
	}

	tutorings, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tutorings")
	}
	if tutorings == nil {
		tutorings = []tutoring.Tutoring{}
	}
	return respond(ctx, http.StatusOK, "tutoring.listed", tutorings)
}

func (api *tutoringApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding tutoring by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !(ctxUsr.IsAdmin() || t.HasParticipant(ctxUsr.ID)) {
		return tutoring.ErrNotFound
	}
	return respond(ctx, http.StatusOK, "tutoring.found", t)
}

func (api *tutoringApi) complete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	t, err := api.statusSvc.Complete(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "completing tutoring")
	}
	api.metrics.transitions.WithLabelValues(string(t.Status)).Inc()
	return respond(ctx, http.StatusOK, "tutoring.completed", t)
}

func (api *tutoringApi) cancel(ctx echo.Context) error {
	var data CancelRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CancelRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	t, err := api.statusSvc.Cancel(ctx.Request().Context(), ctx.Param("id"), claims.Subject, data.Comments)
	if err != nil {
		return errors.Wrap(err, "cancelling tutoring")
	}
	api.metrics.transitions.WithLabelValues(string(t.Status)).Inc()
	return respond(ctx, http.StatusOK, "tutoring.cancelled", t)
}

// CancelRequest is the optional body of a cancellation. Blank comments get a default text.
type CancelRequest struct {
	Comments string `json:"comments" validate:"max=2000"`
}
