package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type feedbackApi struct {
	svc      tutoring.FeedbackService
	tSvc     tutoring.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerFeedbackAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tutoring.FeedbackService,
	tSvc tutoring.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := feedbackApi{
		svc:      svc,
		tSvc:     tSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	fg := g.Group("/feedback", jwt)
	fg.GET("", api.query)
	fg.POST("", api.create)
	fg.GET("/:id", api.retrieve)
}

func (api *feedbackApi) create(ctx echo.Context) error {
	var data tutoring.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	fb, err := api.svc.Create(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating feedback")
	}
	return created(ctx, "feedback.created", fb.ID, fb)
}

func (api *feedbackApi) query(ctx echo.Context) error {
	filter := new(tutoring.FeedbackFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to FeedbackFilter")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	feedbacks, err := api.svc.Query(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying feedbacks")
	}
	if feedbacks == nil {
		feedbacks = []tutoring.Feedback{}
	}
	return respond(ctx, http.StatusOK, "feedback.listed", feedbacks)
}

func (api *feedbackApi) retrieve(ctx echo.Context) error {
	fb, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding feedback by ID")
	}
	if err := checkTutoringAccess(ctx, api.tSvc, api.usrSvc, fb.TutoringID); err != nil {
		if errors.Cause(err) == tutoring.ErrNotFound {
			return tutoring.ErrFeedbackNotFound
		}
		return err
	}
	return respond(ctx, http.StatusOK, "feedback.found", fb)
}

// checkTutoringAccess returns tutoring.ErrNotFound unless the context user is an admin or takes part in the tutoring.
func checkTutoringAccess(ctx echo.Context, tSvc tutoring.Service, usrSvc user.Service, tutoringID string) error {
	ctxUsr, err := getContextUser(ctx, usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.IsAdmin() {
		return nil
	}

	t, err := tSvc.GetByID(ctx.Request().Context(), tutoringID)
	if err != nil {
		return errors.Wrap(err, "finding tutoring by ID")
	}
	if !t.HasParticipant(ctxUsr.ID) {
		return tutoring.ErrNotFound
	}
	return nil
}
