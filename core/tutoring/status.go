package tutoring

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

// Score and comments of the feedback written when an administrator cancels a tutoring.
const (
	CancellationScore   = "N/A"
	CancellationComment = "Tutoría cancelada por administrador"
)

var (
	// errors
	ErrNotActive            = core.NewError(core.ErrInvalidState, "tutoring.not_active")
	ErrCompleteForbidden    = core.NewError(core.ErrForbidden, "tutoring.complete_forbidden")
	ErrCancelForbidden      = core.NewError(core.ErrForbidden, "tutoring.cancel_forbidden")
	ErrMissingTutorFeedback = core.NewError(core.ErrInvalidState, "tutoring.missing_tutor_feedback")
	ErrMissingTuteeFeedback = core.NewError(core.ErrInvalidState, "tutoring.missing_tutee_feedback")
)

type (
	// StatusService moves tutorings out of StatusActive.
	StatusService interface {
		// Complete marks the tutoring as completed. userID must be an administrator or the assigned tutor,
		// and both the tutor and the tutee must have left feedback on the tutoring.
		Complete(ctx context.Context, tutoringID, userID string) (Tutoring, error)
		// Cancel marks the tutoring as cancelled and records a feedback from the administrator explaining why.
		// A blank comments falls back to CancellationComment.
		Cancel(ctx context.Context, tutoringID, adminID, comments string) (Tutoring, error)
	}

	statusService struct {
		db       core.DB
		repo     Repository
		fbRepo   FeedbackRepository
		usrRepo  user.Repository
		notifier *notifier
		logger   core.Logger
	}
)

var _ StatusService = (*statusService)(nil)

func NewStatusService(
	db core.DB,
	repo Repository,
	fbRepo FeedbackRepository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
	logger core.Logger,
) StatusService {
	return &statusService{
		db:       db,
		repo:     repo,
		fbRepo:   fbRepo,
		usrRepo:  usrRepo,
		notifier: newNotifier(mailSvc),
		logger:   logger,
	}
}

func (svc *statusService) Complete(ctx context.Context, tutoringID, userID string) (Tutoring, error) {
	svc.logger.Info("completing tutoring", map[string]interface{}{"tutoring": tutoringID, "user": userID})

	var t Tutoring
	err := core.WithTx(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		t, err = svc.getActiveTutoring(ctx, tutoringID, exec)
		if err != nil {
			return err
		}
		usr, err := svc.getUser(ctx, userID)
		if err != nil {
			return err
		}
		if !(usr.IsAdmin() || (usr.IsTutor() && usr.ID == t.Tutor.ID)) {
			svc.logger.Warn("user cannot complete tutoring", map[string]interface{}{"tutoring": t.ID, "user": usr.ID})
			return ErrCompleteForbidden
		}
		if err := svc.checkFeedbacks(ctx, t, exec); err != nil {
			return err
		}

		t, err = svc.close(ctx, t.ID, StatusCompleted, time.Now().UTC(), exec)
		return err
	})
	if err != nil {
		return Tutoring{}, err
	}

	svc.logger.Info("tutoring completed", map[string]interface{}{"tutoring": t.ID})
	svc.notifier.tutoringCompleted(t)
	return t, nil
}

func (svc *statusService) Cancel(ctx context.Context, tutoringID, adminID, comments string) (Tutoring, error) {
	svc.logger.Info("cancelling tutoring", map[string]interface{}{"tutoring": tutoringID, "admin": adminID})

	comments = core.CleanString(comments)
	if comments == "" {
		comments = CancellationComment
	}

	var t Tutoring
	err := core.WithTx(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		t, err = svc.getActiveTutoring(ctx, tutoringID, exec)
		if err != nil {
			return err
		}
		admin, err := svc.getUser(ctx, adminID)
		if err != nil {
			return err
		}
		if !admin.IsAdmin() {
			svc.logger.Warn("user is not an administrator", map[string]interface{}{"tutoring": t.ID, "user": admin.ID})
			return ErrCancelForbidden
		}

		// the status goes first so a concurrent transition fails before any feedback is written
		now := time.Now().UTC()
		t, err = svc.close(ctx, t.ID, StatusCancelled, now, exec)
		if err != nil {
			return err
		}

		fb := Feedback{
			ID:             core.NewID(),
			Evaluator:      admin,
			TutoringID:     t.ID,
			EvaluationDate: now,
			Score:          CancellationScore,
			Comments:       comments,
		}
		if _, err := svc.fbRepo.CreateFeedback(ctx, fb, exec); err != nil {
			return errors.Wrap(err, "creating cancellation feedback")
		}
		svc.logger.Info("cancellation feedback created", map[string]interface{}{"tutoring": t.ID, "feedback": fb.ID})
		return nil
	})
	if err != nil {
		return Tutoring{}, err
	}

	svc.logger.Info("tutoring cancelled", map[string]interface{}{"tutoring": t.ID})
	svc.notifier.tutoringCancelled(t, comments)
	return t, nil
}

func (svc *statusService) getActiveTutoring(ctx context.Context, id string, exec core.DBExecutor) (Tutoring, error) {
	t, err := svc.repo.GetTutoring(ctx, id, exec)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			svc.logger.Warn("tutoring does not exist", map[string]interface{}{"tutoring": id})
		}
		return Tutoring{}, err
	}
	if !t.IsActive() {
		svc.logger.Warn("tutoring is not active", map[string]interface{}{"tutoring": t.ID, "status": t.Status})
		return Tutoring{}, ErrNotActive
	}
	return t, nil
}

// close applies the transition only if the tutoring is still active when written.
func (svc *statusService) close(ctx context.Context, id string, status Status, at time.Time, exec core.DBExecutor) (Tutoring, error) {
	t, err := svc.repo.CloseTutoring(ctx, id, status, at, exec)
	if err != nil {
		if errors.Cause(err) == ErrNotActive {
			svc.logger.Warn("tutoring left active status concurrently", map[string]interface{}{"tutoring": id, "status": status})
			return Tutoring{}, err
		}
		return Tutoring{}, errors.Wrap(err, "saving tutoring")
	}
	return t, nil
}

func (svc *statusService) getUser(ctx context.Context, id string) (user.User, error) {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			svc.logger.Warn("user does not exist", map[string]interface{}{"user": id})
		}
		return user.User{}, err
	}
	return usr, nil
}

// checkFeedbacks ensures both participants left feedback on t, tutor first.
func (svc *statusService) checkFeedbacks(ctx context.Context, t Tutoring, exec core.DBExecutor) error {
	checks := []struct {
		evaluatorID string
		err         error
	}{
		{t.Tutor.ID, ErrMissingTutorFeedback},
		{t.Tutee.ID, ErrMissingTuteeFeedback},
	}
	for _, c := range checks {
		fbs, err := svc.fbRepo.QueryFeedbacks(ctx, &FeedbackFilter{TutoringID: t.ID, EvaluatorID: c.evaluatorID}, exec)
		if err != nil {
			return errors.Wrap(err, "querying feedbacks")
		}
		if len(fbs) == 0 {
			svc.logger.Warn("missing feedback", map[string]interface{}{"tutoring": t.ID, "evaluator": c.evaluatorID})
			return c.err
		}
	}
	return nil
}
