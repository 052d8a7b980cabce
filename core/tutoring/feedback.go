package tutoring

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

var (
	// errors
	ErrFeedbackNotFound  = core.NewError(core.ErrNotFound, "feedback.not_found")
	ErrFeedbackForbidden = core.NewError(core.ErrForbidden, "feedback.forbidden")
	ErrFeedbackNotActive = core.NewError(core.ErrInvalidState, "feedback.not_active")
)

type Feedback struct {
	ID             string    `json:"id"`
	Evaluator      user.User `json:"evaluator"`
	TutoringID     string    `json:"tutoring_id"`
	EvaluationDate time.Time `json:"evaluation_date"` // UTC
	Score          string    `json:"score"`
	Comments       string    `json:"comments"`
}

// NewFeedback contains information needed to leave a Feedback on a Tutoring.
type NewFeedback struct {
	TutoringID string `json:"tutoring_id" validate:"required"`
	Score      string `json:"score" validate:"required,max=20"`
	Comments   string `json:"comments" validate:"required,notblank,max=2000"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.TutoringID = core.CleanString(nf.TutoringID)
	nf.Score = core.CleanString(nf.Score)
	nf.Comments = core.CleanString(nf.Comments)
	return validate.Struct(nf)
}

type FeedbackFilter struct {
	TutoringID  string   `query:"tutoring_id"`
	EvaluatorID string   `query:"evaluator_id"`
	TutoringIDs []string `query:"-"`
}

type (
	FeedbackRepository interface {
		CreateFeedback(ctx context.Context, fb Feedback, exec ...core.DBExecutor) (Feedback, error)
		GetFeedback(ctx context.Context, id string, exec ...core.DBExecutor) (Feedback, error)
		// QueryFeedbacks returns feedbacks ordered by evaluation date; empty filter fields are ignored.
		QueryFeedbacks(ctx context.Context, filter *FeedbackFilter, exec ...core.DBExecutor) ([]Feedback, error)
	}

	FeedbackService interface {
		Create(ctx context.Context, evaluatorID string, nf NewFeedback) (Feedback, error)
		// Query lists the feedbacks visible to requester: all of them for administrators,
		// those of the requester's tutorings otherwise.
		Query(ctx context.Context, requester user.User, filter *FeedbackFilter) ([]Feedback, error)
		GetByID(ctx context.Context, id string) (Feedback, error)
	}

	feedbackService struct {
		repo    FeedbackRepository
		tRepo   Repository
		usrRepo user.Repository
		logger  core.Logger
	}
)

var _ FeedbackService = (*feedbackService)(nil)

func NewFeedbackService(repo FeedbackRepository, tRepo Repository, usrRepo user.Repository, logger core.Logger) FeedbackService {
	return &feedbackService{
		repo:    repo,
		tRepo:   tRepo,
		usrRepo: usrRepo,
		logger:  logger,
	}
}

func (svc *feedbackService) Create(ctx context.Context, evaluatorID string, nf NewFeedback) (Feedback, error) {
	t, err := svc.tRepo.GetTutoring(ctx, nf.TutoringID)
	if err != nil {
		return Feedback{}, err
	}
	evaluator, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: evaluatorID})
	if err != nil {
		return Feedback{}, err
	}
	if !(evaluator.IsAdmin() || t.HasParticipant(evaluator.ID)) {
		return Feedback{}, ErrFeedbackForbidden
	}
	if !t.IsActive() {
		return Feedback{}, ErrFeedbackNotActive
	}

	fb, err := svc.repo.CreateFeedback(ctx, Feedback{
		ID:             core.NewID(),
		Evaluator:      evaluator,
		TutoringID:     t.ID,
		EvaluationDate: time.Now().UTC(),
		Score:          nf.Score,
		Comments:       nf.Comments,
	})
	if err != nil {
		return Feedback{}, errors.Wrap(err, "creating feedback")
	}
	svc.logger.Info("feedback created", map[string]interface{}{"feedback": fb.ID, "tutoring": t.ID, "evaluator": evaluator.ID})
	return fb, nil
}

func (svc *feedbackService) Query(ctx context.Context, requester user.User, filter *FeedbackFilter) ([]Feedback, error) {
	if filter == nil {
		filter = new(FeedbackFilter)
	}
	if !requester.IsAdmin() {
		ids, err := participantTutoringIDs(ctx, svc.tRepo, requester.ID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Feedback{}, nil
		}
		filter.TutoringIDs = ids
	}
	return svc.repo.QueryFeedbacks(ctx, filter)
}

func (svc *feedbackService) GetByID(ctx context.Context, id string) (Feedback, error) {
	return svc.repo.GetFeedback(ctx, id)
}

// participantTutoringIDs returns the ids of every tutoring userID takes part in.
func participantTutoringIDs(ctx context.Context, repo Repository, userID string) ([]string, error) {
	tutorings, err := repo.QueryTutorings(ctx, &QueryFilter{ParticipantID: userID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying participant tutorings")
	}
	ids := make([]string, 0, len(tutorings))
	for _, t := range tutorings {
		ids = append(ids, t.ID)
	}
	return ids, nil
}
