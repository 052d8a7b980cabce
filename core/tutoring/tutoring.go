package tutoring

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

type Status string

// Tutoring statuses. A tutoring only leaves StatusActive, never returns to it.
const (
	StatusActive    Status = "Activa"
	StatusCompleted Status = "Completada"
	StatusCancelled Status = "Cancelada"
)

var (
	// errors
	ErrNotFound        = core.NewError(core.ErrNotFound, "tutoring.not_found")
	ErrCreateForbidden = core.NewError(core.ErrForbidden, "tutoring.create_forbidden")
	ErrInvalidTutor    = core.NewError(core.ErrInvalidArgument, "tutoring.invalid_tutor")
	ErrInvalidTutee    = core.NewError(core.ErrInvalidArgument, "tutoring.invalid_tutee")
	ErrSameUser        = core.NewError(core.ErrInvalidArgument, "tutoring.same_user")
	ErrDuplicate       = core.NewError(core.ErrInvalidState, "tutoring.duplicate")
)

func errLimitReached(limit int) error {
	return core.NewError(core.ErrInvalidState, "tutoring.limit_reached", strconv.Itoa(limit))
}

type Tutoring struct {
	ID              string    `json:"id"`
	Tutor           user.User `json:"tutor"`
	Tutee           user.User `json:"tutee"`
	StartDate       time.Time `json:"start_date"`
	ExpectedEndDate time.Time `json:"expected_end_date"`
	Objectives      string    `json:"objectives"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

// HasParticipant reports whether userID is the tutor or the tutee.
func (t Tutoring) HasParticipant(userID string) bool {
	return t.Tutor.ID == userID || t.Tutee.ID == userID
}

func (t Tutoring) IsActive() bool { return t.Status == StatusActive }

// NewTutoring contains information needed to create a new Tutoring.
type NewTutoring struct {
	TutorID         string    `json:"tutor_id" validate:"required"`
	TuteeID         string    `json:"tutee_id" validate:"required"`
	StartDate       time.Time `json:"start_date" validate:"required"`
	ExpectedEndDate time.Time `json:"expected_end_date" validate:"required,gtfield=StartDate"`
	Objectives      string    `json:"objectives" validate:"required,notblank,max=2000"`
}

func (nt *NewTutoring) Validate(validate *validator.Validate) error {
	nt.TutorID = core.CleanString(nt.TutorID)
	nt.TuteeID = core.CleanString(nt.TuteeID)
	nt.Objectives = core.CleanString(nt.Objectives)
	return validate.Struct(nt)
}

type QueryFilter struct {
	TutorID string `query:"tutor_id"`
	TuteeID string `query:"tutee_id"`
	Status  string `query:"status"`
	// ParticipantID restricts the result to tutorings where the user is tutor or tutee.
	ParticipantID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.TutorID = core.CleanString(qf.TutorID)
	qf.TuteeID = core.CleanString(qf.TuteeID)
	qf.Status = core.CleanString(qf.Status)
}

type (
	Repository interface {
		CreateTutoring(ctx context.Context, t Tutoring, exec ...core.DBExecutor) (Tutoring, error)
		GetTutoring(ctx context.Context, id string, exec ...core.DBExecutor) (Tutoring, error)
		QueryTutorings(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Tutoring, error)
		CountTutorings(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		UpdateTutoring(ctx context.Context, t Tutoring, exec ...core.DBExecutor) (Tutoring, error)
		// CloseTutoring moves an active tutoring to status. It returns ErrNotActive when the tutoring
		// already left StatusActive, so only one of two racing transitions is applied.
		CloseTutoring(ctx context.Context, id string, status Status, updatedAt time.Time, exec ...core.DBExecutor) (Tutoring, error)
		// LockTutor serializes tutoring creation for a tutor until the surrounding transaction ends.
		LockTutor(ctx context.Context, tutorID string, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, creatorID string, nt NewTutoring) (Tutoring, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Tutoring, error)
		GetByID(ctx context.Context, id string) (Tutoring, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		usrRepo user.Repository
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, usrRepo user.Repository, logger core.Logger) Service {
	return &service{
		db:      db,
		repo:    repo,
		usrRepo: usrRepo,
		logger:  logger,
	}
}

// Create opens a new active tutoring between a tutor and a tutee.
// Only an administrator, or the tutor being assigned, may create it.
func (svc *service) Create(ctx context.Context, creatorID string, nt NewTutoring) (Tutoring, error) {
	creator, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: creatorID})
	if err != nil {
		return Tutoring{}, err
	}
	if !(creator.IsAdmin() || (creator.IsTutor() && creator.ID == nt.TutorID)) {
		return Tutoring{}, ErrCreateForbidden
	}
	if nt.TutorID == nt.TuteeID {
		return Tutoring{}, ErrSameUser
	}

	tutor, err := svc.getParticipant(ctx, nt.TutorID, "tutor_id")
	if err != nil {
		return Tutoring{}, err
	}
	if !tutor.IsTutor() || !tutor.IsActive {
		return Tutoring{}, ErrInvalidTutor
	}
	tutee, err := svc.getParticipant(ctx, nt.TuteeID, "tutee_id")
	if err != nil {
		return Tutoring{}, err
	}
	if !tutee.IsTutee() || !tutee.IsActive {
		return Tutoring{}, ErrInvalidTutee
	}

	var created Tutoring
	err = core.WithTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if err := svc.repo.LockTutor(ctx, tutor.ID, exec); err != nil {
			return errors.Wrap(err, "locking tutor")
		}

		dups, err := svc.repo.CountTutorings(ctx, &QueryFilter{TutorID: tutor.ID, TuteeID: tutee.ID, Status: string(StatusActive)}, exec)
		if err != nil {
			return errors.Wrap(err, "counting active pair tutorings")
		}
		if dups > 0 {
			return ErrDuplicate
		}

		active, err := svc.repo.CountTutorings(ctx, &QueryFilter{TutorID: tutor.ID, Status: string(StatusActive)}, exec)
		if err != nil {
			return errors.Wrap(err, "counting active tutor tutorings")
		}
		if active >= tutor.ActiveTutoringLimit {
			return errLimitReached(tutor.ActiveTutoringLimit)
		}

		now := time.Now().UTC()
		created, err = svc.repo.CreateTutoring(ctx, Tutoring{
			ID:              core.NewID(),
			Tutor:           tutor,
			Tutee:           tutee,
			StartDate:       nt.StartDate.UTC(),
			ExpectedEndDate: nt.ExpectedEndDate.UTC(),
			Objectives:      nt.Objectives,
			Status:          StatusActive,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, exec)
		return err
	})
	if err != nil {
		return Tutoring{}, err
	}

	svc.logger.Info("tutoring created", map[string]interface{}{"id": created.ID, "tutor": tutor.ID, "tutee": tutee.ID})
	return created, nil
}

func (svc *service) getParticipant(ctx context.Context, id, field string) (user.User, error) {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, core.NewValidationError(err, core.FieldError{Field: field, Error: user.ErrNotFound.Key})
		}
		return user.User{}, errors.Wrap(err, "finding "+field)
	}
	return usr, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Tutoring, error) {
	return svc.repo.QueryTutorings(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Tutoring, error) {
	return svc.repo.GetTutoring(ctx, id)
}
