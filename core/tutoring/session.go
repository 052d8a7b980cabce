package tutoring

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

type SessionStatus string

// Session statuses. Only SessionScheduled sessions change status.
const (
	SessionScheduled SessionStatus = "Programada"
	SessionDone      SessionStatus = "Realizada"
	SessionCancelled SessionStatus = "Cancelada"
)

var (
	// errors
	ErrSessionNotFound          = core.NewError(core.ErrNotFound, "session.not_found")
	ErrSessionForbidden         = core.NewError(core.ErrForbidden, "session.forbidden")
	ErrSessionNotActive         = core.NewError(core.ErrInvalidState, "session.not_active")
	ErrSessionInvalidTransition = core.NewError(core.ErrInvalidState, "session.invalid_transition")
)

type Session struct {
	ID              string        `json:"id"`
	TutoringID      string        `json:"tutoring_id"`
	Datetime        time.Time     `json:"datetime"`
	DurationMinutes int           `json:"duration_minutes"`
	LocationLink    string        `json:"location_link"`
	TopicsCovered   string        `json:"topics_covered"`
	Notes           string        `json:"notes"`
	Status          SessionStatus `json:"status"`
}

// NewSession contains information needed to schedule a Session.
type NewSession struct {
	TutoringID      string    `json:"tutoring_id" validate:"required"`
	Datetime        time.Time `json:"datetime" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=600"`
	LocationLink    string    `json:"location_link" validate:"omitempty,url,max=500"`
	TopicsCovered   string    `json:"topics_covered" validate:"required,notblank,max=2000"`
	Notes           string    `json:"notes" validate:"max=2000"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.TutoringID = core.CleanString(ns.TutoringID)
	ns.LocationLink = core.CleanString(ns.LocationLink)
	ns.TopicsCovered = core.CleanString(ns.TopicsCovered)
	ns.Notes = core.CleanString(ns.Notes)
	return validate.Struct(ns)
}

type UpdateSessionStatus struct {
	Status SessionStatus `json:"status" validate:"required,oneof=Realizada Cancelada"`
	Notes  string        `json:"notes" validate:"max=2000"`
}

func (us *UpdateSessionStatus) Validate(validate *validator.Validate) error {
	us.Status = SessionStatus(core.CleanString(string(us.Status)))
	us.Notes = core.CleanString(us.Notes)
	return validate.Struct(us)
}

type SessionFilter struct {
	TutoringID  string   `query:"tutoring_id"`
	Status      string   `query:"status"`
	TutoringIDs []string `query:"-"`
}

type (
	SessionRepository interface {
		CreateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
		GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (Session, error)
		// QuerySessions returns sessions ordered by datetime; empty filter fields are ignored.
		QuerySessions(ctx context.Context, filter *SessionFilter, exec ...core.DBExecutor) ([]Session, error)
		UpdateSession(ctx context.Context, s Session, exec ...core.DBExecutor) (Session, error)
	}

	SessionService interface {
		Create(ctx context.Context, userID string, ns NewSession) (Session, error)
		// Query lists the sessions visible to requester: all of them for administrators,
		// those of the requester's tutorings otherwise.
		Query(ctx context.Context, requester user.User, filter *SessionFilter) ([]Session, error)
		GetByID(ctx context.Context, id string) (Session, error)
		UpdateStatus(ctx context.Context, userID, id string, us UpdateSessionStatus) (Session, error)
	}

	sessionService struct {
		repo    SessionRepository
		tRepo   Repository
		usrRepo user.Repository
		logger  core.Logger
	}
)

var _ SessionService = (*sessionService)(nil)

func NewSessionService(repo SessionRepository, tRepo Repository, usrRepo user.Repository, logger core.Logger) SessionService {
	return &sessionService{
		repo:    repo,
		tRepo:   tRepo,
		usrRepo: usrRepo,
		logger:  logger,
	}
}

// canManage reports whether userID may schedule or update sessions of t.
func (svc *sessionService) canManage(ctx context.Context, userID string, t Tutoring) error {
	usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: userID})
	if err != nil {
		return err
	}
	if !(usr.IsAdmin() || usr.ID == t.Tutor.ID) {
		return ErrSessionForbidden
	}
	return nil
}

func (svc *sessionService) Create(ctx context.Context, userID string, ns NewSession) (Session, error) {
	t, err := svc.tRepo.GetTutoring(ctx, ns.TutoringID)
	if err != nil {
		return Session{}, err
	}
	if err := svc.canManage(ctx, userID, t); err != nil {
		return Session{}, err
	}
	if !t.IsActive() {
		return Session{}, ErrSessionNotActive
	}

	s, err := svc.repo.CreateSession(ctx, Session{
		ID:              core.NewID(),
		TutoringID:      t.ID,
		Datetime:        ns.Datetime.UTC(),
		DurationMinutes: ns.DurationMinutes,
		LocationLink:    ns.LocationLink,
		TopicsCovered:   ns.TopicsCovered,
		Notes:           ns.Notes,
		Status:          SessionScheduled,
	})
	if err != nil {
		return Session{}, errors.Wrap(err, "creating session")
	}
	svc.logger.Info("session scheduled", map[string]interface{}{"session": s.ID, "tutoring": t.ID})
	return s, nil
}

func (svc *sessionService) Query(ctx context.Context, requester user.User, filter *SessionFilter) ([]Session, error) {
	if filter == nil {
		filter = new(SessionFilter)
	}
	if !requester.IsAdmin() {
		ids, err := participantTutoringIDs(ctx, svc.tRepo, requester.ID)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []Session{}, nil
		}
		filter.TutoringIDs = ids
	}
	return svc.repo.QuerySessions(ctx, filter)
}

func (svc *sessionService) GetByID(ctx context.Context, id string) (Session, error) {
	return svc.repo.GetSession(ctx, id)
}

func (svc *sessionService) UpdateStatus(ctx context.Context, userID, id string, us UpdateSessionStatus) (Session, error) {
	s, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	t, err := svc.tRepo.GetTutoring(ctx, s.TutoringID)
	if err != nil {
		return Session{}, errors.Wrap(err, "finding session tutoring")
	}
	if err := svc.canManage(ctx, userID, t); err != nil {
		return Session{}, err
	}
	if s.Status != SessionScheduled || !(us.Status == SessionDone || us.Status == SessionCancelled) {
		return Session{}, ErrSessionInvalidTransition
	}

	s.Status = us.Status
	if us.Notes != "" {
		s.Notes = us.Notes
	}
	s, err = svc.repo.UpdateSession(ctx, s)
	if err != nil {
		return Session{}, errors.Wrap(err, "saving session")
	}
	svc.logger.Info("session status updated", map[string]interface{}{"session": s.ID, "status": s.Status})
	return s, nil
}
