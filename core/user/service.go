package user

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
)

var (
	// errors
	ErrNotFound       = core.NewError(core.ErrNotFound, "user.not_found")
	ErrEmailExists    = core.NewError(core.ErrInvalidArgument, "user.email_exists")
	ErrInvalidRole    = core.NewError(core.ErrInvalidArgument, "user.invalid_role")
	ErrInvalidLimit   = core.NewError(core.ErrInvalidArgument, "user.invalid_limit")
	ErrLimitForbidden = core.NewError(core.ErrForbidden, "user.limit_forbidden")
)

//go:generate mockgen -package mockuser -destination=mock/mockuser.go . Repository

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FirstName, User.LastName or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		UpdateRole(ctx context.Context, id string, role Role) (User, error)
		UpdateTutoringLimit(ctx context.Context, requesterID, targetID string, limit int) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
	}

	service struct {
		repo        Repository
		chapterRepo chapter.Repository
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, chapterRepo chapter.Repository, logger core.Logger) Service {
	return &service{
		repo:        repo,
		chapterRepo: chapterRepo,
		logger:      logger,
	}
}

func (svc *service) CheckEmailUniqueness(email string, excludedUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, excludedUsers); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: ErrEmailExists.Key})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	ch, err := svc.chapterRepo.GetChapter(ctx, nu.ChapterID)
	if err != nil {
		if errors.Cause(err) == chapter.ErrNotFound {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "chapter_id", Error: chapter.ErrNotFound.Key})
		}
		return User{}, errors.Wrap(err, "finding chapter")
	}

	now := time.Now().UTC()
	usr := User{
		ID:                  core.NewID(),
		FirstName:           nu.FirstName,
		LastName:            nu.LastName,
		Email:               core.CleanString(nu.Email, true /* lower */),
		Chapter:             ch,
		Role:                RoleTutee,
		ActiveTutoringLimit: 0,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if nu.Password != "" {
		if err := usr.SetPassword(nu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) UpdateRole(ctx context.Context, id string, role Role) (User, error) {
	if !role.IsValid() {
		return User{}, ErrInvalidRole
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.Role = role
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateTutoringLimit sets the number of active tutorings targetID may hold.
// The requester is resolved first and must be a tutor or an administrator; the target is only looked up afterwards.
func (svc *service) UpdateTutoringLimit(ctx context.Context, requesterID, targetID string, limit int) (User, error) {
	requester, err := svc.repo.GetUser(ctx, GetFilter{ID: requesterID})
	if err != nil {
		return User{}, err
	}
	if !(requester.IsTutor() || requester.IsAdmin()) {
		svc.logger.Warn("tutoring limit update denied",
			map[string]interface{}{"requester": requesterID, "target": targetID, "role": requester.Role})
		return User{}, ErrLimitForbidden
	}
	if limit < 0 {
		return User{}, ErrInvalidLimit
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: targetID})
	if err != nil {
		return User{}, err
	}
	usr.ActiveTutoringLimit = limit
	usr.UpdatedAt = time.Now().UTC()
	svc.logger.Info("tutoring limit updated",
		map[string]interface{}{"requester": requesterID, "target": targetID, "limit": strconv.Itoa(limit)})
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}
