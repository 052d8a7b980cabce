package chapter

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
)

var (
	// errors
	ErrNotFound   = core.NewError(core.ErrNotFound, "chapter.not_found")
	ErrNameExists = core.NewError(core.ErrInvalidArgument, "chapter.name_exists")
)

type (
	Repository interface {
		CreateChapter(ctx context.Context, ch Chapter, exec ...core.DBExecutor) (Chapter, error)
		QueryChapters(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Chapter, error)
		GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (Chapter, error)
		GetChapterByName(ctx context.Context, name string, exec ...core.DBExecutor) (Chapter, error)
	}

	Service interface {
		Create(ctx context.Context, nc NewChapter) (Chapter, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Chapter, error)
		GetByID(ctx context.Context, id string) (Chapter, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewChapter) (Chapter, error) {
	name := core.CleanString(nc.Name)
	if _, err := svc.repo.GetChapterByName(ctx, name); err == nil {
		return Chapter{}, ErrNameExists
	} else if errors.Cause(err) != ErrNotFound {
		return Chapter{}, errors.Wrap(err, "checking chapter name")
	}

	ch := Chapter{
		ID:        core.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateChapter(ctx, ch)
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Chapter, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.QueryChapters(ctx, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Chapter, error) {
	return svc.repo.GetChapter(ctx, id)
}
