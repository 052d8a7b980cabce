package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
)

type chapterRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r chapterRow) toDomain() chapter.Chapter {
	return chapter.Chapter{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

var chapterOrderings = map[string]string{
	"name":       "name",
	"created_at": "created_at",
}

type chapterRepository struct {
	repository
}

var _ chapter.Repository = (*chapterRepository)(nil) // interface compliance check

func NewChapterRepository(exec core.DBExecutor) chapter.Repository {
	return &chapterRepository{repository{exec: exec}}
}

func (repo chapterRepository) CreateChapter(ctx context.Context, ch chapter.Chapter, exec ...core.DBExecutor) (chapter.Chapter, error) {
	ins := dialect.Insert(chaptersTable).Rows(goqu.Record{
		"id":         ch.ID,
		"name":       ch.Name,
		"created_at": ch.CreatedAt.UTC(),
	}).Prepared(true)
	if _, err := repo.execute(ctx, exec, ins); err != nil {
		if pqErrorCode(err) == uniqueViolation {
			return chapter.Chapter{}, chapter.ErrNameExists
		}
		return chapter.Chapter{}, errors.Wrap(err, "inserting chapter")
	}
	return ch, nil
}

func (repo chapterRepository) QueryChapters(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]chapter.Chapter, error) {
	ds := dialect.From(chaptersTable).
		Order(orderBy(ordering, chapterOrderings, goqu.I("name").Asc())...)

	var rows []chapterRow
	if err := repo.selectRows(ctx, exec, &rows, ds); err != nil {
		return nil, errors.Wrap(err, "querying chapters")
	}
	chapters := make([]chapter.Chapter, 0, len(rows))
	for _, r := range rows {
		chapters = append(chapters, r.toDomain())
	}
	return chapters, nil
}

func (repo chapterRepository) get(ctx context.Context, exec []core.DBExecutor, where goqu.Expression) (chapter.Chapter, error) {
	var row chapterRow
	if err := repo.getRow(ctx, exec, &row, dialect.From(chaptersTable).Where(where)); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return chapter.Chapter{}, chapter.ErrNotFound
		}
		return chapter.Chapter{}, errors.Wrap(err, "finding chapter")
	}
	return row.toDomain(), nil
}

func (repo chapterRepository) GetChapter(ctx context.Context, id string, exec ...core.DBExecutor) (chapter.Chapter, error) {
	if !core.IsValidID(id) {
		return chapter.Chapter{}, chapter.ErrNotFound
	}
	return repo.get(ctx, exec, goqu.C("id").Eq(id))
}

func (repo chapterRepository) GetChapterByName(ctx context.Context, name string, exec ...core.DBExecutor) (chapter.Chapter, error) {
	return repo.get(ctx, exec, goqu.Func("LOWER", goqu.C("name")).Eq(goqu.Func("LOWER", name)))
}
