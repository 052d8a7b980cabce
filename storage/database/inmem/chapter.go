package inmemdb

import (
	"context"
	"strings"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
)

var chapterOrderings = map[string]compareFunc[chapter.Chapter]{
	"name":       func(a, b chapter.Chapter) int { return strings.Compare(a.Name, b.Name) },
	"created_at": func(a, b chapter.Chapter) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

type chapterRepository struct {
	db *DB
}

var _ chapter.Repository = (*chapterRepository)(nil)

func NewChapterRepository(db *DB) chapter.Repository {
	return &chapterRepository{db: db}
}

func (repo *chapterRepository) CreateChapter(_ context.Context, ch chapter.Chapter, exec ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.tables.chapters {
		if strings.EqualFold(c.Name, ch.Name) {
			return chapter.Chapter{}, chapter.ErrNameExists
		}
	}
	put(exec, repo.db.tables.chapters, ch.ID, ch)
	return ch, nil
}

func (repo *chapterRepository) QueryChapters(_ context.Context, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]chapter.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	chapters := make([]chapter.Chapter, 0, len(repo.db.tables.chapters))
	for _, ch := range repo.db.tables.chapters {
		chapters = append(chapters, ch)
	}
	sortRecords(chapters, ordering, chapterOrderings, core.DBOrdering{Field: "name", Ascending: true})
	return chapters, nil
}

func (repo *chapterRepository) GetChapter(_ context.Context, id string, _ ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ch, ok := repo.db.tables.chapters[id]; ok {
		return ch, nil
	}
	return chapter.Chapter{}, chapter.ErrNotFound
}

func (repo *chapterRepository) GetChapterByName(_ context.Context, name string, _ ...core.DBExecutor) (chapter.Chapter, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, ch := range repo.db.tables.chapters {
		if strings.EqualFold(ch.Name, name) {
			return ch, nil
		}
	}
	return chapter.Chapter{}, chapter.ErrNotFound
}
