package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
)

var tutoringOrderings = map[string]compareFunc[tutoring.Tutoring]{
	"start_date":        func(a, b tutoring.Tutoring) int { return a.StartDate.Compare(b.StartDate) },
	"expected_end_date": func(a, b tutoring.Tutoring) int { return a.ExpectedEndDate.Compare(b.ExpectedEndDate) },
	"status":            func(a, b tutoring.Tutoring) int { return strings.Compare(string(a.Status), string(b.Status)) },
	"created_at":        func(a, b tutoring.Tutoring) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"updated_at":        func(a, b tutoring.Tutoring) int { return a.UpdatedAt.Compare(b.UpdatedAt) },
}

type tutoringRepository struct {
	db *DB
}

var _ tutoring.Repository = (*tutoringRepository)(nil)

func NewTutoringRepository(db *DB) tutoring.Repository {
	return &tutoringRepository{db: db}
}

func (repo *tutoringRepository) CreateTutoring(_ context.Context, t tutoring.Tutoring, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	put(exec, repo.db.tables.tutorings, t.ID, t)
	return repo.db.hydrateTutoring(t), nil
}

func (repo *tutoringRepository) GetTutoring(_ context.Context, id string, _ ...core.DBExecutor) (tutoring.Tutoring, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.tables.tutorings[id]; ok {
		return repo.db.hydrateTutoring(t), nil
	}
	return tutoring.Tutoring{}, tutoring.ErrNotFound
}

func (repo *tutoringRepository) match(t tutoring.Tutoring, filter *tutoring.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.TutorID != "" && t.Tutor.ID != filter.TutorID {
		return false
	}
	if filter.TuteeID != "" && t.Tutee.ID != filter.TuteeID {
		return false
	}
	if filter.Status != "" && string(t.Status) != filter.Status {
		return false
	}
	if filter.ParticipantID != "" && !t.HasParticipant(filter.ParticipantID) {
		return false
	}
	return true
}

func (repo *tutoringRepository) QueryTutorings(_ context.Context, filter *tutoring.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]tutoring.Tutoring, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tutorings := make([]tutoring.Tutoring, 0)
	for _, t := range repo.db.tables.tutorings {
		if repo.match(t, filter) {
			tutorings = append(tutorings, repo.db.hydrateTutoring(t))
		}
	}
	sortRecords(tutorings, ordering, tutoringOrderings, core.DBOrdering{Field: "created_at", Ascending: false})
	return tutorings, nil
}

func (repo *tutoringRepository) CountTutorings(_ context.Context, filter *tutoring.QueryFilter, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, t := range repo.db.tables.tutorings {
		if repo.match(t, filter) {
			count++
		}
	}
	return count, nil
}

func (repo *tutoringRepository) UpdateTutoring(_ context.Context, t tutoring.Tutoring, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tables.tutorings[t.ID]; !ok {
		return tutoring.Tutoring{}, tutoring.ErrNotFound
	}
	put(exec, repo.db.tables.tutorings, t.ID, t)
	return repo.db.hydrateTutoring(t), nil
}

func (repo *tutoringRepository) CloseTutoring(_ context.Context, id string, status tutoring.Status, updatedAt time.Time, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t, ok := repo.db.tables.tutorings[id]
	if !ok {
		return tutoring.Tutoring{}, tutoring.ErrNotFound
	}
	if !t.IsActive() {
		return tutoring.Tutoring{}, tutoring.ErrNotActive
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	put(exec, repo.db.tables.tutorings, t.ID, t)
	return repo.db.hydrateTutoring(t), nil
}

// LockTutor is a no-op: the in-memory store does not isolate transactions.
func (repo *tutoringRepository) LockTutor(_ context.Context, _ string, _ ...core.DBExecutor) error {
	return nil
}
