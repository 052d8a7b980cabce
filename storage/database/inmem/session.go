package inmemdb

import (
	"context"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
)

type sessionRepository struct {
	db *DB
}

var _ tutoring.SessionRepository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) tutoring.SessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(_ context.Context, s tutoring.Session, exec ...core.DBExecutor) (tutoring.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tables.tutorings[s.TutoringID]; !ok {
		return tutoring.Session{}, tutoring.ErrNotFound
	}
	put(exec, repo.db.tables.sessions, s.ID, s)
	return s, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string, _ ...core.DBExecutor) (tutoring.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if s, ok := repo.db.tables.sessions[id]; ok {
		return s, nil
	}
	return tutoring.Session{}, tutoring.ErrSessionNotFound
}

func (repo *sessionRepository) QuerySessions(_ context.Context, filter *tutoring.SessionFilter, _ ...core.DBExecutor) ([]tutoring.Session, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	sessions := make([]tutoring.Session, 0)
	for _, s := range repo.db.tables.sessions {
		if filter != nil {
			if filter.TutoringID != "" && s.TutoringID != filter.TutoringID {
				continue
			}
			if filter.Status != "" && string(s.Status) != filter.Status {
				continue
			}
			if filter.TutoringIDs != nil && !containsString(filter.TutoringIDs, s.TutoringID) {
				continue
			}
		}
		sessions = append(sessions, s)
	}
	sortRecords(sessions, nil, map[string]compareFunc[tutoring.Session]{
		"datetime": func(a, b tutoring.Session) int { return a.Datetime.Compare(b.Datetime) },
	}, core.DBOrdering{Field: "datetime", Ascending: true})
	return sessions, nil
}

func (repo *sessionRepository) UpdateSession(_ context.Context, s tutoring.Session, exec ...core.DBExecutor) (tutoring.Session, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tables.sessions[s.ID]; !ok {
		return tutoring.Session{}, tutoring.ErrSessionNotFound
	}
	put(exec, repo.db.tables.sessions, s.ID, s)
	return s, nil
}
