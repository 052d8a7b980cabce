package inmemdb

import (
	"context"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
)

type feedbackRepository struct {
	db *DB
}

var _ tutoring.FeedbackRepository = (*feedbackRepository)(nil)

func NewFeedbackRepository(db *DB) tutoring.FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) hydrate(fb tutoring.Feedback) tutoring.Feedback {
	if usr, ok := repo.db.tables.users[fb.Evaluator.ID]; ok {
		fb.Evaluator = repo.db.hydrateUser(usr)
	}
	return fb
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb tutoring.Feedback, exec ...core.DBExecutor) (tutoring.Feedback, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tables.tutorings[fb.TutoringID]; !ok {
		return tutoring.Feedback{}, tutoring.ErrNotFound
	}
	put(exec, repo.db.tables.feedbacks, fb.ID, fb)
	return repo.hydrate(fb), nil
}

func (repo *feedbackRepository) GetFeedback(_ context.Context, id string, _ ...core.DBExecutor) (tutoring.Feedback, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if fb, ok := repo.db.tables.feedbacks[id]; ok {
		return repo.hydrate(fb), nil
	}
	return tutoring.Feedback{}, tutoring.ErrFeedbackNotFound
}

func (repo *feedbackRepository) QueryFeedbacks(_ context.Context, filter *tutoring.FeedbackFilter, _ ...core.DBExecutor) ([]tutoring.Feedback, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	fbs := make([]tutoring.Feedback, 0)
	for _, fb := range repo.db.tables.feedbacks {
		if filter != nil {
			if filter.TutoringID != "" && fb.TutoringID != filter.TutoringID {
				continue
			}
			if filter.EvaluatorID != "" && fb.Evaluator.ID != filter.EvaluatorID {
				continue
			}
			if filter.TutoringIDs != nil && !containsString(filter.TutoringIDs, fb.TutoringID) {
				continue
			}
		}
		fbs = append(fbs, repo.hydrate(fb))
	}
	sortRecords(fbs, nil, map[string]compareFunc[tutoring.Feedback]{
		"evaluation_date": func(a, b tutoring.Feedback) int { return a.EvaluationDate.Compare(b.EvaluationDate) },
	}, core.DBOrdering{Field: "evaluation_date", Ascending: true})
	return fbs, nil
}
