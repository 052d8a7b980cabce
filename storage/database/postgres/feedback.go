package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type feedbackRow struct {
	ID             string    `db:"id"`
	EvaluatorID    string    `db:"evaluator_id"`
	TutoringID     string    `db:"tutoring_id"`
	EvaluationDate time.Time `db:"evaluation_date"`
	Score          string    `db:"score"`
	Comments       string    `db:"comments"`
}

type feedbackRepository struct {
	repository
	users *userRepository
}

var _ tutoring.FeedbackRepository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(exec core.DBExecutor) tutoring.FeedbackRepository {
	return &feedbackRepository{
		repository: repository{exec: exec},
		users:      &userRepository{repository{exec: exec}},
	}
}

func (repo feedbackRepository) hydrate(ctx context.Context, exec []core.DBExecutor, rows []feedbackRow) ([]tutoring.Feedback, error) {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EvaluatorID)
	}
	byID := make(map[string]user.User)
	if len(ids) > 0 {
		users, err := repo.users.QueryUsers(ctx, &user.QueryFilter{IDs: ids}, nil, exec...)
		if err != nil {
			return nil, errors.Wrap(err, "loading evaluators")
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	fbs := make([]tutoring.Feedback, 0, len(rows))
	for _, r := range rows {
		evaluator, ok := byID[r.EvaluatorID]
		if !ok {
			evaluator = user.User{ID: r.EvaluatorID}
		}
		fbs = append(fbs, tutoring.Feedback{
			ID:             r.ID,
			Evaluator:      evaluator,
			TutoringID:     r.TutoringID,
			EvaluationDate: r.EvaluationDate.UTC(),
			Score:          r.Score,
			Comments:       r.Comments,
		})
	}
	return fbs, nil
}

func (repo feedbackRepository) CreateFeedback(ctx context.Context, fb tutoring.Feedback, exec ...core.DBExecutor) (tutoring.Feedback, error) {
	ins := dialect.Insert(feedbacksTable).Rows(goqu.Record{
		"id":              fb.ID,
		"evaluator_id":    fb.Evaluator.ID,
		"tutoring_id":     fb.TutoringID,
		"evaluation_date": fb.EvaluationDate.UTC(),
		"score":           fb.Score,
		"comments":        fb.Comments,
	}).Prepared(true)
	if _, err := repo.execute(ctx, exec, ins); err != nil {
		if pqErrorCode(err) == foreignKeyViolation {
			return tutoring.Feedback{}, tutoring.ErrNotFound
		}
		return tutoring.Feedback{}, errors.Wrap(err, "inserting feedback")
	}
	return repo.GetFeedback(ctx, fb.ID, exec...)
}

func (repo feedbackRepository) GetFeedback(ctx context.Context, id string, exec ...core.DBExecutor) (tutoring.Feedback, error) {
	if !core.IsValidID(id) {
		return tutoring.Feedback{}, tutoring.ErrFeedbackNotFound
	}

	var row feedbackRow
	if err := repo.getRow(ctx, exec, &row, dialect.From(feedbacksTable).Where(goqu.C("id").Eq(id))); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return tutoring.Feedback{}, tutoring.ErrFeedbackNotFound
		}
		return tutoring.Feedback{}, errors.Wrap(err, "finding feedback")
	}
	fbs, err := repo.hydrate(ctx, exec, []feedbackRow{row})
	if err != nil {
		return tutoring.Feedback{}, err
	}
	return fbs[0], nil
}

func (repo feedbackRepository) QueryFeedbacks(ctx context.Context, filter *tutoring.FeedbackFilter, exec ...core.DBExecutor) ([]tutoring.Feedback, error) {
	var where []goqu.Expression
	if filter != nil {
		if filter.TutoringID != "" {
			if !core.IsValidID(filter.TutoringID) {
				return []tutoring.Feedback{}, nil
			}
			where = append(where, goqu.C("tutoring_id").Eq(filter.TutoringID))
		}
		if filter.EvaluatorID != "" {
			if !core.IsValidID(filter.EvaluatorID) {
				return []tutoring.Feedback{}, nil
			}
			where = append(where, goqu.C("evaluator_id").Eq(filter.EvaluatorID))
		}
		if filter.TutoringIDs != nil {
			ids := validIDs(filter.TutoringIDs)
			if len(ids) == 0 {
				return []tutoring.Feedback{}, nil
			}
			where = append(where, goqu.C("tutoring_id").In(ids))
		}
	}

	ds := dialect.From(feedbacksTable).Where(where...).Order(goqu.C("evaluation_date").Asc())

	var rows []feedbackRow
	if err := repo.selectRows(ctx, exec, &rows, ds); err != nil {
		return nil, errors.Wrap(err, "querying feedbacks")
	}
	return repo.hydrate(ctx, exec, rows)
}
