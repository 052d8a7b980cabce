package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type tutoringRow struct {
	ID              string    `db:"id"`
	TutorID         string    `db:"tutor_id"`
	TuteeID         string    `db:"tutee_id"`
	StartDate       time.Time `db:"start_date"`
	ExpectedEndDate time.Time `db:"expected_end_date"`
	Objectives      string    `db:"objectives"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func tutoringRecord(t tutoring.Tutoring) goqu.Record {
	return goqu.Record{
		"id":                t.ID,
		"tutor_id":          t.Tutor.ID,
		"tutee_id":          t.Tutee.ID,
		"start_date":        t.StartDate.UTC(),
		"expected_end_date": t.ExpectedEndDate.UTC(),
		"objectives":        t.Objectives,
		"status":            string(t.Status),
		"created_at":        t.CreatedAt.UTC(),
		"updated_at":        t.UpdatedAt.UTC(),
	}
}

var tutoringOrderings = map[string]string{
	"start_date":        "start_date",
	"expected_end_date": "expected_end_date",
	"status":            "status",
	"created_at":        "created_at",
	"updated_at":        "updated_at",
}

type tutoringRepository struct {
	repository
	users *userRepository
}

var _ tutoring.Repository = (*tutoringRepository)(nil) // interface compliance check

func NewTutoringRepository(exec core.DBExecutor) tutoring.Repository {
	return &tutoringRepository{
		repository: repository{exec: exec},
		users:      &userRepository{repository{exec: exec}},
	}
}

// hydrate loads the tutor and tutee of every row with a single users query.
func (repo tutoringRepository) hydrate(ctx context.Context, exec []core.DBExecutor, rows []tutoringRow) ([]tutoring.Tutoring, error) {
	ids := make([]string, 0, len(rows)*2)
	for _, r := range rows {
		ids = append(ids, r.TutorID, r.TuteeID)
	}
	byID := make(map[string]user.User)
	if len(ids) > 0 {
		users, err := repo.users.QueryUsers(ctx, &user.QueryFilter{IDs: ids}, nil, exec...)
		if err != nil {
			return nil, errors.Wrap(err, "loading tutoring participants")
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	tutorings := make([]tutoring.Tutoring, 0, len(rows))
	for _, r := range rows {
		tutor, ok := byID[r.TutorID]
		if !ok {
			tutor = user.User{ID: r.TutorID}
		}
		tutee, ok := byID[r.TuteeID]
		if !ok {
			tutee = user.User{ID: r.TuteeID}
		}
		tutorings = append(tutorings, tutoring.Tutoring{
			ID:              r.ID,
			Tutor:           tutor,
			Tutee:           tutee,
			StartDate:       r.StartDate.UTC(),
			ExpectedEndDate: r.ExpectedEndDate.UTC(),
			Objectives:      r.Objectives,
			Status:          tutoring.Status(r.Status),
			CreatedAt:       r.CreatedAt.UTC(),
			UpdatedAt:       r.UpdatedAt.UTC(),
		})
	}
	return tutorings, nil
}

func (repo tutoringRepository) CreateTutoring(ctx context.Context, t tutoring.Tutoring, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	ins := dialect.Insert(tutoringsTable).Rows(tutoringRecord(t)).Prepared(true)
	if _, err := repo.execute(ctx, exec, ins); err != nil {
		return tutoring.Tutoring{}, errors.Wrap(err, "inserting tutoring")
	}
	return repo.GetTutoring(ctx, t.ID, exec...)
}

func (repo tutoringRepository) GetTutoring(ctx context.Context, id string, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	if !core.IsValidID(id) {
		return tutoring.Tutoring{}, tutoring.ErrNotFound
	}

	var row tutoringRow
	if err := repo.getRow(ctx, exec, &row, dialect.From(tutoringsTable).Where(goqu.C("id").Eq(id))); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return tutoring.Tutoring{}, tutoring.ErrNotFound
		}
		return tutoring.Tutoring{}, errors.Wrap(err, "finding tutoring")
	}
	ts, err := repo.hydrate(ctx, exec, []tutoringRow{row})
	if err != nil {
		return tutoring.Tutoring{}, err
	}
	return ts[0], nil
}

// where returns the conditions of filter, and false when no row can match.
func (repo tutoringRepository) where(filter *tutoring.QueryFilter) ([]goqu.Expression, bool) {
	var where []goqu.Expression
	if filter == nil {
		return where, true
	}
	for _, cond := range [][2]string{{"tutor_id", filter.TutorID}, {"tutee_id", filter.TuteeID}} {
		col, id := cond[0], cond[1]
		if id == "" {
			continue
		}
		if !core.IsValidID(id) {
			return nil, false
		}
		where = append(where, goqu.C(col).Eq(id))
	}
	if filter.Status != "" {
		where = append(where, goqu.C("status").Eq(filter.Status))
	}
	if filter.ParticipantID != "" {
		if !core.IsValidID(filter.ParticipantID) {
			return nil, false
		}
		where = append(where, goqu.Or(
			goqu.C("tutor_id").Eq(filter.ParticipantID),
			goqu.C("tutee_id").Eq(filter.ParticipantID),
		))
	}
	return where, true
}

func (repo tutoringRepository) QueryTutorings(ctx context.Context, filter *tutoring.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]tutoring.Tutoring, error) {
	where, ok := repo.where(filter)
	if !ok {
		return []tutoring.Tutoring{}, nil
	}

	ds := dialect.From(tutoringsTable).Where(where...).
		Order(orderBy(ordering, tutoringOrderings, goqu.I("created_at").Desc())...)

	var rows []tutoringRow
	if err := repo.selectRows(ctx, exec, &rows, ds); err != nil {
		return nil, errors.Wrap(err, "querying tutorings")
	}
	return repo.hydrate(ctx, exec, rows)
}

func (repo tutoringRepository) CountTutorings(ctx context.Context, filter *tutoring.QueryFilter, exec ...core.DBExecutor) (int, error) {
	where, ok := repo.where(filter)
	if !ok {
		return 0, nil
	}

	var count int
	ds := dialect.From(tutoringsTable).Select(goqu.COUNT("*")).Where(where...)
	if err := repo.getRow(ctx, exec, &count, ds); err != nil {
		return 0, errors.Wrap(err, "counting tutorings")
	}
	return count, nil
}

func (repo tutoringRepository) UpdateTutoring(ctx context.Context, t tutoring.Tutoring, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	rec := tutoringRecord(t)
	delete(rec, "id")
	delete(rec, "created_at")

	upd := dialect.Update(tutoringsTable).Set(rec).Where(goqu.C("id").Eq(t.ID)).Prepared(true)
	n, err := repo.execute(ctx, exec, upd)
	if err != nil {
		return tutoring.Tutoring{}, errors.Wrap(err, "updating tutoring")
	}
	if n == 0 {
		return tutoring.Tutoring{}, tutoring.ErrNotFound
	}
	return repo.GetTutoring(ctx, t.ID, exec...)
}

func (repo tutoringRepository) CloseTutoring(ctx context.Context, id string, status tutoring.Status, updatedAt time.Time, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	if !core.IsValidID(id) {
		return tutoring.Tutoring{}, tutoring.ErrNotFound
	}

	upd := dialect.Update(tutoringsTable).
		Set(goqu.Record{"status": string(status), "updated_at": updatedAt}).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(string(tutoring.StatusActive))).
		Prepared(true)
	n, err := repo.execute(ctx, exec, upd)
	if err != nil {
		return tutoring.Tutoring{}, errors.Wrap(err, "closing tutoring")
	}

	t, err := repo.GetTutoring(ctx, id, exec...)
	if err != nil {
		return tutoring.Tutoring{}, err
	}
	if n == 0 {
		return tutoring.Tutoring{}, tutoring.ErrNotActive
	}
	return t, nil
}

// LockTutor takes a row lock on the tutor, held until the transaction of exec ends.
func (repo tutoringRepository) LockTutor(ctx context.Context, tutorID string, exec ...core.DBExecutor) error {
	if !core.IsValidID(tutorID) {
		return user.ErrNotFound
	}
	var id string
	ds := dialect.From(usersTable).Select("id").Where(goqu.C("id").Eq(tutorID)).ForUpdate(exp.Wait)
	if err := repo.getRow(ctx, exec, &id, ds); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.ErrNotFound
		}
		return errors.Wrap(err, "locking tutor")
	}
	return nil
}
