package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
)

type sessionRow struct {
	ID              string      `db:"id"`
	TutoringID      string      `db:"tutoring_id"`
	Datetime        time.Time   `db:"datetime"`
	DurationMinutes int         `db:"duration_minutes"`
	LocationLink    null.String `db:"location_link"`
	TopicsCovered   string      `db:"topics_covered"`
	Notes           null.String `db:"notes"`
	Status          string      `db:"status"`
}

func (r sessionRow) toDomain() tutoring.Session {
	return tutoring.Session{
		ID:              r.ID,
		TutoringID:      r.TutoringID,
		Datetime:        r.Datetime.UTC(),
		DurationMinutes: r.DurationMinutes,
		LocationLink:    r.LocationLink.String,
		TopicsCovered:   r.TopicsCovered,
		Notes:           r.Notes.String,
		Status:          tutoring.SessionStatus(r.Status),
	}
}

func sessionRecord(s tutoring.Session) goqu.Record {
	return goqu.Record{
		"id":               s.ID,
		"tutoring_id":      s.TutoringID,
		"datetime":         s.Datetime.UTC(),
		"duration_minutes": s.DurationMinutes,
		"location_link":    null.NewString(s.LocationLink, s.LocationLink != ""),
		"topics_covered":   s.TopicsCovered,
		"notes":            null.NewString(s.Notes, s.Notes != ""),
		"status":           string(s.Status),
	}
}

type sessionRepository struct {
	repository
}

var _ tutoring.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(exec core.DBExecutor) tutoring.SessionRepository {
	return &sessionRepository{repository{exec: exec}}
}

func (repo sessionRepository) CreateSession(ctx context.Context, s tutoring.Session, exec ...core.DBExecutor) (tutoring.Session, error) {
	ins := dialect.Insert(sessionsTable).Rows(sessionRecord(s)).Prepared(true)
	if _, err := repo.execute(ctx, exec, ins); err != nil {
		if pqErrorCode(err) == foreignKeyViolation {
			return tutoring.Session{}, tutoring.ErrNotFound
		}
		return tutoring.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo sessionRepository) GetSession(ctx context.Context, id string, exec ...core.DBExecutor) (tutoring.Session, error) {
	if !core.IsValidID(id) {
		return tutoring.Session{}, tutoring.ErrSessionNotFound
	}

	var row sessionRow
	if err := repo.getRow(ctx, exec, &row, dialect.From(sessionsTable).Where(goqu.C("id").Eq(id))); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return tutoring.Session{}, tutoring.ErrSessionNotFound
		}
		return tutoring.Session{}, errors.Wrap(err, "finding session")
	}
	return row.toDomain(), nil
}

func (repo sessionRepository) QuerySessions(ctx context.Context, filter *tutoring.SessionFilter, exec ...core.DBExecutor) ([]tutoring.Session, error) {
	var where []goqu.Expression
	if filter != nil {
		if filter.TutoringID != "" {
			if !core.IsValidID(filter.TutoringID) {
				return []tutoring.Session{}, nil
			}
			where = append(where, goqu.C("tutoring_id").Eq(filter.TutoringID))
		}
		if filter.Status != "" {
			where = append(where, goqu.C("status").Eq(filter.Status))
		}
		if filter.TutoringIDs != nil {
			ids := validIDs(filter.TutoringIDs)
			if len(ids) == 0 {
				return []tutoring.Session{}, nil
			}
			where = append(where, goqu.C("tutoring_id").In(ids))
		}
	}

	ds := dialect.From(sessionsTable).Where(where...).Order(goqu.C("datetime").Asc())

	var rows []sessionRow
	if err := repo.selectRows(ctx, exec, &rows, ds); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]tutoring.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toDomain())
	}
	return sessions, nil
}

func (repo sessionRepository) UpdateSession(ctx context.Context, s tutoring.Session, exec ...core.DBExecutor) (tutoring.Session, error) {
	rec := sessionRecord(s)
	delete(rec, "id")

	upd := dialect.Update(sessionsTable).Set(rec).Where(goqu.C("id").Eq(s.ID)).Prepared(true)
	n, err := repo.execute(ctx, exec, upd)
	if err != nil {
		return tutoring.Session{}, errors.Wrap(err, "updating session")
	}
	if n == 0 {
		return tutoring.Session{}, tutoring.ErrSessionNotFound
	}
	return s, nil
}
