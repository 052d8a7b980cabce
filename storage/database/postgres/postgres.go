package pgrepos

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sistematutorias/tutorias/core"
)

// table names
const (
	chaptersTable  = "chapters"
	usersTable     = "users"
	tutoringsTable = "tutorings"
	feedbacksTable = "feedbacks"
	sessionsTable  = "tutoring_sessions"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var dialect = goqu.Dialect("postgres")

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func (repo repository) selectRows(ctx context.Context, exec []core.DBExecutor, dest interface{}, ds *goqu.SelectDataset) error {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, repo.getExec(exec), dest, q, args...)
}

func (repo repository) getRow(ctx context.Context, exec []core.DBExecutor, dest interface{}, ds *goqu.SelectDataset) error {
	q, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, repo.getExec(exec), dest, q, args...)
}

// execute runs an INSERT/UPDATE/DELETE and returns the number of affected rows.
func (repo repository) execute(ctx context.Context, exec []core.DBExecutor, b sqlBuilder) (int64, error) {
	q, args, err := b.ToSQL()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func pqErrorCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// orderBy maps API ordering fields to columns. Unknown fields are ignored; def is used when nothing remains.
func orderBy(ordering []core.DBOrdering, columns map[string]string, def ...exp.OrderedExpression) []exp.OrderedExpression {
	orders := make([]exp.OrderedExpression, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		if ord.Ascending {
			orders = append(orders, goqu.I(col).Asc())
		} else {
			orders = append(orders, goqu.I(col).Desc())
		}
	}
	if len(orders) == 0 {
		return def
	}
	return orders
}

// validIDs drops the values postgres would refuse to cast to uuid.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if core.IsValidID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}
