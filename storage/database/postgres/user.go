package pgrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
)

type userRow struct {
	ID                  string     `db:"id"`
	FirstName           string     `db:"first_name"`
	LastName            string     `db:"last_name"`
	Email               string     `db:"email"`
	ChapterID           string     `db:"chapter_id"`
	ChapterName         string     `db:"chapter_name"`
	ChapterCreatedAt    time.Time  `db:"chapter_created_at"`
	Role                string     `db:"role"`
	ActiveTutoringLimit int        `db:"active_tutoring_limit"`
	IsActive            bool       `db:"is_active"`
	PasswordHash        null.Bytes `db:"password_hash"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
	LastLogin           null.Time  `db:"last_login"`
}

func (r userRow) toDomain() user.User {
	return user.User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Chapter: chapter.Chapter{
			ID:        r.ChapterID,
			Name:      r.ChapterName,
			CreatedAt: r.ChapterCreatedAt.UTC(),
		},
		Role:                user.Role(r.Role),
		ActiveTutoringLimit: r.ActiveTutoringLimit,
		IsActive:            r.IsActive,
		PasswordHash:        r.PasswordHash.Bytes,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
		LastLogin:           r.LastLogin.Time.UTC(),
	}
}

func userRecord(usr user.User) goqu.Record {
	return goqu.Record{
		"id":                    usr.ID,
		"first_name":            usr.FirstName,
		"last_name":             usr.LastName,
		"email":                 usr.Email,
		"chapter_id":            usr.Chapter.ID,
		"role":                  string(usr.Role),
		"active_tutoring_limit": usr.ActiveTutoringLimit,
		"is_active":             usr.IsActive,
		"password_hash":         null.NewBytes(usr.PasswordHash, len(usr.PasswordHash) > 0),
		"created_at":            usr.CreatedAt.UTC(),
		"updated_at":            usr.UpdatedAt.UTC(),
		"last_login":            null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

var userOrderings = map[string]string{
	"first_name": "u.first_name",
	"last_name":  "u.last_name",
	"email":      "u.email",
	"role":       "u.role",
	"is_active":  "u.is_active",
	"created_at": "u.created_at",
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{repository{exec: exec}}
}

// baseQuery selects users joined with their chapter.
func (repo userRepository) baseQuery() *goqu.SelectDataset {
	return dialect.From(goqu.T(usersTable).As("u")).
		Join(goqu.T(chaptersTable).As("c"), goqu.On(goqu.I("c.id").Eq(goqu.I("u.chapter_id")))).
		Select(
			goqu.I("u.id"), goqu.I("u.first_name"), goqu.I("u.last_name"), goqu.I("u.email"),
			goqu.I("u.chapter_id"),
			goqu.I("c.name").As("chapter_name"),
			goqu.I("c.created_at").As("chapter_created_at"),
			goqu.I("u.role"), goqu.I("u.active_tutoring_limit"), goqu.I("u.is_active"),
			goqu.I("u.password_hash"), goqu.I("u.created_at"), goqu.I("u.updated_at"), goqu.I("u.last_login"),
		)
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	where := []goqu.Expression{goqu.C("email").Eq(email)}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		if ids = validIDs(ids); len(ids) > 0 {
			where = append(where, goqu.C("id").NotIn(ids))
		}
	}

	var count int
	ds := dialect.From(usersTable).Select(goqu.COUNT("*")).Where(where...)
	if err := repo.getRow(ctx, exec, &count, ds); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ins := dialect.Insert(usersTable).Rows(userRecord(usr)).Prepared(true)
	if _, err := repo.execute(ctx, exec, ins); err != nil {
		if pqErrorCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	var where []goqu.Expression

	if filter != nil {
		// users with FirstName, LastName or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where = append(where, goqu.Or(
				goqu.I("u.first_name").ILike(val),
				goqu.I("u.last_name").ILike(val),
				goqu.I("u.email").ILike(val),
			))
		}
		if len(filter.Roles) > 0 {
			where = append(where, goqu.I("u.role").In(filter.Roles))
		}
		if filter.ChapterID != "" {
			if !core.IsValidID(filter.ChapterID) {
				return []user.User{}, nil
			}
			where = append(where, goqu.I("u.chapter_id").Eq(filter.ChapterID))
		}
		if filter.IsActive != nil {
			where = append(where, goqu.I("u.is_active").Eq(*filter.IsActive))
		}
		if filter.IDs != nil {
			ids := validIDs(filter.IDs)
			if len(ids) == 0 {
				return []user.User{}, nil
			}
			where = append(where, goqu.I("u.id").In(ids))
		}
	}

	ds := repo.baseQuery().Where(where...).
		Order(orderBy(ordering, userOrderings, goqu.I("u.created_at").Desc())...)

	var rows []userRow
	if err := repo.selectRows(ctx, exec, &rows, ds); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	var where goqu.Expression
	switch {
	case filter.ID != "":
		if !core.IsValidID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where = goqu.I("u.id").Eq(filter.ID)
	case filter.Email != "":
		where = goqu.I("u.email").Eq(filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.getRow(ctx, exec, &row, repo.baseQuery().Where(where)); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user")
	}
	return row.toDomain(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	rec := userRecord(usr)
	delete(rec, "id")
	delete(rec, "created_at")

	upd := dialect.Update(usersTable).Set(rec).Where(goqu.C("id").Eq(usr.ID)).Prepared(true)
	n, err := repo.execute(ctx, exec, upd)
	if err != nil {
		if pqErrorCode(err) == uniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID}, exec...)
}
