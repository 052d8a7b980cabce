package inmemdb

import (
	"context"
	"strings"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

var userOrderings = map[string]compareFunc[user.User]{
	"first_name": func(a, b user.User) int { return strings.Compare(a.FirstName, b.FirstName) },
	"last_name":  func(a, b user.User) int { return strings.Compare(a.LastName, b.LastName) },
	"email":      func(a, b user.User) int { return strings.Compare(a.Email, b.Email) },
	"role":       func(a, b user.User) int { return strings.Compare(string(a.Role), string(b.Role)) },
	"created_at": func(a, b user.User) int { return a.CreatedAt.Compare(b.CreatedAt) },
	"is_active": func(a, b user.User) int {
		switch {
		case a.IsActive == b.IsActive:
			return 0
		case a.IsActive:
			return 1
		default:
			return -1
		}
	},
}

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded = append(excluded, u.ID)
	}
	for _, usr := range repo.db.tables.users {
		if usr.Email == email && !containsString(excluded, usr.ID) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.tables.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	put(exec, repo.db.tables.users, usr.ID, usr)
	return repo.db.hydrateUser(usr), nil
}

func (repo *userRepository) match(usr user.User, filter *user.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		search := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(usr.FirstName), search) ||
			strings.Contains(strings.ToLower(usr.LastName), search) ||
			strings.Contains(usr.Email, search)) {
			return false
		}
	}
	if len(filter.Roles) > 0 && !containsString(filter.Roles, string(usr.Role)) {
		return false
	}
	if filter.ChapterID != "" && usr.Chapter.ID != filter.ChapterID {
		return false
	}
	if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
		return false
	}
	if filter.IDs != nil && !containsString(filter.IDs, usr.ID) {
		return false
	}
	return true
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0)
	for _, usr := range repo.db.tables.users {
		if repo.match(usr, filter) {
			users = append(users, repo.db.hydrateUser(usr))
		}
	}
	sortRecords(users, ordering, userOrderings, core.DBOrdering{Field: "created_at", Ascending: false})
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.tables.users[filter.ID]; ok {
			return repo.db.hydrateUser(usr), nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.tables.users {
			if usr.Email == filter.Email {
				return repo.db.hydrateUser(usr), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tables.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	put(exec, repo.db.tables.users, usr.ID, usr)
	return repo.db.hydrateUser(usr), nil
}
