package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
)

type (
	// DB is a process local store used by tests and the "inmem" storage mode.
	DB struct {
		mu     sync.RWMutex
		tables tables
	}

	tables struct {
		chapters  map[string]chapter.Chapter
		users     map[string]user.User
		tutorings map[string]tutoring.Tutoring
		feedbacks map[string]tutoring.Feedback
		sessions  map[string]tutoring.Session
	}

	// tx records how to revert every write made through it, so a rollback only undoes its own writes.
	// The embedded sqlx.ExtContext is never called.
	tx struct {
		sqlx.ExtContext
		db   *DB
		undo []func()
		done bool
	}
)

var (
	_ core.DB           = (*DB)(nil)
	_ core.DBTransactor = (*tx)(nil)
)

func Open() *DB {
	return &DB{tables: newTables()}
}

func newTables() tables {
	return tables{
		chapters:  make(map[string]chapter.Chapter),
		users:     make(map[string]user.User),
		tutorings: make(map[string]tutoring.Tutoring),
		feedbacks: make(map[string]tutoring.Feedback),
		sessions:  make(map[string]tutoring.Session),
	}
}

func (db *DB) Begin(_ context.Context) (core.DBTransactor, error) {
	return &tx{db: db}, nil
}

// Reset drops every record.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = newTables()
}

func (t *tx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.done = true
	t.undo = nil
	return nil
}

func (t *tx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	return nil
}

// put stores v under key in table. When exec carries an open transaction, the previous
// value is remembered so Rollback can restore it. Callers hold db.mu.
func put[T any](exec []core.DBExecutor, table map[string]T, key string, v T) {
	if len(exec) > 0 {
		if t, ok := exec[0].(*tx); ok && !t.done {
			prev, existed := table[key]
			t.undo = append(t.undo, func() {
				if existed {
					table[key] = prev
				} else {
					delete(table, key)
				}
			})
		}
	}
	table[key] = v
}

// hydrateUser refreshes the chapter embedded in usr. Callers hold db.mu.
func (db *DB) hydrateUser(usr user.User) user.User {
	if ch, ok := db.tables.chapters[usr.Chapter.ID]; ok {
		usr.Chapter = ch
	}
	return usr
}

// hydrateTutoring refreshes the participants embedded in t. Callers hold db.mu.
func (db *DB) hydrateTutoring(t tutoring.Tutoring) tutoring.Tutoring {
	if usr, ok := db.tables.users[t.Tutor.ID]; ok {
		t.Tutor = db.hydrateUser(usr)
	}
	if usr, ok := db.tables.users[t.Tutee.ID]; ok {
		t.Tutee = db.hydrateUser(usr)
	}
	return t
}

// compareFunc compares two records on a single field.
type compareFunc[T any] func(a, b T) int

// sortRecords orders records by ordering, falling back to def. Unknown fields are ignored.
func sortRecords[T any](records []T, ordering []core.DBOrdering, fields map[string]compareFunc[T], def ...core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = def
	}
	sort.SliceStable(records, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := fields[ord.Field]
			if !ok {
				continue
			}
			c := cmp(records[i], records[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
