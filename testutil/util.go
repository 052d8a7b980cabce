package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/user"
)

// NopLogger discards every entry.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

func CreateChapter(t *testing.T, repo chapter.Repository, name string) chapter.Chapter {
	t.Helper()
	ch, err := repo.CreateChapter(context.Background(), chapter.Chapter{
		ID:        core.NewID(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createChapter() failed: %v", err)
	}
	return ch
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	ch chapter.Chapter,
	firstName, email, pwd string,
	role user.Role,
	limit int,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:                  core.NewID(),
		FirstName:           firstName,
		LastName:            "Test",
		Email:               email,
		Chapter:             ch,
		Role:                role,
		ActiveTutoringLimit: limit,
		IsActive:            isActive,
		CreatedAt:           tstamp,
		UpdatedAt:           tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
