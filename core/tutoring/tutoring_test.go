package tutoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
	"github.com/sistematutorias/tutorias/storage/database/inmem"
	"github.com/sistematutorias/tutorias/testutil"
)

type testEnv struct {
	db      *inmemdb.DB
	usrRepo user.Repository
	tRepo   tutoring.Repository
	fbRepo  tutoring.FeedbackRepository
	sRepo   tutoring.SessionRepository

	admin, tutor, otherTutor, tutee, otherTutee, inactiveTutee user.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := inmemdb.Open()
	env := &testEnv{
		db:      db,
		usrRepo: inmemdb.NewUserRepository(db),
		tRepo:   inmemdb.NewTutoringRepository(db),
		fbRepo:  inmemdb.NewFeedbackRepository(db),
		sRepo:   inmemdb.NewSessionRepository(db),
	}
	ch := testutil.CreateChapter(t, inmemdb.NewChapterRepository(db), "Lima")
	env.admin = testutil.CreateUser(t, env.usrRepo, ch, "Admin", "admin@mail.com", "", user.RoleAdmin, 0, true)
	env.tutor = testutil.CreateUser(t, env.usrRepo, ch, "Tomás", "tomas@mail.com", "", user.RoleTutor, 2, true)
	env.otherTutor = testutil.CreateUser(t, env.usrRepo, ch, "Olga", "olga@mail.com", "", user.RoleTutor, 1, true)
	env.tutee = testutil.CreateUser(t, env.usrRepo, ch, "Lucía", "lucia@mail.com", "", user.RoleTutee, 0, true)
	env.otherTutee = testutil.CreateUser(t, env.usrRepo, ch, "Pedro", "pedro@mail.com", "", user.RoleTutee, 0, true)
	env.inactiveTutee = testutil.CreateUser(t, env.usrRepo, ch, "Iris", "iris@mail.com", "", user.RoleTutee, 0, false)
	return env
}

func (env *testEnv) service() tutoring.Service {
	return tutoring.NewService(env.db, env.tRepo, env.usrRepo, testutil.NopLogger{})
}

func newTutoring(tutorID, tuteeID string) tutoring.NewTutoring {
	start := time.Now().UTC().Truncate(time.Second)
	return tutoring.NewTutoring{
		TutorID:         tutorID,
		TuteeID:         tuteeID,
		StartDate:       start,
		ExpectedEndDate: start.AddDate(0, 3, 0),
		Objectives:      "Reforzar matemática",
	}
}

// createTutoring inserts an active tutoring bypassing the service rules.
func (env *testEnv) createTutoring(t *testing.T, tutor, tutee user.User) tutoring.Tutoring {
	t.Helper()
	now := time.Now().UTC()
	created, err := env.tRepo.CreateTutoring(context.Background(), tutoring.Tutoring{
		ID:              core.NewID(),
		Tutor:           tutor,
		Tutee:           tutee,
		StartDate:       now,
		ExpectedEndDate: now.AddDate(0, 1, 0),
		Objectives:      "Reforzar lectura",
		Status:          tutoring.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	require.NoError(t, err)
	return created
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("tutor creates own tutoring", func(t *testing.T) {
		env := newTestEnv(t)
		got, err := env.service().Create(ctx, env.tutor.ID, newTutoring(env.tutor.ID, env.tutee.ID))
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusActive, got.Status)
		assert.Equal(t, env.tutee.Email, got.Tutee.Email)
		assert.True(t, core.IsValidID(got.ID))
	})

	t.Run("errors", func(t *testing.T) {
		env := newTestEnv(t)
		tests := []struct {
			name      string
			creatorID string
			nt        tutoring.NewTutoring
			wantErr   error
		}{
			{"tutee cannot create", env.tutee.ID, newTutoring(env.tutor.ID, env.tutee.ID), tutoring.ErrCreateForbidden},
			{"tutor cannot assign another tutor", env.tutor.ID, newTutoring(env.otherTutor.ID, env.tutee.ID), tutoring.ErrCreateForbidden},
			{"same user", env.admin.ID, newTutoring(env.tutor.ID, env.tutor.ID), tutoring.ErrSameUser},
			{"tutor without tutor role", env.admin.ID, newTutoring(env.tutee.ID, env.otherTutee.ID), tutoring.ErrInvalidTutor},
			{"tutee without tutee role", env.admin.ID, newTutoring(env.tutor.ID, env.otherTutor.ID), tutoring.ErrInvalidTutee},
			{"inactive tutee", env.admin.ID, newTutoring(env.tutor.ID, env.inactiveTutee.ID), tutoring.ErrInvalidTutee},
			{"unknown creator", core.NewID(), newTutoring(env.tutor.ID, env.tutee.ID), user.ErrNotFound},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := env.service().Create(ctx, tc.creatorID, tc.nt)
				assert.Equal(t, tc.wantErr, err)
			})
		}
	})

	t.Run("unknown participant is a field error", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.service().Create(ctx, env.admin.ID, newTutoring(env.tutor.ID, core.NewID()))
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "tutee_id", vErr.Fields[0].Field)
	})

	t.Run("duplicate active pair", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.service()
		_, err := svc.Create(ctx, env.admin.ID, newTutoring(env.tutor.ID, env.tutee.ID))
		require.NoError(t, err)
		_, err = svc.Create(ctx, env.admin.ID, newTutoring(env.tutor.ID, env.tutee.ID))
		assert.Equal(t, tutoring.ErrDuplicate, err)
	})

	t.Run("tutor limit", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.service()
		_, err := svc.Create(ctx, env.admin.ID, newTutoring(env.otherTutor.ID, env.tutee.ID))
		require.NoError(t, err)

		_, err = svc.Create(ctx, env.admin.ID, newTutoring(env.otherTutor.ID, env.otherTutee.ID))
		var cErr *core.Error
		require.True(t, errors.As(err, &cErr))
		assert.Equal(t, "tutoring.limit_reached", cErr.Key)
		assert.Equal(t, []string{"1"}, cErr.Params)
		assert.True(t, errors.Is(err, core.ErrInvalidState))

		n, err := env.tRepo.CountTutorings(ctx, &tutoring.QueryFilter{TutorID: env.otherTutor.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("finished tutorings do not count towards the limit", func(t *testing.T) {
		env := newTestEnv(t)
		svc := env.service()
		first, err := svc.Create(ctx, env.admin.ID, newTutoring(env.otherTutor.ID, env.tutee.ID))
		require.NoError(t, err)
		first.Status = tutoring.StatusCompleted
		_, err = env.tRepo.UpdateTutoring(ctx, first)
		require.NoError(t, err)

		_, err = svc.Create(ctx, env.admin.ID, newTutoring(env.otherTutor.ID, env.tutee.ID))
		assert.NoError(t, err)
	})
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createTutoring(t, env.tutor, env.tutee)
	env.createTutoring(t, env.tutor, env.otherTutee)
	env.createTutoring(t, env.otherTutor, env.tutee)

	tests := []struct {
		name   string
		filter *tutoring.QueryFilter
		want   int
	}{
		{"all", nil, 3},
		{"by tutor", &tutoring.QueryFilter{TutorID: env.tutor.ID}, 2},
		{"by tutee", &tutoring.QueryFilter{TuteeID: env.tutee.ID}, 2},
		{"by participant", &tutoring.QueryFilter{ParticipantID: env.otherTutee.ID}, 1},
		{"by status", &tutoring.QueryFilter{Status: string(tutoring.StatusCancelled)}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.service().Query(ctx, tc.filter, nil)
			require.NoError(t, err)
			assert.Len(t, got, tc.want)
		})
	}
}
