package tutoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/testutil"
)

func TestFeedbackService(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := tutoring.NewFeedbackService(env.fbRepo, env.tRepo, env.usrRepo, testutil.NopLogger{})
	tut := env.createTutoring(t, env.tutor, env.tutee)
	other := env.createTutoring(t, env.otherTutor, env.otherTutee)

	t.Run("create", func(t *testing.T) {
		fb, err := svc.Create(ctx, env.tutee.ID, tutoring.NewFeedback{TutoringID: tut.ID, Score: "4", Comments: "Muy claro"})
		require.NoError(t, err)
		assert.Equal(t, env.tutee.ID, fb.Evaluator.ID)
		assert.False(t, fb.EvaluationDate.IsZero())

		_, err = svc.Create(ctx, env.otherTutee.ID, tutoring.NewFeedback{TutoringID: tut.ID, Score: "1", Comments: "x"})
		assert.Equal(t, tutoring.ErrFeedbackForbidden, err)

		_, err = svc.Create(ctx, env.admin.ID, tutoring.NewFeedback{TutoringID: other.ID, Score: "3", Comments: "Seguimiento"})
		assert.NoError(t, err)

		_, err = svc.Create(ctx, env.tutor.ID, tutoring.NewFeedback{TutoringID: "missing", Score: "3", Comments: "x"})
		assert.Equal(t, tutoring.ErrNotFound, err)
	})

	t.Run("finished tutorings reject feedback", func(t *testing.T) {
		done := env.createTutoring(t, env.tutor, env.otherTutee)
		done.Status = tutoring.StatusCompleted
		_, err := env.tRepo.UpdateTutoring(ctx, done)
		require.NoError(t, err)

		_, err = svc.Create(ctx, env.tutor.ID, tutoring.NewFeedback{TutoringID: done.ID, Score: "5", Comments: "x"})
		assert.Equal(t, tutoring.ErrFeedbackNotActive, err)
	})

	t.Run("visibility", func(t *testing.T) {
		all, err := svc.Query(ctx, env.admin, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := svc.Query(ctx, env.tutee, nil)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, tut.ID, mine[0].TutoringID)

		// a filter on someone else's tutoring is still narrowed down to the requester's own
		none, err := svc.Query(ctx, env.tutee, &tutoring.FeedbackFilter{TutoringID: other.ID})
		require.NoError(t, err)
		assert.Empty(t, none)

		got, err := svc.GetByID(ctx, mine[0].ID)
		require.NoError(t, err)
		assert.Equal(t, mine[0].ID, got.ID)
	})
}
