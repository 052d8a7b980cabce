package tutoring_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sistematutorias/tutorias/core"
	mockcore "github.com/sistematutorias/tutorias/core/mock"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
	"github.com/sistematutorias/tutorias/testutil"
)

func (env *testEnv) statusService(mailSvc core.EmailService) tutoring.StatusService {
	return tutoring.NewStatusService(env.db, env.tRepo, env.fbRepo, env.usrRepo, mailSvc, testutil.NopLogger{})
}

func (env *testEnv) leaveFeedback(t *testing.T, tut tutoring.Tutoring, evaluator user.User) {
	t.Helper()
	svc := tutoring.NewFeedbackService(env.fbRepo, env.tRepo, env.usrRepo, testutil.NopLogger{})
	_, err := svc.Create(context.Background(), evaluator.ID, tutoring.NewFeedback{TutoringID: tut.ID, Score: "5", Comments: "Bien"})
	require.NoError(t, err)
}

// interleavedRepo runs beforeClose once, right before the first status change reaches the store.
type interleavedRepo struct {
	tutoring.Repository
	beforeClose func()
}

func (r *interleavedRepo) CloseTutoring(ctx context.Context, id string, status tutoring.Status, at time.Time, exec ...core.DBExecutor) (tutoring.Tutoring, error) {
	if f := r.beforeClose; f != nil {
		r.beforeClose = nil
		f()
	}
	return r.Repository.CloseTutoring(ctx, id, status, at, exec...)
}

// interleavedFeedbacks runs onQuery once, the first time feedbacks are queried.
type interleavedFeedbacks struct {
	tutoring.FeedbackRepository
	onQuery func()
}

func (r *interleavedFeedbacks) QueryFeedbacks(ctx context.Context, filter *tutoring.FeedbackFilter, exec ...core.DBExecutor) ([]tutoring.Feedback, error) {
	if f := r.onQuery; f != nil {
		r.onQuery = nil
		f()
	}
	return r.FeedbackRepository.QueryFeedbacks(ctx, filter, exec...)
}

func (env *testEnv) cancellationFeedbacks(t *testing.T, tut tutoring.Tutoring) []tutoring.Feedback {
	t.Helper()
	fbs, err := env.fbRepo.QueryFeedbacks(context.Background(), &tutoring.FeedbackFilter{TutoringID: tut.ID, EvaluatorID: env.admin.ID})
	require.NoError(t, err)
	return fbs
}

// expectNotices expects one email per participant using tmpl.
func expectNotices(t *testing.T, tmpl string, check func(msgs []*core.EmailMessage)) *mockcore.MockEmailService {
	mailSvc := mockcore.NewMockEmailService(gomock.NewController(t))
	mailSvc.EXPECT().SendMessages(gomock.Any(), gomock.Any()).Do(func(msgs ...*core.EmailMessage) {
		for _, msg := range msgs {
			assert.Equal(t, tmpl, msg.TemplateName)
		}
		check(msgs)
	})
	return mailSvc
}

func TestStatusService_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("missing feedbacks are reported tutor first", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		svc := env.statusService(nil)

		_, err := svc.Complete(ctx, tut.ID, env.tutor.ID)
		assert.Equal(t, tutoring.ErrMissingTutorFeedback, err)

		env.leaveFeedback(t, tut, env.tutee)
		_, err = svc.Complete(ctx, tut.ID, env.tutor.ID)
		assert.Equal(t, tutoring.ErrMissingTutorFeedback, err)

	})

	t.Run("missing tutee feedback", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		env.leaveFeedback(t, tut, env.tutor)

		_, err := env.statusService(nil).Complete(ctx, tut.ID, env.admin.ID)
		assert.Equal(t, tutoring.ErrMissingTuteeFeedback, err)
	})

	t.Run("assigned tutor completes and both participants are notified", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		env.leaveFeedback(t, tut, env.tutor)
		env.leaveFeedback(t, tut, env.tutee)

		mailSvc := expectNotices(t, "tutoring_completed", func(msgs []*core.EmailMessage) {
			assert.Equal(t, env.tutor.Email, msgs[0].To[0].Address)
			assert.Equal(t, env.tutee.Email, msgs[1].To[0].Address)
		})

		got, err := env.statusService(mailSvc).Complete(ctx, tut.ID, env.tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusCompleted, got.Status)

		_, err = env.statusService(nil).Complete(ctx, tut.ID, env.tutor.ID)
		assert.Equal(t, tutoring.ErrNotActive, err)
	})

	t.Run("permissions", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		svc := env.statusService(nil)

		for _, usr := range []user.User{env.tutee, env.otherTutor} {
			_, err := svc.Complete(ctx, tut.ID, usr.ID)
			assert.Equal(t, tutoring.ErrCompleteForbidden, err, usr.FirstName)
		}
		_, err := svc.Complete(ctx, core.NewID(), env.tutor.ID)
		assert.Equal(t, tutoring.ErrNotFound, err)
		_, err = svc.Complete(ctx, tut.ID, core.NewID())
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("cancelled tutorings cannot be completed", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		env.leaveFeedback(t, tut, env.tutor)
		env.leaveFeedback(t, tut, env.tutee)
		svc := env.statusService(nil)
		_, err := svc.Cancel(ctx, tut.ID, env.admin.ID, "")
		require.NoError(t, err)

		_, err = svc.Complete(ctx, tut.ID, env.admin.ID)
		assert.Equal(t, tutoring.ErrNotActive, err)

		got, err := env.tRepo.GetTutoring(ctx, tut.ID)
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusCancelled, got.Status)
	})

	tests := []struct {
		name  string
		build func(env *testEnv, cancel func()) tutoring.StatusService
	}{
		{
			name: "cancelled while feedbacks are checked",
			build: func(env *testEnv, cancel func()) tutoring.StatusService {
				fbRepo := &interleavedFeedbacks{FeedbackRepository: env.fbRepo, onQuery: cancel}
				return tutoring.NewStatusService(env.db, env.tRepo, fbRepo, env.usrRepo, nil, testutil.NopLogger{})
			},
		},
		{
			name: "cancelled right before the status is written",
			build: func(env *testEnv, cancel func()) tutoring.StatusService {
				repo := &interleavedRepo{Repository: env.tRepo, beforeClose: cancel}
				return tutoring.NewStatusService(env.db, repo, env.fbRepo, env.usrRepo, nil, testutil.NopLogger{})
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			tut := env.createTutoring(t, env.tutor, env.tutee)
			env.leaveFeedback(t, tut, env.tutor)
			env.leaveFeedback(t, tut, env.tutee)

			svc := tc.build(env, func() {
				_, err := env.statusService(nil).Cancel(ctx, tut.ID, env.admin.ID, "")
				require.NoError(t, err)
			})

			_, err := svc.Complete(ctx, tut.ID, env.tutor.ID)
			assert.Equal(t, tutoring.ErrNotActive, err)

			got, err := env.tRepo.GetTutoring(ctx, tut.ID)
			require.NoError(t, err)
			assert.Equal(t, tutoring.StatusCancelled, got.Status)
			assert.Len(t, env.cancellationFeedbacks(t, tut), 1)
		})
	}
}

func TestStatusService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("admin cancels with a reason", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)

		mailSvc := expectNotices(t, "tutoring_cancelled", func(msgs []*core.EmailMessage) {
			notice, ok := msgs[0].TemplateData.(tutoring.StatusNotice)
			require.True(t, ok)
			assert.Equal(t, "Sin disponibilidad", notice.Comments)
			assert.Equal(t, tut.ID, notice.TutoringID)
		})

		got, err := env.statusService(mailSvc).Cancel(ctx, tut.ID, env.admin.ID, "  Sin disponibilidad ")
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusCancelled, got.Status)

		fbs, err := env.fbRepo.QueryFeedbacks(ctx, &tutoring.FeedbackFilter{TutoringID: tut.ID})
		require.NoError(t, err)
		require.Len(t, fbs, 1)
		assert.Equal(t, env.admin.ID, fbs[0].Evaluator.ID)
		assert.Equal(t, tutoring.CancellationScore, fbs[0].Score)
		assert.Equal(t, "Sin disponibilidad", fbs[0].Comments)
	})

	t.Run("blank comments fall back to the default", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)

		_, err := env.statusService(nil).Cancel(ctx, tut.ID, env.admin.ID, "   ")
		require.NoError(t, err)

		fbs, err := env.fbRepo.QueryFeedbacks(ctx, &tutoring.FeedbackFilter{TutoringID: tut.ID})
		require.NoError(t, err)
		require.Len(t, fbs, 1)
		assert.Equal(t, tutoring.CancellationComment, fbs[0].Comments)
	})

	t.Run("only administrators cancel", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)

		_, err := env.statusService(nil).Cancel(ctx, tut.ID, env.tutor.ID, "x")
		assert.Equal(t, tutoring.ErrCancelForbidden, err)

		got, err := env.tRepo.GetTutoring(ctx, tut.ID)
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusActive, got.Status)
		fbs, err := env.fbRepo.QueryFeedbacks(ctx, &tutoring.FeedbackFilter{TutoringID: tut.ID})
		require.NoError(t, err)
		assert.Empty(t, fbs)
	})

	t.Run("finished tutorings cannot be cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		svc := env.statusService(nil)
		_, err := svc.Cancel(ctx, tut.ID, env.admin.ID, "")
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, tut.ID, env.admin.ID, "")
		assert.Equal(t, tutoring.ErrNotActive, err)
		assert.Len(t, env.cancellationFeedbacks(t, tut), 1)
	})

	t.Run("completed tutorings cannot be cancelled", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)
		env.leaveFeedback(t, tut, env.tutor)
		env.leaveFeedback(t, tut, env.tutee)
		svc := env.statusService(nil)
		_, err := svc.Complete(ctx, tut.ID, env.tutor.ID)
		require.NoError(t, err)

		_, err = svc.Cancel(ctx, tut.ID, env.admin.ID, "")
		assert.Equal(t, tutoring.ErrNotActive, err)

		got, err := env.tRepo.GetTutoring(ctx, tut.ID)
		require.NoError(t, err)
		assert.Equal(t, tutoring.StatusCompleted, got.Status)
		assert.Empty(t, env.cancellationFeedbacks(t, tut))
	})

	t.Run("concurrent cancellations write a single feedback", func(t *testing.T) {
		env := newTestEnv(t)
		tut := env.createTutoring(t, env.tutor, env.tutee)

		repo := &interleavedRepo{Repository: env.tRepo}
		repo.beforeClose = func() {
			_, err := env.statusService(nil).Cancel(ctx, tut.ID, env.admin.ID, "primero")
			require.NoError(t, err)
		}
		svc := tutoring.NewStatusService(env.db, repo, env.fbRepo, env.usrRepo, nil, testutil.NopLogger{})

		_, err := svc.Cancel(ctx, tut.ID, env.admin.ID, "segundo")
		assert.Equal(t, tutoring.ErrNotActive, err)

		fbs := env.cancellationFeedbacks(t, tut)
		require.Len(t, fbs, 1)
		assert.Equal(t, "primero", fbs[0].Comments)
	})
}
