package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
	"github.com/sistematutorias/tutorias/testutil"
)

func Test_feedbackApi(t *testing.T) {
	app := setup(t)
	outsider := testutil.CreateUser(t, app.usrRepo, app.chapter, "Olga", "olga@mail.com", "", user.RoleTutee, 0, true)
	tut := app.createTutoring(t, app.admin, app.tutor, app.tutee)

	app.runTests(t, []httpTest{
		{
			name: "outsider forbidden", method: http.MethodPost, path: "/api/feedback", token: app.getToken(t, outsider),
			body:     tutoring.NewFeedback{TutoringID: tut.ID, Score: "10", Comments: "Hola"},
			wantCode: http.StatusForbidden, wantMsg: "Solo los participantes de la tutoría o un administrador pueden registrar feedback",
		},
		{
			name: "blank comments", method: http.MethodPost, path: "/api/feedback", token: app.getToken(t, app.tutee),
			body: tutoring.NewFeedback{TutoringID: tut.ID, Score: "10", Comments: "   "}, wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown tutoring", method: http.MethodPost, path: "/api/feedback", token: app.getToken(t, app.tutee),
			body: tutoring.NewFeedback{TutoringID: "unknown", Score: "10", Comments: "Hola"}, wantCode: http.StatusNotFound,
		},
	})

	fb := app.leaveFeedback(t, app.tutee, tut.ID)
	assert.Equal(t, app.tutee.ID, fb.Evaluator.ID)
	assert.WithinDuration(t, time.Now(), fb.EvaluationDate, time.Minute)

	app.runTests(t, []httpTest{
		{name: "participant", path: "/api/feedback/" + fb.ID, token: app.getToken(t, app.tutor), wantCode: http.StatusOK},
		{
			name: "outsider", path: "/api/feedback/" + fb.ID, token: app.getToken(t, outsider),
			wantCode: http.StatusNotFound, wantMsg: "El feedback no existe",
		},
	})

	for _, tc := range []struct {
		name string
		usr  user.User
		want int
	}{
		{"admin", app.admin, 1},
		{"tutor", app.tutor, 1},
		{"outsider", outsider, 0},
	} {
		t.Run("list as "+tc.name, func(t *testing.T) {
			rec, env := app.request(t, http.MethodGet, "/api/feedback?tutoring_id="+tut.ID, app.getToken(t, tc.usr), nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var feedbacks []tutoring.Feedback
			decodeData(t, env, &feedbacks)
			assert.Len(t, feedbacks, tc.want)
		})
	}
}

func Test_sessionApi(t *testing.T) {
	app := setup(t)
	tut := app.createTutoring(t, app.admin, app.tutor, app.tutee)
	newSession := tutoring.NewSession{
		TutoringID:      tut.ID,
		Datetime:        time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		DurationMinutes: 60,
		LocationLink:    "https://meet.example.com/abc",
		TopicsCovered:   "Fracciones",
	}

	zeroDuration := newSession
	zeroDuration.DurationMinutes = 0
	app.runTests(t, []httpTest{
		{
			name: "tutee forbidden", method: http.MethodPost, path: "/api/tutoring-session", body: newSession,
			token: app.getToken(t, app.tutee), wantCode: http.StatusForbidden,
			wantMsg: "Solo el tutor asignado o un administrador pueden gestionar las sesiones",
		},
		{
			name: "zero duration", method: http.MethodPost, path: "/api/tutoring-session", body: zeroDuration,
			token: app.getToken(t, app.tutor), wantCode: http.StatusBadRequest,
		},
	})

	rec, env := app.request(t, http.MethodPost, "/api/tutoring-session", app.getToken(t, app.tutor), newSession)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var s tutoring.Session
	decodeData(t, env, &s)
	assert.Equal(t, tutoring.SessionScheduled, s.Status)
	path := "/api/tutoring-session/" + s.ID + "/status"

	app.runTests(t, []httpTest{
		{name: "tutee can see it", path: "/api/tutoring-session/" + s.ID, token: app.getToken(t, app.tutee), wantCode: http.StatusOK},
		{
			name: "back to scheduled", method: http.MethodPatch, path: path, token: app.getToken(t, app.tutor),
			body: tutoring.UpdateSessionStatus{Status: tutoring.SessionScheduled}, wantCode: http.StatusBadRequest,
		},
		{
			name: "tutee cannot update", method: http.MethodPatch, path: path, token: app.getToken(t, app.tutee),
			body: tutoring.UpdateSessionStatus{Status: tutoring.SessionDone}, wantCode: http.StatusForbidden,
		},
		{
			name: "done", method: http.MethodPatch, path: path, token: app.getToken(t, app.tutor),
			body:     tutoring.UpdateSessionStatus{Status: tutoring.SessionDone, Notes: "Repasamos fracciones"},
			wantCode: http.StatusOK, wantMsg: "Sesión de tutoría actualizada con éxito",
		},
		{
			name: "done sessions are final", method: http.MethodPatch, path: path, token: app.getToken(t, app.admin),
			body:     tutoring.UpdateSessionStatus{Status: tutoring.SessionCancelled},
			wantCode: http.StatusConflict, wantMsg: "La sesión solo puede pasar de Programada a Realizada o Cancelada",
		},
	})

	rec, env = app.request(t, http.MethodGet, "/api/tutoring-session?status=Realizada", app.getToken(t, app.tutee), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sessions []tutoring.Session
	decodeData(t, env, &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Repasamos fracciones", sessions[0].Notes)
}
