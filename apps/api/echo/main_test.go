package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/apps/api/echo"
	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/chapter"
	"github.com/sistematutorias/tutorias/core/tutoring"
	"github.com/sistematutorias/tutorias/core/user"
	"github.com/sistematutorias/tutorias/services/email"
	"github.com/sistematutorias/tutorias/storage/database/inmem"
	"github.com/sistematutorias/tutorias/testutil"
)

const testPassword = "Tut0r!as-2024"

type testApp struct {
	srv  *echoapi.Server
	conf *core.Config

	chRepo  chapter.Repository
	usrRepo user.Repository
	tRepo   tutoring.Repository
	fbRepo  tutoring.FeedbackRepository
	sRepo   tutoring.SessionRepository

	chapter             chapter.Chapter
	admin, tutor, tutee user.User
}

// setup builds a Server backed by the in-memory store, seeded with one chapter and an admin, a tutor and a tutee.
func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	logger := testutil.NopLogger{}
	db := inmemdb.Open()
	app := &testApp{
		conf:    conf,
		chRepo:  inmemdb.NewChapterRepository(db),
		usrRepo: inmemdb.NewUserRepository(db),
		tRepo:   inmemdb.NewTutoringRepository(db),
		fbRepo:  inmemdb.NewFeedbackRepository(db),
		sRepo:   inmemdb.NewSessionRepository(db),
	}

	validate := validator.New()
	uni, err := core.NewUniversalTranslator(conf.Locale)
	require.NoError(t, err)
	core.InitValidators(validate, uni)
	user.InitValidators(validate, uni)
	core.ParseEmailTemplates(logger)
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)

	app.srv = echoapi.NewServer(
		&echoapi.Options{DisableReqLogs: true},
		&echoapi.Deps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Uni:         uni,
			ChapterSvc:  chapter.NewService(app.chRepo),
			UserSvc:     user.NewService(app.usrRepo, app.chRepo, logger),
			TutoringSvc: tutoring.NewService(db, app.tRepo, app.usrRepo, logger),
			StatusSvc:   tutoring.NewStatusService(db, app.tRepo, app.fbRepo, app.usrRepo, mailSvc, logger),
			FeedbackSvc: tutoring.NewFeedbackService(app.fbRepo, app.tRepo, app.usrRepo, logger),
			SessionSvc:  tutoring.NewSessionService(app.sRepo, app.tRepo, app.usrRepo, logger),
		},
	)

	app.chapter = testutil.CreateChapter(t, app.chRepo, "Lima")
	app.admin = testutil.CreateUser(t, app.usrRepo, app.chapter, "Ana", "ana@mail.com", testPassword, user.RoleAdmin, 0, true)
	app.tutor = testutil.CreateUser(t, app.usrRepo, app.chapter, "Tomás", "tomas@mail.com", testPassword, user.RoleTutor, 2, true)
	app.tutee = testutil.CreateUser(t, app.usrRepo, app.chapter, "Lucía", "lucia@mail.com", testPassword, user.RoleTutee, 0, true)
	return app
}

type envelope struct {
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantMsg  string
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, usr))
	require.NoError(t, err)
	return token
}

// request sends body, JSON encoded unless it is a string, and decodes the response envelope.
func (app *testApp) request(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json; charset=UTF-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (app *testApp) runTests(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec, env := app.request(t, method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, env.Message)
			}
		})
	}
}

// decodeData unmarshals the envelope data into v.
func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}
