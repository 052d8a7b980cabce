package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/tutoring"
)

func Test_errorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing jwt", middleware.ErrJWTMissing, http.StatusUnauthorized},
		{"echo error", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed},
		{"validation", core.NewValidationError(nil, core.FieldError{Field: "name", Error: "x"}), http.StatusBadRequest},
		{"invalid argument", tutoring.ErrSameUser, http.StatusBadRequest},
		{"forbidden", errors.Wrap(tutoring.ErrCancelForbidden, "cancelling"), http.StatusForbidden},
		{"not found", errors.Wrap(errors.Wrap(tutoring.ErrNotFound, "a"), "b"), http.StatusNotFound},
		{"invalid state", tutoring.ErrNotActive, http.StatusConflict},
		{"unknown kind", core.NewError(errors.New("weird"), "general.server_error"), http.StatusInternalServerError},
		{"anything else", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errorStatus(tc.err))
		})
	}
}

func Test_acceptedLocales(t *testing.T) {
	tests := []struct {
		header string
		want   []string
	}{
		{"", nil},
		{"*", nil},
		{"es", []string{"es"}},
		{"en-US,en;q=0.9,es;q=0.8", []string{"en", "en", "es"}},
		{" ES-pe ; q=1 , fr", []string{"es", "fr"}},
	}
	for _, tc := range tests {
		t.Run(tc.header, func(t *testing.T) {
			assert.Equal(t, tc.want, acceptedLocales(tc.header))
		})
	}
}

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{})       {}
func (l *recordingLogger) Info(string, ...interface{})        {}
func (l *recordingLogger) Warn(string, ...interface{})        {}
func (l *recordingLogger) Fatal(string, ...interface{})       {}
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func Test_appHTTPErrorHandler_shutdown(t *testing.T) {
	logger := new(recordingLogger)
	var signalled bool
	handler := newAppHTTPErrorHandler(logger, func() { signalled = true })

	e := echo.New()
	for _, err := range []error{errors.New("boom"), errors.Wrap(core.NewShutdownError("integrity"), "saving")} {
		req := httptest.NewRequest(http.MethodGet, "/api/chapter", nil)
		rec := httptest.NewRecorder()
		handler(err, e.NewContext(req, rec))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"message":"general.server_error"}`, rec.Body.String())
	}
	assert.Len(t, logger.errors, 2)
	assert.True(t, signalled)
}
