package emailsvc

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/testutil"
)

type sgPayload struct {
	Personalizations []struct {
		To []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"to"`
		Subject string `json:"subject"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
	Categories []string          `json:"categories"`
	CustomArgs map[string]string `json:"custom_args"`
}

func newTestSendgridService(t *testing.T, status int) (*sendgridService, *sgPayload) {
	t.Helper()
	got := new(sgPayload)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, got))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"errors":[]}`))
	}))
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig()
	conf.SendgridApiKey = "sg-key"
	svc := NewSendgridService(conf, testutil.NopLogger{}).(*sendgridService)
	svc.host = srv.URL
	return svc, got
}

func TestSendgridService_deliver(t *testing.T) {
	core.ParseEmailTemplates(testutil.NopLogger{})

	t.Run("one personalization per participant, tagged with the tutoring", func(t *testing.T) {
		svc, got := newTestSendgridService(t, http.StatusAccepted)

		err := svc.deliver(&core.EmailMessage{
			To:           []mail.Address{{Name: "Ana Tutor", Address: "ana@mail.com"}, {Address: "luis@mail.com"}},
			Subject:      "Tutoría cancelada",
			Metadata:     map[string]string{"tutoring_id": "t-1", "status": "Cancelada"},
			TemplateName: "tutoring_cancelled",
			TemplateData: map[string]string{
				"RecipientName": "Ana",
				"TutorName":     "Ana Tutor",
				"TuteeName":     "Luis Tutee",
				"Comments":      "Sin disponibilidad",
				"TutoringID":    "t-1",
			},
		})
		require.NoError(t, err)

		require.Len(t, got.Personalizations, 2)
		assert.Equal(t, "ana@mail.com", got.Personalizations[0].To[0].Email)
		assert.Equal(t, "Ana Tutor", got.Personalizations[0].To[0].Name)
		assert.Equal(t, "luis@mail.com", got.Personalizations[1].To[0].Email)
		assert.Equal(t, "[Sistema de Tutorías] Tutoría cancelada", got.Personalizations[1].Subject)

		require.Len(t, got.Content, 2)
		assert.Equal(t, "text/plain", got.Content[0].Type)
		assert.Contains(t, got.Content[0].Value, "Sin disponibilidad")
		assert.Equal(t, "text/html", got.Content[1].Type)

		assert.Equal(t, []string{deliveryCategory, "tutoring_cancelled"}, got.Categories)
		assert.Equal(t, map[string]string{"tutoring_id": "t-1", "status": "Cancelada"}, got.CustomArgs)
	})

	t.Run("plain body without html", func(t *testing.T) {
		svc, got := newTestSendgridService(t, http.StatusAccepted)

		err := svc.deliver(&core.EmailMessage{To: []mail.Address{{Address: "ana@mail.com"}}, Subject: "Hola", BodyStr: "texto"})
		require.NoError(t, err)
		require.Len(t, got.Content, 1)
		assert.Equal(t, "texto", got.Content[0].Value)
		assert.Equal(t, []string{deliveryCategory}, got.Categories)
		assert.Empty(t, got.CustomArgs)
	})

	t.Run("rejected", func(t *testing.T) {
		svc, _ := newTestSendgridService(t, http.StatusBadRequest)

		err := svc.deliver(&core.EmailMessage{To: []mail.Address{{Address: "ana@mail.com"}}, Subject: "Hola", BodyStr: "texto"})
		assert.EqualError(t, err, `sendgrid rejected email: status 400: {"errors":[]}`)
	})

	t.Run("nothing to send", func(t *testing.T) {
		svc := NewSendgridService(core.NewTestConfig(), testutil.NopLogger{}).(*sendgridService)
		svc.host = "http://127.0.0.1:0"

		assert.NoError(t, svc.deliver(&core.EmailMessage{Subject: "Nadie", BodyStr: "x"}))
		assert.NoError(t, svc.deliver(&core.EmailMessage{To: []mail.Address{{Address: "ana@mail.com"}}}))
	})
}
