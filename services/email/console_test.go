package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/testutil"
)

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	core.ParseEmailTemplates(testutil.NopLogger{})
	ResetSentMessages()
	svc := NewConsoleServiceMock(core.NewTestConfig(), testutil.NopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:      []mail.Address{{Name: "Ana", Address: "ana@mail.com"}},
			Subject: "Hola",
			BodyStr: "texto plano",
		},
		// no recipients: skipped
		&core.EmailMessage{Subject: "Nadie", BodyStr: "x"},
		&core.EmailMessage{
			To:           []mail.Address{{Address: "luis@mail.com"}},
			Subject:      "Tutoría completada",
			TemplateName: "tutoring_completed",
			TemplateData: map[string]string{
				"RecipientName": "Luis",
				"TutorName":     "Ana Tutor",
				"TuteeName":     "Luis Tutee",
				"Comments":      "",
				"TutoringID":    "t-1",
			},
		},
	)

	sent := GetSentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "texto plano", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)
	assert.Contains(t, sent[1].TextContent, "Luis")
	assert.Contains(t, sent[1].TextContent, "http://localhost:3000/tutorings/t-1")
	assert.Contains(t, sent[1].HTMLContent, "<strong>")
}

func TestConsoleService_send(t *testing.T) {
	var out bytes.Buffer
	svc := consoleService{
		defaultFromEmail: mail.Address{Name: "Tutorías", Address: "noreply@mail.com"},
		subjPrefix:       "[Tutorías] ",
		out:              &out,
		logger:           testutil.NopLogger{},
	}

	err := svc.send(core.EmailMessage{
		To:          []mail.Address{{Address: "ana@mail.com"}},
		Subject:     "Tutoría cancelada",
		TextContent: "sin disponibilidad",
		Metadata:    map[string]string{"tutoring_id": "t-1", "status": "Cancelada"},
	})
	require.NoError(t, err)

	body := out.String()
	assert.Contains(t, body, "Subject: [Tutorías] Tutoría cancelada")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "X-Status: Cancelada\r\nX-Tutoring-Id: t-1\r\n")
	assert.Contains(t, body, "sin disponibilidad")
	assert.False(t, strings.Contains(body, "text/html"))
}
