package tutoring

import (
	"net/mail"

	"github.com/sistematutorias/tutorias/core"
	"github.com/sistematutorias/tutorias/core/user"
)

// StatusNotice is the template data of the tutoring status emails.
type StatusNotice struct {
	RecipientName string
	TutorName     string
	TuteeName     string
	Comments      string
	TutoringID    string
}

type notifier struct {
	mailSvc core.EmailService
}

func newNotifier(mailSvc core.EmailService) *notifier {
	return &notifier{mailSvc: mailSvc}
}

func (n *notifier) tutoringCompleted(t Tutoring) {
	n.send(t, "tutoring_completed", "Tutoría completada", "")
}

func (n *notifier) tutoringCancelled(t Tutoring, comments string) {
	n.send(t, "tutoring_cancelled", "Tutoría cancelada", comments)
}

// send emails both participants of t.
func (n *notifier) send(t Tutoring, tmpl, subject, comments string) {
	if n.mailSvc == nil {
		return
	}
	recipients := []user.User{t.Tutor, t.Tutee}
	messages := make([]*core.EmailMessage, 0, len(recipients))
	for _, usr := range recipients {
		if usr.Email == "" {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
			Subject:      subject,
			Metadata:     map[string]string{"tutoring_id": t.ID, "status": string(t.Status)},
			TemplateName: tmpl,
			TemplateData: StatusNotice{
				RecipientName: usr.FirstName,
				TutorName:     t.Tutor.FullName(),
				TuteeName:     t.Tutee.FullName(),
				Comments:      comments,
				TutoringID:    t.ID,
			},
		})
	}
	n.mailSvc.SendMessages(messages...)
}
