package report

import (
	"bytes"
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const (
	gmailComposeURL    = "https://mail.google.com/mail/?view=cm&fs=1"
	reportTemplateName = "attendance_report"
)

// ShareData feeds the attendance_report email templates.
type ShareData struct {
	Subject           string
	ClassID           string
	Teacher           string
	Date              string
	Time              string
	Total             int
	Present           int
	Absent            int
	PresentPercentage int
}

func newShareData(stats attendance.Stats, meta Meta) ShareData {
	return ShareData{
		Subject:           meta.Subject,
		ClassID:           meta.ClassID,
		Teacher:           meta.Teacher,
		Date:              meta.dateStr(),
		Time:              meta.timeStr(),
		Total:             stats.Total,
		Present:           stats.Present,
		Absent:            stats.Absent,
		PresentPercentage: stats.PresentPercentage,
	}
}

func shareSubject(meta Meta) string {
	name := meta.Subject
	if name == "" {
		name = meta.ClassID
	}
	return fmt.Sprintf("Attendance Report - %s - %s", name, meta.dateStr())
}

func shareBody(stats attendance.Stats, meta Meta) string {
	var b strings.Builder
	b.WriteString("Dear Recipient,\n\n")
	fmt.Fprintf(&b, "Please find attached the attendance report for %s taken on %s at %s.\n\n",
		firstNonEmpty(meta.Subject, meta.ClassID), meta.dateStr(), meta.timeStr())
	b.WriteString("Attendance Summary:\n")
	fmt.Fprintf(&b, "- Total Students: %d\n", stats.Total)
	fmt.Fprintf(&b, "- Present: %d\n", stats.Present)
	fmt.Fprintf(&b, "- Absent: %d\n", stats.Absent)
	fmt.Fprintf(&b, "- Attendance Rate: %d%%\n\n", stats.PresentPercentage)
	b.WriteString("Best regards,\n")
	b.WriteString(firstNonEmpty(meta.Teacher, meta.Subject))
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Share is what sharing a report produces: the email to send and a Gmail compose link for the same message.
type Share struct {
	Message  *core.EmailMessage
	GmailURL string
}

// NewShare builds the report email with doc attached, addressed to recipients.
// stats describe the whole ResultSet.
func NewShare(recipients []mail.Address, doc Document, stats attendance.Stats, meta Meta) (Share, error) {
	if len(recipients) == 0 {
		return Share{}, errors.New("no recipients")
	}

	msg := &core.EmailMessage{
		To:           recipients,
		Subject:      shareSubject(meta),
		TemplateName: reportTemplateName,
		TemplateData: newShareData(stats, meta),
	}
	if err := msg.Attach(bytes.NewReader(doc.Content), doc.FileName, doc.ContentType); err != nil {
		return Share{}, errors.Wrap(err, "attaching report")
	}

	return Share{
		Message:  msg,
		GmailURL: GmailComposeURL(recipients, msg.Subject, shareBody(stats, meta)),
	}, nil
}

// encodeURIComponent escapes s for use as a query value, encoding spaces as %20.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// GmailComposeURL links to Gmail's compose window pre-filled with recipients, subject and body.
func GmailComposeURL(recipients []mail.Address, subject, body string) string {
	addrs := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addrs = append(addrs, encodeURIComponent(r.Address))
	}
	return gmailComposeURL +
		"&to=" + strings.Join(addrs, ",") +
		"&su=" + encodeURIComponent(subject) +
		"&body=" + encodeURIComponent(body)
}
