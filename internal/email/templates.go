package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"reason": ReasonLabel,
	"when": func(t time.Time) string {
		return t.UTC().Format("Mon Jan 2, 15:04 MST")
	},
}

type baseEmailData struct {
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type followupReminderEmailData struct {
	baseEmailData
	FollowupReminder
}

type followupDigestEmailData struct {
	baseEmailData
	FollowupDigest
}

type openHouseLeadEmailData struct {
	baseEmailData
	OpenHouseLeadNotice
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// ReasonLabel turns a followup reason code into reader-facing text.
func ReasonLabel(reason string) string {
	switch reason {
	case "contact_agent":
		return "asked to be contacted"
	case "booking_request":
		return "requested a viewing"
	case "hot_lead":
		return "became a hot lead"
	}
	return strings.ReplaceAll(reason, "_", " ")
}
