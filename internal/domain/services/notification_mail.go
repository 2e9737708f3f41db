package services

import (
	"bytes"
	"document-access/internal/domain/entities"
	"fmt"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
)

type mailKind int

const (
	mailGrant mailKind = iota
	mailExpiry
)

// MailItem is one document line of a notification.
type MailItem struct {
	RecordID string
	Title    string
	Rejected bool
	Reason   string
	// EndTime is zero for unlimited access.
	EndTime time.Time
}

func newMailItem(rec *entities.AccessRecord, doc *entities.Document, loc *time.Location) MailItem {
	item := MailItem{
		RecordID: rec.RecordID,
		Title:    doc.Title,
		Rejected: rec.Rejected,
		Reason:   rec.RejectedReason,
	}
	if item.RecordID == "" {
		item.RecordID = doc.RecordID
	}
	if rec.EndTime != 0 {
		item.EndTime = time.Unix(rec.EndTime, 0).In(loc)
	}
	return item
}

type mailData struct {
	FullName string
	LoginURL string
	Items    []MailItem
}

var mailFuncs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("02.01.2006") },
}

// Bodies are markdown; the HTML part is rendered from the same text.
var mailTemplates = map[mailKind]*template.Template{
	mailGrant: template.Must(template.New("grant").Funcs(mailFuncs).Parse(`Hello {{.FullName}},

the status of your document access requests has changed:
{{range .Items}}
{{if .Rejected}}- **{{.Title}}** ({{.RecordID}}): rejected{{if .Reason}}. Reason: {{.Reason}}{{end}}
{{else}}- **{{.Title}}** ({{.RecordID}}): granted{{if .EndTime.IsZero}} without time limit{{else}} until {{date .EndTime}}{{end}}
{{end}}{{end}}
{{if .LoginURL}}Log in to read your documents: <{{.LoginURL}}>
{{end}}`)),

	mailExpiry: template.Must(template.New("expiry").Funcs(mailFuncs).Parse(`Hello {{.FullName}},

your access to the following documents is about to expire:
{{range .Items}}
- **{{.Title}}** ({{.RecordID}}): until {{date .EndTime}}
{{end}}
{{if .LoginURL}}Log in to request an extension: <{{.LoginURL}}>
{{end}}`)),
}

func composeMessage(kind mailKind, data mailData) (*Message, error) {
	tmpl, ok := mailTemplates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown mail kind %d", kind)
	}

	var text bytes.Buffer
	if err := tmpl.Execute(&text, data); err != nil {
		return nil, err
	}

	var html bytes.Buffer
	if err := goldmark.Convert(text.Bytes(), &html); err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &Message{Text: text.String(), HTML: html.String()}, nil
}
