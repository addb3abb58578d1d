package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

var bodyTemplate = template.Must(template.New("body").Parse(`Hello {{.Player}},

{{if .Missions -}}
your current missions in "{{.GameTitle}}":
{{range .Missions}}
  Circle {{.Circle}}: {{.Victim}}{{if .Code}} (your code: {{.Code}}){{end}}
{{- end}}
{{- else -}}
you have no open missions in "{{.GameTitle}}" right now.
{{- end}}

Good luck!
`))

// Subject returns the message subject for u.
func Subject(u Update) string {
	switch u.Reason {
	case ReasonMurdered:
		return fmt.Sprintf("[%s] You have been murdered", u.GameTitle)
	case ReasonGameStarted:
		return fmt.Sprintf("[%s] The game has started", u.GameTitle)
	default:
		return fmt.Sprintf("[%s] Your missions have changed", u.GameTitle)
	}
}

// Body renders the plain-text message for u.
func Body(u Update) (string, error) {
	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, u); err != nil {
		return "", fmt.Errorf("render body: %w", err)
	}
	return buf.String(), nil
}
