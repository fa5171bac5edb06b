package services

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const resetEmailSubject = "Reset your password"

var resetEmailTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Someone asked to reset the password of your account.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>The link works once and expires at {{.Expiry}}. If you did not ask for this, ignore this email.</p>
</body>
</html>
`))

func renderResetEmail(link string, expiry time.Time) (string, error) {
	var buf bytes.Buffer
	err := resetEmailTmpl.Execute(&buf, struct {
		Link   string
		Expiry string
	}{link, expiry.UTC().Format("2006-01-02 15:04 MST")})
	if err != nil {
		return "", fmt.Errorf("render reset email: %w", err)
	}
	return buf.String(), nil
}
