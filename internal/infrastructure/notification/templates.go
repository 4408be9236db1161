package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var (
	promotionHTML = template.Must(template.New("promotion").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<h1>Congratulations, {{.Handle}}!</h1>
<p>You've been promoted from <strong>{{.FromTier}}</strong> to <strong>{{.ToTier}}</strong>.</p>
<p>Your {{.MetricLabel}} reached {{.Value}}.</p>
<p>Your new rewards are available in your dashboard.</p>
</body></html>`))

	demotionHTML = template.Must(template.New("demotion").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<h1>Hi {{.Handle}},</h1>
<p>Your tier has changed from <strong>{{.FromTier}}</strong> to <strong>{{.ToTier}}</strong>.</p>
{{if .Period}}<p>Your {{.MetricLabel}} for {{.Period}} was {{.Value}}.</p>{{end}}
<p>Keep selling to climb back up at your next checkpoint.</p>
</body></html>`))

	boostActiveHTML = template.Must(template.New("boost_active").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<h1>Your commission boost is live</h1>
<p>You're earning an extra {{.Rate}}% on sales until {{.Until}}.</p>
</body></html>`))

	boostPendingInfoHTML = template.Must(template.New("boost_pending_info").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<h1>Your boost payout is ready</h1>
<p>Your commission boost earned <strong>{{.Payout}}</strong>.</p>
<p>Add your PayPal or Venmo details in the app so we can send it.</p>
</body></html>`))

	adminAlertHTML = template.Must(template.New("admin_alert").Parse(`<!DOCTYPE html>
<html><body style="font-family: sans-serif;">
<h2>{{.Title}}</h2>
<p><strong>Time:</strong> {{.Timestamp}}</p>
<p>{{.Message}}</p>
{{if .Details}}<h3>Errors</h3><ul>{{range .Details}}<li><code>{{.}}</code></li>{{end}}</ul>{{end}}
<h3>Likely causes</h3><ul>{{range .Causes}}<li>{{.}}</li>{{end}}</ul>
<h3>Next steps</h3><ol>{{range .Actions}}<li>{{.}}</li>{{end}}</ol>
</body></html>`))
)

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notification: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return b.String()
}
