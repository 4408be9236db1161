package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/loyalty/backend/internal/application/automation"
	"go.uber.org/zap"
)

// AdminAlertSender emails automation alerts to the operator address
type AdminAlertSender struct {
	mailer     Mailer
	from       string
	adminEmail string
	logger     *zap.Logger
}

// NewAdminAlertSender creates an AdminAlertSender
func NewAdminAlertSender(mailer Mailer, from, adminEmail string, logger *zap.Logger) *AdminAlertSender {
	return &AdminAlertSender{mailer: mailer, from: from, adminEmail: adminEmail, logger: logger}
}

type alertView struct {
	Title     string
	Timestamp string
	Message   string
	Details   []string
	Causes    []string
	Actions   []string
}

// SendAdminAlert implements automation.AlertSender. Without an admin address
// the alert is only logged.
func (s *AdminAlertSender) SendAdminAlert(ctx context.Context, alert automation.Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	if s.adminEmail == "" {
		s.logger.Warn("Admin alert not sent: no admin email configured",
			zap.String("type", string(alert.Type)),
			zap.String("message", alert.Message),
			zap.Strings("details", alert.Details),
		)
		return nil
	}

	view := alertView{
		Title:     alertTitle(alert.Type),
		Timestamp: alert.Timestamp.UTC().Format(time.RFC3339),
		Message:   alert.Message,
		Details:   alert.Details,
		Causes:    likelyCauses(alert.Type),
		Actions:   actionSteps(alert.Type),
	}
	html, err := render(adminAlertHTML, view)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("%s\nTime: %s\n\n%s\n", view.Title, view.Timestamp, view.Message)
	if len(view.Details) > 0 {
		text += "\nErrors:\n" + bulletList(view.Details)
	}
	text += "\nLikely causes:\n" + bulletList(view.Causes)
	text += "\nNext steps:\n" + bulletList(view.Actions)

	_, err = s.mailer.Send(ctx, EmailMessage{
		From:    s.from,
		To:      []string{s.adminEmail},
		Subject: fmt.Sprintf("[ALERT] %s", view.Title),
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("notification: send admin alert: %w", err)
	}
	return nil
}

func alertTitle(t automation.AlertType) string {
	switch t {
	case automation.AlertTypePartialFailure:
		return "Daily automation completed with errors"
	case automation.AlertTypeUnexpectedError:
		return "Daily automation failed"
	}
	return "Daily automation alert"
}

func likelyCauses(t automation.AlertType) []string {
	if t == automation.AlertTypePartialFailure {
		return []string{
			"Database constraint violation or timeout on individual users",
			"A concurrent run updated the same rows",
			"A user is missing tier state or contact details",
		}
	}
	return []string{
		"Database connection failure",
		"Tenant loyalty program or tier table misconfigured",
		"Run exceeded its timeout",
	}
}

func actionSteps(t automation.AlertType) []string {
	steps := []string{
		"Check the automation logs for the run id",
		"Review the archived run report",
	}
	if t == automation.AlertTypePartialFailure {
		return append(steps, "Re-run the tenant with loyaltyctl run once the cause is fixed")
	}
	return append(steps, "Verify database connectivity and program configuration", "Trigger the cron endpoint manually")
}

var _ automation.AlertSender = (*AdminAlertSender)(nil)
