package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/application/automation"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"go.uber.org/zap"
)

// Recipient is how a creator is addressed in email
type Recipient struct {
	Email  string
	Handle string
}

// RecipientDirectory resolves a creator's contact details
type RecipientDirectory interface {
	// FindRecipient returns nil, nil when the user is unknown
	FindRecipient(ctx context.Context, tenantID, userID uuid.UUID) (*Recipient, error)
}

// TierCatalog resolves tier codes to display names
type TierCatalog interface {
	GetTierThresholds(ctx context.Context, tenantID uuid.UUID, metric loyalty.VIPMetric) ([]loyalty.Tier, error)
}

// TierChangeMailer emails creators when their tier moves.
type TierChangeMailer struct {
	mailer    Mailer
	directory RecipientDirectory
	tiers     TierCatalog
	from      string
	logger    *zap.Logger
}

// NewTierChangeMailer creates a TierChangeMailer
func NewTierChangeMailer(mailer Mailer, directory RecipientDirectory, tiers TierCatalog, from string, logger *zap.Logger) *TierChangeMailer {
	return &TierChangeMailer{
		mailer:    mailer,
		directory: directory,
		tiers:     tiers,
		from:      from,
		logger:    logger,
	}
}

type tierChangeView struct {
	Handle      string
	FromTier    string
	ToTier      string
	MetricLabel string
	Value       string
	Period      string
}

// NotifyTierChange sends promotion or demotion copy for event
func (m *TierChangeMailer) NotifyTierChange(ctx context.Context, event *loyalty.TierChangedEvent) error {
	if event == nil {
		return nil
	}

	recipient, err := m.directory.FindRecipient(ctx, event.TenantID(), event.UserID)
	if err != nil {
		return fmt.Errorf("notification: lookup recipient %s: %w", event.UserID, err)
	}
	if recipient == nil || recipient.Email == "" {
		return fmt.Errorf("%w for user %s", ErrNoRecipient, event.UserID)
	}

	view := tierChangeView{
		Handle:      recipient.Handle,
		FromTier:    tierLabel(event.FromTier),
		ToTier:      tierLabel(event.ToTier),
		MetricLabel: metricLabel(event.Metric),
		Value:       formatValue(event.TotalValue, event.Metric),
	}
	if view.Handle == "" {
		view.Handle = "there"
	}
	m.resolveTierNames(ctx, event, &view)
	if event.PeriodStart != nil && event.PeriodEnd != nil {
		view.Period = fmt.Sprintf("%s to %s", event.PeriodStart.Format("Jan 2, 2006"), event.PeriodEnd.Format("Jan 2, 2006"))
	}

	var msg EmailMessage
	switch event.ChangeType {
	case loyalty.TierChangePromotion:
		msg, err = m.promotionMessage(view)
	case loyalty.TierChangeDemotion:
		msg, err = m.demotionMessage(view)
	default:
		return fmt.Errorf("notification: unsupported tier change type %q", event.ChangeType)
	}
	if err != nil {
		return err
	}
	msg.From = m.from
	msg.To = []string{recipient.Email}

	id, err := m.mailer.Send(ctx, msg)
	if err != nil {
		return err
	}
	m.logger.Info("Tier change email sent",
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("user_id", event.UserID.String()),
		zap.String("change_type", string(event.ChangeType)),
		zap.String("message_id", id),
	)
	return nil
}

// resolveTierNames swaps in the program's display names. Title-cased codes are
// kept on lookup failure.
func (m *TierChangeMailer) resolveTierNames(ctx context.Context, event *loyalty.TierChangedEvent, view *tierChangeView) {
	if m.tiers == nil {
		return
	}
	tiers, err := m.tiers.GetTierThresholds(ctx, event.TenantID(), event.Metric)
	if err != nil {
		m.logger.Warn("Tier names unavailable, using codes", zap.Error(err))
		return
	}
	for _, t := range tiers {
		if t.Name == "" {
			continue
		}
		if t.Code == event.FromTier {
			view.FromTier = t.Name
		}
		if t.Code == event.ToTier {
			view.ToTier = t.Name
		}
	}
}

func (m *TierChangeMailer) promotionMessage(view tierChangeView) (EmailMessage, error) {
	html, err := render(promotionHTML, view)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: fmt.Sprintf("You've been promoted to %s!", view.ToTier),
		HTML:    html,
		Text: fmt.Sprintf("Congratulations, %s! You've been promoted from %s to %s. Your %s reached %s.",
			view.Handle, view.FromTier, view.ToTier, view.MetricLabel, view.Value),
	}, nil
}

func (m *TierChangeMailer) demotionMessage(view tierChangeView) (EmailMessage, error) {
	html, err := render(demotionHTML, view)
	if err != nil {
		return EmailMessage{}, err
	}
	text := fmt.Sprintf("Hi %s, your tier has changed from %s to %s.", view.Handle, view.FromTier, view.ToTier)
	if view.Period != "" {
		text += fmt.Sprintf(" Your %s for %s was %s.", view.MetricLabel, view.Period, view.Value)
	}
	return EmailMessage{
		Subject: "Important: Your tier status has changed",
		HTML:    html,
		Text:    text,
	}, nil
}

func metricLabel(metric loyalty.VIPMetric) string {
	if metric == loyalty.VIPMetricUnits {
		return "units sold"
	}
	return "sales"
}

var _ automation.TierChangeNotifier = (*TierChangeMailer)(nil)
