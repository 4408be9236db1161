package notification

import (
	"context"
	"fmt"

	"github.com/loyalty/backend/internal/domain/reward"
	"github.com/loyalty/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BoostMailer tells creators when their boost goes live and when its payout
// is waiting for payment details. Other transitions are silent.
type BoostMailer struct {
	mailer    Mailer
	directory RecipientDirectory
	from      string
	logger    *zap.Logger
}

// NewBoostMailer creates a BoostMailer
func NewBoostMailer(mailer Mailer, directory RecipientDirectory, from string, logger *zap.Logger) *BoostMailer {
	return &BoostMailer{mailer: mailer, directory: directory, from: from, logger: logger}
}

// EventTypes implements shared.EventHandler
func (m *BoostMailer) EventTypes() []string {
	return []string{reward.EventTypeBoostStatusChanged}
}

// Handle implements shared.EventHandler
func (m *BoostMailer) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*reward.BoostStatusChangedEvent)
	if !ok {
		return nil
	}

	var (
		msg EmailMessage
		err error
	)
	switch changed.ToStatus {
	case reward.BoostStatusActive:
		msg, err = boostActiveMessage(changed)
	case reward.BoostStatusPendingInfo:
		msg, err = boostPendingInfoMessage(changed)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	recipient, err := m.directory.FindRecipient(ctx, changed.TenantID(), changed.UserID)
	if err != nil {
		return fmt.Errorf("notification: lookup recipient %s: %w", changed.UserID, err)
	}
	if recipient == nil || recipient.Email == "" {
		return fmt.Errorf("%w for user %s", ErrNoRecipient, changed.UserID)
	}
	msg.From = m.from
	msg.To = []string{recipient.Email}

	if _, err := m.mailer.Send(ctx, msg); err != nil {
		return err
	}
	m.logger.Debug("Boost email sent",
		zap.String("boost_id", changed.AggregateID().String()),
		zap.String("status", changed.ToStatus.String()),
	)
	return nil
}

func boostActiveMessage(e *reward.BoostStatusChangedEvent) (EmailMessage, error) {
	until := "the end of your boost window"
	if e.ExpiresAt != nil {
		until = e.ExpiresAt.Format("Jan 2, 2006")
	}
	view := struct{ Rate, Until string }{Rate: e.BoostRate.String(), Until: until}
	html, err := render(boostActiveHTML, view)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: "Your commission boost is live",
		HTML:    html,
		Text:    fmt.Sprintf("You're earning an extra %s%% on sales until %s.", view.Rate, view.Until),
	}, nil
}

func boostPendingInfoMessage(e *reward.BoostStatusChangedEvent) (EmailMessage, error) {
	payout := formatMoney(decimal.Zero)
	if e.FinalPayoutAmount != nil {
		payout = formatMoney(*e.FinalPayoutAmount)
	}
	html, err := render(boostPendingInfoHTML, struct{ Payout string }{payout})
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: "Your boost payout is ready",
		HTML:    html,
		Text:    fmt.Sprintf("Your commission boost earned %s. Add your PayPal or Venmo details in the app so we can send it.", payout),
	}, nil
}

var _ shared.EventHandler = (*BoostMailer)(nil)
