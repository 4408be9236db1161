package reward

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/shared"
)

// PaymentMethod is how a boost payout is sent
type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodVenmo  PaymentMethod = "venmo"
)

var venmoHandle = regexp.MustCompile(`^@[A-Za-z0-9_-]{4,30}$`)

// IsValid checks if the method is supported
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodPayPal || m == PaymentMethodVenmo
}

// NormalizeAccount validates account for the method and returns it trimmed.
// PayPal takes an email address, Venmo an @handle.
func (m PaymentMethod) NormalizeAccount(account string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", shared.NewDomainError("INVALID_PAYMENT_ACCOUNT", "Payment account is required")
	}

	switch m {
	case PaymentMethodPayPal:
		addr, err := mail.ParseAddress(account)
		if err != nil || addr.Address != account {
			return "", shared.NewDomainError("INVALID_PAYMENT_ACCOUNT", "PayPal account must be an email address")
		}
	case PaymentMethodVenmo:
		if !venmoHandle.MatchString(account) {
			return "", shared.NewDomainError("INVALID_PAYMENT_ACCOUNT", "Venmo account must be an @handle")
		}
	default:
		return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be paypal or venmo")
	}
	return account, nil
}

// PaymentCipher encrypts payment account values per tenant. Ciphertext produced
// for one tenant must not decrypt for another.
type PaymentCipher interface {
	Encrypt(tenantID uuid.UUID, plaintext string) (string, error)
	Decrypt(tenantID uuid.UUID, ciphertext string) (string, error)
}

// MaskAccount hides all but the edges of a plaintext account for display
func MaskAccount(account string) string {
	if len(account) <= 4 {
		return strings.Repeat("*", len(account))
	}
	return account[:2] + strings.Repeat("*", len(account)-4) + account[len(account)-2:]
}
