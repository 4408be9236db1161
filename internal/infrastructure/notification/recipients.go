package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/loyalty/backend/internal/domain/loyalty"
	"github.com/loyalty/backend/internal/domain/shared"
)

// TierStateDirectory reads contact details off the user's tier state row
type TierStateDirectory struct {
	reader loyalty.TierStateReader
}

// NewTierStateDirectory creates a TierStateDirectory
func NewTierStateDirectory(reader loyalty.TierStateReader) *TierStateDirectory {
	return &TierStateDirectory{reader: reader}
}

// FindRecipient implements RecipientDirectory
func (d *TierStateDirectory) FindRecipient(ctx context.Context, tenantID, userID uuid.UUID) (*Recipient, error) {
	state, err := d.reader.GetUserTierState(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Recipient{Email: state.Email, Handle: state.Handle}, nil
}
