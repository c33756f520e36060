package payouts

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/account"

	"github.com/aura-events/backend/internal/models"
)

// ProviderStripe is the only payout provider the verifier understands.
const ProviderStripe = "stripe"

// ErrUnsupportedProvider is returned when an account is linked to a provider with no verifier.
var ErrUnsupportedProvider = errors.New("unsupported payout provider")

// Verifier reports the provider-side status of a connected account.
type Verifier interface {
	Verify(ctx context.Context, provider, providerAccountID string) (models.PayoutStatus, error)
}

// StripeVerifier reads Stripe Connect accounts.
type StripeVerifier struct{}

// NewStripeVerifier sets the Stripe API key and returns a verifier.
func NewStripeVerifier(secretKey string) *StripeVerifier {
	stripe.Key = secretKey
	return &StripeVerifier{}
}

// Verify fetches the connected account and maps it to a payout status.
func (v *StripeVerifier) Verify(ctx context.Context, provider, providerAccountID string) (models.PayoutStatus, error) {
	if provider != ProviderStripe {
		return "", ErrUnsupportedProvider
	}
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := account.GetByID(providerAccountID, params)
	if err != nil {
		return "", err
	}
	return StatusFromAccount(acct), nil
}

// StatusFromAccount maps a Stripe account onto PayoutStatus. A "rejected.*" disabled reason
// is final; any other disabled reason is restricted; payouts and charges both enabled is verified.
func StatusFromAccount(acct *stripe.Account) models.PayoutStatus {
	if acct == nil {
		return models.PayoutStatusPending
	}
	if acct.Requirements != nil && acct.Requirements.DisabledReason != "" {
		if strings.HasPrefix(string(acct.Requirements.DisabledReason), "rejected") {
			return models.PayoutStatusRejected
		}
		return models.PayoutStatusRestricted
	}
	if acct.PayoutsEnabled && acct.ChargesEnabled {
		return models.PayoutStatusVerified
	}
	return models.PayoutStatusPending
}
