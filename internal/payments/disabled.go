package payments

import (
	"context"
	"errors"
)

var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// Disabled stands in when no access token is configured. Orders can still
// be placed; they just stay pending with no redirect.
type Disabled struct{}

func (Disabled) CreatePreference(context.Context, PreferenceRequest) (*Preference, error) {
	return nil, ErrGatewayDisabled
}

func (Disabled) PaymentByID(context.Context, string) (*PaymentInfo, error) {
	return nil, ErrGatewayDisabled
}
