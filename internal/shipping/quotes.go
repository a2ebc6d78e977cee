package shipping

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Option is one candidate shipping choice for a checkout session. Ephemeral;
// never persisted.
type Option struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays int             `json:"days"`
	Carrier       string          `json:"carrier"`
}

// Provider returns candidate options for a destination postal code.
type Provider interface {
	Quote(cep string) ([]Option, error)
}

var ErrInvalidCEP = errors.New("invalid postal code")

// Simulator prices by the first digit of the CEP in three bands, standing in
// for a real carrier integration. The express option derives from the base
// one at a fixed multiplier with a one-day lead-time floor.
type Simulator struct{}

func NewSimulator() Simulator { return Simulator{} }

var expressMultiplier = decimal.RequireFromString("1.8")

func (Simulator) Quote(cep string) ([]Option, error) {
	if len(cep) < 8 {
		return nil, ErrInvalidCEP
	}

	var base decimal.Decimal
	var days int
	switch d := cep[0]; {
	case d >= '0' && d <= '2': // SP and surroundings
		base = decimal.NewFromInt(15)
		days = 2
	case d >= '3' && d <= '5': // South and Southeast
		base = decimal.NewFromInt(25)
		days = 5
	case d >= '6' && d <= '9': // North, Northeast, Center-West
		base = decimal.NewFromInt(45)
		days = 10
	default:
		return nil, ErrInvalidCEP
	}

	expressDays := days - 2
	if expressDays < 1 {
		expressDays = 1
	}

	return []Option{
		{
			ID:            "pac",
			Name:          "PAC (Econômico)",
			Price:         base,
			EstimatedDays: days + 3,
			Carrier:       "Correios",
		},
		{
			ID:            "sedex",
			Name:          "SEDEX (Expresso)",
			Price:         base.Mul(expressMultiplier).Round(2),
			EstimatedDays: expressDays,
			Carrier:       "Correios",
		},
	}, nil
}
