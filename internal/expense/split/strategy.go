package split

import (
	"errors"
	"fmt"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEven       SplitType = "EVEN"
	SplitTypePercentage SplitType = "PERCENTAGE"
	SplitTypeExact      SplitType = "EXACT"
)

// SplitInput represents a participant in a split with optional values
type SplitInput struct {
	UserID     int64        `json:"user_id"`
	Percentage *float64     `json:"percentage,omitempty"` // For PERCENTAGE split
	Amount     *money.Cents `json:"amount,omitempty"`     // For EXACT split
}

// SplitOutput represents the calculated share for a single participant.
// The payer's own share is included when the payer participates; the
// ledger excludes it from the payer's credit.
type SplitOutput struct {
	UserID int64       `json:"user_id"`
	Share  money.Cents `json:"share"`
}

// Strategy is the interface that all split strategies must implement.
// Every strategy guarantees that the returned shares sum exactly to the
// total, for every input.
type Strategy interface {
	// Calculate computes the share for each participant, in input order
	Calculate(total money.Cents, participants []SplitInput) ([]SplitOutput, error)

	// Type returns the type identifier for this strategy
	Type() SplitType

	// Validate checks if the inputs are valid for this strategy
	Validate(total money.Cents, participants []SplitInput) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewFactory creates a new factory instance
func NewFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEven:
		return &EvenStrategy{}, nil
	case SplitTypePercentage:
		return &PercentageStrategy{}, nil
	case SplitTypeExact:
		return &ExactStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown split type: %s", splitType)
	}
}

// CreateFromString creates a strategy from a string type (useful for API requests)
func (f *Factory) CreateFromString(splitType string) (Strategy, error) {
	return f.Create(SplitType(splitType))
}

var (
	ErrInvalidPercentages   = errors.New("percentages must sum to 100")
	ErrInvalidExactAmounts  = errors.New("exact amounts must sum to total amount")
	ErrMissingPercentage    = errors.New("percentage value required for all participants")
	ErrMissingExactAmount   = errors.New("exact amount required for all participants")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
)

// validateCommon applies the checks shared by every strategy
func validateCommon(total money.Cents, participants []SplitInput) error {
	if len(participants) == 0 {
		return ledger.ErrNoParticipants
	}
	if total <= 0 || total > money.MaxAmount {
		return ledger.ErrInvalidAmount
	}
	return nil
}
