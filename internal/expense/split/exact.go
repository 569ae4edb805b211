package split

import "github.com/adhamj/settleup/pkg/money"

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() SplitType {
	return SplitTypeExact
}

// Validate checks if the inputs are valid for an exact split. Amounts are
// integer cents, so the sum must match the total exactly, no tolerance.
func (s *ExactStrategy) Validate(total money.Cents, participants []SplitInput) error {
	if err := validateCommon(total, participants); err != nil {
		return err
	}

	var sum money.Cents
	for _, p := range participants {
		if p.Amount == nil {
			return ErrMissingExactAmount
		}
		if *p.Amount < 0 {
			return ErrInvalidExactAmounts
		}
		sum += *p.Amount
	}

	if sum != total {
		return ErrInvalidExactAmounts
	}

	return nil
}

// Calculate returns the exact amounts specified for each participant
func (s *ExactStrategy) Calculate(total money.Cents, participants []SplitInput) ([]SplitOutput, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]SplitOutput, len(participants))
	for i, p := range participants {
		outputs[i] = SplitOutput{UserID: p.UserID, Share: *p.Amount}
	}

	return outputs, nil
}
