package split

import "github.com/adhamj/settleup/pkg/money"

// =============================================================================
// EVEN SPLIT STRATEGY
// Divides the expense equally among all participants in integer cents
// =============================================================================

// EvenStrategy implements the Strategy interface for even splits
type EvenStrategy struct{}

// Type returns the split type identifier
func (s *EvenStrategy) Type() SplitType {
	return SplitTypeEven
}

// Validate checks if the inputs are valid for an even split
func (s *EvenStrategy) Validate(total money.Cents, participants []SplitInput) error {
	return validateCommon(total, participants)
}

// Calculate divides the total evenly among all participants. The remainder
// cents go to the first participants in the order given: changing the
// participant order changes who absorbs the extra cent, and callers rely
// on that determinism.
func (s *EvenStrategy) Calculate(total money.Cents, participants []SplitInput) ([]SplitOutput, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	n := money.Cents(len(participants))
	base := total / n
	remainder := total - base*n

	outputs := make([]SplitOutput, len(participants))
	for i, p := range participants {
		share := base
		if money.Cents(i) < remainder {
			share++
		}
		outputs[i] = SplitOutput{UserID: p.UserID, Share: share}
	}

	return outputs, nil
}
