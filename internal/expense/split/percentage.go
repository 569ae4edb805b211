package split

import (
	"math"

	"github.com/adhamj/settleup/pkg/money"
)

// =============================================================================
// PERCENTAGE SPLIT STRATEGY
// Divides the expense based on specified percentages for each participant
// =============================================================================

// PercentageStrategy implements the Strategy interface for percentage-based splits
type PercentageStrategy struct{}

// Type returns the split type identifier
func (s *PercentageStrategy) Type() SplitType {
	return SplitTypePercentage
}

// Validate checks if the inputs are valid for a percentage split
func (s *PercentageStrategy) Validate(total money.Cents, participants []SplitInput) error {
	if err := validateCommon(total, participants); err != nil {
		return err
	}

	// Check that all participants have percentages and they sum to 100
	var totalPercentage float64
	for _, p := range participants {
		if p.Percentage == nil {
			return ErrMissingPercentage
		}
		if *p.Percentage < 0 || *p.Percentage > 100 {
			return ErrPercentageOutOfRange
		}
		totalPercentage += *p.Percentage
	}

	// Allow for small floating point errors (99.99 to 100.01)
	if math.Abs(totalPercentage-100) > 0.01 {
		return ErrInvalidPercentages
	}

	return nil
}

// Calculate divides the total based on each participant's percentage.
// All but the last share are rounded down; the last participant absorbs
// whatever is left so the shares sum exactly to the total.
func (s *PercentageStrategy) Calculate(total money.Cents, participants []SplitInput) ([]SplitOutput, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]SplitOutput, len(participants))
	var distributed money.Cents

	for i, p := range participants {
		if i == len(participants)-1 {
			outputs[i] = SplitOutput{UserID: p.UserID, Share: total - distributed}
			break
		}
		share := money.Cents(math.Floor(float64(total) * (*p.Percentage) / 100))
		distributed += share
		outputs[i] = SplitOutput{UserID: p.UserID, Share: share}
	}

	return outputs, nil
}
