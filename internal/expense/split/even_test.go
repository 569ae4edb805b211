package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhamj/settleup/internal/ledger"
	"github.com/adhamj/settleup/pkg/money"
)

func participants(ids ...int64) []SplitInput {
	out := make([]SplitInput, len(ids))
	for i, id := range ids {
		out[i] = SplitInput{UserID: id}
	}
	return out
}

func TestEvenSplit(t *testing.T) {
	s := &EvenStrategy{}

	tests := []struct {
		name    string
		total   money.Cents
		userIDs []int64
		want    []money.Cents
	}{
		{name: "divides exactly", total: 30000, userIDs: []int64{1, 2, 3}, want: []money.Cents{10000, 10000, 10000}},
		{name: "remainder to first in order", total: 1001, userIDs: []int64{1, 2, 3}, want: []money.Cents{334, 334, 333}},
		{name: "single participant", total: 500, userIDs: []int64{7}, want: []money.Cents{500}},
		{name: "two cents remainder", total: 502, userIDs: []int64{1, 2, 3, 4}, want: []money.Cents{126, 126, 125, 125}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Calculate(tt.total, participants(tt.userIDs...))
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, tt.userIDs[i], got[i].UserID)
				assert.Equal(t, w, got[i].Share)
			}
		})
	}
}

// Shares must sum to the total for every group size, never off by a cent.
func TestEvenSplitConservation(t *testing.T) {
	s := &EvenStrategy{}
	totals := []money.Cents{1, 99, 100, 101, 1001, 33333, 999999}

	for n := 1; n <= 50; n++ {
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(i + 1)
		}
		for _, total := range totals {
			got, err := s.Calculate(total, participants(ids...))
			require.NoError(t, err)

			var sum money.Cents
			var maxShare, minShare money.Cents
			for i, o := range got {
				sum += o.Share
				if i == 0 || o.Share > maxShare {
					maxShare = o.Share
				}
				if i == 0 || o.Share < minShare {
					minShare = o.Share
				}
			}
			require.Equal(t, total, sum, "n=%d total=%d", n, total)
			require.LessOrEqual(t, int64(maxShare-minShare), int64(1), "shares differ by more than one cent")
		}
	}
}

func TestEvenSplitOrderDeterminesRemainder(t *testing.T) {
	s := &EvenStrategy{}

	first, err := s.Calculate(1001, participants(1, 2, 3))
	require.NoError(t, err)
	second, err := s.Calculate(1001, participants(3, 2, 1))
	require.NoError(t, err)

	assert.Equal(t, money.Cents(334), first[0].Share)
	assert.Equal(t, int64(1), first[0].UserID)
	assert.Equal(t, money.Cents(334), second[0].Share)
	assert.Equal(t, int64(3), second[0].UserID)
}

func TestEvenSplitValidation(t *testing.T) {
	s := &EvenStrategy{}

	_, err := s.Calculate(100, nil)
	assert.ErrorIs(t, err, ledger.ErrNoParticipants)

	_, err = s.Calculate(0, participants(1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = s.Calculate(-100, participants(1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = s.Calculate(money.MaxAmount+1, participants(1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}
