package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"challenge-arena/internal/models"
)

func TestSelectMembers(t *testing.T) {
	scores := map[uint]float64{1: 3, 2: 1, 3: 2}

	tests := []struct {
		name     string
		fn       models.SelectionFn
		argument float64
		want     []uint
	}{
		{"higher than matches", models.SelectionHigherThan, 1.5, []uint{1, 3}},
		{"higher than is strict", models.SelectionHigherThan, 3, nil},
		{"less than matches", models.SelectionLessThan, 2, []uint{2}},
		{"less than is strict", models.SelectionLessThan, 1, nil},
		{"head takes lowest", models.SelectionHead, 1, []uint{2}},
		{"head takes two lowest", models.SelectionHead, 2, []uint{2, 3}},
		{"tail takes highest", models.SelectionTail, 1, []uint{1}},
		{"tail takes two highest", models.SelectionTail, 2, []uint{3, 1}},
		{"head clamps to member count", models.SelectionHead, 10, []uint{2, 3, 1}},
		{"head of zero is empty", models.SelectionHead, 0, []uint{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectMembers(tt.fn, scores, tt.argument)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectMembersTieBreaksByMemberID(t *testing.T) {
	scores := map[uint]float64{7: 5, 2: 5, 4: 5}

	got, err := SelectMembers(models.SelectionHead, scores, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 4}, got)

	got, err = SelectMembers(models.SelectionTail, scores, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{4, 7}, got)
}

func TestSelectMembersUnknownFn(t *testing.T) {
	_, err := SelectMembers(models.SelectionFn("RANDOM"), map[uint]float64{1: 1}, 1)
	assert.ErrorIs(t, err, models.ErrUnsupportedSelection)
}

func TestSelectionProgress(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		argument float64
		want     int
	}{
		{"low single score", []float64{10}, 200, 5},
		{"near target rounds up", []float64{195}, 200, 98},
		{"average of several", []float64{10, 380}, 200, 98},
		{"past target clamps below completion", []float64{250}, 200, 99},
		{"exactly at target clamps below completion", []float64{200}, 200, 99},
		{"negative average clamps to zero", []float64{-10}, 200, 0},
		{"no scores", nil, 200, 0},
		{"zero target", []float64{50}, 0, ZeroTargetProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectionProgress(models.SelectionHigherThan, tt.scores, tt.argument)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Less(t, got, 100)
		})
	}
}

func TestSelectionProgressOnlyHigherThan(t *testing.T) {
	for _, fn := range []models.SelectionFn{
		models.SelectionLessThan,
		models.SelectionHead,
		models.SelectionTail,
	} {
		t.Run(string(fn), func(t *testing.T) {
			_, err := SelectionProgress(fn, []float64{10}, 200)
			assert.ErrorIs(t, err, models.ErrUnsupportedSelection)
		})
	}
}
