package services

import (
	"fmt"
	"math"
	"sort"

	"challenge-arena/internal/models"
)

// ZeroTargetProgress is reported when a HIGHER_THAN end condition has a
// zero target, where the ratio toward the target is undefined.
const ZeroTargetProgress = 34

// SelectMembers applies a selection function to a member-ID-to-score
// mapping and returns the IDs of the selected members.
//
// HIGHER_THAN and LESS_THAN compare strictly against the argument. HEAD
// takes the int(argument) members with the lowest scores, TAIL the same
// count with the highest. Rank order is ascending by score with ties
// broken by ascending member ID, so repeated calls over the same scores
// select the same members.
func SelectMembers(fn models.SelectionFn, scores map[uint]float64, argument float64) ([]uint, error) {
	switch fn {
	case models.SelectionHigherThan:
		var selected []uint
		for id, score := range scores {
			if score > argument {
				selected = append(selected, id)
			}
		}
		sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
		return selected, nil

	case models.SelectionLessThan:
		var selected []uint
		for id, score := range scores {
			if score < argument {
				selected = append(selected, id)
			}
		}
		sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
		return selected, nil

	case models.SelectionHead:
		ranked := rankAscending(scores)
		n := clampCount(int(argument), len(ranked))
		return ranked[:n], nil

	case models.SelectionTail:
		ranked := rankAscending(scores)
		n := clampCount(int(argument), len(ranked))
		return ranked[len(ranked)-n:], nil

	default:
		return nil, fmt.Errorf("select %q: %w", fn, models.ErrUnsupportedSelection)
	}
}

// SelectionProgress computes the normalized progress percentage toward an
// end condition. Only HIGHER_THAN defines progress: the average score over
// the argument, as a percentage. The result is always below 100; a value
// at or past the target means the challenge should already have been
// detected as finished by the end-condition check, so the computation
// clamps to 99 rather than report completion from this path.
func SelectionProgress(fn models.SelectionFn, scores []float64, argument float64) (int, error) {
	if fn != models.SelectionHigherThan {
		return 0, fmt.Errorf("progress %q: %w", fn, models.ErrUnsupportedSelection)
	}

	if argument == 0 {
		return ZeroTargetProgress, nil
	}

	avg, err := AggregateValues(models.AggregationAvg, scores)
	if err != nil {
		return 0, err
	}

	progress := int(math.Round(avg / argument * 100))
	if progress < 0 {
		progress = 0
	}
	if progress >= 100 {
		progress = 99
	}
	return progress, nil
}

// rankAscending orders member IDs by score ascending, ties by ID ascending
func rankAscending(scores map[uint]float64) []uint {
	ids := make([]uint, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] < scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

func clampCount(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
