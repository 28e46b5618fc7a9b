package stats

import (
	"context"

	"github.com/verte-zerg/tuidice/internal/model"
	"github.com/verte-zerg/tuidice/internal/store"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Rolls        []model.RollRecord
	WindowIDs    []int64
	ValuesAll    []model.ValueAggregate
	ValuesWindow []model.ValueAggregate
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	rolls, err := st.ListRolls(ctx, cfg)
	if err != nil {
		return Report{}, err
	}

	allIDs := rollIDs(rolls)
	windowIDs := lastRollIDs(rolls, cfg.Window)
	valuesAll, err := st.ListValueCountsForRolls(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	valuesWindow, err := st.ListValueCountsForRolls(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Rolls:        rolls,
		WindowIDs:    windowIDs,
		ValuesAll:    valuesAll,
		ValuesWindow: valuesWindow,
	}, nil
}

func rollIDs(rolls []model.RollRecord) []int64 {
	ids := make([]int64, len(rolls))
	for i, r := range rolls {
		ids[i] = r.ID
	}
	return ids
}

func lastRollIDs(rolls []model.RollRecord, window int) []int64 {
	if window <= 0 || len(rolls) <= window {
		return rollIDs(rolls)
	}
	return rollIDs(rolls[len(rolls)-window:])
}
