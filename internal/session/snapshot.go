package session

import (
	"strconv"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

// View is the owned state a snapshot is derived from.
type View struct {
	State     engine.State
	Game      Game
	Votes     engine.VotedTiers
	Results   engine.TierResults
	Average   *engine.Tier
	Completed int
	Remaining int
}

func BuildSnapshot(v View) types.Snapshot {
	roundDone := !v.Game.RoundInProgress && v.Completed > 0
	ended := v.Game.End || (roundDone && v.Game.Index == len(v.Game.Items)-1)

	snap := types.Snapshot{
		State:           v.State,
		Timer:           strconv.Itoa(v.Remaining),
		Round:           v.Game.Index,
		RoundInProgress: v.Game.RoundInProgress,
		ShowResults:     ended || roundDone,
		End:             ended,
		Results:         v.Votes,
	}
	if v.Game.Index < len(v.Game.Items) {
		snap.Selection = v.Game.Items[v.Game.Index]
	}
	if ended {
		snap.Results = v.Results
	}
	if roundDone {
		snap.Average = copyTier(v.Average)
	}
	return snap
}
