package types

import (
	"github.com/DoyleJ11/tierlist-backend/internal/engine"
)

// Inbound message types.
const (
	TypeJoin             = "join"
	TypeStart            = "start"
	TypeNext             = "next"
	TypeVote             = "vote"
	TypeShowFinalResults = "show_final_results"
	TypeReturnToMenu     = "return_to_menu"
)

// Outbound message types carried in the "type" field.
const (
	TypeState = "state"
	TypeEnd   = "end"
	TypeError = "error"
)

type ClientMessage struct {
	Type      string              `json:"type"`
	Selection string              `json:"selection,omitempty"`
	Person    *engine.Participant `json:"person,omitempty"`
}

// Snapshot is everything a newly connected participant needs to render the
// session.
type Snapshot struct {
	State           engine.State `json:"state"`
	Selection       string       `json:"selection"`
	Timer           string       `json:"timer"`
	Results         any          `json:"results"`
	Round           int          `json:"round"`
	RoundInProgress bool         `json:"roundInProgress"`
	ShowResults     bool         `json:"showResults"`
	End             bool         `json:"end"`
	Average         *engine.Tier `json:"average"`
}

type JoinMessage struct {
	Type string   `json:"type"`
	Data Snapshot `json:"data"`
}

type StateData struct {
	State engine.State `json:"state"`
}

type StateMessage struct {
	Type string    `json:"type"`
	Data StateData `json:"data"`
}

type RoundStartMessage struct {
	Start       bool   `json:"start"`
	Item        string `json:"item"`
	ShowResults *bool  `json:"showResults,omitempty"`
}

type TickMessage struct {
	Time string `json:"time"`
}

type RoundResult struct {
	Item        string       `json:"item"`
	Average     *engine.Tier `json:"average"`
	ShowResults bool         `json:"showResults"`
}

type RoundResultMessage struct {
	Results RoundResult `json:"results"`
}

type VotesMessage struct {
	Votes engine.VotedTiers `json:"votes"`
}

type EndData struct {
	Results engine.TierResults `json:"results"`
}

type EndMessage struct {
	Type string  `json:"type"`
	Data EndData `json:"data"`
}

type NoticeMessage struct {
	Message string `json:"message"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
