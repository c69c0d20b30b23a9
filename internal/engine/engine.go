package engine

import (
	"errors"
	"fmt"
)

var ErrInvalidAction = errors.New("invalid action for state")

type State string

const (
	StateMenu         State = "MENU"
	StateLobby        State = "LOBBY"
	StateInProgress   State = "IN_PROGRESS"
	StateRoundResults State = "ROUND_RESULTS"
	StateFinalResults State = "FINAL_RESULTS"
)

type Action string

const (
	ActionJoin             Action = "JOIN"
	ActionStart            Action = "START"
	ActionVote             Action = "VOTE"
	ActionNext             Action = "NEXT"
	ActionTimerEnd         Action = "TIMER_END"
	ActionShowFinalResults Action = "SHOW_FINAL_RESULTS"
	ActionReturnToMenu     Action = "RETURN_TO_MENU"
)

// States and Actions list every value in declaration order.
var (
	States  = []State{StateMenu, StateLobby, StateInProgress, StateRoundResults, StateFinalResults}
	Actions = []Action{ActionJoin, ActionStart, ActionVote, ActionNext, ActionTimerEnd, ActionShowFinalResults, ActionReturnToMenu}
)

/*
	MENU          --JOIN-->               LOBBY
	LOBBY         --START-->              IN_PROGRESS
	IN_PROGRESS   --VOTE-->               IN_PROGRESS
	IN_PROGRESS   --TIMER_END-->          ROUND_RESULTS
	ROUND_RESULTS --NEXT-->               IN_PROGRESS
	ROUND_RESULTS --SHOW_FINAL_RESULTS--> FINAL_RESULTS
	FINAL_RESULTS --RETURN_TO_MENU-->     MENU
*/
var transitions = map[State]map[Action]State{
	StateMenu:         {ActionJoin: StateLobby},
	StateLobby:        {ActionStart: StateInProgress},
	StateInProgress:   {ActionVote: StateInProgress, ActionTimerEnd: StateRoundResults},
	StateRoundResults: {ActionNext: StateInProgress, ActionShowFinalResults: StateFinalResults},
	StateFinalResults: {ActionReturnToMenu: StateMenu},
}

func IsValidAction(s State, a Action) bool {
	_, ok := transitions[s][a]
	return ok
}

// Transition returns the next state and whether the action was accepted.
// A rejected action leaves the state unchanged.
func Transition(s State, a Action) (State, bool) {
	next, ok := transitions[s][a]
	if !ok {
		return s, false
	}
	return next, true
}

// Step is Transition with the rejection surfaced as ErrInvalidAction.
func Step(s State, a Action) (State, error) {
	next, ok := Transition(s, a)
	if !ok {
		return s, fmt.Errorf("%w: %s in %s", ErrInvalidAction, a, s)
	}
	return next, nil
}
