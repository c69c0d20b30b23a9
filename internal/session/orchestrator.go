package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

var ErrEmptyCatalog = errors.New("catalog has no items")
var ErrSessionEnded = errors.New("session already ended")

const DefaultRoundUnits = 30

// Scheduler is the countdown the orchestrator drives once per round.
type Scheduler interface {
	Start(units int, onTick func(remaining int), onComplete func()) error
	Cancel()
}

type Command struct {
	Action engine.Action
	Tier   engine.Tier
	Person engine.Participant
}

// Game is the round cursor over the catalog.
type Game struct {
	Index           int
	Items           []string
	RoundInProgress bool
	End             bool
}

// Summary describes a finished session.
type Summary struct {
	Items      []string
	Results    engine.TierResults
	FinishedAt time.Time
}

type Options struct {
	RoundUnits int
	Scheduler  Scheduler
	// Emit receives every outbound broadcast in order.
	Emit   func(msg any)
	OnEnd  func(Summary)
	Logger *zap.Logger
}

// Orchestrator owns the whole session state. It is not safe for concurrent
// use; every call, including scheduler callbacks, must come from one goroutine.
type Orchestrator struct {
	state     engine.State
	game      Game
	votes     *engine.Aggregator
	results   engine.TierResults
	average   *engine.Tier
	completed int
	remaining int

	units int
	timer Scheduler
	emit  func(any)
	onEnd func(Summary)
	log   *zap.Logger
}

func NewOrchestrator(items []string, opts Options) (*Orchestrator, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}
	if opts.Scheduler == nil {
		return nil, errors.New("orchestrator needs a scheduler")
	}
	if opts.RoundUnits <= 0 {
		opts.RoundUnits = DefaultRoundUnits
	}
	if opts.Emit == nil {
		opts.Emit = func(any) {}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	o := &Orchestrator{
		state:   engine.StateMenu,
		game:    Game{Items: append([]string{}, items...)},
		votes:   engine.NewAggregator(),
		results: engine.NewTierResults(),
		units:   opts.RoundUnits,
		timer:   opts.Scheduler,
		emit:    opts.Emit,
		onEnd:   opts.OnEnd,
		log:     opts.Logger,
	}
	o.remaining = o.units
	return o, nil
}

func (o *Orchestrator) State() engine.State { return o.state }

func (o *Orchestrator) Game() Game {
	g := o.game
	g.Items = append([]string{}, o.game.Items...)
	return g
}

func (o *Orchestrator) Results() engine.TierResults { return o.results.Clone() }

func (o *Orchestrator) Votes() engine.VotedTiers { return o.votes.Votes() }

// Handle applies one inbound action. Rejected actions return an error and
// leave every piece of state untouched.
func (o *Orchestrator) Handle(cmd Command) error {
	if _, err := engine.Step(o.state, cmd.Action); err != nil {
		return err
	}

	switch cmd.Action {
	case engine.ActionJoin, engine.ActionShowFinalResults:
		o.setState(cmd.Action)
		return nil

	case engine.ActionStart:
		if err := o.startRound(); err != nil {
			return err
		}
		o.setState(cmd.Action)
		o.game.RoundInProgress = true
		o.emit(types.RoundStartMessage{Start: true, Item: o.currentItem()})
		return nil

	case engine.ActionVote:
		if err := o.votes.CastVote(cmd.Person, cmd.Tier); err != nil {
			return fmt.Errorf("vote from %q: %w", cmd.Person.Name, err)
		}
		o.emit(types.VotesMessage{Votes: o.votes.Votes()})
		return nil

	case engine.ActionNext:
		if o.game.End || o.game.Index >= len(o.game.Items)-1 {
			return ErrSessionEnded
		}
		if err := o.startRound(); err != nil {
			return err
		}
		o.setState(cmd.Action)
		o.game.RoundInProgress = true
		o.game.Index++
		o.votes.Reset()
		o.average = nil
		showResults := false
		o.emit(types.RoundStartMessage{Start: true, Item: o.currentItem(), ShowResults: &showResults})
		o.emit(types.TickMessage{Time: strconv.Itoa(o.units)})
		return nil

	case engine.ActionReturnToMenu:
		o.setState(cmd.Action)
		o.reset()
		return nil

	default:
		// TIMER_END only comes from the scheduler.
		return fmt.Errorf("%w: %s is not a client action", engine.ErrInvalidAction, cmd.Action)
	}
}

// Snapshot is the join payload for a newly connected participant.
func (o *Orchestrator) Snapshot() types.Snapshot {
	return BuildSnapshot(View{
		State:     o.state,
		Game:      o.game,
		Votes:     o.votes.Votes(),
		Results:   o.results.Clone(),
		Average:   o.average,
		Completed: o.completed,
		Remaining: o.remaining,
	})
}

func (o *Orchestrator) startRound() error {
	o.timer.Cancel()
	if err := o.timer.Start(o.units, o.tick, o.completeRound); err != nil {
		return fmt.Errorf("start round timer: %w", err)
	}
	o.remaining = o.units
	return nil
}

func (o *Orchestrator) tick(remaining int) {
	o.remaining = remaining
	o.emit(types.TickMessage{Time: strconv.Itoa(remaining)})
}

func (o *Orchestrator) completeRound() {
	next, ok := engine.Transition(o.state, engine.ActionTimerEnd)
	if !ok {
		o.log.Warn("stale round timer", zap.String("state", string(o.state)))
		return
	}
	o.state = next
	o.game.RoundInProgress = false
	o.completed++
	o.emit(types.StateMessage{Type: types.TypeState, Data: types.StateData{State: o.state}})

	item := o.currentItem()
	o.average = nil
	avg, err := o.votes.ComputeAverage()
	if err != nil {
		o.log.Warn("round finished without a result",
			zap.String("item", item),
			zap.Int("round", o.game.Index),
			zap.Error(err),
		)
	} else {
		o.results[avg] = append(o.results[avg], item)
		o.average = &avg
	}

	if o.game.Index == len(o.game.Items)-1 {
		o.game.End = true
		o.emit(types.EndMessage{Type: types.TypeEnd, Data: types.EndData{Results: o.results.Clone()}})
		if o.onEnd != nil {
			o.onEnd(Summary{
				Items:      append([]string{}, o.game.Items...),
				Results:    o.results.Clone(),
				FinishedAt: time.Now().UTC(),
			})
		}
		return
	}

	o.emit(types.RoundResultMessage{Results: types.RoundResult{
		Item:        item,
		Average:     copyTier(o.average),
		ShowResults: true,
	}})
}

func (o *Orchestrator) setState(a engine.Action) {
	next, _ := engine.Transition(o.state, a)
	if next == o.state {
		return
	}
	o.state = next
	o.emit(types.StateMessage{Type: types.TypeState, Data: types.StateData{State: o.state}})
}

// reset prepares a fresh session over the same catalog.
func (o *Orchestrator) reset() {
	o.timer.Cancel()
	o.game = Game{Items: o.game.Items}
	o.votes.Reset()
	o.results = engine.NewTierResults()
	o.average = nil
	o.completed = 0
	o.remaining = o.units
}

func (o *Orchestrator) currentItem() string {
	return o.game.Items[o.game.Index]
}

func copyTier(t *engine.Tier) *engine.Tier {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
