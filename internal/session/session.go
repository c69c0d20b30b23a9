package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/timer"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

const leftMessage = "someone has left the chat"

type Msg interface{ isSessionMsg() }

type FromClient struct {
	ClientID string
	Cmd      Command
}

func (FromClient) isSessionMsg() {}

type Join struct {
	ClientID string
	Outbox   chan any // where this client wants to receive broadcasts
}

func (Join) isSessionMsg() {}

type Leave struct{ ClientID string }

func (Leave) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

type GetState struct {
	Reply chan Status
}

func (GetState) isSessionMsg() {}

// timerFired carries a scheduler callback onto the loop goroutine.
type timerFired struct {
	gen uint64
	fn  func()
}

func (timerFired) isSessionMsg() {}

type Status struct {
	NumClients int
	State      engine.State
	Game       Game
	Results    engine.TierResults
	Snapshot   types.Snapshot
}

// Archiver stores finished sessions.
type Archiver interface {
	Save(ctx context.Context, s Summary) error
}

type Config struct {
	Items        []string
	RoundUnits   int
	TickInterval time.Duration
	Archiver     Archiver
	Logger       *zap.Logger
}

// Session runs one Orchestrator on a single goroutine and fans its broadcasts
// out to connected clients.
type Session struct {
	inbox   chan Msg
	orch    *Orchestrator
	sched   *loopScheduler
	items   []string
	clients map[string]chan any
	archive Archiver
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(parent context.Context, cfg Config) (*Session, error) {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	s := &Session{
		inbox:   make(chan Msg, 64), // Small buffer
		items:   append([]string{}, cfg.Items...),
		clients: make(map[string]chan any),
		archive: cfg.Archiver,
		log:     cfg.Logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.sched = &loopScheduler{inner: timer.NewCountdown(cfg.TickInterval), post: s.post}

	orch, err := NewOrchestrator(cfg.Items, Options{
		RoundUnits: cfg.RoundUnits,
		Scheduler:  s.sched,
		Emit:       s.broadcast,
		OnEnd:      s.archiveSummary,
		Logger:     cfg.Logger,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	s.orch = orch

	go s.loop()
	return s, nil
}

// Inbox lets the transport layer and tests send messages.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Items returns the catalog. It never changes after New.
func (s *Session) Items() []string { return append([]string{}, s.items...) }

// Done is closed once the loop has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Status asks the loop for a consistent view of the session.
func (s *Session) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case s.inbox <- GetState{Reply: reply}:
	case <-s.done:
		return Status{}, errors.New("session closed")
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return Status{}, errors.New("session closed")
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send the current snapshot to it alone
				s.clients[msg.ClientID] = msg.Outbox
				s.send(msg.ClientID, msg.Outbox, types.JoinMessage{Type: types.TypeJoin, Data: s.orch.Snapshot()})
				s.log.Info("client connected", zap.String("client", msg.ClientID), zap.Int("clients", len(s.clients)))

			case Leave:
				if _, ok := s.clients[msg.ClientID]; !ok {
					break
				}
				delete(s.clients, msg.ClientID)
				s.log.Info("client left", zap.String("client", msg.ClientID), zap.Int("clients", len(s.clients)))
				s.broadcast(types.NoticeMessage{Message: leftMessage})

			case FromClient:
				if err := s.orch.Handle(msg.Cmd); err != nil {
					s.logRejected(msg, err)
				}

			case timerFired:
				if msg.gen != s.sched.gen {
					break // cancelled before it reached the loop
				}
				msg.fn()

			case GetState:
				msg.Reply <- Status{
					NumClients: len(s.clients),
					State:      s.orch.State(),
					Game:       s.orch.Game(),
					Results:    s.orch.Results(),
					Snapshot:   s.orch.Snapshot(),
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) logRejected(msg FromClient, err error) {
	fields := []zap.Field{
		zap.String("client", msg.ClientID),
		zap.String("action", string(msg.Cmd.Action)),
		zap.String("state", string(s.orch.State())),
		zap.Error(err),
	}
	if errors.Is(err, engine.ErrInvalidAction) || errors.Is(err, ErrSessionEnded) {
		s.log.Debug("action ignored", fields...)
		return
	}
	s.log.Warn("action rejected", fields...)
}

func (s *Session) shutdown() {
	s.sched.Cancel()
	for id, ch := range s.clients {
		close(ch) // Tell client no more broadcasts
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) broadcast(msg any) {
	for id, ch := range s.clients {
		s.send(id, ch, msg)
	}
}

func (s *Session) send(id string, ch chan any, msg any) {
	select {
	case ch <- msg:
		//ok
	default:
		// Client is slow/full - drop them.
		s.log.Info("dropping slow client", zap.String("client", id))
		close(ch)
		delete(s.clients, id)
	}
}

func (s *Session) archiveSummary(sum Summary) {
	if s.archive == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
		if err := s.archive.Save(ctx, sum); err != nil {
			s.log.Warn("archive session results", zap.Error(err))
		}
	}()
}

// post is called from the countdown goroutine.
func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

// loopScheduler routes countdown callbacks through the session inbox and
// drops any that arrive after a Cancel or a newer Start.
type loopScheduler struct {
	inner *timer.Countdown
	post  func(Msg)
	gen   uint64 // only touched on the loop goroutine
}

func (l *loopScheduler) Start(units int, onTick func(int), onComplete func()) error {
	l.gen++
	gen := l.gen
	return l.inner.Start(units,
		func(n int) { l.post(timerFired{gen: gen, fn: func() { onTick(n) }}) },
		func() { l.post(timerFired{gen: gen, fn: onComplete}) },
	)
}

func (l *loopScheduler) Cancel() {
	l.gen++
	l.inner.Cancel()
}
