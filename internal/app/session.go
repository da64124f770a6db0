package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"whobible-live/internal/domain"
)

// Session drives one live room: lobby, per-question countdown, scoring and
// the leaderboard, until finished. All authoritative transitions happen here;
// players reach the session only through the room store ("responses" subtree)
// and the join path. One process can run many sessions side by side.
type Session struct {
	code  string
	store RoomStore
	gen   *Generator
	clock func() time.Time
	tick  time.Duration
	grace time.Duration

	mu             sync.Mutex
	status         domain.Status
	settings       domain.Settings
	questions      []domain.Question
	idx            int
	questionStart  time.Time
	remaining      int
	players        map[string]*domain.Player
	joinOrder      []string
	responses      map[string]domain.Response
	presented      int
	questionClosed bool
	shortfall      int
	summary        *domain.Summary

	stopCountdown chan struct{}
	graceTimer    *time.Timer
	unsubStore    func()
	subscribers   map[chan Event]struct{}
}

// SessionConfig carries the knobs a session needs beyond its settings.
// Tick and Grace default to the live values (1s countdown tick, 2s grace
// after the last answer); tests shrink them.
type SessionConfig struct {
	Tick  time.Duration
	Grace time.Duration
	Clock func() time.Time
	Rand  *rand.Rand
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.Grace <= 0 {
		c.Grace = 2 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return c
}

// NewSession builds a session in the lobby and wires it to the room store:
// the "responses" subtree is watched so player submissions drive the
// all-answered check.
func NewSession(code string, settings domain.Settings, store RoomStore, cfg SessionConfig) (*Session, error) {
	cfg = cfg.withDefaults()
	s := &Session{
		code:        code,
		store:       store,
		gen:         NewGenerator(cfg.Rand),
		clock:       cfg.Clock,
		tick:        cfg.Tick,
		grace:       cfg.Grace,
		status:      domain.StatusLobby,
		idx:         -1,
		players:     make(map[string]*domain.Player),
		responses:   make(map[string]domain.Response),
		subscribers: make(map[chan Event]struct{}),
	}

	unsub, err := store.Subscribe(context.Background(), code, "responses", s.onResponses)
	if err != nil {
		return nil, err
	}
	s.unsubStore = unsub
	s.settings = settings
	return s, nil
}

// Code returns the room join code.
func (s *Session) Code() string {
	return s.code
}

// Join adds a player while the room is still in the lobby. The roster entry
// is mirrored into the store under the player's own path.
func (s *Session) Join(ctx context.Context, playerID, name string) error {
	s.mu.Lock()
	if s.status != domain.StatusLobby {
		s.mu.Unlock()
		return domain.ErrWrongStatus
	}
	player := &domain.Player{ID: playerID, Name: name}
	if _, ok := s.players[playerID]; !ok {
		s.joinOrder = append(s.joinOrder, playerID)
	}
	s.players[playerID] = player
	snapshot := *player
	s.mu.Unlock()

	if err := s.store.SetField(ctx, s.code, "players/"+playerID, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	ev := Event{Kind: EventRoster, Room: s.snapshotLocked()}
	s.broadcastLocked(ev)
	s.mu.Unlock()
	return nil
}

// Start generates the full question list and opens the first question.
// It requires a non-empty lobby; a generation shortfall is reported in the
// started event rather than failing the game.
func (s *Session) Start(ctx context.Context, pool []domain.Person) error {
	s.mu.Lock()
	if s.status != domain.StatusLobby {
		s.mu.Unlock()
		return domain.ErrWrongStatus
	}
	if len(s.players) == 0 {
		s.mu.Unlock()
		return domain.ErrNoPlayers
	}

	questions, shortfall := s.gen.Generate(pool, s.settings.Difficulty, s.settings.NumQuestions)
	if len(questions) == 0 {
		s.mu.Unlock()
		return domain.ErrEmptyPool
	}
	s.questions = questions
	s.shortfall = shortfall
	s.idx = 0
	// The question list must land in the store before the status flips, so
	// an observer never sees an open question without its questions.
	_ = s.store.SetField(ctx, s.code, "questions", questions)
	s.broadcastLocked(Event{Kind: EventStarted, Room: s.snapshotLocked(), Shortfall: shortfall})
	s.openQuestionLocked()
	s.mu.Unlock()
	return nil
}

// ValidateAnswer checks a submission against the open question and returns
// the response to write into the store. The elapsed time is measured here,
// on the host clock, rather than trusted from the client.
func (s *Session) ValidateAnswer(playerID string, answer int) (domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[playerID]; !ok {
		return domain.Response{}, domain.ErrPlayerNotFound
	}
	if s.status != domain.StatusQuestion || s.questionClosed {
		return domain.Response{}, domain.ErrNoQuestionOpen
	}
	q := s.questions[s.idx]
	if answer < 0 || answer >= len(q.Options) {
		return domain.Response{}, domain.ErrInvalidAnswer
	}
	taken := s.clock().Sub(s.questionStart).Seconds()
	if taken < 0 {
		taken = 0
	}
	return domain.Response{Answer: answer, TimeTaken: taken}, nil
}

// ShowLeaderboard moves from results to the leaderboard on explicit host
// action.
func (s *Session) ShowLeaderboard(ctx context.Context) error {
	s.mu.Lock()
	if s.status != domain.StatusResults {
		s.mu.Unlock()
		return domain.ErrWrongStatus
	}
	s.status = domain.StatusLeaderboard
	ev := Event{Kind: EventLeaderboard, Room: s.snapshotLocked(), Standings: Rank(s.playersInJoinOrderLocked())}
	s.broadcastLocked(ev)
	s.mu.Unlock()

	_ = s.store.SetField(ctx, s.code, "status", domain.StatusLeaderboard)
	return nil
}

// NextQuestion opens the next question from the leaderboard, or finishes the
// session when none remain.
func (s *Session) NextQuestion(ctx context.Context) error {
	s.mu.Lock()
	if s.status != domain.StatusLeaderboard {
		s.mu.Unlock()
		return domain.ErrWrongStatus
	}
	if s.idx+1 >= len(s.questions) {
		s.finishLocked()
		s.mu.Unlock()
		_ = s.store.SetField(ctx, s.code, "status", domain.StatusFinished)
		return nil
	}
	s.idx++
	s.openQuestionLocked()
	s.mu.Unlock()
	return nil
}

// EndEarly finishes the session from results or the leaderboard, skipping
// any remaining questions. Confirmation is a client concern.
func (s *Session) EndEarly(ctx context.Context) error {
	s.mu.Lock()
	if s.status != domain.StatusResults && s.status != domain.StatusLeaderboard {
		s.mu.Unlock()
		return domain.ErrWrongStatus
	}
	s.finishLocked()
	s.mu.Unlock()

	_ = s.store.SetField(ctx, s.code, "status", domain.StatusFinished)
	return nil
}

// Summary returns the final aggregate, present only once finished.
func (s *Session) Summary() (domain.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return domain.Summary{}, false
	}
	return *s.summary, true
}

// Snapshot returns a copy of the room as the session currently sees it.
func (s *Session) Snapshot() domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers a listener for session events. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close tears the session down: countdown and grace timers stop and the
// store subscription is released. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimersLocked()
	if s.unsubStore != nil {
		s.unsubStore()
		s.unsubStore = nil
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// openQuestionLocked clears responses, records the question start time and
// restarts the countdown. Caller holds s.mu.
func (s *Session) openQuestionLocked() {
	s.stopTimersLocked()
	s.responses = make(map[string]domain.Response)
	s.questionStart = s.clock()
	s.remaining = s.settings.TimePerQuestion
	s.questionClosed = false
	s.status = domain.StatusQuestion

	_ = s.store.SetField(context.Background(), s.code, "responses", map[string]domain.Response{})
	_ = s.store.SetField(context.Background(), s.code, "currentQuestionIndex", s.idx)
	_ = s.store.SetField(context.Background(), s.code, "questionStartTime", s.questionStart)
	_ = s.store.SetField(context.Background(), s.code, "status", domain.StatusQuestion)

	s.broadcastLocked(Event{Kind: EventQuestion, Room: s.snapshotLocked()})
	s.startCountdownLocked()
}

// startCountdownLocked runs the repeating one-second tick that forces the
// question closed when time runs out. Caller holds s.mu.
func (s *Session) startCountdownLocked() {
	stop := make(chan struct{})
	s.stopCountdown = stop

	go func() {
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if s.countdownTick() {
					return
				}
			case <-stop:
				return
			}
		}
	}()
}

// countdownTick decrements the remaining time and reports true once the
// question has closed, either here or elsewhere.
func (s *Session) countdownTick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusQuestion || s.questionClosed {
		return true
	}
	s.remaining--
	if s.remaining > 0 {
		return false
	}
	s.closeQuestionLocked()
	return true
}

// onResponses is the store subscription callback: it replaces the local
// response snapshot and re-evaluates the all-answered rule. A late
// notification for a closed question is ignored.
func (s *Session) onResponses(value any) {
	var responses map[string]domain.Response
	if err := DecodeValue(value, &responses); err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusQuestion || s.questionClosed {
		return
	}
	if responses == nil {
		responses = make(map[string]domain.Response)
	}
	s.responses = responses

	answered := 0
	for id := range s.players {
		if r, ok := s.responses[id]; ok && r.Answered() {
			answered++
		}
	}
	if answered == 0 || answered < len(s.players) {
		// A newer snapshot can retract the condition, e.g. the clear written
		// when a question opens. Any pending grace close is void with it.
		if s.graceTimer != nil {
			s.graceTimer.Stop()
			s.graceTimer = nil
		}
		return
	}
	if s.graceTimer != nil {
		return
	}
	// Everyone is in: close after the grace delay, not instantly. A timeout
	// racing this path is absorbed by the questionClosed guard.
	s.graceTimer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.status != domain.StatusQuestion || s.questionClosed {
			return
		}
		s.closeQuestionLocked()
	})
}

// closeQuestionLocked scores the open question exactly once and moves the
// room to results. Caller holds s.mu.
func (s *Session) closeQuestionLocked() {
	if s.questionClosed {
		return
	}
	s.questionClosed = true
	s.stopTimersLocked()

	q := s.questions[s.idx]
	awards := ScoreQuestion(q, s.responses, s.settings.TimePerQuestion)
	for playerID, award := range awards {
		player, ok := s.players[playerID]
		if !ok || !award.Correct {
			continue
		}
		player.Score += award.Points
		player.Correct++
	}
	s.presented++
	s.status = domain.StatusResults

	players := make(map[string]domain.Player, len(s.players))
	for id, p := range s.players {
		players[id] = *p
	}
	_ = s.store.SetField(context.Background(), s.code, "players", players)
	_ = s.store.SetField(context.Background(), s.code, "status", domain.StatusResults)

	s.broadcastLocked(Event{
		Kind:      EventResults,
		Room:      s.snapshotLocked(),
		Awards:    awards,
		Standings: Rank(s.playersInJoinOrderLocked()),
	})
}

// finishLocked computes the final summary. Caller holds s.mu.
func (s *Session) finishLocked() {
	s.stopTimersLocked()
	s.status = domain.StatusFinished
	summary := Summarize(s.playersInJoinOrderLocked(), s.presented)
	s.summary = &summary
	s.broadcastLocked(Event{Kind: EventFinished, Room: s.snapshotLocked(), Summary: &summary})
}

// stopTimersLocked halts the countdown goroutine and any pending grace
// timer. Caller holds s.mu.
func (s *Session) stopTimersLocked() {
	if s.stopCountdown != nil {
		close(s.stopCountdown)
		s.stopCountdown = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

// playersInJoinOrderLocked copies players in the order they joined, which is
// the tie-break order for rankings. Caller holds s.mu.
func (s *Session) playersInJoinOrderLocked() []domain.Player {
	players := make([]domain.Player, 0, len(s.joinOrder))
	for _, id := range s.joinOrder {
		if p, ok := s.players[id]; ok {
			players = append(players, *p)
		}
	}
	return players
}

// snapshotLocked builds a room snapshot from session state. Caller holds s.mu.
func (s *Session) snapshotLocked() domain.Room {
	players := make(map[string]domain.Player, len(s.players))
	for id, p := range s.players {
		players[id] = *p
	}
	responses := make(map[string]domain.Response, len(s.responses))
	for id, r := range s.responses {
		responses[id] = r
	}
	return domain.Room{
		Code:                 s.code,
		Status:               s.status,
		Settings:             s.settings,
		Questions:            s.questions,
		CurrentQuestionIndex: s.idx,
		QuestionStartTime:    s.questionStart,
		Players:              players,
		Responses:            responses,
	}
}

// broadcastLocked fans an event out without letting a slow subscriber block
// the state machine; a full channel drops its oldest event first. Caller
// holds s.mu.
func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
