package app

import (
	"context"
	"math/rand"
	"sync"

	"whobible-live/internal/domain"
)

const (
	minQuestions       = 1
	maxQuestions       = 20
	minTimePerQuestion = 5
	maxTimePerQuestion = 120
	codeAttempts       = 5
)

// GameService exposes the host and player use cases over the room store,
// the question bank and the session registry.
type GameService struct {
	store    RoomStore
	pool     PoolProvider
	sessions SessionRegistry
	cfg      SessionConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGameService wires the service. cfg zero values fall back to live
// defaults (1s tick, 2s grace, wall clock, time-seeded randomness).
func NewGameService(store RoomStore, pool PoolProvider, sessions SessionRegistry, cfg SessionConfig) *GameService {
	cfg = cfg.withDefaults()
	return &GameService{
		store:    store,
		pool:     pool,
		sessions: sessions,
		cfg:      cfg,
		rnd:      cfg.Rand,
	}
}

// CreateRoom validates settings, picks a collision-free join code and opens
// a lobby. The returned session is registered under its code.
func (g *GameService) CreateRoom(ctx context.Context, settings domain.Settings) (*Session, error) {
	settings = normalizeSettings(settings)
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := g.newCode()
		room := domain.Room{
			Code:                 code,
			Status:               domain.StatusLobby,
			Settings:             settings,
			CurrentQuestionIndex: -1,
			Players:              map[string]domain.Player{},
			Responses:            map[string]domain.Response{},
		}
		if err := g.store.CreateRoom(ctx, code, room); err != nil {
			if err == domain.ErrRoomCodeTaken {
				lastErr = err
				continue
			}
			return nil, err
		}

		session, err := NewSession(code, settings, g.store, g.sessionConfig())
		if err != nil {
			_ = g.store.RemoveRoom(ctx, code)
			return nil, err
		}
		g.sessions.Put(code, session)
		return session, nil
	}
	return nil, lastErr
}

// Join registers a player in a lobby.
func (g *GameService) Join(ctx context.Context, code, playerID, name string) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return session.Join(ctx, playerID, name)
}

// Start loads the people pool and kicks off the quiz for a lobby.
func (g *GameService) Start(ctx context.Context, code string) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	pool, err := g.pool.LoadPool(ctx)
	if err != nil {
		return err
	}
	return session.Start(ctx, pool)
}

// SubmitAnswer validates a player's answer against the open question, then
// writes it into the player's own response slot in the store. The session
// observes the write through its subscription.
func (g *GameService) SubmitAnswer(ctx context.Context, code, playerID string, answer int) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	resp, err := session.ValidateAnswer(playerID, answer)
	if err != nil {
		return err
	}
	return g.store.SetField(ctx, code, "responses/"+playerID, resp)
}

// ShowLeaderboard advances a room from results to the leaderboard.
func (g *GameService) ShowLeaderboard(ctx context.Context, code string) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return session.ShowLeaderboard(ctx)
}

// NextQuestion opens the next question, or finishes the room when none
// remain.
func (g *GameService) NextQuestion(ctx context.Context, code string) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return session.NextQuestion(ctx)
}

// EndEarly finishes a room ahead of its remaining questions.
func (g *GameService) EndEarly(ctx context.Context, code string) error {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return session.EndEarly(ctx)
}

// Subscribe attaches a listener to a room's event stream.
func (g *GameService) Subscribe(code string) (<-chan Event, func(), error) {
	session, ok := g.sessions.Get(code)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Snapshot returns the current room state.
func (g *GameService) Snapshot(code string) (domain.Room, error) {
	session, ok := g.sessions.Get(code)
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return session.Snapshot(), nil
}

// CloseRoom tears a session down and removes its store document. Called when
// the host leaves, whether the game finished or was abandoned.
func (g *GameService) CloseRoom(ctx context.Context, code string) {
	session, ok := g.sessions.Get(code)
	if !ok {
		return
	}
	session.Close()
	g.sessions.Delete(code)
	_ = g.store.RemoveRoom(ctx, code)
}

func (g *GameService) newCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return NewRoomCode(g.rnd)
}

// sessionConfig hands each session its own random stream so concurrent rooms
// never contend on one rand.Rand.
func (g *GameService) sessionConfig() SessionConfig {
	cfg := g.cfg
	g.mu.Lock()
	cfg.Rand = rand.New(rand.NewSource(g.rnd.Int63()))
	g.mu.Unlock()
	return cfg
}

func normalizeSettings(s domain.Settings) domain.Settings {
	if s.Difficulty == "" {
		s.Difficulty = domain.DifficultyMedium
	}
	return s
}

func validateSettings(s domain.Settings) error {
	if s.NumQuestions < minQuestions || s.NumQuestions > maxQuestions {
		return domain.ErrInvalidSettings
	}
	if s.TimePerQuestion < minTimePerQuestion || s.TimePerQuestion > maxTimePerQuestion {
		return domain.ErrInvalidSettings
	}
	switch s.Difficulty {
	case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
		return nil
	default:
		return domain.ErrInvalidSettings
	}
}
