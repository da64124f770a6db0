package app

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"whobible-live/internal/domain"
)

// nopStore satisfies RoomStore without observing anything; white-box tests
// drive the session directly.
type nopStore struct{}

func (nopStore) CreateRoom(context.Context, string, domain.Room) error { return nil }
func (nopStore) GetRoom(context.Context, string) (domain.Room, error) {
	return domain.Room{}, domain.ErrRoomNotFound
}
func (nopStore) SetField(context.Context, string, string, any) error { return nil }
func (nopStore) Subscribe(context.Context, string, string, func(value any)) (func(), error) {
	return func() {}, nil
}
func (nopStore) RemoveRoom(context.Context, string) error { return nil }

// recordingStore keeps the order of field writes.
type recordingStore struct {
	nopStore
	mu     sync.Mutex
	writes []string
}

func (s *recordingStore) SetField(_ context.Context, _ string, path string, _ any) error {
	s.mu.Lock()
	s.writes = append(s.writes, path)
	s.mu.Unlock()
	return nil
}

// The question list must reach the store before the status flips to
// question, or an observer can see an open question with no questions.
func TestStartPersistsQuestionsBeforeStatus(t *testing.T) {
	store := &recordingStore{}
	session, err := NewSession("HOPE-002", domain.Settings{
		Difficulty:      domain.DifficultyHard,
		NumQuestions:    3,
		TimePerQuestion: 20,
	}, store, SessionConfig{
		Tick: time.Hour,
		Rand: rand.New(rand.NewSource(9)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()

	ctx := context.Background()
	if err := session.Join(ctx, "p1", "Ruth"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := session.Start(ctx, richPool()); err != nil {
		t.Fatalf("start: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	questionsAt, statusAt := -1, -1
	for i, path := range store.writes {
		switch path {
		case "questions":
			if questionsAt < 0 {
				questionsAt = i
			}
		case "status":
			if statusAt < 0 {
				statusAt = i
			}
		}
	}
	if questionsAt < 0 || statusAt < 0 {
		t.Fatalf("missing writes, got %v", store.writes)
	}
	if questionsAt > statusAt {
		t.Fatalf("questions written at %d, after status at %d: %v", questionsAt, statusAt, store.writes)
	}
}

// Closing the same question twice must not double-increment scores, even if
// the timeout and the all-answered path were ever to race.
func TestCloseQuestionIsIdempotent(t *testing.T) {
	session, err := NewSession("FAITH-001", domain.Settings{
		Difficulty:      domain.DifficultyHard,
		NumQuestions:    3,
		TimePerQuestion: 20,
	}, nopStore{}, SessionConfig{
		Tick: time.Hour,
		Rand: rand.New(rand.NewSource(5)),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer session.Close()

	ctx := context.Background()
	if err := session.Join(ctx, "p1", "Ruth"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := session.Start(ctx, richPool()); err != nil {
		t.Fatalf("start: %v", err)
	}

	session.mu.Lock()
	correct := session.questions[0].CorrectIndex()
	session.responses = map[string]domain.Response{
		"p1": {Answer: correct, TimeTaken: 5},
	}
	session.closeQuestionLocked()
	score := session.players["p1"].Score
	correctCount := session.players["p1"].Correct
	presented := session.presented

	session.closeQuestionLocked()
	if session.players["p1"].Score != score {
		t.Errorf("double close changed score: %d -> %d", score, session.players["p1"].Score)
	}
	if session.players["p1"].Correct != correctCount {
		t.Errorf("double close changed correct count")
	}
	if session.presented != presented {
		t.Errorf("double close changed presented count")
	}
	if session.status != domain.StatusResults {
		t.Errorf("status %s after close", session.status)
	}
	session.mu.Unlock()

	if score != 1000+375 {
		t.Errorf("expected 1375 points for a 5s answer, got %d", score)
	}
	if correctCount != 1 {
		t.Errorf("expected one correct answer, got %d", correctCount)
	}
}
