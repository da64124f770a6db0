package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"whobible-live/internal/app"
	"whobible-live/internal/domain"
	"whobible-live/internal/infra/memory"
)

func testPool() []domain.Person {
	return []domain.Person{
		{Name: "Moses", Age: 120, Mother: "Jochebed", Occupation: "Shepherd", NotableDeeds: []string{"Parted the sea"}, NotableEvents: []string{"Received the law"}},
		{Name: "David", Age: 70, Mother: "Nitzevet", Occupation: "King", NotableDeeds: []string{"Slew Goliath"}, NotableEvents: []string{"Was anointed by Samuel"}},
		{Name: "Noah", Age: 950, Mother: "Betenos", Occupation: "Ark builder", NotableDeeds: []string{"Built the ark"}, NotableEvents: []string{"Survived the flood"}},
		{Name: "Samuel", Age: 98, Mother: "Hannah", Occupation: "Prophet", NotableDeeds: []string{"Anointed kings"}, NotableEvents: []string{"Heard God as a boy"}},
		{Name: "Isaac", Age: 180, Mother: "Sarah", Occupation: "Herdsman", NotableDeeds: []string{"Reopened the wells"}, NotableEvents: []string{"Was bound on the altar"}},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()
	service := app.NewGameService(
		memory.NewRoomStore(),
		memory.NewPoolRepository(memory.NewStaticPoolLoader(testPool()), time.Minute),
		memory.NewSessionRegistry(),
		app.SessionConfig{
			// no countdown pressure in tests; the grace delay advances play
			Tick:  time.Hour,
			Grace: 50 * time.Millisecond,
		},
	)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/player", wsHandler.ServePlayer)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, service
}

func TestHostAndPlayerFlow(t *testing.T) {
	server, _ := newTestServer(t)
	wsBase := "ws" + server.URL[len("http"):]

	host, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/host", nil)
	if err != nil {
		t.Fatalf("host dial: %v", err)
	}
	defer host.Close()

	create := map[string]any{
		"type": "create",
		"payload": map[string]any{
			"difficulty":      "hard",
			"numQuestions":    2,
			"timePerQuestion": 20,
		},
	}
	if err := host.WriteJSON(create); err != nil {
		t.Fatalf("write create: %v", err)
	}

	_, roomPayload := readNext(host, t, "room")
	code, _ := roomPayload["code"].(string)
	if code == "" {
		t.Fatal("no room code in create reply")
	}

	player, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/player?code="+code+"&name=Alice", nil)
	if err != nil {
		t.Fatalf("player dial: %v", err)
	}
	defer player.Close()

	readNext(player, t, "joined")
	readNext(host, t, "roster")

	if err := host.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}

	readNext(host, t, "started")
	_, hostQuestion := readNext(host, t, "question")
	correct := correctIndex(t, hostQuestion)

	// The player sees the question too, but without the answer.
	_, playerEvent := readNext(player, t, "question")
	for _, q := range questionList(t, playerEvent) {
		if q.Correct != "" {
			t.Fatalf("player event leaked correct answer %q", q.Correct)
		}
	}

	answer := map[string]any{
		"type":    "answer",
		"payload": map[string]any{"answer": correct},
	}
	if err := player.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	readNext(player, t, "answerAck")

	_, results := readNext(host, t, "results")
	var ev app.Event
	decodePayload(t, results, &ev)
	if len(ev.Awards) != 1 {
		t.Fatalf("expected one award, got %+v", ev.Awards)
	}
	for _, award := range ev.Awards {
		if !award.Correct || award.Points < 1000 || award.Points > 1500 {
			t.Fatalf("award out of range: %+v", award)
		}
	}
}

// A host that drops its socket must not leave the room behind.
func TestHostDisconnectClosesRoom(t *testing.T) {
	server, service := newTestServer(t)
	wsBase := "ws" + server.URL[len("http"):]

	host, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/host", nil)
	if err != nil {
		t.Fatalf("host dial: %v", err)
	}

	create := map[string]any{
		"type": "create",
		"payload": map[string]any{
			"difficulty":      "easy",
			"numQuestions":    1,
			"timePerQuestion": 20,
		},
	}
	if err := host.WriteJSON(create); err != nil {
		t.Fatalf("write create: %v", err)
	}
	_, roomPayload := readNext(host, t, "room")
	code, _ := roomPayload["code"].(string)
	if code == "" {
		t.Fatal("no room code")
	}
	if _, err := service.Snapshot(code); err != nil {
		t.Fatalf("room not live after create: %v", err)
	}

	host.Close()

	deadline := time.Now().Add(3 * time.Second)
	for {
		if _, err := service.Snapshot(code); err == domain.ErrRoomNotFound {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("room still live after host disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func correctIndex(t *testing.T, payload map[string]any) int {
	t.Helper()
	var ev app.Event
	decodePayload(t, payload, &ev)
	idx := ev.Room.CurrentQuestionIndex
	if idx < 0 || idx >= len(ev.Room.Questions) {
		t.Fatalf("bad question index %d", idx)
	}
	ci := ev.Room.Questions[idx].CorrectIndex()
	if ci < 0 {
		t.Fatalf("question has no correct option: %+v", ev.Room.Questions[idx])
	}
	return ci
}

func questionList(t *testing.T, payload map[string]any) []domain.Question {
	t.Helper()
	var ev app.Event
	decodePayload(t, payload, &ev)
	return ev.Room.Questions
}

func decodePayload(t *testing.T, payload map[string]any, target any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json (expecting %q): %v", expect, err)
		}
		if expect == "" || msg.Type == expect {
			return msg.Type, msg.Payload
		}
	}
}
