package domain

import "time"

// Status is the lifecycle phase of a room. Transitions are owned by the host
// session; players only ever observe it.
type Status string

const (
	StatusLobby       Status = "lobby"
	StatusQuestion    Status = "question"
	StatusResults     Status = "results"
	StatusLeaderboard Status = "leaderboard"
	StatusFinished    Status = "finished"
)

// Difficulty selects how the question pool is filtered.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType tags how a question was generated from a person record.
type QuestionType string

const (
	QuestionDeed       QuestionType = "deed"
	QuestionAge        QuestionType = "age"
	QuestionMother     QuestionType = "mother"
	QuestionOccupation QuestionType = "occupation"
	QuestionEvent      QuestionType = "event"
)

// Person is one entry of the question bank. Every field except Name is
// optional; the generator skips question types the person has no data for.
type Person struct {
	Name          string   `json:"name"`
	Age           int      `json:"age,omitempty"`
	Mother        string   `json:"mother,omitempty"`
	Occupation    string   `json:"occupation,omitempty"`
	NotableDeeds  []string `json:"notableDeeds,omitempty"`
	NotableEvents []string `json:"notableEvents,omitempty"`
	Verses        []string `json:"verses,omitempty"`
}

// Question is one multiple-choice item. Options always holds exactly four
// distinct strings, one of which equals Correct.
type Question struct {
	Index   int          `json:"index"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Correct string       `json:"correct"`
	Options []string     `json:"options"`
	Verse   string       `json:"verse,omitempty"`
	Points  int          `json:"points"` // informational; scoring recomputes
}

// CorrectIndex returns the position of the correct option, or -1 if the
// question is malformed.
func (q Question) CorrectIndex() int {
	for i, opt := range q.Options {
		if opt == q.Correct {
			return i
		}
	}
	return -1
}

// Settings configure a room at creation time and are immutable once the
// quiz starts.
type Settings struct {
	Difficulty      Difficulty `json:"difficulty"`
	NumQuestions    int        `json:"numQuestions"`
	TimePerQuestion int        `json:"timePerQuestion"` // seconds
}

// Player is a joined participant. Score and Correct are cumulative and only
// ever incremented by the host.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
}

// Response is one player's answer to the currently open question.
// Answer indexes the question's Options; -1 marks an explicit pass.
type Response struct {
	Answer    int     `json:"answer"`
	TimeTaken float64 `json:"timeTaken"` // seconds since question open
}

// Answered reports whether the response selects an option.
func (r Response) Answered() bool {
	return r.Answer >= 0
}

// Award is the scoring outcome for one player on one question.
type Award struct {
	Points  int  `json:"points"`
	Correct bool `json:"correct"`
}

// Standing is one row of a ranked leaderboard. Rank starts at 1; the first
// three ranks are the podium.
type Standing struct {
	Rank    int    `json:"rank"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
}

// Summary is the aggregate computed once, when a room finishes.
type Summary struct {
	Players            int        `json:"players"`
	QuestionsPresented int        `json:"questionsPresented"`
	Accuracy           int        `json:"accuracy"` // percent, 0-100
	Standings          []Standing `json:"standings"`
}

// Room is a full snapshot of one live session as held in the room store.
type Room struct {
	Code                 string              `json:"code"`
	Status               Status              `json:"status"`
	Settings             Settings            `json:"settings"`
	Questions            []Question          `json:"questions,omitempty"`
	CurrentQuestionIndex int                 `json:"currentQuestionIndex"`
	QuestionStartTime    time.Time           `json:"questionStartTime,omitempty"`
	Players              map[string]Player   `json:"players,omitempty"`
	Responses            map[string]Response `json:"responses,omitempty"`
}
