package app

import (
	"fmt"
	"math/rand"
	"strings"

	"whobible-live/internal/domain"
)

const (
	baseQuestionPoints = 1000
	optionCount        = 4
	// distractor sampling gives up after this many draws per slot so a thin
	// pool cannot spin the generator forever; the question is dropped and
	// counted against the shortfall instead.
	maxDistractorDraws = 64
)

var questionTypes = []domain.QuestionType{
	domain.QuestionDeed,
	domain.QuestionAge,
	domain.QuestionMother,
	domain.QuestionOccupation,
	domain.QuestionEvent,
}

// Generator builds multiple-choice questions from a people pool. The random
// source is injected so games are reproducible under test.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate produces up to count questions from pool at the given difficulty.
// The second return value is the shortfall: how many requested questions
// could not be built because the filtered pool ran out of eligible people or
// a picked person lacked the field the drawn question type needs.
func (g *Generator) Generate(pool []domain.Person, difficulty domain.Difficulty, count int) ([]domain.Question, int) {
	eligible := filterPool(pool, difficulty)
	if len(eligible) == 0 || count <= 0 {
		return nil, count
	}

	used := make(map[int]bool, len(eligible))
	questions := make([]domain.Question, 0, count)

	for i := 0; i < count && len(used) < len(eligible); i++ {
		idx := g.rnd.Intn(len(eligible))
		for used[idx] {
			idx = (idx + 1) % len(eligible)
		}
		used[idx] = true

		person := eligible[idx]
		qType := questionTypes[g.rnd.Intn(len(questionTypes))]
		q, ok := g.build(person, qType, pool)
		if !ok {
			// Person lacks the drawn field; no retry with another type.
			continue
		}
		q.Index = len(questions)
		questions = append(questions, q)
	}

	return questions, count - len(questions)
}

// build assembles one question, or reports false when the person has no data
// for the drawn type or distractors cannot be filled.
func (g *Generator) build(person domain.Person, qType domain.QuestionType, pool []domain.Person) (domain.Question, bool) {
	var prompt, correct, verse string

	switch qType {
	case domain.QuestionDeed:
		if len(person.NotableDeeds) == 0 {
			return domain.Question{}, false
		}
		prompt = "Who " + strings.ToLower(person.NotableDeeds[0]) + "?"
		correct = person.Name
	case domain.QuestionAge:
		if person.Age <= 0 {
			return domain.Question{}, false
		}
		prompt = fmt.Sprintf("How old was %s when they died?", person.Name)
		correct = fmt.Sprintf("%d", person.Age)
	case domain.QuestionMother:
		if person.Mother == "" {
			return domain.Question{}, false
		}
		prompt = fmt.Sprintf("Who was the mother of %s?", person.Name)
		correct = person.Mother
	case domain.QuestionOccupation:
		if person.Occupation == "" {
			return domain.Question{}, false
		}
		prompt = fmt.Sprintf("What was %s's occupation?", person.Name)
		correct = person.Occupation
	case domain.QuestionEvent:
		if len(person.NotableEvents) == 0 {
			return domain.Question{}, false
		}
		prompt = "Who " + strings.ToLower(person.NotableEvents[0]) + "?"
		correct = person.Name
	default:
		return domain.Question{}, false
	}

	if len(person.Verses) > 0 {
		verse = person.Verses[0]
	}

	options, ok := g.pickOptions(correct, qType, pool)
	if !ok {
		return domain.Question{}, false
	}

	return domain.Question{
		Type:    qType,
		Prompt:  prompt,
		Correct: correct,
		Options: options,
		Verse:   verse,
		Points:  baseQuestionPoints,
	}, true
}

// pickOptions returns the correct answer plus three distinct distractors of
// the same field, in shuffled order.
func (g *Generator) pickOptions(correct string, qType domain.QuestionType, pool []domain.Person) ([]string, bool) {
	options := []string{correct}
	seen := map[string]bool{correct: true}

	draws := 0
	for len(options) < optionCount {
		if draws >= maxDistractorDraws {
			return nil, false
		}
		draws++

		candidate := distractorField(pool[g.rnd.Intn(len(pool))], qType)
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		options = append(options, candidate)
	}

	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options, true
}

// distractorField extracts the wrong-answer value a question type draws from
// a random pool member.
func distractorField(p domain.Person, qType domain.QuestionType) string {
	switch qType {
	case domain.QuestionAge:
		if p.Age <= 0 {
			return ""
		}
		return fmt.Sprintf("%d", p.Age)
	case domain.QuestionMother:
		return p.Mother
	case domain.QuestionOccupation:
		return p.Occupation
	default:
		// deed and event questions ask for a person's name
		return p.Name
	}
}

// filterPool applies the difficulty filter. Easy games only ask about people
// with at least one recorded notable event; medium and hard use the full pool.
func filterPool(pool []domain.Person, difficulty domain.Difficulty) []domain.Person {
	if difficulty != domain.DifficultyEasy {
		return pool
	}
	filtered := make([]domain.Person, 0, len(pool))
	for _, p := range pool {
		if len(p.NotableEvents) > 0 {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
