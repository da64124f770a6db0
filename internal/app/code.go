package app

import (
	"fmt"
	"math/rand"
)

// codeWords is the fixed vocabulary join codes draw from. Codes look like
// FAITH-482: easy to read aloud to a classroom.
var codeWords = []string{
	"FAITH", "GRACE", "HOPE", "LIGHT", "PEACE",
	"TRUTH", "MERCY", "GLORY", "ZION", "JORDAN",
}

// NewRoomCode returns a join code in the form {WORD}-{NNN}.
func NewRoomCode(rnd *rand.Rand) string {
	word := codeWords[rnd.Intn(len(codeWords))]
	return fmt.Sprintf("%s-%03d", word, rnd.Intn(1000))
}
