package suppression

import (
	"strconv"
	"strings"
)

// Key identifies one rejected torrent-to-library match. Titles are
// lowercased and the score is rounded to a fixed precision so the same
// rejection always produces the same key.
type Key struct {
	Title     string
	Candidate string
	Score     string
}

// NewKey builds a key from a torrent title, a library candidate, and the
// similarity score that paired them. precision is the number of decimal
// places kept from the score.
func NewKey(title, candidate string, score float64, precision int) Key {
	if precision < 0 {
		precision = 0
	}
	return Key{
		Title:     strings.ToLower(strings.TrimSpace(title)),
		Candidate: strings.ToLower(strings.TrimSpace(candidate)),
		Score:     strconv.FormatFloat(score, 'f', precision, 64),
	}
}

func (k Key) String() string {
	return k.Title + "|" + k.Candidate + "|" + k.Score
}
