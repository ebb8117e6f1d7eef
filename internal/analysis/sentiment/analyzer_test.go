package sentiment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBlankIsNeutral(t *testing.T) {
	assert.Equal(t, 0.0, Score(""))
	assert.Equal(t, 0.0, Score("   \n\t"))
}

func TestScoreStaysInRange(t *testing.T) {
	inputs := []string{
		"You are wonderful and I love talking to you",
		"I hate you, you vile ugly monster. Worst. Awful. Terrible.",
		strings.Repeat("amazing ", 50),
		strings.Repeat("evil ", 50),
		"the mirror is made of glass",
		"!!!???",
	}
	for _, in := range inputs {
		got := Score(in)
		assert.GreaterOrEqual(t, got, -1.0, in)
		assert.LessOrEqual(t, got, 1.0, in)
	}
}

func TestScoreSaturatesAtTheTails(t *testing.T) {
	assert.Equal(t, 1.0, Score("wonderful amazing"))
	assert.Equal(t, 1.0, Score(strings.Repeat("wonderful ", 10)))
	assert.Equal(t, -1.0, Score("evil vile cruel"))
}

func TestScoreNormalizesByDivisor(t *testing.T) {
	// "good" carries a weight of 3.
	assert.InDelta(t, 0.6, Score("good"), 1e-9)
	assert.InDelta(t, 0.3, Scorer{Divisor: 10}.Score("good"), 1e-9)
	assert.InDelta(t, 0.6, Scorer{Divisor: -2}.Score("good"), 1e-9)
}

func TestAnalyzeBreakdown(t *testing.T) {
	res := Scorer{}.Analyze("You are wonderful, and I LOVE talking to you!")
	require.Len(t, res.Tokens, 9)
	assert.Equal(t, 7, res.Score)
	assert.ElementsMatch(t, []string{"wonderful", "love"}, res.Positive)
	assert.Empty(t, res.Negative)
	assert.Equal(t, 1.0, res.Polarity)
	assert.InDelta(t, 7.0/9.0, res.Comparative, 1e-9)
}

func TestAnalyzeNegationFlipsWeight(t *testing.T) {
	res := Scorer{}.Analyze("I don't like this")
	assert.Equal(t, -2, res.Score)
	assert.Equal(t, []string{"like"}, res.Negative)

	assert.Less(t, Score("you are not kind"), 0.0)
	assert.Greater(t, Score("you are not cruel"), 0.0)
}

func TestAnalyzeCurlyApostrophe(t *testing.T) {
	assert.Equal(t, Score("I don't hate you"), Score("I don’t hate you"))
}

func TestCustomLexicon(t *testing.T) {
	s := Scorer{Lexicon: map[string]int{"glass": 5}}
	assert.Equal(t, 1.0, s.Score("the mirror is made of glass"))
	assert.Equal(t, 0.0, s.Score("wonderful"))
}

func TestLexiconCoversFullValenceRange(t *testing.T) {
	assert.Greater(t, len(afinn), 3000)

	for word, weight := range map[string]int{
		"superb":       5,
		"outstanding":  5,
		"thrilled":     5,
		"breathtaking": 5,
		"bastard":      -5,
		"crap":         -3,
		"suck":         -3,
	} {
		assert.Equal(t, weight, afinn[word], word)
	}

	for _, weight := range afinn {
		assert.GreaterOrEqual(t, weight, -5)
		assert.LessOrEqual(t, weight, 5)
	}
}

func TestScoreStrongEverydayWords(t *testing.T) {
	assert.Equal(t, 1.0, Score("superb"))
	assert.Equal(t, 1.0, Score("you are outstanding"))
	assert.Equal(t, 1.0, Score("I am thrilled"))
	assert.Equal(t, -1.0, Score("you are a bastard"))
	assert.InDelta(t, -0.6, Score("this is crap"), 1e-9)
	assert.Less(t, Score("you suck"), 0.0)
	assert.Greater(t, Score("you don't suck"), 0.0)
}

func TestParseLexicon(t *testing.T) {
	got, err := parseLexicon("good\t3\n\nWell-Being\t2\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"good": 3, "well-being": 2}, got)

	for _, bad := range []string{"good 3\n", "good\tthree\n", "good\t9\n"} {
		_, err := parseLexicon(bad)
		assert.Error(t, err, bad)
	}
}
