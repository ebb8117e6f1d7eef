package sentiment

import (
	"bufio"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

// afinnData is the AFINN-165 word list, one "word<TAB>valence" pair per line
// with valence in [-5, 5].
//
//go:embed afinn-165.txt
var afinnData string

var afinn = mustParseLexicon(afinnData)

func mustParseLexicon(data string) map[string]int {
	lexicon, err := parseLexicon(data)
	if err != nil {
		panic(err)
	}
	return lexicon
}

// parseLexicon reads tab separated word/valence lines. Blank lines are skipped.
func parseLexicon(data string) (map[string]int, error) {
	lexicon := make(map[string]int, 3400)
	scanner := bufio.NewScanner(strings.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		idx := strings.LastIndexByte(text, '\t')
		if idx <= 0 {
			return nil, fmt.Errorf("lexicon line %d: missing tab separator", line)
		}
		word := strings.ToLower(strings.TrimSpace(text[:idx]))
		weight, err := strconv.Atoi(strings.TrimSpace(text[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		if weight < -5 || weight > 5 {
			return nil, fmt.Errorf("lexicon line %d: valence %d out of range", line, weight)
		}
		lexicon[word] = weight
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lexicon, nil
}

// negators flip the sign of the word that follows them.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"nothing": true, "neither": true, "nor": true, "cannot": true,
	"can't": true, "cant": true, "don't": true, "dont": true,
	"doesn't": true, "doesnt": true, "didn't": true, "didnt": true,
	"isn't": true, "isnt": true, "aren't": true, "arent": true,
	"wasn't": true, "wasnt": true, "won't": true, "wont": true,
	"wouldn't": true, "wouldnt": true, "shouldn't": true, "shouldnt": true,
	"couldn't": true, "couldnt": true,
}
