package sentiment

import (
	"math"
	"strings"
)

// DefaultDivisor 将原始词典得分归一化到 [-1, 1] 的除数。
const DefaultDivisor = 5.0

// Result 给出一次文本分析的完整拆解。
type Result struct {
	Score       int      `json:"score"`
	Comparative float64  `json:"comparative"`
	Polarity    float64  `json:"polarity"`
	Tokens      []string `json:"tokens"`
	Positive    []string `json:"positive"`
	Negative    []string `json:"negative"`
}

// Scorer maps text to a bounded polarity. The zero value uses DefaultDivisor.
type Scorer struct {
	Divisor float64
	Lexicon map[string]int
}

// punctuation mirrors the characters the lexicon tokenizer discards; apostrophes
// and hyphens survive so "don't" and "well-being" stay whole.
var punctuation = strings.NewReplacer(
	".", "", ",", "", "/", "", "#", "", "!", "", "$", "", "%", "", "^", "",
	"&", "", "*", "", ";", "", ":", "", "{", "", "}", "", "=", "", "_", "",
	"`", "", "\"", "", "~", "", "(", "", ")", "", "?", "", "[", "", "]", "",
	"…", "", "“", "", "”", "",
)

// Analyze 返回词典得分、命中词以及归一化后的极性。
func (s Scorer) Analyze(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Result{}
	}

	lexicon := s.Lexicon
	if lexicon == nil {
		lexicon = afinn
	}

	res := Result{Tokens: tokens}
	for i, token := range tokens {
		weight, ok := lexicon[token]
		if !ok || weight == 0 {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			weight = -weight
		}

		res.Score += weight
		if weight > 0 {
			res.Positive = append(res.Positive, token)
		} else {
			res.Negative = append(res.Negative, token)
		}
	}

	res.Comparative = float64(res.Score) / float64(len(tokens))
	res.Polarity = s.normalize(res.Score)
	return res
}

// Score returns the polarity of text in [-1, 1]. Blank text scores 0.
func (s Scorer) Score(text string) float64 {
	return s.Analyze(text).Polarity
}

func (s Scorer) normalize(raw int) float64 {
	divisor := s.Divisor
	if divisor <= 0 || math.IsNaN(divisor) || math.IsInf(divisor, 0) {
		divisor = DefaultDivisor
	}
	return clamp(float64(raw) / divisor)
}

// Score scores text with the default scorer.
func Score(text string) float64 {
	return Scorer{}.Score(text)
}

// clamp bounds v to [-1, 1]; NaN collapses to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

func tokenize(text string) []string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}
	normalized = strings.ReplaceAll(normalized, "’", "'")
	normalized = punctuation.Replace(normalized)
	return strings.Fields(normalized)
}
