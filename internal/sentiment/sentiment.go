// Package sentiment classifies financial news text as Bullish, Bearish or
// Neutral.
package sentiment

import (
	"strings"
	"unicode"

	"github.com/user-dev-arch/MarketSentimentApp/internal/models"
)

// Analyzer classifies a piece of text.
type Analyzer interface {
	Analyze(text string) models.Sentiment
	Name() string
}

// Threshold is the absolute lexicon score a text must reach to be
// classified as anything other than Neutral.
const Threshold = 1.0

// negationWindow is how many following tokens a negator flips.
const negationWindow = 3

// Lexicon is a weighted financial word list classifier.
type Lexicon struct {
	weights   map[string]float64
	negators  map[string]bool
	threshold float64
}

// NewLexicon returns the default financial lexicon classifier.
func NewLexicon() *Lexicon {
	return &Lexicon{weights: defaultWeights, negators: defaultNegators, threshold: Threshold}
}

// Name implements Analyzer.
func (l *Lexicon) Name() string { return "lexicon" }

// Analyze implements Analyzer. Empty text is Neutral.
func (l *Lexicon) Analyze(text string) models.Sentiment {
	score := l.Score(text)
	switch {
	case score >= l.threshold:
		return models.SentimentBullish
	case score <= -l.threshold:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// Score sums the weights of lexicon terms in text. A negator flips the sign
// of terms within the next few tokens.
func (l *Lexicon) Score(text string) float64 {
	var score float64
	negateLeft := 0
	for _, tok := range tokenize(text) {
		if l.negators[tok] {
			negateLeft = negationWindow
			continue
		}
		w, ok := l.weights[tok]
		if ok {
			if negateLeft > 0 {
				w = -w
			}
			score += w
		}
		if negateLeft > 0 {
			negateLeft--
		}
	}
	return score
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

var defaultNegators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "fails": true,
	"failed": true, "isn't": true, "wasn't": true, "didn't": true, "doesn't": true,
	"won't": true, "can't": true, "cannot": true, "hardly": true,
}

var defaultWeights = map[string]float64{
	// bullish
	"beat": 1.5, "beats": 1.5, "beating": 1.5, "surge": 2, "surges": 2, "surged": 2,
	"soar": 2, "soars": 2, "soared": 2, "rally": 1.5, "rallies": 1.5, "rallied": 1.5,
	"jump": 1.5, "jumps": 1.5, "jumped": 1.5, "gain": 1, "gains": 1, "gained": 1,
	"rise": 1, "rises": 1, "rising": 1, "rose": 1, "climb": 1, "climbs": 1, "climbed": 1,
	"record": 1, "strong": 1, "stronger": 1, "robust": 1, "growth": 1, "grow": 1, "grows": 1,
	"profit": 1, "profits": 1, "profitable": 1, "upgrade": 2, "upgrades": 2, "upgraded": 2,
	"outperform": 1.5, "outperforms": 1.5, "bullish": 2, "optimistic": 1.5, "optimism": 1.5,
	"buy": 1, "boost": 1, "boosts": 1, "boosted": 1, "expands": 1, "expansion": 1,
	"exceed": 1.5, "exceeds": 1.5, "exceeded": 1.5, "tops": 1, "upbeat": 1.5, "positive": 1,
	"breakthrough": 1.5, "dividend": 0.5, "buyback": 1, "raises": 1, "raised": 1, "high": 0.5,
	"recovery": 1, "rebound": 1, "rebounds": 1, "win": 1, "wins": 1, "approval": 1,

	// bearish
	"miss": -1.5, "misses": -1.5, "missed": -1.5, "plunge": -2, "plunges": -2, "plunged": -2,
	"crash": -2, "crashes": -2, "crashed": -2, "tumble": -2, "tumbles": -2, "tumbled": -2,
	"fall": -1, "falls": -1, "fell": -1, "falling": -1, "drop": -1, "drops": -1, "dropped": -1,
	"decline": -1, "declines": -1, "declined": -1, "slump": -1.5, "slumps": -1.5, "sink": -1.5,
	"sinks": -1.5, "loss": -1, "losses": -1, "weak": -1, "weaker": -1, "weakness": -1,
	"downgrade": -2, "downgrades": -2, "downgraded": -2, "underperform": -1.5, "bearish": -2,
	"pessimistic": -1.5, "sell": -1, "selloff": -2, "panic": -1.5, "fear": -1, "fears": -1,
	"lawsuit": -1, "probe": -1, "investigation": -1, "recall": -1, "layoffs": -1.5,
	"layoff": -1.5, "cuts": -1, "cut": -1, "warning": -1, "warns": -1.5, "bankruptcy": -2.5,
	"default": -1.5, "fraud": -2, "slowdown": -1, "recession": -1.5, "negative": -1,
	"risk": -0.5, "risks": -0.5, "lower": -0.5, "low": -0.5, "volatile": -0.5, "debt": -0.5,
}
