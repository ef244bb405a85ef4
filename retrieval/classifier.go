package retrieval

import (
	"regexp"
	"strings"
)

// Complexity buckets a question by how much corpus context answering it
// needs.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// complexityRules is evaluated top to bottom with first-match-wins
// semantics. Simple lead phrases are listed before complex ones, so a
// query matching both classifies as simple.
var complexityRules = []struct {
	pattern *regexp.Regexp
	label   Complexity
}{
	{regexp.MustCompile(`^what is `), Simple},
	{regexp.MustCompile(`^what's `), Simple},
	{regexp.MustCompile(`^whats `), Simple},
	{regexp.MustCompile(`^what are `), Simple},
	{regexp.MustCompile(`^who (is|was) `), Simple},
	{regexp.MustCompile(`^when (is|was) `), Simple},
	{regexp.MustCompile(`^where (is|can) `), Simple},
	{regexp.MustCompile(`^tell me about `), Simple},
	{regexp.MustCompile(`^define `), Simple},
	{regexp.MustCompile(`^how to `), Complex},
	{regexp.MustCompile(`^how do i `), Complex},
	{regexp.MustCompile(`^how does .+ work`), Complex},
	{regexp.MustCompile(`^compare `), Complex},
	{regexp.MustCompile(`what is the difference between`), Complex},
	{regexp.MustCompile(`^why `), Complex},
	{regexp.MustCompile(`^explain `), Complex},
}

// Classify buckets a question as simple, medium or complex. Questions
// matching no lead phrase are medium.
func Classify(query string) Complexity {
	lower := strings.ToLower(strings.TrimSpace(query))
	for _, rule := range complexityRules {
		if rule.pattern.MatchString(lower) {
			return rule.label
		}
	}
	return Medium
}

// TopK maps a complexity bucket to the number of chunks to retrieve.
func TopK(c Complexity) int {
	switch c {
	case Simple:
		return 1
	case Complex:
		return 3
	default:
		return 2
	}
}

var priceKeywords = []string{
	"price", "cost", "worth", "value",
	"market cap", "marketcap", "mc",
	"volume", "liquidity", "trading", "chart",
}

var domainTokenKeywords = []string{"pepu", "pepe", "unchained", "token", "coin"}

var tokenKeywords = []string{
	"pepu", "token", "price", "cost", "worth", "value", "trading", "market",
}

// IsPriceQuestion reports whether the message asks for live market data.
// It requires a price keyword plus either a domain token mention or a
// generic "what"/"how much" phrasing.
func IsPriceQuestion(text string) bool {
	lower := strings.ToLower(text)
	if !containsAny(lower, priceKeywords) {
		return false
	}
	return containsAny(lower, domainTokenKeywords) ||
		strings.Contains(lower, "what") ||
		strings.Contains(lower, "how much")
}

// IsTokenQuestion reports whether the message touches the token at all;
// broader than IsPriceQuestion, used to decide whether to append a price
// blurb to a knowledge answer.
func IsTokenQuestion(text string) bool {
	return containsAny(strings.ToLower(text), tokenKeywords)
}

// GreetingKind labels conversational pleasantries that get a canned reply
// instead of the retrieval pipeline.
type GreetingKind string

const (
	KindNone      GreetingKind = ""
	KindGreeting  GreetingKind = "greeting"
	KindFarewell  GreetingKind = "farewell"
	KindThanks    GreetingKind = "thanks"
	KindSmallTalk GreetingKind = "smalltalk"
)

var greetingPhrases = []string{"hi", "hey", "hello", "yo", "sup", "gm", "good morning", "good evening"}

var (
	thanksPattern    = regexp.MustCompile(`^(thanks|thank you|thx|ty)\b`)
	farewellPattern  = regexp.MustCompile(`^(bye|goodbye|good night|gn|see you|cya|later)\b`)
	smallTalkPattern = regexp.MustCompile(`^(how are you|how's it going|hows it going|what's up|whats up|wassup)\b`)
)

// greetingRules is an ordered first-match-wins table. Small talk is
// checked before plain greetings so "what's up" does not fall through to
// the question path.
var greetingRules = []struct {
	match func(string) bool
	label GreetingKind
}{
	{thanksPattern.MatchString, KindThanks},
	{farewellPattern.MatchString, KindFarewell},
	{smallTalkPattern.MatchString, KindSmallTalk},
	{func(s string) bool { return matchesPhrase(s, greetingPhrases) }, KindGreeting},
}

// ClassifyGreeting returns the greeting kind of a message, or KindNone
// when the message is not a pleasantry.
func ClassifyGreeting(text string) GreetingKind {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return KindNone
	}
	for _, rule := range greetingRules {
		if rule.match(lower) {
			return rule.label
		}
	}
	return KindNone
}

var yesPhrases = []string{
	"yes", "yeah", "yep", "yup", "sure", "ok", "okay", "y",
	"please", "yes please", "go ahead", "sounds good", "tell me more",
}

var noPhrases = []string{
	"no", "nope", "nah", "n", "no thanks", "no thank you",
	"not now", "not really", "im good", "i'm good",
}

// IsYesResponse reports whether the message is an affirmative reply to a
// pending follow-up offer.
func IsYesResponse(text string) bool {
	return matchesPhrase(strings.ToLower(strings.TrimSpace(text)), yesPhrases)
}

// IsNoResponse reports whether the message declines a pending follow-up
// offer.
func IsNoResponse(text string) bool {
	return matchesPhrase(strings.ToLower(strings.TrimSpace(text)), noPhrases)
}

var interrogativeLeads = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"can", "does", "do", "is", "are", "will", "should",
	"tell me", "explain",
}

// IsNewQuestion reports whether the message reads as a fresh question:
// it contains a question mark or opens with an interrogative lead word.
func IsNewQuestion(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if strings.Contains(lower, "?") {
		return true
	}
	for _, lead := range interrogativeLeads {
		if strings.HasPrefix(lower, lead+" ") {
			return true
		}
	}
	return false
}

// matchesPhrase reports whether text equals a phrase or starts with a
// phrase followed by a space.
func matchesPhrase(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if text == phrase || strings.HasPrefix(text, phrase+" ") {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
