package retrieval

import "strings"

// knownTopics is scanned in order, most specific product names first, so
// "pepuscan" wins over "network" when both appear.
var knownTopics = []string{
	"pepuscan",
	"pump pad",
	"superbridge",
	"staking",
	"bridge",
	"wallet",
	"memecoin",
	"layer 2",
	"token",
	"dex",
	"blockchain",
	"network",
}

// genericTopics are too broad to offer a follow-up on when the user asked
// a direct how-to question about them.
var genericTopics = map[string]bool{
	"token":      true,
	"dex":        true,
	"blockchain": true,
	"network":    true,
}

// IsGenericTopic reports whether a topic is one of the broad ecosystem
// concepts that should not be re-offered right after being asked about.
func IsGenericTopic(topic string) bool {
	return genericTopics[topic]
}

// topicStopWords are dropped during fallback noun extraction: question
// words, articles, pronouns and filler verbs that never make a topic.
var topicStopWords = map[string]bool{
	"what": true, "whats": true, "when": true, "where": true, "which": true,
	"about": true, "more": true, "does": true, "this": true, "that": true,
	"with": true, "your": true, "from": true, "have": true, "will": true,
	"would": true, "could": true, "should": true, "tell": true, "know": true,
	"want": true, "like": true, "please": true, "explain": true,
	"there": true, "their": true, "they": true, "them": true,
	"some": true, "something": true, "anything": true,
}

// genericWords are brand and ecosystem words too unspecific to follow up
// on when they survive noun extraction.
var genericWords = map[string]bool{
	"pepu": true, "pepe": true, "unchained": true,
	"token": true, "tokens": true, "coin": true, "coins": true,
	"crypto": true, "blockchain": true, "network": true,
}

// ExtractTopic derives a short topic label from a query/answer pair, or
// returns "" when nothing worth following up on was found.
func ExtractTopic(query, answer string) string {
	q := strings.ToLower(query)
	a := strings.ToLower(answer)

	for _, topic := range knownTopics {
		if !strings.Contains(q, topic) && !strings.Contains(a, topic) {
			continue
		}
		// A direct how-to about a generic concept needs no follow-up.
		if genericTopics[topic] && strings.Contains(q, "how do i use") {
			return ""
		}
		return topic
	}

	for _, word := range strings.Fields(q) {
		word = strings.Trim(word, "?!.,:;\"'()")
		if len(word) <= 3 {
			continue
		}
		if topicStopWords[word] || genericWords[word] {
			continue
		}
		return word
	}

	return ""
}
