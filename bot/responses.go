package bot

import (
	"fmt"
	"strings"

	"github.com/pepu-community/pepubot/retrieval"
)

const (
	noInfoReply = "I couldn't find anything about that in the Pepe Unchained docs. Try rephrasing, or ask about the bridge, staking, PEPUScan or Pump Pad. 🐸"

	noProblemReply = "No problem! Ask me anything about Pepe Unchained whenever you like. 🐸"

	priceErrorReply = "Sorry, I couldn't fetch the latest PEPU price right now. Please try again in a moment. 🙏"

	corpusMissingReply = "My knowledge base hasn't been built yet. An admin needs to run the `process` command to scrape and index the Pepe Unchained docs first."

	billingReply = "I'm temporarily out of AI capacity (quota exhausted) and couldn't find a direct answer in the docs either. Please try again later, or check pepeunchained.com. 🙏"
)

// greetingReply returns the canned text for a pleasantry, personalized
// with the sender's name when one is known.
func greetingReply(kind retrieval.GreetingKind, fromName string) string {
	name := strings.TrimSpace(fromName)

	switch kind {
	case retrieval.KindThanks:
		return "You're welcome! Happy to help anytime. 🐸"
	case retrieval.KindFarewell:
		return "See you around! Stay unchained. 🐸"
	case retrieval.KindSmallTalk:
		return "All good in the swamp! What would you like to know about Pepe Unchained?"
	default:
		if name != "" {
			return fmt.Sprintf("Hey %s! 🐸 Ask me anything about Pepe Unchained — the bridge, staking, PEPUScan, Pump Pad or the PEPU token.", name)
		}
		return "Hey! 🐸 Ask me anything about Pepe Unchained — the bridge, staking, PEPUScan, Pump Pad or the PEPU token."
	}
}

// followUpQueries maps a detected topic to the question synthesized when
// the user accepts a follow-up offer.
var followUpQueries = map[string]string{
	"bridge":      "How do I bridge my funds to Pepe Unchained?",
	"superbridge": "How does the Superbridge work?",
	"staking":     "How does PEPU staking work and what are the rewards?",
	"pepuscan":    "What can I check on PEPUScan?",
	"pump pad":    "How do I launch a token on Pump Pad?",
	"wallet":      "How do I set up a wallet for Pepe Unchained?",
}

// FollowUpQuery returns the topic-specific question to answer after an
// accepted follow-up offer.
func FollowUpQuery(topic string) string {
	if query, ok := followUpQueries[topic]; ok {
		return query
	}
	return "Tell me more about " + topic
}

func followUpOffer(topic string) string {
	return fmt.Sprintf("Would you like to know more about %s? 🤔", topic)
}
