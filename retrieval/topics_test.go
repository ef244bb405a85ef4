package retrieval

import "testing"

func TestExtractTopicKnownTopicFromQuery(t *testing.T) {
	if got := ExtractTopic("How do I bridge funds?", "Use the official route."); got != "bridge" {
		t.Fatalf("expected topic bridge, got %q", got)
	}
}

func TestExtractTopicKnownTopicFromAnswer(t *testing.T) {
	if got := ExtractTopic("How do I earn rewards?", "Rewards come from staking your tokens."); got != "staking" {
		t.Fatalf("expected topic staking, got %q", got)
	}
}

func TestExtractTopicPrefersSpecificTopics(t *testing.T) {
	got := ExtractTopic("What is PEPUScan?", "PEPUScan is the network block explorer.")
	if got != "pepuscan" {
		t.Fatalf("expected pepuscan to win over network, got %q", got)
	}
}

func TestExtractTopicSuppressesGenericHowTo(t *testing.T) {
	if got := ExtractTopic("how do i use the dex", "Open the dex and swap."); got != "" {
		t.Fatalf("expected no topic for generic how-to, got %q", got)
	}
	// specific topics still surface for how-to questions
	if got := ExtractTopic("how do i use the superbridge", "Connect your funds first."); got != "superbridge" {
		t.Fatalf("expected superbridge, got %q", got)
	}
}

func TestExtractTopicFallbackNounExtraction(t *testing.T) {
	got := ExtractTopic("tell me about the whitepaper", "It describes milestones.")
	if got != "whitepaper" {
		t.Fatalf("expected fallback noun whitepaper, got %q", got)
	}
}

func TestExtractTopicFallbackSkipsStopAndGenericWords(t *testing.T) {
	if got := ExtractTopic("what more about pepu", "answer"); got != "" {
		t.Fatalf("expected no topic, got %q", got)
	}
}
