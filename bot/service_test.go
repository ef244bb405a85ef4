package bot

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/pepu-community/pepubot/corpus"
	"github.com/pepu-community/pepubot/llm"
	"github.com/pepu-community/pepubot/price"
)

type stubTransport struct {
	sent   []string
	typing int
}

func (t *stubTransport) SendMessage(sessionID int64, text string) error {
	t.sent = append(t.sent, text)
	return nil
}

func (t *stubTransport) NotifyTyping(sessionID int64) {
	t.typing++
}

type stubLLM struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	s.calls++
	if len(messages) > 0 {
		s.lastPrompt = messages[len(messages)-1].Content
	}
	if s.err != nil {
		return "", s.err
	}
	return s.answer, nil
}

type stubFetcher struct {
	snapshot price.Snapshot
	err      error
	calls    int
}

func (s *stubFetcher) Fetch(ctx context.Context) (price.Snapshot, error) {
	s.calls++
	return s.snapshot, s.err
}

type stubCorpusStore struct {
	chunks []corpus.Chunk
}

func (s *stubCorpusStore) LoadChunks(ctx context.Context) ([]corpus.Chunk, error) {
	return s.chunks, nil
}

func (s *stubCorpusStore) Replace(ctx context.Context, docs []corpus.Document, chunks []corpus.Chunk) error {
	return nil
}

func (s *stubCorpusStore) Count(ctx context.Context) (int, error) { return len(s.chunks), nil }

func (s *stubCorpusStore) Clear(ctx context.Context) error { return nil }

func testChunks() []corpus.Chunk {
	return []corpus.Chunk{
		{
			URL:        "https://docs.pepeunchained.com/bridge",
			Title:      "Bridging Guide",
			Source:     "docs",
			Content:    "The bridge moves PEPU between Ethereum and the Pepe Unchained chain.",
			ChunkIndex: 0, TotalChunks: 1,
		},
		{
			URL:        "https://docs.pepeunchained.com/staking",
			Title:      "Staking Guide",
			Source:     "docs",
			Content:    "Staking is how PEPU holders earn rewards paid out each block.",
			ChunkIndex: 0, TotalChunks: 1,
		},
	}
}

func newTestService(t *testing.T, transport *stubTransport, generator *stubLLM, fetcher *stubFetcher, chunks []corpus.Chunk) *Service {
	t.Helper()

	svc := NewService(transport, generator, fetcher, &stubCorpusStore{chunks: chunks}, log.New(io.Discard, "", 0))
	if chunks != nil {
		if err := svc.LoadCorpus(context.Background()); err != nil {
			t.Fatalf("load corpus: %v", err)
		}
	}
	return svc
}

func TestHandleGreetingResetsSession(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "unused"}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	convo := svc.sessions.GetOrCreate(1)
	convo.WaitingForFollowUp = true
	convo.LastTopic = "bridge"

	svc.Handle(context.Background(), 1, "hello", "Ana")

	if generator.calls != 0 {
		t.Fatalf("greeting must not reach generation, got %d calls", generator.calls)
	}
	if len(transport.sent) != 1 || !strings.Contains(transport.sent[0], "Hey Ana") {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
	if svc.sessions.Len() != 0 {
		t.Fatal("greeting should clear conversation state")
	}
}

func TestHandlePriceQuestionShortCircuits(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "unused"}
	fetcher := &stubFetcher{snapshot: price.Snapshot{
		PriceUSD:       0.000123,
		PriceChange24h: -5.5,
		MarketCap:      1234567,
		Variant:        price.VariantDexScreener,
	}}
	svc := newTestService(t, transport, generator, fetcher, testChunks())

	svc.Handle(context.Background(), 1, "what is the pepu price?", "")

	if generator.calls != 0 {
		t.Fatalf("price question must bypass generation, got %d calls", generator.calls)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected one price fetch, got %d", fetcher.calls)
	}
	if len(transport.sent) != 1 {
		t.Fatalf("expected one reply, got %v", transport.sent)
	}
	reply := transport.sent[0]
	for _, want := range []string{"$0.000123", "📉", "$1.23M"} {
		if !strings.Contains(reply, want) {
			t.Fatalf("price reply missing %q: %q", want, reply)
		}
	}
	if strings.Count(reply, "N/A") != 2 {
		t.Fatalf("expected N/A for unreported volume and liquidity: %q", reply)
	}
	if svc.sessions.Len() != 0 {
		t.Fatal("price answer should clear conversation state")
	}
}

func TestHandlePriceFetchFailure(t *testing.T) {
	transport := &stubTransport{}
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	svc := newTestService(t, transport, &stubLLM{}, fetcher, testChunks())

	svc.Handle(context.Background(), 1, "how much is pepu worth?", "")

	if len(transport.sent) != 1 || transport.sent[0] != priceErrorReply {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
}

func TestHandleAnswersAndOffersFollowUp(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "You can move funds across with the official bridge."}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	svc.Handle(context.Background(), 1, "how do i bridge my funds?", "")

	if generator.calls != 1 {
		t.Fatalf("expected one generation call, got %d", generator.calls)
	}
	if len(transport.sent) != 2 {
		t.Fatalf("expected answer plus offer, got %v", transport.sent)
	}
	if transport.sent[0] != generator.answer {
		t.Fatalf("unexpected answer: %q", transport.sent[0])
	}
	if !strings.Contains(transport.sent[1], "more about bridge") {
		t.Fatalf("unexpected offer: %q", transport.sent[1])
	}

	convo, ok := svc.sessions.Get(1)
	if !ok || !convo.WaitingForFollowUp || convo.LastTopic != "bridge" {
		t.Fatalf("unexpected session state: %+v", convo)
	}
}

func TestHandleAcceptedFollowUp(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "You can move funds across with the official bridge."}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	svc.Handle(context.Background(), 1, "how do i bridge my funds?", "")
	transport.sent = nil
	generator.answer = "Head to the bridge page, connect a wallet and confirm the transfer."

	svc.Handle(context.Background(), 1, "yes", "")

	if generator.calls != 2 {
		t.Fatalf("accepted offer should trigger generation, got %d calls", generator.calls)
	}
	// the bridge topic maps to its specific synthesized question
	if !strings.Contains(generator.lastPrompt, "How do I bridge my funds to Pepe Unchained?") {
		t.Fatalf("expected synthesized bridge question, got prompt %q", generator.lastPrompt)
	}
	if len(transport.sent) != 1 || transport.sent[0] != generator.answer {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
	// the bridge topic was consumed, so no second offer and no live state
	if svc.sessions.Len() != 0 {
		t.Fatal("consumed topic should not leave conversation state behind")
	}
}

func TestHandleDeclinedFollowUp(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, &stubLLM{answer: "Bridge answer."}, &stubFetcher{}, testChunks())

	convo := svc.sessions.GetOrCreate(1)
	convo.WaitingForFollowUp = true
	convo.LastTopic = "bridge"

	svc.Handle(context.Background(), 1, "no thanks", "")

	if len(transport.sent) != 1 || transport.sent[0] != noProblemReply {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
	if svc.sessions.Len() != 0 {
		t.Fatal("declined offer should clear conversation state")
	}
}

func TestHandleSuppressesRepeatedTopicOffer(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "Staking locks your PEPU for rewards."}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	convo := svc.sessions.GetOrCreate(1)
	convo.AskedTopics["staking"] = struct{}{}

	// not phrased as a question, so the surviving context applies
	svc.Handle(context.Background(), 1, "staking rewards pls", "")

	if len(transport.sent) != 1 {
		t.Fatalf("already-asked topic must not be offered again: %v", transport.sent)
	}
	if svc.sessions.Len() != 0 {
		t.Fatal("suppressed offer should clear conversation state")
	}
}

func TestHandleOffersSpecificTopicFromPriorQuestion(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "Transfers settle in a few minutes."}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	convo := svc.sessions.GetOrCreate(1)
	convo.LastQuestion = "how do i use the bridge"

	// a specific product topic stays offerable even though the prior
	// question already mentioned it
	svc.Handle(context.Background(), 1, "bridge fees pls", "")

	if len(transport.sent) != 2 || !strings.Contains(transport.sent[1], "bridge") {
		t.Fatalf("expected follow-up offer for bridge, got %v", transport.sent)
	}
	updated, ok := svc.sessions.Get(1)
	if !ok || !updated.WaitingForFollowUp || updated.LastTopic != "bridge" {
		t.Fatalf("unexpected session state: %+v", updated)
	}
}

func TestHandleSuppressesGenericTopicFromPriorQuestion(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "Pairs rotate weekly."}
	chunks := []corpus.Chunk{{
		URL:     "https://docs.pepeunchained.com/dex",
		Title:   "DEX Guide",
		Source:  "docs",
		Content: "The DEX lists new pairs for swapping every week.",
	}}
	svc := newTestService(t, transport, generator, &stubFetcher{}, chunks)

	convo := svc.sessions.GetOrCreate(1)
	convo.LastQuestion = "what can i swap on the dex"

	svc.Handle(context.Background(), 1, "dex pairs pls", "")

	if len(transport.sent) != 1 {
		t.Fatalf("generic topic from the prior question must not be re-offered: %v", transport.sent)
	}
	if svc.sessions.Len() != 0 {
		t.Fatal("suppressed offer should clear conversation state")
	}
}

func TestHandleNewQuestionResetsContext(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "Staking locks PEPU to earn rewards."}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	convo := svc.sessions.GetOrCreate(1)
	convo.LastTopic = "staking"
	convo.AskedTopics["staking"] = struct{}{}

	svc.Handle(context.Background(), 1, "what is staking?", "")

	// the reset wiped AskedTopics, so staking is offerable again
	if len(transport.sent) != 2 || !strings.Contains(transport.sent[1], "staking") {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
}

func TestHandleNoMatches(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "unused"}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	svc.Handle(context.Background(), 1, "qqq zzz?", "")

	if generator.calls != 0 {
		t.Fatalf("no matches must not reach generation, got %d calls", generator.calls)
	}
	if len(transport.sent) != 1 || transport.sent[0] != noInfoReply {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
}

func TestHandleQuotaErrorFallsBackToDocs(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{err: errors.New("insufficient quota for this request")}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	svc.Handle(context.Background(), 1, "what is staking?", "")

	if len(transport.sent) != 1 {
		t.Fatalf("expected one reply, got %v", transport.sent)
	}
	reply := transport.sent[0]
	if !strings.Contains(reply, "From the Pepe Unchained docs") {
		t.Fatalf("expected retrieval fallback, got %q", reply)
	}
	if !strings.Contains(reply, "Staking Guide") {
		t.Fatalf("fallback should cite its source, got %q", reply)
	}
}

func TestHandleGenericGenerationError(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{err: errors.New("connection refused")}
	svc := newTestService(t, transport, generator, &stubFetcher{}, testChunks())

	svc.Handle(context.Background(), 1, "what is staking?", "")

	if len(transport.sent) != 1 || !strings.Contains(transport.sent[0], "Sorry, something went wrong") {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
}

func TestHandleEmptyCorpus(t *testing.T) {
	transport := &stubTransport{}
	svc := newTestService(t, transport, &stubLLM{}, &stubFetcher{}, nil)

	svc.Handle(context.Background(), 1, "what is staking?", "")

	if len(transport.sent) != 1 || transport.sent[0] != corpusMissingReply {
		t.Fatalf("unexpected replies: %v", transport.sent)
	}
}

func TestHandleAppendsPriceBlurbToTokenAnswers(t *testing.T) {
	transport := &stubTransport{}
	generator := &stubLLM{answer: "PEPU is the native token of the Pepe Unchained chain."}
	fetcher := &stubFetcher{snapshot: price.Snapshot{PriceUSD: 0.000123, PriceChange24h: 2.5}}
	svc := newTestService(t, transport, generator, fetcher, testChunks())

	svc.Handle(context.Background(), 1, "tell me about pepu staking", "")

	if len(transport.sent) < 1 {
		t.Fatal("expected at least the answer")
	}
	if !strings.Contains(transport.sent[0], "$0.000123") {
		t.Fatalf("expected price blurb appended, got %q", transport.sent[0])
	}
}

func TestAsk(t *testing.T) {
	generator := &stubLLM{answer: "The bridge connects Ethereum and the layer 2."}
	svc := newTestService(t, &stubTransport{}, generator, &stubFetcher{}, testChunks())

	answer, err := svc.Ask(context.Background(), "what is the bridge?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != generator.answer {
		t.Fatalf("unexpected answer: %q", answer)
	}

	if _, err := svc.Ask(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestAskWithoutCorpus(t *testing.T) {
	svc := newTestService(t, &stubTransport{}, &stubLLM{}, &stubFetcher{}, nil)

	if _, err := svc.Ask(context.Background(), "what is the bridge?"); !errors.Is(err, corpus.ErrCorpusMissing) {
		t.Fatalf("expected ErrCorpusMissing, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	svc := newTestService(t, &stubTransport{}, &stubLLM{}, &stubFetcher{}, testChunks())
	svc.sessions.GetOrCreate(7)

	status := svc.Status()
	if status.CorpusChunks != 2 || status.ActiveSessions != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}

	svc.ResetSession(7)
	if svc.Status().ActiveSessions != 0 {
		t.Fatal("reset should drop the session")
	}
}
