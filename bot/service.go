// Package bot implements the per-session conversation engine: greeting
// short-circuits, price lookups, retrieval-backed answers, follow-up
// offers and the yes/no handling around them.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/pepu-community/pepubot/corpus"
	"github.com/pepu-community/pepubot/llm"
	"github.com/pepu-community/pepubot/price"
	"github.com/pepu-community/pepubot/retrieval"
)

// Transport delivers outbound messages to a chat session.
type Transport interface {
	SendMessage(sessionID int64, text string) error
	NotifyTyping(sessionID int64)
}

// Service is the conversation engine. One instance serves every session;
// per-session state lives in the Store and is mutated only here.
type Service struct {
	sessions  *Store
	transport Transport
	llm       llm.Client
	prices    price.Fetcher
	store     corpus.Store
	logger    *log.Logger

	corpusMu sync.RWMutex
	chunks   []corpus.Chunk
}

func NewService(transport Transport, llmClient llm.Client, prices price.Fetcher, corpusStore corpus.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}

	return &Service{
		sessions:  NewStore(),
		transport: transport,
		llm:       llmClient,
		prices:    prices,
		store:     corpusStore,
		logger:    logger,
	}
}

// LoadCorpus loads the processed corpus from the store and swaps it in
// atomically. Safe to call while handlers are running.
func (s *Service) LoadCorpus(ctx context.Context) error {
	chunks, err := s.store.LoadChunks(ctx)
	if err != nil {
		return err
	}

	s.corpusMu.Lock()
	s.chunks = chunks
	s.corpusMu.Unlock()

	s.logger.Printf("corpus loaded: %d chunks", len(chunks))
	return nil
}

func (s *Service) corpusSnapshot() []corpus.Chunk {
	s.corpusMu.RLock()
	defer s.corpusMu.RUnlock()
	return s.chunks
}

// Status describes the running engine.
type Status struct {
	CorpusChunks   int `json:"corpusChunks"`
	ActiveSessions int `json:"activeSessions"`
}

func (s *Service) Status() Status {
	return Status{
		CorpusChunks:   len(s.corpusSnapshot()),
		ActiveSessions: s.sessions.Len(),
	}
}

// ResetSession drops a session's conversation state on demand.
func (s *Service) ResetSession(sessionID int64) {
	s.sessions.Delete(sessionID)
}

// Handle processes one inbound message for a session. It never returns
// an error: every branch terminates in a sent user-facing message, and
// failures are logged. Handlers for the same session are serialized.
func (s *Service) Handle(ctx context.Context, sessionID int64, text, fromName string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	lock := s.sessions.Lock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// Pleasantries get a canned reply and reset the conversation.
	if kind := retrieval.ClassifyGreeting(text); kind != retrieval.KindNone {
		s.sessions.Delete(sessionID)
		s.send(sessionID, greetingReply(kind, fromName))
		return
	}

	convo, exists := s.sessions.Get(sessionID)

	// Accepted follow-up offer: synthesize the topic question and answer
	// it like a normal question. The topic moves to AskedTopics so it is
	// never offered again this session.
	if exists && convo.WaitingForFollowUp && convo.LastTopic != "" && retrieval.IsYesResponse(text) {
		topic := convo.LastTopic
		convo.AskedTopics[topic] = struct{}{}
		convo.LastTopic = ""
		convo.WaitingForFollowUp = false
		s.answerQuestion(ctx, sessionID, FollowUpQuery(topic), convo)
		return
	}

	// Declined follow-up offer: acknowledge and reset.
	if exists && convo.WaitingForFollowUp && retrieval.IsNoResponse(text) {
		s.sessions.Delete(sessionID)
		s.send(sessionID, noProblemReply)
		return
	}

	// Price questions never reach the generation path.
	if retrieval.IsPriceQuestion(text) {
		s.notifyTyping(sessionID)
		snapshot, err := s.prices.Fetch(ctx)
		s.sessions.Delete(sessionID)
		if err != nil {
			s.logger.Printf("price fetch: %v", err)
			s.send(sessionID, priceErrorReply)
			return
		}
		s.send(sessionID, price.Format(snapshot))
		return
	}

	// A fresh question abandons whatever topic was in flight.
	if exists && retrieval.IsNewQuestion(text) {
		s.sessions.Delete(sessionID)
		convo = nil
	}

	s.answerQuestion(ctx, sessionID, text, convo)
}

// answerQuestion runs the retrieval + generation pipeline for a query and
// decides whether to offer a follow-up afterwards. convo is the session's
// surviving context, or nil when the conversation starts fresh.
func (s *Service) answerQuestion(ctx context.Context, sessionID int64, query string, convo *Context) {
	s.notifyTyping(sessionID)

	chunks := s.corpusSnapshot()
	if len(chunks) == 0 {
		s.send(sessionID, corpusMissingReply)
		return
	}

	topK := retrieval.TopK(retrieval.Classify(query))
	matches := retrieval.FindRelevant(query, chunks, topK)
	if len(matches) == 0 {
		s.sessions.Delete(sessionID)
		s.send(sessionID, noInfoReply)
		return
	}

	answer, err := s.generate(ctx, query, matches)
	if err != nil {
		s.handleGenerationError(sessionID, query, chunks, err)
		return
	}

	if retrieval.IsTokenQuestion(query) {
		if snapshot, priceErr := s.prices.Fetch(ctx); priceErr == nil {
			answer += "\n\n" + price.Blurb(snapshot)
		} else {
			s.logger.Printf("price blurb skipped: %v", priceErr)
		}
	}

	s.send(sessionID, answer)
	s.updateFollowUp(sessionID, query, answer, convo)
}

// updateFollowUp extracts a topic from the answered turn and either sends
// a follow-up offer or clears the session.
func (s *Service) updateFollowUp(sessionID int64, query, answer string, convo *Context) {
	topic := retrieval.ExtractTopic(query, answer)

	offer := topic != ""
	if offer && convo != nil {
		if topic == convo.LastTopic {
			offer = false
		}
		if _, asked := convo.AskedTopics[topic]; asked {
			offer = false
		}
		// only generic topics are held back for appearing in the
		// question just answered; specific products stay offerable
		if retrieval.IsGenericTopic(topic) && convo.LastQuestion != "" && strings.Contains(strings.ToLower(convo.LastQuestion), topic) {
			offer = false
		}
	}

	if !offer {
		s.sessions.Delete(sessionID)
		return
	}

	convo = s.sessions.GetOrCreate(sessionID)
	convo.LastTopic = topic
	convo.LastQuestion = query
	convo.WaitingForFollowUp = true
	s.send(sessionID, followUpOffer(topic))
}

// handleGenerationError maps a generation failure onto a user-facing
// message. Quota errors try the retrieval-only fallback first. None of
// these branches touch conversation state.
func (s *Service) handleGenerationError(sessionID int64, query string, chunks []corpus.Chunk, err error) {
	s.logger.Printf("generation error: %v", err)

	switch {
	case llm.IsQuotaError(err):
		if fallback, ok := FallbackAnswer(query, chunks); ok {
			s.send(sessionID, fallback)
			return
		}
		s.send(sessionID, billingReply)
	case errors.Is(err, corpus.ErrCorpusMissing):
		s.send(sessionID, corpusMissingReply)
	default:
		s.send(sessionID, fmt.Sprintf("Sorry, something went wrong: %v", err))
	}
}

// Ask answers a one-shot question outside any session, for the CLI and
// admin API.
func (s *Service) Ask(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("question cannot be empty")
	}

	chunks := s.corpusSnapshot()
	if len(chunks) == 0 {
		return "", corpus.ErrCorpusMissing
	}

	topK := retrieval.TopK(retrieval.Classify(query))
	matches := retrieval.FindRelevant(query, chunks, topK)
	if len(matches) == 0 {
		return noInfoReply, nil
	}

	answer, err := s.generate(ctx, query, matches)
	if err != nil {
		if llm.IsQuotaError(err) {
			if fallback, ok := FallbackAnswer(query, chunks); ok {
				return fallback, nil
			}
		}
		return "", err
	}
	return answer, nil
}

func (s *Service) generate(ctx context.Context, query string, matches []retrieval.ScoredChunk) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt()},
		{Role: llm.RoleUser, Content: formatUserPrompt(query, matches)},
	}

	answer, err := s.llm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func systemPrompt() string {
	return "You are the Pepe Unchained community assistant. Answer questions about the PEPU token, the Pepe Unchained layer 2 chain and its products using only the supplied context. Keep answers short: two to four sentences, plain language, no markdown headers. If the context does not cover the question, say you don't have that information yet."
}

func formatUserPrompt(query string, matches []retrieval.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nContext:\n")
	for idx, match := range matches {
		sb.WriteString(fmt.Sprintf("[%d] %s\n%s\n\n", idx+1, sourceLabel(match.Chunk), match.Content))
	}
	sb.WriteString("Answer briefly using the context above.")
	return sb.String()
}

func (s *Service) send(sessionID int64, text string) {
	if s.transport == nil {
		return
	}
	if err := s.transport.SendMessage(sessionID, text); err != nil {
		s.logger.Printf("send message to %d: %v", sessionID, err)
	}
}

func (s *Service) notifyTyping(sessionID int64) {
	if s.transport == nil {
		return
	}
	s.transport.NotifyTyping(sessionID)
}
