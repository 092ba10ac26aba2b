// Package session owns per-user conversation state for multi-turn RAG
// interactions: the ordered turn history, the live LLM chat handle, and
// the final context-grounded answer call.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hopewell-bot/hopewell/internal/llm"
)

// Turn roles. The provider may use different role names internally; the
// mirrored history always uses these.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User-facing strings for degraded outcomes. Failures never escape as
// errors; the caller relays these verbatim.
const (
	// AnswerErrorMessage is returned when the LLM call itself fails.
	AnswerErrorMessage = "Sorry, something went wrong while generating an answer. Please try again."

	// AnswerEmptyMessage is returned for an empty, unblocked response.
	AnswerEmptyMessage = "The model returned no content for this query."
)

// Turn is a single message in a conversation.
type Turn struct {
	Role string
	Text string
	At   time.Time
}

// Session state. A session is awaiting-answer only while a prompt is in
// flight; it always returns to idle, success or failure.
type state int

const (
	stateIdle state = iota
	stateAwaitingAnswer
)

// Session holds one user's dialogue state. It is the sole owner of its
// turn history and of the chat handle; state never leaks between users.
//
// opMu serializes Answer and Reset so one user's turns cannot interleave.
// mu guards the data fields and is only ever held briefly; in particular it
// is never held across the LLM call, so registry-wide sweeps and other
// users' lookups are never stalled by an in-flight answer.
type Session struct {
	id       uuid.UUID
	userID   string
	llm      llm.Client
	maxTurns int

	opMu sync.Mutex

	mu        sync.Mutex
	chat      llm.Chat
	turns     []Turn
	state     state
	updatedAt time.Time
}

// newSession creates a session with no chat handle; the handle is created
// on first use or on reset.
func newSession(userID string, client llm.Client, maxTurns int) *Session {
	return &Session{
		id:        uuid.New(),
		userID:    userID,
		llm:       client,
		maxTurns:  maxTurns,
		updatedAt: time.Now(),
	}
}

// ID returns the session instance identifier, useful for correlating logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// History returns a copy of the turn history, oldest first.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Answer submits the query with its assembled grounding context through the
// session's stateful chat handle and returns the answer text. Every failure
// mode degrades to a user-visible string; the session is idle again when
// this returns, no matter the outcome.
func (s *Session) Answer(ctx context.Context, query, assembledContext string) string {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setState(stateAwaitingAnswer)
	defer s.setState(stateIdle)

	chat, err := s.chatHandle(ctx)
	if err != nil {
		slog.Error("failed to create chat handle", "session", s.id, "error", err)
		return AnswerErrorMessage
	}

	prompt := buildAnswerPrompt(query, assembledContext)

	// Turns are mirrored synchronously around the send so local history and
	// the provider-side chat history cannot be observed out of sync.
	s.appendTurn(RoleUser, query)

	res, err := chat.Send(ctx, prompt)
	if err != nil {
		slog.Error("answer generation failed", "session", s.id, "error", err)
		s.appendTurn(RoleAssistant, AnswerErrorMessage)
		return AnswerErrorMessage
	}

	answer := res.Text
	switch {
	case res.Blocked:
		answer = blockedAnswerMessage(res.BlockReason)
		slog.Warn("answer blocked by provider", "session", s.id, "reason", res.BlockReason)
	case answer == "":
		answer = AnswerEmptyMessage
		slog.Warn("empty unblocked answer", "session", s.id)
	}

	s.appendTurn(RoleAssistant, answer)
	return answer
}

// Reset clears the turn history and instantiates a fresh provider-side chat
// handle. It is explicit and user-triggered, never automatic.
func (s *Session) Reset(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.turns = nil
	s.chat = nil
	s.state = stateIdle
	s.updatedAt = time.Now()
	s.mu.Unlock()

	chat, err := s.llm.NewChat(ctx)
	if err != nil {
		// Left nil; the next Answer retries creation.
		return fmt.Errorf("creating fresh chat handle: %w", err)
	}

	s.mu.Lock()
	s.chat = chat
	s.mu.Unlock()
	return nil
}

func (s *Session) setState(st state) {
	s.mu.Lock()
	s.state = st
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// chatHandle returns the live chat handle, creating one lazily. Only called
// under opMu, so creation cannot race another operation on this session.
func (s *Session) chatHandle(ctx context.Context) (llm.Chat, error) {
	s.mu.Lock()
	chat := s.chat
	s.mu.Unlock()
	if chat != nil {
		return chat, nil
	}

	chat, err := s.llm.NewChat(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.chat = chat
	s.mu.Unlock()
	return chat, nil
}

func (s *Session) appendTurn(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, Turn{Role: role, Text: text, At: time.Now()})
	if s.maxTurns > 0 && len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
}

func blockedAnswerMessage(reason string) string {
	if reason == "" {
		return "I can't answer that one: the response was blocked by the content policy."
	}
	return fmt.Sprintf("I can't answer that one: the response was blocked by the content policy (%s).", reason)
}

// buildAnswerPrompt embeds the current query and its grounding context,
// instructing the model to prefer the supplied context over conversational
// memory and to say so when neither suffices.
func buildAnswerPrompt(query, assembledContext string) string {
	var sb strings.Builder

	sb.WriteString("User's current query: \"")
	sb.WriteString(query)
	sb.WriteString("\"\n\n")
	sb.WriteString("To help answer this current query, I have retrieved the following context from my knowledge base:\n")
	sb.WriteString("--- START OF CONTEXT (for current query) ---\n")
	sb.WriteString(assembledContext)
	sb.WriteString("\n--- END OF CONTEXT (for current query) ---\n\n")
	sb.WriteString("Your Task:\n")
	sb.WriteString("Considering our ongoing conversation AND the CONTEXT provided above, answer the user's current query.\n")
	sb.WriteString("- Prioritize the CONTEXT when it is relevant.\n")
	sb.WriteString("- You may draw on our previous exchanges if that gives a more complete answer to the current query.\n")
	sb.WriteString("- If the CONTEXT and our prior conversation do not contain enough information, say so.\n")
	sb.WriteString("- Do not use any external knowledge. Be comprehensive if the information allows.\n")

	return sb.String()
}

// FormatHistorySnippet formats the last n turns as "- Role: text" lines for
// inclusion in a guidance prompt. States the absence of history explicitly.
func FormatHistorySnippet(turns []Turn, n int) string {
	if len(turns) == 0 {
		return "No prior conversation history."
	}

	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	var sb strings.Builder
	sb.WriteString("Recent Conversation Snippet:\n")
	for _, turn := range turns {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			text = "[empty message]"
		}
		sb.WriteString("- ")
		sb.WriteString(capitalizeRole(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String()
}

func capitalizeRole(role string) string {
	if role == "" {
		return "Unknown"
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
