package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Nikcet/ycla-ai-chat/internal/ai"
	"github.com/Nikcet/ycla-ai-chat/internal/index"
	"github.com/Nikcet/ycla-ai-chat/internal/model"
	"github.com/Nikcet/ycla-ai-chat/internal/pkg/jwtutil"
	"github.com/Nikcet/ycla-ai-chat/internal/session"
)

const baseInstruction = "You are a support assistant. Answer using only the provided context. " +
	"If the context does not contain enough information, say so instead of inventing facts."

// SessionStore is the conversation-state surface the chat turn needs.
type SessionStore interface {
	Create(ctx context.Context, companyID uint) (string, error)
	IsLive(ctx context.Context, companyID uint, sessionID string) (bool, error)
	AppendHistory(ctx context.Context, companyID uint, sessionID string, entries ...session.Entry) error
	LoadHistory(ctx context.Context, companyID uint, sessionID string) ([]session.Entry, error)
}

// LLMGateway is the provider surface: chat with fallback, embeddings.
type LLMGateway interface {
	Chat(ctx context.Context, messages []ai.ChatMessage) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// PromptReader loads the company's system-prompt override.
type PromptReader interface {
	GetByCompanyID(companyID uint) (*model.AdminPrompt, error)
}

// ChatService produces one answer per request. Every external dependency may
// fail independently without failing the turn, except the LLM call itself,
// which instead carries the provider fallback.
type ChatService struct {
	sessions   SessionStore
	gateway    LLMGateway
	search     index.SearchIndex
	prompts    PromptReader
	jwtSecret  string
	sessionTTL time.Duration
	topK       int
	logger     zerolog.Logger
}

func NewChatService(
	sessions SessionStore,
	gateway LLMGateway,
	search index.SearchIndex,
	prompts PromptReader,
	jwtSecret string,
	sessionTTL time.Duration,
	topK int,
	logger zerolog.Logger,
) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	return &ChatService{
		sessions:   sessions,
		gateway:    gateway,
		search:     search,
		prompts:    prompts,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
		topK:       topK,
		logger:     logger,
	}
}

type ChatInput struct {
	CompanyID    uint
	Question     string
	SessionToken string
}

type ChatResult struct {
	Answer       string `json:"answer"`
	SessionToken string `json:"session_token"`
}

// Answer runs one chat turn. Only provider exhaustion can fail it; session,
// history, prompt, and retrieval problems degrade to safe defaults.
func (s *ChatService) Answer(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if input.CompanyID == 0 {
		return nil, ErrInvalidInput
	}
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	sessionID, token := s.resolveSession(ctx, input.CompanyID, input.SessionToken)
	history := s.loadHistory(ctx, input.CompanyID, sessionID)
	contextBlock := s.retrieveContext(ctx, input.CompanyID, question)
	messages := s.composeMessages(input.CompanyID, history, question, contextBlock)

	answer, err := s.gateway.Chat(ctx, messages)
	if err != nil {
		s.logger.Error().Err(err).Uint("company_id", input.CompanyID).Msg("all chat backends failed")
		return nil, ErrProviderUnavailable
	}
	answer = strings.TrimSpace(answer)

	// The answer is already computed; a failed history write must not take
	// it away from the caller.
	if err := s.sessions.AppendHistory(ctx, input.CompanyID, sessionID,
		session.Entry{Role: "user", Content: question},
		session.Entry{Role: "assistant", Content: answer},
	); err != nil {
		s.logger.Warn().Err(err).Uint("company_id", input.CompanyID).Str("session_id", sessionID).Msg("persist turn failed")
	}

	return &ChatResult{Answer: answer, SessionToken: token}, nil
}

// resolveSession never rejects: a missing, expired, or foreign token just
// starts a fresh session.
func (s *ChatService) resolveSession(ctx context.Context, companyID uint, rawToken string) (string, string) {
	if rawToken != "" {
		claims, err := jwtutil.ParseToken(s.jwtSecret, rawToken)
		if err == nil && claims.CompanyID == companyID {
			live, liveErr := s.sessions.IsLive(ctx, companyID, claims.SessionID)
			if liveErr != nil {
				s.logger.Warn().Err(liveErr).Msg("session liveness check failed, reissuing")
			} else if live {
				return claims.SessionID, rawToken
			}
		}
	}

	sessionID, err := s.sessions.Create(ctx, companyID)
	if err != nil {
		// Session store outage: keep the turn alive with a local id. The
		// record is simply absent, so the next turn reissues again.
		s.logger.Warn().Err(err).Uint("company_id", companyID).Msg("create session record failed")
		sessionID = uuid.NewString()
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.sessionTTL, companyID, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("sign session token failed")
		token = ""
	}
	return sessionID, token
}

func (s *ChatService) loadHistory(ctx context.Context, companyID uint, sessionID string) []session.Entry {
	history, err := s.sessions.LoadHistory(ctx, companyID, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("company_id", companyID).Msg("load history failed, continuing without")
		return nil
	}
	return history
}

func (s *ChatService) retrieveContext(ctx context.Context, companyID uint, question string) string {
	vec, err := s.gateway.Embed(ctx, question)
	if err != nil {
		s.logger.Warn().Err(err).Uint("company_id", companyID).Msg("embed question failed, answering ungrounded")
		return ""
	}

	filter := index.Filter{CompanyID: strconv.FormatUint(uint64(companyID), 10)}
	chunks, err := s.search.Search(ctx, vec, s.topK, filter)
	if err != nil {
		s.logger.Warn().Err(err).Uint("company_id", companyID).Msg("retrieval failed, answering ungrounded")
		return ""
	}

	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}
	return strings.Join(contents, "\n")
}

func (s *ChatService) composeMessages(companyID uint, history []session.Entry, question, contextBlock string) []ai.ChatMessage {
	system := baseInstruction
	if prompt, err := s.prompts.GetByCompanyID(companyID); err != nil {
		s.logger.Warn().Err(err).Uint("company_id", companyID).Msg("load admin prompt failed, using base instruction")
	} else if prompt != nil {
		system += "\n\n" + prompt.Content
	}

	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: system})
	for _, e := range history {
		role := e.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: e.Content})
	}

	userContent := question
	if contextBlock != "" {
		userContent = "Context:\n" + contextBlock + "\n\nQuestion:\n" + question
	}
	messages = append(messages, ai.ChatMessage{Role: "user", Content: userContent})
	return messages
}
