package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nikcet/ycla-ai-chat/internal/ai"
	"github.com/Nikcet/ycla-ai-chat/internal/index"
	"github.com/Nikcet/ycla-ai-chat/internal/model"
	"github.com/Nikcet/ycla-ai-chat/internal/pkg/jwtutil"
	"github.com/Nikcet/ycla-ai-chat/internal/session"
)

const testSecret = "test-secret"

type fakeSessionStore struct {
	histories map[string][]session.Entry
	live      map[string]bool
	window    int

	createErr  error
	loadErr    error
	appendErr  error
	liveErr    error
	lastCreate string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		histories: map[string][]session.Entry{},
		live:      map[string]bool{},
		window:    10,
	}
}

func (f *fakeSessionStore) key(companyID uint, sessionID string) string {
	return sessionID
}

func (f *fakeSessionStore) Create(ctx context.Context, companyID uint) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	id := "session-" + time.Now().Format("150405.000000000")
	f.live[id] = true
	f.lastCreate = id
	return id, nil
}

func (f *fakeSessionStore) IsLive(ctx context.Context, companyID uint, sessionID string) (bool, error) {
	if f.liveErr != nil {
		return false, f.liveErr
	}
	return f.live[sessionID], nil
}

func (f *fakeSessionStore) AppendHistory(ctx context.Context, companyID uint, sessionID string, entries ...session.Entry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	k := f.key(companyID, sessionID)
	f.histories[k] = append(f.histories[k], entries...)
	if len(f.histories[k]) > f.window {
		f.histories[k] = f.histories[k][len(f.histories[k])-f.window:]
	}
	return nil
}

func (f *fakeSessionStore) LoadHistory(ctx context.Context, companyID uint, sessionID string) ([]session.Entry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.histories[f.key(companyID, sessionID)], nil
}

type fakeGateway struct {
	answer   string
	vector   []float32
	chatErr  error
	embedErr error
	messages []ai.ChatMessage
}

func (f *fakeGateway) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.messages = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.answer, nil
}

func (f *fakeGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.vector, nil
}

type fakeSearchIndex struct {
	chunks []index.Chunk
	err    error
}

func (f *fakeSearchIndex) Upsert(ctx context.Context, chunks []index.Chunk) error { return nil }
func (f *fakeSearchIndex) Delete(ctx context.Context, filter index.Filter) (int, error) {
	return 0, nil
}
func (f *fakeSearchIndex) Search(ctx context.Context, vector []float32, k int, filter index.Filter) ([]index.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}
func (f *fakeSearchIndex) Count() int { return len(f.chunks) }

type fakePromptReader struct {
	prompt *model.AdminPrompt
	err    error
}

func (f *fakePromptReader) GetByCompanyID(companyID uint) (*model.AdminPrompt, error) {
	return f.prompt, f.err
}

type chatFixture struct {
	sessions *fakeSessionStore
	gateway  *fakeGateway
	search   *fakeSearchIndex
	prompts  *fakePromptReader
	svc      *ChatService
}

func newChatFixture() *chatFixture {
	f := &chatFixture{
		sessions: newFakeSessionStore(),
		gateway:  &fakeGateway{answer: "the answer", vector: []float32{1, 0}},
		search:   &fakeSearchIndex{},
		prompts:  &fakePromptReader{},
	}
	f.svc = NewChatService(f.sessions, f.gateway, f.search, f.prompts, testSecret, time.Hour, 5, zerolog.Nop())
	return f
}

func TestChatWithoutTokenMintsSession(t *testing.T) {
	f := newChatFixture()

	result, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
	require.NotEmpty(t, result.SessionToken)

	claims, err := jwtutil.ParseToken(testSecret, result.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.CompanyID)
	assert.Equal(t, f.sessions.lastCreate, claims.SessionID)
}

func TestChatWithGarbageTokenNeverRejects(t *testing.T) {
	f := newChatFixture()

	result, err := f.svc.Answer(context.Background(), ChatInput{
		CompanyID:    7,
		Question:     "hello?",
		SessionToken: "not-a-jwt",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionToken)
	assert.NotEqual(t, "not-a-jwt", result.SessionToken)
}

func TestChatWithLiveTokenReusesSession(t *testing.T) {
	f := newChatFixture()

	first, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "first"})
	require.NoError(t, err)

	second, err := f.svc.Answer(context.Background(), ChatInput{
		CompanyID:    7,
		Question:     "second",
		SessionToken: first.SessionToken,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionToken, second.SessionToken)

	claims, err := jwtutil.ParseToken(testSecret, second.SessionToken)
	require.NoError(t, err)
	history := f.sessions.histories[claims.SessionID]
	require.Len(t, history, 4)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[2].Content)
}

func TestChatTokenForOtherCompanyStartsFreshSession(t *testing.T) {
	f := newChatFixture()

	foreign, err := jwtutil.GenerateToken(testSecret, time.Hour, 99, "stolen-session")
	require.NoError(t, err)
	f.sessions.live["stolen-session"] = true

	result, err := f.svc.Answer(context.Background(), ChatInput{
		CompanyID:    7,
		Question:     "hello?",
		SessionToken: foreign,
	})
	require.NoError(t, err)

	claims, err := jwtutil.ParseToken(testSecret, result.SessionToken)
	require.NoError(t, err)
	assert.NotEqual(t, "stolen-session", claims.SessionID)
	assert.Equal(t, uint(7), claims.CompanyID)
}

func TestChatDeadSessionRecordReissues(t *testing.T) {
	f := newChatFixture()
	expired, err := jwtutil.GenerateToken(testSecret, time.Hour, 7, "gone-session")
	require.NoError(t, err)
	// Token is cryptographically fine but the store record has lapsed.

	result, err := f.svc.Answer(context.Background(), ChatInput{
		CompanyID:    7,
		Question:     "hello?",
		SessionToken: expired,
	})
	require.NoError(t, err)

	claims, err := jwtutil.ParseToken(testSecret, result.SessionToken)
	require.NoError(t, err)
	assert.NotEqual(t, "gone-session", claims.SessionID)
}

func TestChatSessionStoreOutageStillAnswers(t *testing.T) {
	f := newChatFixture()
	f.sessions.createErr = errors.New("redis down")
	f.sessions.loadErr = errors.New("redis down")
	f.sessions.appendErr = errors.New("redis down")

	result, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
	assert.NotEmpty(t, result.SessionToken)
}

func TestChatRetrievalFailureAnswersUngrounded(t *testing.T) {
	f := newChatFixture()
	f.search.err = errors.New("index unreachable")

	result, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "what is the refund policy?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)

	last := f.gateway.messages[len(f.gateway.messages)-1]
	assert.Equal(t, "what is the refund policy?", last.Content)
}

func TestChatEmbeddingFailureAnswersUngrounded(t *testing.T) {
	f := newChatFixture()
	f.gateway.embedErr = errors.New("embeddings down")

	result, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result.Answer)
}

func TestChatContextInlinedIntoUserTurn(t *testing.T) {
	f := newChatFixture()
	f.search.chunks = []index.Chunk{
		{Content: "refunds take 14 days"},
		{Content: "contact billing for disputes"},
	}

	_, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "refund policy?"})
	require.NoError(t, err)

	last := f.gateway.messages[len(f.gateway.messages)-1]
	assert.Contains(t, last.Content, "Context:\nrefunds take 14 days\ncontact billing for disputes")
	assert.Contains(t, last.Content, "Question:\nrefund policy?")
}

func TestChatAdminPromptAppendedToSystemMessage(t *testing.T) {
	f := newChatFixture()
	f.prompts.prompt = &model.AdminPrompt{CompanyID: 7, Content: "Always answer in French."}

	_, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.NoError(t, err)

	system := f.gateway.messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, baseInstruction)
	assert.Contains(t, system.Content, "Always answer in French.")
}

func TestChatProviderExhaustionFailsTurn(t *testing.T) {
	f := newChatFixture()
	f.gateway.chatErr = &ai.ProviderError{Kind: ai.KindServerError, Status: 503}

	_, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

// rateLimitedBackend always reports 429; answerBackend returns a canned reply.
type rateLimitedBackend struct{}

func (rateLimitedBackend) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	return "", &ai.ProviderError{Kind: ai.KindRateLimited, Status: 429, Message: "quota"}
}

func (rateLimitedBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, &ai.ProviderError{Kind: ai.KindRateLimited, Status: 429, Message: "quota"}
}

type answerBackend struct{ answer string }

func (b answerBackend) Chat(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	return b.answer, nil
}

func (b answerBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// A rate-limited primary is invisible to the caller: the turn completes with
// the secondary's answer.
func TestChatRateLimitedPrimaryUsesSecondary(t *testing.T) {
	sessions := newFakeSessionStore()
	gateway := ai.NewGateway(rateLimitedBackend{}, answerBackend{answer: "from secondary"}, zerolog.Nop())
	svc := NewChatService(sessions, gateway, &fakeSearchIndex{}, &fakePromptReader{}, testSecret, time.Hour, 5, zerolog.Nop())

	result, err := svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "hello?"})
	require.NoError(t, err)
	assert.Equal(t, "from secondary", result.Answer)
}

func TestChatEmptyQuestionRejected(t *testing.T) {
	f := newChatFixture()
	_, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHistoryWindowNeverExceedsLimit(t *testing.T) {
	f := newChatFixture()

	first, err := f.svc.Answer(context.Background(), ChatInput{CompanyID: 7, Question: "turn 0"})
	require.NoError(t, err)
	token := first.SessionToken

	for i := 1; i < 12; i++ {
		r, err := f.svc.Answer(context.Background(), ChatInput{
			CompanyID:    7,
			Question:     "turn " + string(rune('0'+i%10)),
			SessionToken: token,
		})
		require.NoError(t, err)
		token = r.SessionToken
	}

	claims, err := jwtutil.ParseToken(testSecret, token)
	require.NoError(t, err)
	history := f.sessions.histories[claims.SessionID]
	assert.LessOrEqual(t, len(history), 10)
	// Oldest turns are dropped first.
	assert.NotEqual(t, "turn 0", history[0].Content)
}
