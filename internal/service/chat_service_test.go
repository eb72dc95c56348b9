package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"athleticare-be/internal/constant"
	"athleticare-be/internal/dto"
	"athleticare-be/internal/entity"
	"athleticare-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "strips punctuation and truncates to four words",
			text: "It hurts! 123 a lot today",
			want: "It hurts 123 a",
		},
		{
			name: "short message kept whole",
			text: "My knee",
			want: "My knee",
		},
		{
			name: "exactly four words",
			text: "ankle sprain from running",
			want: "ankle sprain from running",
		},
		{
			name: "collapses extra whitespace",
			text: "  sore   hamstring  ",
			want: "sore hamstring",
		},
		{
			name: "only punctuation",
			text: "?!?!",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarizeTitle(tt.text)
			if got != tt.want {
				t.Errorf("summarizeTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func newChatServiceUnderTest(factory *fakeFactory, provider *fakeLLM) IChatService {
	return NewChatService(factory, provider, memory.NewInflightRepository(time.Minute), noopLogger{})
}

func TestCreateSession(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})
	userId := uuid.New()

	resp, err := svc.CreateSession(context.Background(), userId)
	require.NoError(t, err)

	assert.Equal(t, constant.NewSessionTitle, resp.Title)
	require.Len(t, factory.store.sessions, 1)
	assert.Equal(t, userId, factory.store.sessions[0].UserId)
}

func TestSendChatCreatesSessionLazily(t *testing.T) {
	factory := newFakeFactory()
	provider := &fakeLLM{reply: "Rest and ice it."}
	svc := newChatServiceUnderTest(factory, provider)
	userId := uuid.New()

	resp, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		Chat: "My ankle hurts after practice",
	})
	require.NoError(t, err)

	require.Len(t, factory.store.sessions, 1)
	assert.Equal(t, resp.ChatSessionId, factory.store.sessions[0].Id)
	assert.Equal(t, "My ankle hurts after", resp.ChatSessionTitle)

	require.Len(t, factory.store.messages, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, factory.store.messages[0].Role)
	assert.Equal(t, "My ankle hurts after practice", factory.store.messages[0].Text)
	assert.Equal(t, constant.ChatMessageRoleBot, factory.store.messages[1].Role)
	assert.Equal(t, "Rest and ice it.", factory.store.messages[1].Text)
}

func TestSendChatPrependsSystemPromptAndMapsRoles(t *testing.T) {
	factory := newFakeFactory()
	provider := &fakeLLM{reply: "Sounds like a strain."}
	svc := newChatServiceUnderTest(factory, provider)
	userId := uuid.New()

	sessionId := uuid.New()
	factory.store.sessions = append(factory.store.sessions, &entity.ChatSession{
		Id: sessionId, UserId: userId, Title: "knee pain", CreatedAt: time.Now(),
	})
	factory.store.messages = append(factory.store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleUser, Text: "knee pain", CreatedAt: time.Now().Add(-2 * time.Minute)},
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleBot, Text: "tell me more", CreatedAt: time.Now().Add(-time.Minute)},
	)

	_, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Chat:          "it clicks when I bend it",
	})
	require.NoError(t, err)

	require.Len(t, provider.gotHistory, 4)
	assert.Equal(t, constant.CompletionRoleSystem, provider.gotHistory[0].Role)
	assert.Equal(t, constant.SystemPrompt, provider.gotHistory[0].Content)
	assert.Equal(t, constant.CompletionRoleUser, provider.gotHistory[1].Role)
	assert.Equal(t, constant.CompletionRoleAssistant, provider.gotHistory[2].Role)
	assert.Equal(t, "it clicks when I bend it", provider.gotHistory[3].Content)

	assert.Equal(t, constant.CompletionTemperature, provider.gotOptions.Temperature)
	assert.Equal(t, constant.CompletionMaxTokens, provider.gotOptions.MaxTokens)
}

func TestSendChatKeepsTitleAfterFirstMessage(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})
	userId := uuid.New()

	sessionId := uuid.New()
	factory.store.sessions = append(factory.store.sessions, &entity.ChatSession{
		Id: sessionId, UserId: userId, Title: "My ankle hurts after", CreatedAt: time.Now(),
	})
	factory.store.messages = append(factory.store.messages, &entity.ChatMessage{
		Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleUser, Text: "My ankle hurts after practice", CreatedAt: time.Now(),
	})

	resp, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Chat:          "Should I see a doctor?",
	})
	require.NoError(t, err)
	assert.Equal(t, "My ankle hurts after", resp.ChatSessionTitle)
}

func TestSendChatStoresFallbackWhenProviderFails(t *testing.T) {
	factory := newFakeFactory()
	provider := &fakeLLM{err: errors.New("upstream unavailable")}
	svc := newChatServiceUnderTest(factory, provider)
	userId := uuid.New()

	resp, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		Chat: "shoulder pain when throwing",
	})
	require.NoError(t, err)

	// The user message survives the failure and the fallback is stored like
	// any other reply.
	require.Len(t, factory.store.messages, 2)
	assert.Equal(t, "shoulder pain when throwing", factory.store.messages[0].Text)
	assert.Equal(t, constant.FallbackReply, factory.store.messages[1].Text)
	assert.Equal(t, constant.FallbackReply, resp.Reply.Text)
}

func TestSendChatStoresFallbackOnBlankReply(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "   "})
	userId := uuid.New()

	resp, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{Chat: "hi"})
	require.NoError(t, err)
	assert.Equal(t, constant.FallbackReply, resp.Reply.Text)
}

func TestSendChatRejectsEmptyMessage(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})

	_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{Chat: "   "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, factory.store.messages)
}

func TestSendChatRejectsConcurrentSend(t *testing.T) {
	factory := newFakeFactory()
	inflight := memory.NewInflightRepository(time.Minute)
	svc := NewChatService(factory, &fakeLLM{reply: "ok"}, inflight, noopLogger{})
	userId := uuid.New()

	sessionId := uuid.New()
	factory.store.sessions = append(factory.store.sessions, &entity.ChatSession{
		Id: sessionId, UserId: userId, Title: "t", CreatedAt: time.Now(),
	})

	// Simulate a send already in flight for this session.
	require.True(t, inflight.TryAcquire(sessionId.String()))

	_, err := svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Chat:          "second message",
	})
	assert.ErrorIs(t, err, ErrReplyPending)
	assert.Empty(t, factory.store.messages)

	// Once released, the session accepts sends again.
	inflight.Release(sessionId.String())
	_, err = svc.SendChat(context.Background(), userId, &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Chat:          "second message",
	})
	assert.NoError(t, err)
}

func TestSendChatRejectsForeignSession(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})

	sessionId := uuid.New()
	factory.store.sessions = append(factory.store.sessions, &entity.ChatSession{
		Id: sessionId, UserId: uuid.New(), Title: "t", CreatedAt: time.Now(),
	})

	_, err := svc.SendChat(context.Background(), uuid.New(), &dto.SendChatRequest{
		ChatSessionId: &sessionId,
		Chat:          "hello",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGetAllSessionsNewestFirst(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})
	userId := uuid.New()

	older := &entity.ChatSession{Id: uuid.New(), UserId: userId, Title: "older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &entity.ChatSession{Id: uuid.New(), UserId: userId, Title: "newer", CreatedAt: time.Now()}
	foreign := &entity.ChatSession{Id: uuid.New(), UserId: uuid.New(), Title: "foreign", CreatedAt: time.Now()}
	factory.store.sessions = append(factory.store.sessions, older, newer, foreign)

	sessions, err := svc.GetAllSessions(context.Background(), userId)
	require.NoError(t, err)

	require.Len(t, sessions, 2)
	assert.Equal(t, "newer", sessions[0].Title)
	assert.Equal(t, "older", sessions[1].Title)
}

func TestGetChatHistory(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})
	userId := uuid.New()

	sessionId := uuid.New()
	factory.store.sessions = append(factory.store.sessions, &entity.ChatSession{
		Id: sessionId, UserId: userId, Title: "t", CreatedAt: time.Now(),
	})
	factory.store.messages = append(factory.store.messages,
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleBot, Text: "second", CreatedAt: time.Now()},
		&entity.ChatMessage{Id: uuid.New(), ChatSessionId: sessionId, Role: constant.ChatMessageRoleUser, Text: "first", CreatedAt: time.Now().Add(-time.Minute)},
	)

	history, err := svc.GetChatHistory(context.Background(), userId, sessionId)
	require.NoError(t, err)

	// Oldest first
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "second", history[1].Text)
}

func TestGetChatHistoryUnknownSession(t *testing.T) {
	factory := newFakeFactory()
	svc := newChatServiceUnderTest(factory, &fakeLLM{reply: "ok"})

	_, err := svc.GetChatHistory(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
