// FILE: internal/service/chat_service.go
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"athleticare-be/internal/constant"
	"athleticare-be/internal/dto"
	"athleticare-be/internal/entity"
	"athleticare-be/internal/pkg/logger"
	"athleticare-be/internal/repository/memory"
	"athleticare-be/internal/repository/specification"
	"athleticare-be/internal/repository/unitofwork"
	"athleticare-be/pkg/llm"

	"github.com/google/uuid"
)

// IChatService owns all chat session state. Every mutation goes through a
// committed transaction, so concurrent clients can never overwrite each
// other's history wholesale.
type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error)
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type chatService struct {
	uowFactory  unitofwork.RepositoryFactory
	llmProvider llm.LLMProvider
	inflight    *memory.InflightRepository
	logger      logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	llmProvider llm.LLMProvider,
	inflight *memory.InflightRepository,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:  uowFactory,
		llmProvider: llmProvider,
		inflight:    inflight,
		logger:      sysLogger,
	}
}

var titleStripPattern = regexp.MustCompile(`[^a-zA-Z0-9 ]`)

// summarizeTitle derives a session title from its first user message:
// alphanumerics and spaces only, first 4 tokens.
func summarizeTitle(text string) string {
	cleaned := titleStripPattern.ReplaceAllString(text, "")
	tokens := strings.Fields(cleaned)
	if len(tokens) > 4 {
		tokens = tokens[:4]
	}
	return strings.Join(tokens, " ")
}

func (cs *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSession := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.NewSessionTitle,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &chatSession); err != nil {
		return nil, err
	}

	return &dto.CreateSessionResponse{Id: chatSession.Id, Title: chatSession.Title}, nil
}

// GetAllSessions lists sessions newest-first.
func (cs *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	chatSessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	response := make([]*dto.GetAllSessionsResponse, 0, len(chatSessions))
	for _, s := range chatSessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        s.Id,
			Title:     s.Title,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	return response, nil
}

func (cs *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]*dto.GetChatHistoryResponse, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	sess, err := cs.verifyChatSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	chatMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sess.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	resp := make([]*dto.GetChatHistoryResponse, 0, len(chatMessages))
	for _, msg := range chatMessages {
		resp = append(resp, &dto.GetChatHistoryResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Text:      msg.Text,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp, nil
}

// SendChat runs the send pipeline: persist the user message first, then ask
// the model, then persist whatever comes back. The user message survives an
// upstream failure; a failed completion is stored as the fixed fallback
// reply, indistinguishable from a real one.
func (cs *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	text := strings.TrimSpace(request.Chat)
	if text == "" {
		return nil, ErrValidation
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	var chatSession *entity.ChatSession
	var err error
	if request.ChatSessionId == nil {
		// Lazy session creation on first send
		chatSession = &entity.ChatSession{
			Id:        uuid.New(),
			UserId:    userId,
			Title:     constant.NewSessionTitle,
			CreatedAt: time.Now(),
		}
		if err := uow.ChatSessionRepository().Create(ctx, chatSession); err != nil {
			return nil, err
		}
	} else {
		chatSession, err = cs.verifyChatSession(ctx, uow, userId, *request.ChatSessionId)
		if err != nil {
			return nil, err
		}
	}

	// One in-flight send per session
	if !cs.inflight.TryAcquire(chatSession.Id.String()) {
		return nil, ErrReplyPending
	}
	defer cs.inflight.Release(chatSession.Id.String())

	existingMessages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: chatSession.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleUser,
		Text:          text,
		CreatedAt:     now,
	}

	// Persist user message (and the derived title) before the upstream call
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if len(existingMessages) == 0 {
		chatSession.Title = summarizeTitle(text)
		chatSession.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, chatSession); err != nil {
			return nil, err
		}
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMessage); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	replyText := cs.requestCompletion(ctx, append(existingMessages, userMessage))

	botMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: chatSession.Id,
		Role:          constant.ChatMessageRoleBot,
		Text:          replyText,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, botMessage); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ChatSessionId:    chatSession.Id,
		ChatSessionTitle: chatSession.Title,
		Sent: &dto.SendChatResponseChat{
			Id:        userMessage.Id,
			Role:      userMessage.Role,
			Text:      userMessage.Text,
			CreatedAt: userMessage.CreatedAt,
		},
		Reply: &dto.SendChatResponseChat{
			Id:        botMessage.Id,
			Role:      botMessage.Role,
			Text:      botMessage.Text,
			CreatedAt: botMessage.CreatedAt,
		},
	}, nil
}

// requestCompletion forwards the session history to the model and returns
// either its reply or the fixed fallback text. It never returns an error:
// upstream detail stays out of user-facing state.
func (cs *chatService) requestCompletion(ctx context.Context, history []*entity.ChatMessage) string {
	llmHistory := make([]llm.Message, 0, len(history)+1)
	llmHistory = append(llmHistory, llm.Message{
		Role:    constant.CompletionRoleSystem,
		Content: constant.SystemPrompt,
	})
	for _, msg := range history {
		role := constant.CompletionRoleUser
		if msg.Role == constant.ChatMessageRoleBot {
			role = constant.CompletionRoleAssistant
		}
		llmHistory = append(llmHistory, llm.Message{Role: role, Content: msg.Text})
	}

	reply, err := cs.llmProvider.Chat(ctx, llmHistory,
		llm.WithTemperature(constant.CompletionTemperature),
		llm.WithMaxTokens(constant.CompletionMaxTokens),
	)
	if err != nil {
		cs.logger.Warn("chat", "Completion request failed, storing fallback reply", map[string]interface{}{
			"error": err.Error(),
		})
		return constant.FallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		cs.logger.Warn("chat", "Completion returned an empty reply, storing fallback reply", nil)
		return constant.FallbackReply
	}
	return reply
}

func (cs *chatService) verifyChatSession(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
