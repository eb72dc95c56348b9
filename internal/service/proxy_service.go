package service

import (
	"context"

	"athleticare-be/internal/constant"
	"athleticare-be/internal/dto"
	"athleticare-be/internal/pkg/mailer"
	"athleticare-be/pkg/llm"
)

// IProxyService backs the public stateless endpoints. It holds no state and
// persists nothing: it forwards to the upstream providers and reports back.
type IProxyService interface {
	Completion(ctx context.Context, messages []dto.ProxyMessage) (string, error)
	SendConfirmation(email, firstname string) error
}

type proxyService struct {
	llmProvider  llm.LLMProvider
	emailService mailer.IEmailService
}

func NewProxyService(llmProvider llm.LLMProvider, emailService mailer.IEmailService) IProxyService {
	return &proxyService{
		llmProvider:  llmProvider,
		emailService: emailService,
	}
}

func (ps *proxyService) Completion(ctx context.Context, messages []dto.ProxyMessage) (string, error) {
	history := make([]llm.Message, 0, len(messages)+1)
	history = append(history, llm.Message{
		Role:    constant.CompletionRoleSystem,
		Content: constant.SystemPrompt,
	})
	for _, m := range messages {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}

	return ps.llmProvider.Chat(ctx, history,
		llm.WithTemperature(constant.CompletionTemperature),
		llm.WithMaxTokens(constant.CompletionMaxTokens),
	)
}

func (ps *proxyService) SendConfirmation(email, firstname string) error {
	return ps.emailService.SendWelcome(email, firstname)
}
