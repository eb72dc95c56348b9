package service

import (
	"context"
	"sort"
	"strings"

	"athleticare-be/internal/dto"
	"athleticare-be/internal/entity"
	"athleticare-be/internal/repository/contract"
	"athleticare-be/internal/repository/specification"
	"athleticare-be/internal/repository/unitofwork"
	"athleticare-be/pkg/llm"
)

// In-memory doubles for the repository layer. The fake repositories interpret
// the same specification structs the gorm implementations translate to SQL.

type fakeStore struct {
	users    []*entity.User
	sessions []*entity.ChatSession
	messages []*entity.ChatMessage
}

type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return &fakeUserRepository{store: u.store}
}

func (u *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeChatSessionRepository{store: u.store}
}

func (u *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeChatMessageRepository{store: u.store}
}

type fakeFactory struct {
	store *fakeStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: &fakeStore{}}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type fakeUserRepository struct {
	store *fakeStore
}

func (r *fakeUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.users = append(r.store.users, user)
	return nil
}

func (r *fakeUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			n++
		}
	}
	return n, nil
}

type fakeChatSessionRepository struct {
	store *fakeStore
}

func (r *fakeChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.sessions = append(r.store.sessions, session)
	return nil
}

func (r *fakeChatSessionRepository) Update(ctx context.Context, session *entity.ChatSession) error {
	for i, s := range r.store.sessions {
		if s.Id == session.Id {
			r.store.sessions[i] = session
			return nil
		}
	}
	return nil
}

func (r *fakeChatSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			out = append(out, s)
		}
	}
	if order, ok := findOrder(specs); ok {
		sort.SliceStable(out, func(i, j int) bool {
			if order.Desc {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return out, nil
}

func (r *fakeChatSessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			n++
		}
	}
	return n, nil
}

type fakeChatMessageRepository struct {
	store *fakeStore
}

func (r *fakeChatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.messages = append(r.store.messages, message)
	return nil
}

func (r *fakeChatMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			out = append(out, m)
		}
	}
	if order, ok := findOrder(specs); ok {
		sort.SliceStable(out, func(i, j int) bool {
			if order.Desc {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return out, nil
}

func (r *fakeChatMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var n int64
	for _, m := range r.store.messages {
		if matchMessage(m, specs) {
			n++
		}
	}
	return n, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func matchUser(u *entity.User, specs []specification.Specification) bool {
	for _, sp := range specs {
		if byEmail, ok := sp.(specification.ByEmail); ok {
			if u.Email != normalizeEmail(byEmail.Email) {
				return false
			}
		}
	}
	return true
}

func matchSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, sp := range specs {
		switch v := sp.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

func matchMessage(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, sp := range specs {
		if bySession, ok := sp.(specification.ByChatSessionID); ok {
			if m.ChatSessionId != bySession.ChatSessionID {
				return false
			}
		}
	}
	return true
}

func findOrder(specs []specification.Specification) (specification.OrderBy, bool) {
	for _, sp := range specs {
		if order, ok := sp.(specification.OrderBy); ok {
			return order, true
		}
	}
	return specification.OrderBy{}, false
}

// fakeLLM returns a canned reply or error and records what it was asked.
type fakeLLM struct {
	reply      string
	err        error
	gotHistory []llm.Message
	gotOptions llm.Options
	calls      int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	f.gotHistory = history
	for _, o := range options {
		o(&f.gotOptions)
	}
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// fakePublisher records queued welcome emails.
type fakePublisher struct {
	published []*dto.PublishWelcomeEmailMessage
	err       error
}

func (f *fakePublisher) PublishWelcomeEmail(ctx context.Context, msg *dto.PublishWelcomeEmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, msg)
	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }
