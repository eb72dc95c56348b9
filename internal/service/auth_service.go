// FILE: internal/service/auth_service.go
package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"athleticare-be/internal/dto"
	"athleticare-be/internal/entity"
	"athleticare-be/internal/repository/specification"
	"athleticare-be/internal/repository/unitofwork"
	"athleticare-be/pkg/events"
	pktNats "athleticare-be/pkg/nats"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error)
}

type authService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, eventPublisher *pktNats.Publisher) IAuthService {
	return &authService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 8

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error) {
	firstname := strings.TrimSpace(req.Firstname)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Form checks, mirrored verbatim from the signup form rules
	if firstname == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if req.Password != req.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 2. Duplicate check. Emails are stored lowercased, so the lookup is
	// case-insensitive by construction.
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	// 3. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Firstname:    firstname,
		CreatedAt:    time.Now(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	// 4. Welcome email, asynchronous and best-effort. A delivery failure
	// must never fail the signup.
	if pubErr := s.publisherService.PublishWelcomeEmail(ctx, &dto.PublishWelcomeEmailMessage{
		Email:     user.Email,
		Firstname: user.Firstname,
	}); pubErr != nil {
		fmt.Printf("[WARN] Failed to queue welcome email for %s: %v\n", user.Email, pubErr)
	}

	s.publishEvent(ctx, "USER_REGISTERED", map[string]interface{}{
		"user_id": user.Id,
		"email":   user.Email,
	})

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest, ipAddress, userAgent string) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.publishEvent(ctx, "USER_LOGIN", map[string]interface{}{
		"user_id": user.Id,
		"device":  userAgent,
		"ip":      ipAddress,
		"time":    time.Now().Format(time.RFC822),
	})

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	accessTokenExpiry := time.Hour * 24

	claims := jwt.MapClaims{
		"user_id": user.Id.String(),
		"exp":     time.Now().Add(accessTokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken: signedToken,
		User: dto.UserDTO{
			Id:        user.Id,
			Email:     user.Email,
			Firstname: user.Firstname,
		},
	}, nil
}

func (s *authService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.eventPublisher == nil {
		return
	}
	event := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		fmt.Printf("[WARN] Failed to publish %s event: %v\n", eventType, err)
	}
}
