package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/auth"
	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"required,max=80"`
	Role        string `json:"role" validate:"required,oneof=student teacher other"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput частичное обновление профиля: nil поля не меняются
type ProfileInput struct {
	DisplayName    *string `json:"display_name" validate:"omitnil,min=1,max=80"`
	Bio            *string `json:"bio" validate:"omitnil,max=500"`
	Anonymous      *bool   `json:"anonymous"`
	TelegramChatID *int64  `json:"telegram_chat_id"`
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type UserService struct {
	userRepo UserStore
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

func NewUserService(userRepo UserStore, tokens *auth.TokenManager, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register регистрирует нового пользователя и сразу выдаёт токен
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		AnonID:       uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		Role:         in.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role),
	)

	return s.issue(user)
}

// Login проверяет пароль и выдаёт токен
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.New(errs.KindUnauthorized, "invalid email or password")
	}

	ok, err := auth.CheckPassword(user.PasswordHash, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("Failed login", zap.Int64("user_id", user.ID))
		return nil, errs.New(errs.KindUnauthorized, "invalid email or password")
	}

	return s.issue(user)
}

func (s *UserService) issue(user *model.User) (*AuthResult, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.Role, user.AnonID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Authenticate проверяет токен и загружает пользователя
func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.New(errs.KindUnauthorized, "user no longer exists")
	}

	return user, nil
}

// GetByID получает пользователя
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, errs.New(errs.KindNotFound, "user not found")
	}
	return user, nil
}

// GetView возвращает пользователя глазами viewerID
func (s *UserService) GetView(ctx context.Context, viewerID, id int64) (model.UserView, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return model.UserView{}, err
	}
	return user.ViewFor(viewerID), nil
}

// UpdateProfile обновляет профиль пользователя
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*model.User, error) {
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		in.DisplayName = &name
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.DisplayName != nil {
		user.DisplayName = *in.DisplayName
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.Anonymous != nil {
		user.Anonymous = *in.Anonymous
	}
	if in.TelegramChatID != nil {
		if *in.TelegramChatID == 0 {
			user.TelegramChatID = nil
		} else {
			id := *in.TelegramChatID
			user.TelegramChatID = &id
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated",
		zap.Int64("user_id", user.ID),
		zap.Bool("anonymous", user.Anonymous),
	)

	return user, nil
}

// views собирает представления пользователей для viewerID
func views(ctx context.Context, users UserStore, viewerID int64, ids []int64) (map[int64]model.UserView, error) {
	list, err := users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	out := make(map[int64]model.UserView, len(list))
	for _, u := range list {
		out[u.ID] = u.ViewFor(viewerID)
	}
	return out, nil
}
