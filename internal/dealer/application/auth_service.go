package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wyfcoding/leadmarket/internal/apperr"
	"github.com/wyfcoding/leadmarket/internal/dealer/domain"
	"github.com/wyfcoding/leadmarket/pkg/middleware"
)

// AuthService dealer 注册与登录
type AuthService struct {
	dealers   domain.DealerRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *slog.Logger
}

// NewAuthService 创建鉴权服务实例
func NewAuthService(dealers domain.DealerRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		dealers:   dealers,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With("service", "dealer_auth"),
	}
}

// RegisterCommand 注册命令
type RegisterCommand struct {
	Email       string
	Password    string
	Name        string
	CompanyName string
}

// Register 注册新 dealer 账号
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (*domain.Dealer, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.Email))
	if !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(cmd.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		return nil, apperr.Validation("name is required")
	}

	existing, err := s.dealers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	dealer := &domain.Dealer{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(cmd.Name),
		CompanyName:  strings.TrimSpace(cmd.CompanyName),
		Role:         middleware.RoleDealer,
	}
	if err := s.dealers.Save(ctx, dealer); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dealer registered", "dealer_id", dealer.ID, "email", email)
	return dealer, nil
}

// LoginResult 登录结果
type LoginResult struct {
	Token  string         `json:"token"`
	Dealer *domain.Dealer `json:"dealer"`
}

// Login 校验口令并签发 token
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	dealer, err := s.dealers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, apperr.New(apperr.CodeAuthenticationRequired, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(dealer.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.New(apperr.CodeAuthenticationRequired, "invalid credentials")
	}

	token, err := middleware.IssueToken(s.jwtSecret, dealer.ID, dealer.Role, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "dealer logged in", "dealer_id", dealer.ID)
	return &LoginResult{Token: token, Dealer: dealer}, nil
}
