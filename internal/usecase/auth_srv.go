package usecase

import (
	"context"
	"strings"
	"time"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/data/repository"
	"bondoutfit/internal/dto/request"
	"bondoutfit/internal/dto/response"
	"bondoutfit/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error)
	RegisterStore(ctx context.Context, req *request.RegisterStoreRequest) (*response.StoreRegistrationResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	user, err := s.newUser(ctx, req, entity.RoleCustomer)
	if err != nil {
		return nil, err
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create account")
	}

	// auto login after register
	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Warn("Failed to create session after register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

// RegisterStore creates the manager account and its store in one transaction.
func (s *authService) RegisterStore(ctx context.Context, req *request.RegisterStoreRequest) (*response.StoreRegistrationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Store register validation failed", zap.Any("errors", errs))
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	user, err := s.newUser(ctx, &req.RegisterRequest, entity.RoleStoreManager)
	if err != nil {
		return nil, err
	}

	store := &entity.Store{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.CreatedAt,
		},
		ManagerID: user.ID,
		Name:      strings.TrimSpace(req.StoreName),
		Email:     req.StoreEmail,
		Phone:     req.StorePhone,
		Address:   req.StoreAddress,
		IsActive:  true,
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.User.Create(ctx, user); err != nil {
			return err
		}
		return tx.Store.Create(ctx, store)
	})
	if err != nil {
		s.log.Error("Failed to register store", zap.Error(err), zap.String("email", req.Email))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to register store")
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Warn("Failed to create session after store register",
			zap.Error(err), zap.String("user_id", user.ID.String()))
	}

	s.log.Info("Store registered",
		zap.String("user_id", user.ID.String()),
		zap.String("store_id", store.ID.String()))

	return &response.StoreRegistrationResponse{
		Auth:  response.AuthToResponse(user, session),
		Store: response.StoreToResponse(store),
	}, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	// identifier may be an email or a username
	user, err := s.repo.User.FindByEmail(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err), zap.String("identifier", req.Username))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to find user")
	}
	if user == nil {
		user, err = s.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			s.log.Error("Failed to find user by username", zap.Error(err), zap.String("identifier", req.Username))
			return nil, apperr.Wrap(apperr.KindInternal, err, "failed to find user")
		}
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid login attempt", zap.String("identifier", req.Username))
		return nil, apperr.New(apperr.KindUnauthorized, "invalid credentials")
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, apperr.New(apperr.KindForbidden, "account is deactivated")
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to create session", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create session")
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	resp := response.AuthToResponse(user, session)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	tokenUUID, err := uuid.Parse(token)
	if err != nil {
		s.log.Warn("Invalid token format", zap.Error(err))
		return apperr.New(apperr.KindUnauthorized, "invalid token format")
	}

	if err := s.repo.Session.Revoke(ctx, tokenUUID); err != nil {
		s.log.Error("Failed to revoke session", zap.Error(err))
		return apperr.Wrap(apperr.KindInternal, err, "failed to logout")
	}

	s.log.Info("User logged out")
	return nil
}

// ==================== HELPER METHODS ====================

func (s *authService) newUser(ctx context.Context, req *request.RegisterRequest, role entity.UserRole) (*entity.User, error) {
	existing, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check email")
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindValidation, "email already registered").
			With("fields", map[string]string{"email": "already registered"})
	}

	existing, err = s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		s.log.Error("Failed to check username", zap.Error(err), zap.String("username", req.Username))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to check username")
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindValidation, "username already taken").
			With("fields", map[string]string{"username": "already taken"})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to process password")
	}

	now := time.Now()
	return &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashed,
		Phone:        req.Phone,
		Role:         role,
		IsActive:     true,
	}, nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID) (*entity.Session, error) {
	expiry := time.Duration(s.config.Session.ExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	now := time.Now()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    userID,
		Token:     utils.GenerateSessionToken(),
		ExpiresAt: now.Add(expiry),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}
