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

type StoreService interface {
	AddStaff(ctx context.Context, identity utils.Identity, storeID string, req *request.AddStaffRequest) (*response.StaffResponse, error)
	CreateDiscount(ctx context.Context, identity utils.Identity, storeID string, req *request.CreateDiscountRequest) (*response.DiscountResponse, error)
}

type storeService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewStoreService(repo *repository.Repository, log *zap.Logger) StoreService {
	return &storeService{
		repo: repo,
		log:  log.With(zap.String("service", "store")),
	}
}

// AddStaff links an existing account to the store. Customers are promoted to
// store staff; other roles keep theirs.
func (s *storeService) AddStaff(ctx context.Context, identity utils.Identity, storeID string, req *request.AddStaffRequest) (*response.StaffResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	store, err := s.managedStore(ctx, identity, storeID)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		s.log.Error("Failed to find staff user", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to find user")
	}
	if user == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "no account registered with email %s", req.Email)
	}

	err = s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		if user.Role == entity.RoleCustomer {
			if err := tx.User.UpdateRole(ctx, user.ID, entity.RoleStoreStaff); err != nil {
				return err
			}
			user.Role = entity.RoleStoreStaff
		}
		return tx.Store.AddStaff(ctx, store.ID, user.ID)
	})
	if err != nil {
		s.log.Error("Failed to add staff", zap.Error(err), zap.String("store_id", store.ID.String()))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to add staff")
	}

	s.log.Info("Staff added",
		zap.String("store_id", store.ID.String()),
		zap.String("user_id", user.ID.String()))

	return &response.StaffResponse{
		StoreID: store.ID.String(),
		User:    response.UserToResponse(user),
	}, nil
}

func (s *storeService) CreateDiscount(ctx context.Context, identity utils.Identity, storeID string, req *request.CreateDiscountRequest) (*response.DiscountResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperr.New(apperr.KindValidation, "validation failed").With("fields", errs)
	}

	store, err := s.managedStore(ctx, identity, storeID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	discount := &entity.Discount{
		BaseNoDelete: entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		StoreID:      store.ID,
		Title:        strings.TrimSpace(req.Title),
		Percentage:   req.Percentage,
		IsActive:     true,
	}
	if err := s.repo.Discount.Create(ctx, discount); err != nil {
		s.log.Error("Failed to create discount", zap.Error(err), zap.String("store_id", store.ID.String()))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to create discount")
	}

	resp := response.DiscountToResponse(discount)
	return &resp, nil
}

// managedStore loads the store and requires the caller to be its manager.
func (s *storeService) managedStore(ctx context.Context, identity utils.Identity, storeID string) (*entity.Store, error) {
	id, err := uuid.Parse(storeID)
	if err != nil {
		return nil, apperr.New(apperr.KindValidation, "invalid store ID")
	}

	store, err := s.repo.Store.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to find store", zap.Error(err), zap.String("store_id", storeID))
		return nil, apperr.Wrap(apperr.KindInternal, err, "failed to find store")
	}
	if store == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "store %s not found", storeID)
	}

	if store.ManagerID != identity.UserID && identity.Role != string(entity.RoleAdmin) {
		return nil, apperr.New(apperr.KindForbidden, "only the store manager can manage this store")
	}
	return store, nil
}
