package usecase

import (
	"context"
	"testing"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStaffPromotesCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	newcomer := f.addUser(t, "newcomer", entity.RoleCustomer)

	resp, err := f.svc.Store.AddStaff(ctx, f.manager, f.store.ID.String(), &request.AddStaffRequest{Email: "newcomer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStoreStaff, resp.User.Role)

	user, err := f.repo.User.FindByID(ctx, newcomer.UserID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStoreStaff, user.Role)

	isStaff, err := f.repo.Store.IsStaff(ctx, f.store.ID, newcomer.UserID)
	require.NoError(t, err)
	assert.True(t, isStaff)
}

func TestAddStaffManagerOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Store.AddStaff(context.Background(), f.staff, f.store.ID.String(), &request.AddStaffRequest{Email: "customer@example.com"})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAddStaffUnknownEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Store.AddStaff(context.Background(), f.manager, f.store.ID.String(), &request.AddStaffRequest{Email: "ghost@example.com"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Store.CreateDiscount(ctx, f.manager, f.store.ID.String(), &request.CreateDiscountRequest{
		Title:      "Weekday visit 10%",
		Percentage: 10,
	})
	require.NoError(t, err)
	assert.True(t, resp.IsActive)
	assert.Equal(t, f.store.ID.String(), resp.StoreID)

	_, err = f.svc.Store.CreateDiscount(ctx, f.manager, f.store.ID.String(), &request.CreateDiscountRequest{
		Title:      "Too generous",
		Percentage: 150,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
