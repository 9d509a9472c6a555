package usecase

import (
	"context"
	"testing"

	"bondoutfit/internal/apperr"
	"bondoutfit/internal/data/entity"
	"bondoutfit/internal/dto/request"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	registered, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Username: "sari",
		Email:    "sari@example.com",
		Password: "rahasia123",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleCustomer, registered.Role)
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "sari@example.com", Password: "rahasia123"})
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)

	byName, err := f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "sari", Password: "rahasia123"})
	require.NoError(t, err)
	assert.NotEqual(t, loggedIn.Token, byName.Token)

	require.NoError(t, f.svc.Auth.Logout(ctx, byName.Token))
	session, err := f.repo.Session.FindValidSession(ctx, uuid.MustParse(byName.Token))
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.Register(ctx, &request.RegisterRequest{
		Username: "sari",
		Email:    "sari@example.com",
		Password: "rahasia123",
	})
	require.NoError(t, err)

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "sari", Password: "salah12345"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Auth.Login(ctx, &request.LoginRequest{Username: "nobody", Password: "salah12345"})
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Register(context.Background(), &request.RegisterRequest{
		Username: "another",
		Email:    "customer@example.com",
		Password: "rahasia123",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "email already registered", apperr.MessageOf(err))
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Auth.Register(context.Background(), &request.RegisterRequest{Username: "x", Email: "nope"})
	require.Error(t, err)
	fields, ok := apperr.DetailsOf(err)["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegisterStoreCreatesManagerAndStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Auth.RegisterStore(ctx, &request.RegisterStoreRequest{
		RegisterRequest: request.RegisterRequest{
			Username: "budi",
			Email:    "budi@example.com",
			Password: "rahasia123",
		},
		StoreName: "  Bond Outfit Senopati ",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStoreManager, resp.Auth.Role)
	assert.Equal(t, "Bond Outfit Senopati", resp.Store.Name)
	assert.Equal(t, resp.Auth.UserID, resp.Store.ManagerID)

	storeID := uuid.MustParse(resp.Store.ID)
	managerID := uuid.MustParse(resp.Auth.UserID)
	isStaff, err := f.repo.Store.IsStaff(ctx, storeID, managerID)
	require.NoError(t, err)
	assert.True(t, isStaff)
}
