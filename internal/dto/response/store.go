package response

import (
	"time"

	"bondoutfit/internal/data/entity"
)

type StoreResponse struct {
	ID        string    `json:"id"`
	ManagerID string    `json:"manager_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type StoreRegistrationResponse struct {
	Auth  AuthResponse  `json:"auth"`
	Store StoreResponse `json:"store"`
}

type StaffResponse struct {
	StoreID string       `json:"store_id"`
	User    UserResponse `json:"user"`
}

type DiscountResponse struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	Title      string    `json:"title"`
	Percentage float64   `json:"percentage"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

func StoreToResponse(store *entity.Store) StoreResponse {
	return StoreResponse{
		ID:        store.ID.String(),
		ManagerID: store.ManagerID.String(),
		Name:      store.Name,
		Email:     store.Email,
		Phone:     store.Phone,
		Address:   store.Address,
		IsActive:  store.IsActive,
		CreatedAt: store.CreatedAt,
	}
}

func DiscountToResponse(d *entity.Discount) DiscountResponse {
	return DiscountResponse{
		ID:         d.ID.String(),
		StoreID:    d.StoreID.String(),
		Title:      d.Title,
		Percentage: d.Percentage,
		IsActive:   d.IsActive,
		CreatedAt:  d.CreatedAt,
	}
}
