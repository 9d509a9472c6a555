package request

// RegisterStoreRequest creates a store manager account and its store together.
type RegisterStoreRequest struct {
	RegisterRequest
	StoreName    string  `json:"store_name" validate:"required,min=2,max=150"`
	StoreEmail   *string `json:"store_email,omitempty" validate:"omitempty,email"`
	StorePhone   *string `json:"store_phone,omitempty" validate:"omitempty,min=6,max=20"`
	StoreAddress *string `json:"store_address,omitempty" validate:"omitempty,max=500"`
}

type AddStaffRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CreateDiscountRequest struct {
	Title      string  `json:"title" validate:"required,min=2,max=150"`
	Percentage float64 `json:"percentage" validate:"required,gt=0,lte=100"`
}
