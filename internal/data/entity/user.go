package entity

type UserRole string

const (
	RoleCustomer     UserRole = "customer"
	RoleStoreManager UserRole = "store_manager"
	RoleStoreStaff   UserRole = "store_staff"
	RoleAdmin        UserRole = "admin"
)

type User struct {
	Base
	Username     string   `db:"username"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Phone        *string  `db:"phone"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
