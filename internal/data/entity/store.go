package entity

import "github.com/google/uuid"

type Store struct {
	BaseNoDelete
	ManagerID uuid.UUID `db:"manager_id"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	Phone     *string   `db:"phone"`
	Address   *string   `db:"address"`
	IsActive  bool      `db:"is_active"`
}
