package postgres

import (
	"pizzeria/internal/adapters/out/postgres/historyrepo"
	"pizzeria/internal/adapters/out/postgres/orderrepo"
	"pizzeria/internal/adapters/out/postgres/userrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userrepo.UserDTO{},
		&orderrepo.OrderDTO{},
		&orderrepo.OrderItemDTO{},
		&historyrepo.EntryDTO{},
	)
}

// Tables lists the owned tables in truncation-safe order.
func Tables() []string {
	return []string{"order_status_history", "order_items", "orders", "users"}
}

// NewUserDirectory returns a directory reading committed state.
func NewUserDirectory(db *gorm.DB) *userrepo.GormUserRepository {
	return userrepo.NewGormUserRepository(db)
}
