// Package userrepo reads principals from the users table and keeps the loyalty
// balance stored alongside each user.
package userrepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/domain/model/loyalty"
	"pizzeria/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDTO is the subset of the user record this service reads and writes.
type UserDTO struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email             string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role              string    `gorm:"type:varchar(1);not null"`
	LoyaltyPoints     int       `gorm:"type:int;not null;default:0"`
	LoyaltyModifiedBy string    `gorm:"type:varchar(255)"`
	LoyaltyModifiedAt *time.Time
	LoyaltyVersion    int `gorm:"type:int;not null;default:1"`
}

func (UserDTO) TableName() string {
	return "users"
}

// GormUserRepository implements ports.UserDirectory and ports.AccountRepository.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Add inserts a user with an opening balance. Used for seeding.
func (r *GormUserRepository) Add(ctx context.Context, actor identity.Actor, points int) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if points < 0 {
		return errs.NewValueIsOutOfRangeError("points", points, 0, "unbounded")
	}

	dto := UserDTO{
		ID:             actor.ID().Bytes(),
		Email:          strings.ToLower(actor.Email()),
		Role:           actor.Role().Code(),
		LoyaltyPoints:  points,
		LoyaltyVersion: 1,
	}
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewConflictErrorWithCause("user", actor.Email(), err)
		}
		return err
	}
	return nil
}

func (r *GormUserRepository) FindByID(ctx context.Context, id kernel.UUID) (identity.Actor, error) {
	dto, err := r.first(ctx, id.String(), "id = ?", id.Bytes())
	if err != nil {
		return identity.Actor{}, err
	}
	return toActor(dto)
}

// FindByEmail matches case-insensitively.
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (identity.Actor, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	dto, err := r.first(ctx, email, "lower(email) = ?", normalized)
	if err != nil {
		return identity.Actor{}, err
	}
	return toActor(dto)
}

func (r *GormUserRepository) Get(ctx context.Context, userID kernel.UUID) (*loyalty.Account, error) {
	dto, err := r.first(ctx, userID.String(), "id = ?", userID.Bytes())
	if err != nil {
		return nil, err
	}

	var modifiedAt time.Time
	if dto.LoyaltyModifiedAt != nil {
		modifiedAt = dto.LoyaltyModifiedAt.UTC()
	}
	return loyalty.RestoreAccount(userID, dto.LoyaltyPoints, dto.LoyaltyModifiedBy, modifiedAt, dto.LoyaltyVersion)
}

// Update writes the balance when the stored version is the previous one.
func (r *GormUserRepository) Update(ctx context.Context, account *loyalty.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	modifiedAt := account.ModifiedAt()
	result := r.db.WithContext(ctx).
		Model(&UserDTO{}).
		Where("id = ? AND loyalty_version = ?", account.UserID().Bytes(), account.Version()-1).
		Updates(map[string]any{
			"loyalty_points":      account.Points(),
			"loyalty_modified_by": account.ModifiedBy(),
			"loyalty_modified_at": &modifiedAt,
			"loyalty_version":     account.Version(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		if _, err := r.first(ctx, account.UserID().String(), "id = ?", account.UserID().Bytes()); err != nil {
			return err
		}
		return errs.NewConflictError("loyalty account", account.UserID().String())
	}
	return nil
}

func (r *GormUserRepository) first(ctx context.Context, key string, query string, args ...any) (UserDTO, error) {
	var dto UserDTO
	if err := r.db.WithContext(ctx).Where(query, args...).First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserDTO{}, errs.NewObjectNotFoundError("user", key)
		}
		return UserDTO{}, err
	}
	return dto, nil
}

func toActor(dto UserDTO) (identity.Actor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return identity.Actor{}, err
	}
	role, err := identity.ParseRole(dto.Role)
	if err != nil {
		return identity.Actor{}, err
	}
	return identity.NewActor(id, dto.Email, role)
}
