package services

import (
	"context"

	"drinklog/internal/models"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, displayName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	ClearRefreshTokenHash(userID string) error
}

// DrinkServicer is the per-owner record store. Every operation is scoped to
// ownerID; records of other owners are invisible.
type DrinkServicer interface {
	CreateDrink(ctx context.Context, ownerID string, input DrinkInput) (*models.Drink, error)
	UpdateDrink(ctx context.Context, ownerID, id string, input DrinkInput) (*models.Drink, error)
	DeleteDrink(ctx context.Context, ownerID, id string) error
	GetDrinkByID(ctx context.Context, ownerID, id string) (*models.Drink, error)
	Snapshot(ctx context.Context, ownerID string) ([]models.Drink, error)
	Subscribe(ctx context.Context, ownerID string) (*SnapshotSubscription, error)
	EndSession(ctx context.Context, ownerID string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
