package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"drinklog/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hash),
		DisplayName: "Tester",
		IsActive:    true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// DrinkOption customises a fixture drink.
type DrinkOption func(*models.Drink)

func WithDate(date string) DrinkOption {
	return func(d *models.Drink) { d.Date = date }
}

func WithStore(store, item string) DrinkOption {
	return func(d *models.Drink) {
		d.Store = store
		d.Item = item
	}
}

func WithLevels(ice, sugar string) DrinkOption {
	return func(d *models.Drink) {
		d.Ice = ice
		d.Sugar = sugar
	}
}

func WithPrice(price string) DrinkOption {
	return func(d *models.Drink) {
		p := decimal.RequireFromString(price)
		d.Price = &p
	}
}

// WithTimestamp pins the ordering timestamp, which otherwise advances with
// every fixture.
func WithTimestamp(ts time.Time) DrinkOption {
	return func(d *models.Drink) { d.Timestamp = ts }
}

// CreateTestDrink inserts a drink owned by ownerID. Successive calls get
// strictly increasing timestamps, so the last one created sorts first.
func CreateTestDrink(t *testing.T, db *gorm.DB, ownerID string, opts ...DrinkOption) *models.Drink {
	t.Helper()

	n := nextID()
	drink := &models.Drink{
		OwnerID:   ownerID,
		Date:      "2024-01-01",
		Store:     fmt.Sprintf("Store %d", n),
		Item:      "Milk Tea",
		Ice:       "少冰",
		Sugar:     "半糖",
		Timestamp: time.Now().UTC().Add(time.Duration(n) * time.Millisecond),
	}
	for _, opt := range opts {
		opt(drink)
	}
	if err := db.Create(drink).Error; err != nil {
		t.Fatalf("failed to create test drink: %v", err)
	}
	return drink
}
