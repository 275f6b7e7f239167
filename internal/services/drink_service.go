package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "drinklog/internal/errors"
	"drinklog/internal/live"
	"drinklog/internal/logger"
	"drinklog/internal/metrics"
	"drinklog/internal/models"
	"drinklog/internal/validator"
)

// DrinkInput carries every user-editable field of a drink record. Updates
// replace all of them.
type DrinkInput struct {
	Date  string
	Store string
	Item  string
	Price *decimal.Decimal
	Ice   string
	Sugar string
	Note  string
}

func (in DrinkInput) normalize() DrinkInput {
	in.Date = strings.TrimSpace(in.Date)
	in.Store = strings.TrimSpace(in.Store)
	in.Item = strings.TrimSpace(in.Item)
	in.Ice = strings.TrimSpace(in.Ice)
	in.Sugar = strings.TrimSpace(in.Sugar)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func (in DrinkInput) validate() error {
	if in.Ice == "" || in.Sugar == "" {
		return apperrors.ErrIceSugarRequired
	}
	if in.Store == "" || in.Item == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "store and item are required")
	}
	if !validator.IsDate(in.Date) {
		return apperrors.ErrInvalidDate
	}
	if in.Price != nil && in.Price.IsNegative() {
		return apperrors.ErrInvalidPrice
	}
	return nil
}

// Snapshot is one delivery of a subscription: the owner's full ordered
// record set, or the error that prevented loading it.
type Snapshot struct {
	Records []models.Drink
	Err     error
}

// SnapshotSubscription streams full snapshots of one owner's records.
type SnapshotSubscription struct {
	updates  chan Snapshot
	cancel   context.CancelFunc
	finished chan struct{}
	once     sync.Once
}

// Updates yields the initial snapshot and then one per change. The channel
// is closed when the subscription ends. A sign-out delivers a final
// Snapshot carrying ErrSessionEnded.
func (s *SnapshotSubscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close stops the subscription. Once it returns nothing more is delivered.
func (s *SnapshotSubscription) Close() {
	s.once.Do(s.cancel)
	<-s.finished
}

// drinkService is the gorm-backed record store.
type drinkService struct {
	db        *gorm.DB
	hub       *live.Hub
	publisher live.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewDrinkService creates a new DrinkServicer. Change events go through
// publisher, which defaults to the hub itself for single-instance setups.
func NewDrinkService(db *gorm.DB, hub *live.Hub, publisher live.Publisher, m *metrics.Metrics) DrinkServicer {
	if publisher == nil && hub != nil {
		publisher = hub
	}
	return &drinkService{
		db:        db,
		hub:       hub,
		publisher: publisher,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateDrink validates and stores a new record for ownerID.
func (s *drinkService) CreateDrink(ctx context.Context, ownerID string, input DrinkInput) (*models.Drink, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	drink := &models.Drink{
		OwnerID:   ownerID,
		Date:      input.Date,
		Store:     input.Store,
		Item:      input.Item,
		Price:     input.Price,
		Ice:       input.Ice,
		Sugar:     input.Sugar,
		Note:      input.Note,
		Timestamp: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(drink).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.metrics.RecordDrinkWrite(metrics.OpCreate)
	s.notify(ctx, ownerID, live.KindChanged)
	return drink, nil
}

// UpdateDrink replaces every editable field and re-stamps the ordering
// timestamp, so an edited record moves to the top.
func (s *drinkService) UpdateDrink(ctx context.Context, ownerID, id string, input DrinkInput) (*models.Drink, error) {
	input = input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	drink, err := s.GetDrinkByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	var price interface{}
	if input.Price != nil {
		price = *input.Price
	}
	updates := map[string]interface{}{
		"date":      input.Date,
		"store":     input.Store,
		"item":      input.Item,
		"price":     price,
		"ice":       input.Ice,
		"sugar":     input.Sugar,
		"note":      input.Note,
		"timestamp": s.now(),
	}
	if err := s.db.WithContext(ctx).Model(drink).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.metrics.RecordDrinkWrite(metrics.OpUpdate)
	s.notify(ctx, ownerID, live.KindChanged)
	return s.GetDrinkByID(ctx, ownerID, id)
}

// DeleteDrink permanently removes a record.
func (s *drinkService) DeleteDrink(ctx context.Context, ownerID, id string) error {
	result := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Drink{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrDrinkNotFound
	}

	s.metrics.RecordDrinkWrite(metrics.OpDelete)
	s.notify(ctx, ownerID, live.KindChanged)
	return nil
}

// GetDrinkByID retrieves one of the owner's records.
func (s *drinkService) GetDrinkByID(ctx context.Context, ownerID, id string) (*models.Drink, error) {
	var drink models.Drink
	if err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&drink).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDrinkNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &drink, nil
}

// Snapshot loads all of the owner's records, most recent first.
func (s *drinkService) Snapshot(ctx context.Context, ownerID string) ([]models.Drink, error) {
	drinks := []models.Drink{}
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&drinks).Error
	if err != nil {
		if !s.db.Migrator().HasTable(&models.Drink{}) {
			return nil, apperrors.Wrap(apperrors.ErrSnapshotNotReady, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return drinks, nil
}

// Subscribe starts a snapshot stream for ownerID. The stream registers for
// change events before the initial load, so no change is missed between
// the two.
func (s *drinkService) Subscribe(ctx context.Context, ownerID string) (*SnapshotSubscription, error) {
	if s.hub == nil {
		return nil, apperrors.ErrServiceUnavailable
	}
	events, err := s.hub.Subscribe(ownerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &SnapshotSubscription{
		updates:  make(chan Snapshot),
		cancel:   cancel,
		finished: make(chan struct{}),
	}
	go s.pump(ctx, ownerID, events, sub)
	return sub, nil
}

func (s *drinkService) pump(ctx context.Context, ownerID string, events *live.Subscription, sub *SnapshotSubscription) {
	defer close(sub.finished)
	defer close(sub.updates)
	defer events.Close()

	send := func(snap Snapshot) bool {
		select {
		case sub.updates <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}
	load := func() Snapshot {
		records, err := s.Snapshot(ctx, ownerID)
		return Snapshot{Records: records, Err: err}
	}

	end := func() {
		send(Snapshot{Err: apperrors.ErrSessionEnded})
	}

	if !send(load()) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-events.Ended():
			end()
			return
		case <-events.Events():
			// A sign-out that raced the change wins.
			select {
			case <-events.Ended():
				end()
				return
			default:
			}
			if !send(load()) {
				return
			}
		}
	}
}

// EndSession terminates every open subscription of ownerID.
func (s *drinkService) EndSession(ctx context.Context, ownerID string) error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, live.Event{OwnerID: ownerID, Kind: live.KindSignedOut}); err != nil {
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	}
	return nil
}

// notify publishes a change event. A failed publish never fails the write;
// the next successful change reloads everything anyway.
func (s *drinkService) notify(ctx context.Context, ownerID, kind string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, live.Event{OwnerID: ownerID, Kind: kind}); err != nil {
		logger.Get().Warnw("failed to publish drink change",
			"error", err,
			"owner_id", ownerID,
			"kind", kind,
		)
	}
}
