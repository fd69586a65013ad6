package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gifting-circle/internal/events"
	"gifting-circle/internal/models"
)

// DonationService is the single writer for the funder-slot counter. The
// gifter→funder promotion, the capacity check, and the gift insert happen in
// one transaction: an advisory lock queues admissions across processes, and
// the promotion UPDATE re-counts funders in its WHERE clause so a stale
// pre-fetched snapshot can never admit a ninth funder.
type DonationService struct {
	db         *gorm.DB
	hub        *events.Hub
	maxFunders int
	timeout    time.Duration
	mu         sync.Mutex
}

// NewDonationService creates a new DonationService
func NewDonationService(db *gorm.DB, hub *events.Hub, maxFunders int, timeout time.Duration) *DonationService {
	if maxFunders <= 0 {
		maxFunders = models.DefaultMaxFunders
	}
	return &DonationService{db: db, hub: hub, maxFunders: maxFunders, timeout: timeout}
}

// SubmitDonation records a completed gift from donor to receiver at the
// given level. A donor whose role is gifter is promoted to funder as part of
// the same operation when a slot is free; when the cap is already reached
// the whole donation is refused and no gift row is created.
func (s *DonationService) SubmitDonation(ctx context.Context, donorID, receiverID uuid.UUID, level models.UserLevel, amount decimal.Decimal) (*models.Gift, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("unknown level %q: %w", level, ErrInvalidInput)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than zero: %w", ErrInvalidInput)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var donor models.User
	if err := s.db.WithContext(ctx).First(&donor, "id = ?", donorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("donor: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}

	var receiver models.User
	if err := s.db.WithContext(ctx).First(&receiver, "id = ?", receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("receiver: %w", ErrNotFound)
		}
		return nil, wrapStoreError(err)
	}

	// Snapshot visible to this request. Refusals against a full cap are a
	// business answer (CapacityExceeded); losing the slot between here and
	// the commit is a race (Conflict).
	snapshotFunders, err := s.countFunders(ctx)
	if err != nil {
		return nil, err
	}

	needsPromotion := donor.Role == models.RoleGifter
	if needsPromotion && snapshotFunders >= s.maxFunders {
		return nil, fmt.Errorf("maximum number of funders reached: %w", ErrCapacityExceeded)
	}

	gift := &models.Gift{
		GifterID:   donor.ID,
		ReceiverID: receiver.ID,
		Level:      level,
		Amount:     amount,
		Status:     models.GiftStatusCompleted,
	}

	// Serialize the one contended write path in-process; across processes
	// the advisory lock inside the transaction does the same.
	s.mu.Lock()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if needsPromotion {
			if err := lockFunderAdmission(tx); err != nil {
				return err
			}
			res := tx.Model(&models.User{}).
				Where("id = ? AND role = ?", donor.ID, models.RoleGifter).
				Where("(SELECT COUNT(*) FROM users f WHERE f.role = ?) < ?", models.RoleFunder, s.maxFunders).
				Update("role", models.RoleFunder)
			if res.Error != nil {
				return fmt.Errorf("failed to promote donor: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("funder slot lost to a concurrent donation: %w", ErrConflict)
			}
		}

		if err := tx.Create(gift).Error; err != nil {
			return fmt.Errorf("failed to create gift: %w", err)
		}

		return nil
	})
	s.mu.Unlock()

	if err != nil {
		return nil, wrapStoreError(err)
	}

	if s.hub != nil {
		s.hub.Publish(events.TableGifts)
		if needsPromotion {
			s.hub.Publish(events.TableUsers)
		}
	}

	if needsPromotion {
		log.Printf("Donation %s: user %s promoted to funder", gift.ID, donor.ID)
	}

	return gift, nil
}

// funderAdmissionLock keys the transaction-scoped advisory lock that
// serializes gifter→funder promotions across server instances.
const funderAdmissionLock int64 = 0x66756e64

// lockFunderAdmission takes the funder admission lock on postgres. Under
// READ COMMITTED the count subquery in the promotion UPDATE runs against a
// per-statement snapshot and the UPDATE locks only the donor's row, so two
// transactions promoting distinct donors would otherwise both count a free
// slot and both commit. The lock is released at commit or rollback. sqlite
// permits a single writer at a time and has no advisory locks.
func lockFunderAdmission(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", funderAdmissionLock).Error; err != nil {
		return fmt.Errorf("failed to lock funder admission: %w", err)
	}
	return nil
}

func (s *DonationService) countFunders(ctx context.Context) (int, error) {
	var funders int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleFunder).
		Count(&funders).Error; err != nil {
		return 0, wrapStoreError(err)
	}
	return int(funders), nil
}
