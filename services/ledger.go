package services

import (
	"github.com/google/uuid"
	"github.com/wanderpal/tour_guide/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// bookingLedger is the transactional write surface shared by the completion
// and reassignment paths. The GORM implementation translates each call into
// locked reads and guarded conditional writes; test fakes mirror the same
// guard semantics in memory.
type bookingLedger interface {
	GuideDirectory
	LockBooking(id uuid.UUID) (*models.Booking, error)
	// UpdateBookingGuarded applies updates only while the row still holds
	// fromStatus (and, when guideID is non-nil, that exact guide). Returns
	// the number of rows written: zero means a concurrent writer won.
	UpdateBookingGuarded(id uuid.UUID, fromStatus string, guideID *uuid.UUID, updates map[string]interface{}) (int64, error)
	AppendActivity(bookingID uuid.UUID, activityType, message string) error
	CreditGuide(guideID uuid.UUID, earnings float64) error
	FlagPaymentForRefund(bookingID uuid.UUID, status, reason string) error
}

// ledgerStore opens ledger transactions and resolves users for post-commit
// notifications.
type ledgerStore interface {
	InTx(fn func(bookingLedger) error) error
	FindUser(id uuid.UUID) (*models.User, error)
}

type gormLedger struct {
	gormGuideDirectory
}

func newGormLedger(tx *gorm.DB) gormLedger {
	return gormLedger{gormGuideDirectory{tx: tx}}
}

func (l gormLedger) LockBooking(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := l.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Tourist").
		First(&booking, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (l gormLedger) UpdateBookingGuarded(id uuid.UUID, fromStatus string, guideID *uuid.UUID, updates map[string]interface{}) (int64, error) {
	q := l.tx.Model(&models.Booking{}).
		Where("id = ? AND booking_status = ?", id, fromStatus)
	if guideID != nil {
		q = q.Where("guide_id = ?", *guideID)
	}
	res := q.Updates(updates)
	return res.RowsAffected, res.Error
}

func (l gormLedger) AppendActivity(bookingID uuid.UUID, activityType, message string) error {
	return AppendActivity(l.tx, bookingID, activityType, message)
}

func (l gormLedger) CreditGuide(guideID uuid.UUID, earnings float64) error {
	return l.tx.Model(&models.Guide{}).
		Where("user_id = ?", guideID).
		Updates(map[string]interface{}{
			"total_earnings":        gorm.Expr("total_earnings + ?", earnings),
			"completed_tours_count": gorm.Expr("completed_tours_count + 1"),
		}).Error
}

func (l gormLedger) FlagPaymentForRefund(bookingID uuid.UUID, status, reason string) error {
	return l.tx.Model(&models.Payment{}).
		Where("booking_id = ?", bookingID).
		Updates(map[string]interface{}{"refund_status": status, "refund_reason": reason}).Error
}

type gormLedgerStore struct {
	db *gorm.DB
}

func (s gormLedgerStore) InTx(fn func(bookingLedger) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(newGormLedger(tx))
	})
}

func (s gormLedgerStore) FindUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
