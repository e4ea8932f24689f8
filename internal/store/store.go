package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"carwash-backend/internal/model"
)

// DefaultListLimit caps ListWashes when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Store defines the interface for all database operations.
type Store interface {
	RecordWash(ctx context.Context, wash model.Wash) error
	ListWashes(ctx context.Context, limit int) ([]model.Wash, error)
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// RecordWash inserts a billed wash. Tickets are unique, so a wash is never booked twice.
func (s *gormStore) RecordWash(ctx context.Context, wash model.Wash) error {
	if err := s.db.WithContext(ctx).Create(&wash).Error; err != nil {
		return fmt.Errorf("failed to record wash %s: %w", wash.Ticket, err)
	}
	return nil
}

// ListWashes returns the most recently billed washes first.
func (s *gormStore) ListWashes(ctx context.Context, limit int) ([]model.Wash, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var washes []model.Wash
	if err := s.db.WithContext(ctx).
		Order("billed_at DESC").
		Limit(limit).
		Find(&washes).Error; err != nil {
		return nil, fmt.Errorf("failed to list washes: %w", err)
	}
	return washes, nil
}

// TotalRevenue sums the amount of every billed wash.
func (s *gormStore) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := s.db.WithContext(ctx).
		Model(&model.Wash{}).
		Select("SUM(amount)").
		Row().
		Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
