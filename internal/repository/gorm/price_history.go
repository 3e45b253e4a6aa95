package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stockfolio/internal/models"
)

// CloseOn returns the cached close for the exact date, or nil when the cache
// has no row for that symbol/day.
func (s *Store) CloseOn(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var cp models.ClosingPrice
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date = ?", symbol, datatypes.Date(date)).
		First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) MostRecentCloseAtOrBefore(ctx context.Context, symbol string, date time.Time) (*models.ClosingPrice, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var cp models.ClosingPrice
	err := s.db.WithContext(ctx).
		Where("symbol = ? AND date <= ?", symbol, datatypes.Date(date)).
		Order("date desc").
		First(&cp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *Store) UpsertClose(ctx context.Context, symbol string, date time.Time, close decimal.Decimal) error {
	if s == nil || s.db == nil {
		return nil
	}
	item := models.ClosingPrice{
		Symbol: symbol,
		Date:   datatypes.Date(date),
		Close:  close,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"close",
			"updated_at",
		}),
	}).Create(&item).Error
}
