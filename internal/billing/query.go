package billing

import (
	"context" // Context for DB operations
	"errors"  // Sentinel error checks

	"brainycode/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// LastOrder returns the user's most recent order, or (nil, nil) when the
// user has never ordered.
func (s *Service) LastOrder(ctx context.Context, userID uint) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // No orders yet is not an error
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Orders returns the user's order history newest-first, paginated.
func (s *Service) Orders(ctx context.Context, userID uint, page, pageSize int) ([]domain.Order, int64, error) {
	var total int64 // Total count for pagination
	if err := s.db.WithContext(ctx).Model(&domain.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []domain.Order // Page of orders
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	return orders, total, err
}

// BillingAddress returns the user's saved billing address, or (nil, nil)
// when none was saved.
func (s *Service) BillingAddress(ctx context.Context, userID uint) (*domain.BillingAddress, error) {
	var addr domain.BillingAddress
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND save_info = ?", userID, true).
		First(&addr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not having an address on file is not an error
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// SaveBillingAddress upserts the user's billing address.
func (s *Service) SaveBillingAddress(ctx context.Context, addr *domain.BillingAddress) error {
	var existing domain.BillingAddress
	err := s.db.WithContext(ctx).Where("user_id = ?", addr.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(addr).Error // First save
	}
	if err != nil {
		return err
	}
	addr.ID = existing.ID // Keep the row, replace the fields
	return s.db.WithContext(ctx).Save(addr).Error
}
