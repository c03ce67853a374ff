package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yashrajoria/storefront/services/order-service/models"
)

// AddressRepository stores shopper shipping addresses.
type AddressRepository interface {
	Create(ctx context.Context, addr *models.Address) error
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	FindByIDAndUserID(ctx context.Context, id uuid.UUID, userID string) (*models.Address, error)
	FindDefault(ctx context.Context, userID string) (*models.Address, error)
	SetDefault(ctx context.Context, id uuid.UUID, userID string) error
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

type GormAddressRepository struct {
	db *gorm.DB
}

func NewGormAddressRepository(db *gorm.DB) AddressRepository {
	return &GormAddressRepository{db: db}
}

// Create inserts the address. A new default address clears the flag on the
// user's other addresses in the same transaction.
func (r *GormAddressRepository) Create(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
		}
		return tx.Create(addr).Error
	})
}

func (r *GormAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	var out []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *GormAddressRepository) FindByIDAndUserID(ctx context.Context, id uuid.UUID, userID string) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *GormAddressRepository) FindDefault(ctx context.Context, userID string) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

// SetDefault makes the address the user's only default. It returns
// gorm.ErrRecordNotFound when the user has no such address.
func (r *GormAddressRepository) SetDefault(ctx context.Context, id uuid.UUID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		res := tx.Model(&models.Address{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("is_default", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormAddressRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func clearDefault(tx *gorm.DB, userID string) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// LeadRepository stores marketing leads.
type LeadRepository interface {
	Upsert(ctx context.Context, lead *models.Lead) error
}

type GormLeadRepository struct {
	db *gorm.DB
}

func NewGormLeadRepository(db *gorm.DB) LeadRepository {
	return &GormLeadRepository{db: db}
}

// Upsert matches an existing lead by phone, or by email when no phone is
// given, and overwrites it. Otherwise a new lead is inserted. lead.ID is set
// to the stored row either way.
func (r *GormLeadRepository) Upsert(ctx context.Context, lead *models.Lead) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Lead{})
		switch {
		case lead.Phone != nil:
			q = q.Where("phone = ?", *lead.Phone)
		case lead.Email != nil:
			q = q.Where("email = ?", *lead.Email)
		default:
			return errors.New("lead needs a phone or an email")
		}

		var existing models.Lead
		err := q.First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(lead).Error
		}
		if err != nil {
			return err
		}

		lead.ID = existing.ID
		lead.CreatedAt = existing.CreatedAt
		if lead.Phone == nil {
			lead.Phone = existing.Phone
		}
		if lead.Email == nil {
			lead.Email = existing.Email
		}
		return tx.Save(lead).Error
	})
}
