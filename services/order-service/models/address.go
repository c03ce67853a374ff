package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a saved shipping address of a shopper.
type Address struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	Name      string    `gorm:"type:varchar(128)" json:"name,omitempty"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Line1     string    `gorm:"type:varchar(255);not null" json:"line1"`
	Line2     string    `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City      string    `gorm:"type:varchar(100);not null" json:"city"`
	State     string    `gorm:"type:varchar(100);not null" json:"state"`
	Pincode   string    `gorm:"type:varchar(6);not null" json:"pincode"`
	Country   string    `gorm:"type:varchar(64);not null;default:'India'" json:"country"`
	IsDefault bool      `gorm:"not null;default:false" json:"isDefault"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ShippingAddress is the copy of an Address stored on an order. Later edits
// to the saved address do not change it.
type ShippingAddress struct {
	AddressID *uuid.UUID `gorm:"type:uuid" json:"addressId,omitempty"`
	Name      string     `gorm:"type:varchar(128)" json:"name,omitempty"`
	Phone     string     `gorm:"type:varchar(20)" json:"phone,omitempty"`
	Line1     string     `gorm:"type:varchar(255)" json:"line1,omitempty"`
	Line2     string     `gorm:"type:varchar(255)" json:"line2,omitempty"`
	City      string     `gorm:"type:varchar(100)" json:"city,omitempty"`
	State     string     `gorm:"type:varchar(100)" json:"state,omitempty"`
	Pincode   string     `gorm:"type:varchar(6)" json:"pincode,omitempty"`
	Country   string     `gorm:"type:varchar(64)" json:"country,omitempty"`
}

// Snapshot copies the address for an order.
func (a *Address) Snapshot() ShippingAddress {
	id := a.ID
	return ShippingAddress{
		AddressID: &id,
		Name:      a.Name,
		Phone:     a.Phone,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		Country:   a.Country,
	}
}

// Lead is a marketing contact captured by the storefront popup. Phone wins
// over email as the identity when both are given.
type Lead struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Phone          *string   `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Email          *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Source         string    `gorm:"type:varchar(32);not null;default:'popup'" json:"source"`
	MarketingOptIn bool      `gorm:"not null;default:false" json:"marketingOptIn"`
	WhatsappOptIn  bool      `gorm:"not null;default:false" json:"whatsappOptIn"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}
