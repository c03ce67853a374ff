package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yashrajoria/storefront/services/order-service/models"
	repositories "github.com/yashrajoria/storefront/services/order-service/repository"
)

const defaultCountry = "India"

type AddressRequest struct {
	Name      string `json:"name" binding:"max=128"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
	Line1     string `json:"line1" binding:"required,max=255"`
	Line2     string `json:"line2" binding:"max=255"`
	City      string `json:"city" binding:"required,max=100"`
	State     string `json:"state" binding:"required,max=100"`
	Pincode   string `json:"pincode" binding:"required,len=6,numeric"`
	Country   string `json:"country" binding:"max=64"`
	IsDefault *bool  `json:"isDefault"`
}

type LeadRequest struct {
	Phone          string `json:"phone" binding:"omitempty,max=20"`
	Email          string `json:"email" binding:"omitempty,email"`
	Source         string `json:"source" binding:"omitempty,max=32"`
	MarketingOptIn bool   `json:"marketingOptIn"`
	WhatsappOptIn  bool   `json:"whatsappOptIn"`
}

// AddressService manages saved shipping addresses and storefront leads.
type AddressService struct {
	addresses repositories.AddressRepository
	leads     repositories.LeadRepository
	logger    *zap.Logger
}

func NewAddressService(addresses repositories.AddressRepository, leads repositories.LeadRepository, logger *zap.Logger) *AddressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressService{addresses: addresses, leads: leads, logger: logger}
}

// CreateAddress saves a new address. Addresses are default unless the
// request says otherwise, so the latest one is used at checkout.
func (s *AddressService) CreateAddress(ctx context.Context, userID string, req *AddressRequest) (*models.Address, *ServiceError) {
	addr := &models.Address{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Line1:     strings.TrimSpace(req.Line1),
		Line2:     strings.TrimSpace(req.Line2),
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		Pincode:   req.Pincode,
		Country:   strings.TrimSpace(req.Country),
		IsDefault: req.IsDefault == nil || *req.IsDefault,
	}
	if addr.Country == "" {
		addr.Country = defaultCountry
	}
	if err := s.addresses.Create(ctx, addr); err != nil {
		s.logger.Error("Failed to save address", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to save address"}
	}
	return addr, nil
}

func (s *AddressService) ListAddresses(ctx context.Context, userID string) ([]models.Address, *ServiceError) {
	out, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list addresses", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to fetch addresses"}
	}
	if out == nil {
		out = []models.Address{}
	}
	return out, nil
}

func (s *AddressService) SetDefault(ctx context.Context, userID string, id uuid.UUID) *ServiceError {
	return s.addressError(userID, s.addresses.SetDefault(ctx, id, userID))
}

func (s *AddressService) DeleteAddress(ctx context.Context, userID string, id uuid.UUID) *ServiceError {
	return s.addressError(userID, s.addresses.Delete(ctx, id, userID))
}

func (s *AddressService) addressError(userID string, err error) *ServiceError {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ServiceError{StatusCode: http.StatusNotFound, Message: "Address not found"}
	}
	s.logger.Error("Address update failed", zap.String("user_id", userID), zap.Error(err))
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to update address"}
}

// SaveLead records or refreshes a storefront lead.
func (s *AddressService) SaveLead(ctx context.Context, req *LeadRequest) (*models.Lead, *ServiceError) {
	lead := &models.Lead{
		Source:         req.Source,
		MarketingOptIn: req.MarketingOptIn,
		WhatsappOptIn:  req.WhatsappOptIn,
	}
	if lead.Source == "" {
		lead.Source = "popup"
	}
	if p := strings.TrimSpace(req.Phone); p != "" {
		lead.Phone = &p
	}
	if e := strings.ToLower(strings.TrimSpace(req.Email)); e != "" {
		lead.Email = &e
	}
	if lead.Phone == nil && lead.Email == nil {
		return nil, &ServiceError{StatusCode: http.StatusBadRequest, Message: "phone or email is required"}
	}
	if err := s.leads.Upsert(ctx, lead); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ServiceError{StatusCode: http.StatusConflict, Message: "Lead already exists with another contact"}
		}
		s.logger.Error("Failed to save lead", zap.Error(err))
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to save lead"}
	}
	return lead, nil
}

// shippingFor picks the address an order ships to: the one named in the
// request, else the user's default. No saved address leaves the order
// without one.
func (s *OrderService) shippingFor(ctx context.Context, userID string, addressID *uuid.UUID) (models.ShippingAddress, *ServiceError) {
	if s.addresses == nil {
		return models.ShippingAddress{}, nil
	}
	var (
		addr *models.Address
		err  error
	)
	if addressID != nil {
		addr, err = s.addresses.FindByIDAndUserID(ctx, *addressID, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShippingAddress{}, &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "address not found"}
		}
	} else {
		addr, err = s.addresses.FindDefault(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShippingAddress{}, nil
		}
	}
	if err != nil {
		s.logger.Error("Address lookup failed", zap.String("user_id", userID), zap.Error(err))
		return models.ShippingAddress{}, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "Failed to load shipping address"}
	}
	return addr.Snapshot(), nil
}
