package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/yashrajoria/storefront/services/cart-service/models"
	"go.uber.org/zap"
)

// ErrInvalidItem is returned by AddItem for items without a usable variant id.
var ErrInvalidItem = errors.New("cart item must have a positive variantId")

// BlobStorage persists one opaque blob per key. Set must replace the previous
// blob in a single step so that a reader never observes a partial write.
// Get returns (nil, nil) when the key does not exist.
type BlobStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// CartStore owns the cart of a single shopper.
type CartStore struct {
	storage BlobStorage
	owner   string
	logger  *zap.Logger
	mu      *sync.Mutex
	now     func() time.Time
}

// NewCartStore binds a store to owner. Use a Registry when several requests
// for the same owner may run concurrently.
func NewCartStore(storage BlobStorage, owner string, logger *zap.Logger) *CartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartStore{
		storage: storage,
		owner:   owner,
		logger:  logger,
		mu:      &sync.Mutex{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetCart returns the persisted cart. Unreadable content is treated as an
// empty cart; only storage failures are returned as errors.
func (s *CartStore) GetCart(ctx context.Context) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// AddItem appends item, or increases the quantity of the existing entry with
// the same variant id.
func (s *CartStore) AddItem(ctx context.Context, item models.CartItem) (models.Cart, error) {
	if item.VariantID <= 0 {
		return models.Cart{}, ErrInvalidItem
	}
	if item.Qty < 1 {
		item.Qty = 1
	}

	return s.mutate(ctx, func(cart *models.Cart) bool {
		for i := range cart.Items {
			if cart.Items[i].VariantID == item.VariantID {
				cart.Items[i].Qty += item.Qty
				return true
			}
		}
		cart.Items = append(cart.Items, item)
		return true
	})
}

// UpdateQty sets the quantity of variantID to max(1, qty). Unknown variants
// are ignored.
func (s *CartStore) UpdateQty(ctx context.Context, variantID int64, qty int) (models.Cart, error) {
	if qty < 1 {
		qty = 1
	}
	return s.mutate(ctx, func(cart *models.Cart) bool {
		for i := range cart.Items {
			if cart.Items[i].VariantID == variantID {
				if cart.Items[i].Qty == qty {
					return false
				}
				cart.Items[i].Qty = qty
				return true
			}
		}
		return false
	})
}

// RemoveItem deletes the entry for variantID if present.
func (s *CartStore) RemoveItem(ctx context.Context, variantID int64) (models.Cart, error) {
	return s.mutate(ctx, func(cart *models.Cart) bool {
		for i := range cart.Items {
			if cart.Items[i].VariantID == variantID {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ClearCart empties the cart.
func (s *CartStore) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.owner); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// mutate loads the cart, applies fn to a private copy and, when fn reports a
// change, persists the complete new blob in one Set.
func (s *CartStore) mutate(ctx context.Context, fn func(cart *models.Cart) bool) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return models.Cart{}, err
	}

	next := current.Clone()
	if !fn(&next) {
		return current, nil
	}
	next.UpdatedAt = s.now()

	blob, err := Encode(next)
	if err != nil {
		return models.Cart{}, fmt.Errorf("encode cart: %w", err)
	}
	if err := s.storage.Set(ctx, s.owner, blob); err != nil {
		return models.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return next, nil
}

func (s *CartStore) load(ctx context.Context) (models.Cart, error) {
	blob, err := s.storage.Get(ctx, s.owner)
	if err != nil {
		return models.Cart{}, fmt.Errorf("load cart: %w", err)
	}

	cart, decodeErr := Decode(blob)
	if decodeErr != nil {
		s.logger.Warn("Discarding unreadable cart blob",
			zap.String("owner", s.owner),
			zap.Int("blob_len", len(blob)),
			zap.Error(decodeErr),
		)
	}
	return cart, nil
}

// registryShards is the number of owner locks a Registry keeps.
const registryShards = 256

// Registry hands out CartStores whose read-modify-write cycles serialize per
// owner. Owners hash onto a fixed set of locks, so memory stays constant no
// matter how many shoppers pass through.
type Registry struct {
	storage BlobStorage
	logger  *zap.Logger
	locks   [registryShards]sync.Mutex
}

func NewRegistry(storage BlobStorage, logger *zap.Logger) *Registry {
	return &Registry{storage: storage, logger: logger}
}

// For returns a store bound to owner.
func (r *Registry) For(owner string) *CartStore {
	s := NewCartStore(r.storage, owner, r.logger)
	s.mu = r.lockFor(owner)
	return s
}

func (r *Registry) lockFor(owner string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(owner))
	return &r.locks[h.Sum32()%registryShards]
}
