package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yashrajoria/storefront/services/cart-service/models"
)

type failingStorage struct {
	*MemoryStorage
	setErr error
	getErr error
	sets   int
}

func (f *failingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStorage.Get(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key string, blob []byte) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryStorage.Set(ctx, key, blob)
}

func item(variantID int64, qty int) models.CartItem {
	return models.CartItem{VariantID: variantID, Name: "Assam Gold", UnitPriceMinor: 24900, Qty: qty}
}

func TestGetCart_EmptyWhenNothingStored(t *testing.T) {
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)

	cart, err := s.GetCart(context.Background())
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestGetCart_MalformedBlobReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, blob := range map[string]string{
		"garbage":        "not json at all",
		"unversioned":    `[{"variantId":1,"qty":2}]`,
		"future version": `{"version":99,"items":[{"variantId":1,"qty":2}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			mem := NewMemoryStorage()
			require.NoError(t, mem.Set(ctx, "user-1", []byte(blob)))

			cart, err := NewCartStore(mem, "user-1", nil).GetCart(ctx)
			require.NoError(t, err)
			assert.True(t, cart.IsEmpty())
		})
	}
}

func TestGetCart_StorageErrorIsReturned(t *testing.T) {
	s := NewCartStore(&failingStorage{MemoryStorage: NewMemoryStorage(), getErr: errors.New("connection refused")}, "user-1", nil)

	_, err := s.GetCart(context.Background())
	assert.Error(t, err)
}

func TestAddItem_MergesSameVariant(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)

	_, err := s.AddItem(ctx, item(7, 1))
	require.NoError(t, err)
	_, err = s.AddItem(ctx, item(8, 1))
	require.NoError(t, err)
	cart, err := s.AddItem(ctx, item(7, 2))
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, int64(7), cart.Items[0].VariantID)
	assert.Equal(t, 3, cart.Items[0].Qty)
	assert.Equal(t, int64(8), cart.Items[1].VariantID)

	persisted, err := s.GetCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, cart.Items, persisted.Items)
}

func TestAddItem_RejectsInvalidVariant(t *testing.T) {
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)

	_, err := s.AddItem(context.Background(), item(0, 1))
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestUpdateQty_ClampsToOne(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)
	_, err := s.AddItem(ctx, item(7, 4))
	require.NoError(t, err)

	cart, err := s.UpdateQty(ctx, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Qty)

	cart, err = s.UpdateQty(ctx, 7, -5)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Qty)

	cart, err = s.UpdateQty(ctx, 7, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, cart.Items[0].Qty)
}

func TestUpdateQty_UnknownVariantIsNoop(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{MemoryStorage: NewMemoryStorage()}
	s := NewCartStore(st, "user-1", nil)
	_, err := s.AddItem(ctx, item(7, 1))
	require.NoError(t, err)
	writes := st.sets

	cart, err := s.UpdateQty(ctx, 99, 3)
	require.NoError(t, err)
	assert.Equal(t, writes, st.sets)
	assert.Equal(t, 1, cart.Items[0].Qty)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)
	_, _ = s.AddItem(ctx, item(7, 1))
	_, _ = s.AddItem(ctx, item(8, 1))

	cart, err := s.RemoveItem(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(8), cart.Items[0].VariantID)

	cart, err = s.RemoveItem(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestClearCart(t *testing.T) {
	ctx := context.Background()
	s := NewCartStore(NewMemoryStorage(), "user-1", nil)
	_, _ = s.AddItem(ctx, item(7, 1))

	require.NoError(t, s.ClearCart(ctx))
	cart, err := s.GetCart(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestFailedWriteLeavesPreviousCart(t *testing.T) {
	ctx := context.Background()
	st := &failingStorage{MemoryStorage: NewMemoryStorage()}
	s := NewCartStore(st, "user-1", nil)
	_, err := s.AddItem(ctx, item(7, 1))
	require.NoError(t, err)

	st.setErr = errors.New("disk full")
	_, err = s.AddItem(ctx, item(8, 1))
	require.Error(t, err)

	st.setErr = nil
	cart, err := s.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(7), cart.Items[0].VariantID)
}

func TestOwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStorage(), nil)

	_, err := reg.For("alice").AddItem(ctx, item(7, 1))
	require.NoError(t, err)

	bob, err := reg.For("bob").GetCart(ctx)
	require.NoError(t, err)
	assert.True(t, bob.IsEmpty())
}

func TestRegistry_SameOwnerSharesLock(t *testing.T) {
	reg := NewRegistry(NewMemoryStorage(), nil)

	assert.Same(t, reg.For("alice").mu, reg.For("alice").mu)
	for i := 0; i < 1000; i++ {
		lock := reg.For(fmt.Sprintf("shopper-%d", i)).mu
		assert.Same(t, lock, reg.lockFor(fmt.Sprintf("shopper-%d", i)))
	}
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStorage(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = reg.For("alice").AddItem(ctx, item(7, 1))
		}()
	}
	wg.Wait()

	cart, err := reg.For("alice").GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 50, cart.Items[0].Qty)
}
