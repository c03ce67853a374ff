package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awspkg "github.com/yashrajoria/storefront/pkg/aws"
	"github.com/yashrajoria/storefront/services/order-service/models"
)

// fakePoller delivers the queued bodies once, then returns.
type fakePoller struct {
	bodies []string
	errs   []error
}

func (p *fakePoller) StartPolling(ctx context.Context, handler awspkg.MessageHandler) error {
	for _, b := range p.bodies {
		p.errs = append(p.errs, handler(ctx, b))
	}
	return context.Canceled
}

func snsWrap(t *testing.T, evt models.PaymentEvent) string {
	t.Helper()
	inner, err := json.Marshal(evt)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]string{"Type": "Notification", "Message": string(inner)})
	require.NoError(t, err)
	return string(outer)
}

func TestSQSPaymentConsumer_AppliesEnvelopedEvents(t *testing.T) {
	svc, repo, _, _ := newTestService(t)
	order, svcErr := svc.CreateOrder(context.Background(), "user-1", "k", "", items(OrderItemRequest{VariantID: 11, Qty: 1}))
	require.Nil(t, svcErr)

	raw, _ := json.Marshal(models.PaymentEvent{Type: models.EventPaymentOrderCreated, OrderID: order.ID})
	poller := &fakePoller{bodies: []string{
		string(raw),
		snsWrap(t, models.PaymentEvent{Type: models.EventPaymentSucceeded, OrderID: order.ID, PaymentID: "pay_9"}),
		"{not json",
		`{"type":"payment_succeeded"}`,
	}}

	consumer := NewSQSPaymentConsumer(poller, svc, nil, nil)
	require.NoError(t, consumer.Start(context.Background()))

	require.Len(t, poller.errs, 4)
	for _, err := range poller.errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, models.StatusPaid, repo.status(order.ID))
	assert.Equal(t, "pay_9", repo.orders[uuid.MustParse(order.ID)].PaymentID)
}
