package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart blocks checkout before any order or payment call is made.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUserCancelled ends an attempt when the shopper dismisses the widget.
	// It is terminal but not a failure.
	ErrUserCancelled = errors.New("payment cancelled by user")
	// ErrAbandoned ends an attempt whose caller went away while the widget was open.
	ErrAbandoned = errors.New("checkout abandoned")
	// ErrCheckoutInProgress is returned when Run is called during an attempt.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
)

// OrderCreationError means the backend rejected the cart contents, for
// example a variant that no longer exists or is out of stock.
type OrderCreationError struct {
	StatusCode int
	Message    string
}

func (e *OrderCreationError) Error() string {
	return fmt.Sprintf("order rejected (%d): %s", e.StatusCode, e.Message)
}

// GatewayError is a failure of the payment collection infrastructure.
type GatewayError struct {
	Reason string
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway error: %s: %v", e.Reason, e.Err)
	}
	return "payment gateway error: " + e.Reason
}

func (e *GatewayError) Unwrap() error { return e.Err }

// SignatureMismatchError means the proof of payment did not verify. It is a
// possible tampering signal and is never retried automatically.
type SignatureMismatchError struct {
	OrderID        string
	GatewayOrderID string
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("payment signature mismatch for order %s", e.OrderID)
}

// NetworkError is a transient transport failure. The shopper may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Error kinds as exposed in HTTP responses and metric dimensions.
const (
	KindEmptyCart         = "empty_cart"
	KindUserCancelled     = "user_cancelled"
	KindAbandoned         = "abandoned"
	KindInProgress        = "checkout_in_progress"
	KindOrderCreation     = "order_creation"
	KindGateway           = "gateway"
	KindSignatureMismatch = "signature_mismatch"
	KindNetwork           = "network"
	KindInternal          = "internal"
)

// Kind classifies err into one of the Kind constants. A nil error has no kind.
func Kind(err error) string {
	var (
		orderErr *OrderCreationError
		gwErr    *GatewayError
		sigErr   *SignatureMismatchError
		netErr   *NetworkError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCart):
		return KindEmptyCart
	case errors.Is(err, ErrUserCancelled):
		return KindUserCancelled
	case errors.Is(err, ErrAbandoned):
		return KindAbandoned
	case errors.Is(err, ErrCheckoutInProgress):
		return KindInProgress
	case errors.As(err, &sigErr):
		return KindSignatureMismatch
	case errors.As(err, &orderErr):
		return KindOrderCreation
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &gwErr):
		return KindGateway
	default:
		return KindInternal
	}
}
