package checkout

import (
	"context"
	"fmt"

	"github.com/avelinelabs/boutiq/internal/cart"
	"github.com/avelinelabs/boutiq/internal/gateway"
	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
	"github.com/avelinelabs/boutiq/pkg/validate"
	"github.com/shopspring/decimal"
)

type cartReader interface {
	Lines() []cart.Line
	Total() decimal.Decimal
	Clear(ctx context.Context)
}

type backendAPI interface {
	CreateOrder(ctx context.Context, input gateway.OrderInput) (*gateway.OrderRef, error)
	SubmitPayment(ctx context.Context, input gateway.PaymentInput) error
}

// Form carries the shipping and payment fields collected at checkout.
type Form struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Zip        string `json:"zip" validate:"required"`
	CardNumber string `json:"cardNumber" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
	CVC        string `json:"cvc" validate:"required"`
}

// Confirmation reports a completed checkout.
type Confirmation struct {
	OrderID string
	Total   decimal.Decimal
}

// Coordinator runs the two-step order-then-payment sequence. The cart is
// cleared only after both steps succeed; any failure leaves it untouched.
type Coordinator struct {
	cart cartReader
	api  backendAPI
	logg *logger.Logger
}

// NewCoordinator builds the checkout coordinator.
func NewCoordinator(cartMgr cartReader, api backendAPI, logg *logger.Logger) (*Coordinator, error) {
	if cartMgr == nil {
		return nil, fmt.Errorf("cart manager is required")
	}
	if api == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Coordinator{cart: cartMgr, api: api, logg: logg}, nil
}

// Execute validates the form, creates the order, submits the payment, and
// clears the cart. Every non-success backend response is a failure; there is
// no lenient handling for missing endpoints.
func (c *Coordinator) Execute(ctx context.Context, form Form) (*Confirmation, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	lines := c.cart.Lines()
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	total := c.cart.Total()

	items := make([]gateway.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, gateway.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	order, err := c.api.CreateOrder(ctx, gateway.OrderInput{
		Items:           items,
		Total:           total,
		ShippingAddress: fmt.Sprintf("%s, %s %s", form.Address, form.City, form.Zip),
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNetwork) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "order endpoint unreachable")
		}
		return nil, pkgerrors.Wrap(failureCode(err), err, "order was not accepted")
	}

	ctx = c.logg.WithOrderID(ctx, order.ID.String())

	err = c.api.SubmitPayment(ctx, gateway.PaymentInput{
		OrderID: order.ID.String(),
		Amount:  total,
		CardDetails: gateway.CardDetails{
			Number: form.CardNumber,
			Expiry: form.Expiry,
			CVC:    form.CVC,
		},
	})
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNetwork) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "payment endpoint unreachable")
		}
		return nil, pkgerrors.Wrap(failureCode(err), err, "payment was rejected")
	}

	c.cart.Clear(ctx)
	c.logg.Info(ctx, "checkout completed")

	return &Confirmation{OrderID: order.ID.String(), Total: total}, nil
}

func failureCode(err error) pkgerrors.Code {
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
