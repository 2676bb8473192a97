package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ID tolerates both numeric and string identifiers on the wire.
type ID string

func (i *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*i = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*i = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*i = ID(n.String())
	return nil
}

func (i ID) String() string {
	return string(i)
}

// Profile carries the authenticated client's account fields.
type Profile struct {
	ID        ID     `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// AccountInput is the payload for creating a new client account.
type AccountInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// Product is a catalog entry as served by the backend.
type Product struct {
	ID          ID              `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
}

// OrderItem reduces a cart line to what the order endpoint needs.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderInput is the payload for creating an order from the current cart.
type OrderInput struct {
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shippingAddress"`
}

// OrderRef identifies a created order.
type OrderRef struct {
	ID ID `json:"id"`
}

// CardDetails carries the mock payment instrument.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry,omitempty"`
	CVC    string `json:"cvc,omitempty"`
}

// PaymentInput is the payload for processing a payment against an order.
type PaymentInput struct {
	OrderID     string          `json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
	CardDetails CardDetails     `json:"cardDetails"`
}

// PromoCode is a discount code entry.
type PromoCode struct {
	ID              ID              `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

func parseID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
