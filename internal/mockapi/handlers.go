package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/validate"
)

// declinedCard always fails payment processing, so client flows can exercise
// the payment-failed path deterministically.
const declinedCard = "0000000000000000"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type createClientRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
}

type orderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Total           decimal.Decimal    `json:"total"`
	ShippingAddress string             `json:"shippingAddress" validate:"required"`
}

type cardDetailsRequest struct {
	Number string `json:"number" validate:"required"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
}

type paymentRequest struct {
	OrderID     string             `json:"orderId" validate:"required"`
	Amount      decimal.Decimal    `json:"amount"`
	CardDetails cardDetailsRequest `json:"cardDetails" validate:"required"`
}

func decodeBody(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body is not valid JSON")
	}
	return validate.Struct(dest)
}

// handleLogin authenticates a client. The token field is named accessToken to
// match the deployed backend's response shape.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	token, ok := s.data.authenticate(req.Username, req.Password)
	if !ok {
		writeError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeAuthRejected, "invalid username or password"))
		return
	}

	s.logg.Info(s.logg.WithField(r.Context(), "username", req.Username), "client logged in")
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.data.revokeToken(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	client := &clientRecord{
		ID:        uuid.NewString(),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		password:  req.Password,
	}
	if !s.data.addClient(client) {
		writeError(r.Context(), s.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("username %q is taken", req.Username)))
		return
	}

	s.logg.Info(s.logg.WithUserID(r.Context(), client.ID), "client account created")
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clientFromContext(r.Context()))
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listProducts())
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	product, ok := s.data.findProduct(id)
	if !ok {
		writeError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	for _, item := range req.Items {
		if _, ok := s.data.findProduct(item.ProductID); !ok {
			writeError(r.Context(), s.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown product %q", item.ProductID)))
			return
		}
	}

	order := &orderRecord{
		ID:              uuid.NewString(),
		Username:        clientFromContext(r.Context()).Username,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		Status:          "pending",
	}
	s.data.addOrder(order)

	s.logg.Info(s.logg.WithOrderID(r.Context(), order.ID), "order created")
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.data.updateOrderStatus(id, "cancelled") {
		writeError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "cancelled"})
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	ctx := s.logg.WithOrderID(r.Context(), req.OrderID)

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive"))
		return
	}
	if req.CardDetails.Number == declinedCard {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "card was declined"))
		return
	}
	if !s.data.updateOrderStatus(req.OrderID, "paid") {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
		return
	}

	s.logg.Info(ctx, "payment processed")
	writeJSON(w, http.StatusOK, map[string]string{
		"id":      uuid.NewString(),
		"orderId": req.OrderID,
		"status":  "succeeded",
	})
}

func (s *Server) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "confirmed"})
}

func (s *Server) handleListPromos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.listPromos())
}
