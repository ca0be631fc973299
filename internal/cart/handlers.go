package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/discount-store/internal/common"
	"github.com/noah-isme/discount-store/internal/lock"
	"github.com/noah-isme/discount-store/internal/pricing"
)

// Locker serialises mutations of one session.
type Locker interface {
	SessionKey(sessionID string) string
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Sessions loads and stores cart snapshots.
type Sessions interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, c *Cart) error
}

// Cookie describes the session cookie issued to shoppers.
type Cookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// Handler exposes the cart over HTTP.
type Handler struct {
	Pipeline *Pipeline
	Sessions Sessions
	Lock     Locker
	LockTTL  time.Duration
	Cookie   Cookie
	Currency string
	Logger   *zerolog.Logger

	validate *validator.Validate
}

// NewHandler builds a handler with its payload validator.
func NewHandler(h Handler) *Handler {
	h.validate = validator.New(validator.WithRequiredStructEnabled())
	if h.Cookie.Name == "" {
		h.Cookie.Name = "cart_session"
	}
	return &h
}

// Routes mounts the cart endpoints. write wraps the mutating routes.
func (h *Handler) Routes(r chi.Router, write ...func(http.Handler) http.Handler) {
	r.Get("/", h.View)
	r.Group(func(g chi.Router) {
		g.Use(write...)
		g.Post("/items", h.AddItem)
		g.Delete("/items/{productId}", h.RemoveItem)
	})
}

type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

type lineView struct {
	Item
	UnitPrice pricing.Money `json:"unitPrice"`
	Subtotal  pricing.Money `json:"subtotal"`
}

type summaryView struct {
	Units    int           `json:"units"`
	Subtotal pricing.Money `json:"subtotal"`
	Savings  pricing.Money `json:"savings"`
	Total    pricing.Money `json:"total"`
}

type cartView struct {
	Items    []lineView  `json:"items"`
	Summary  summaryView `json:"summary"`
	Currency string      `json:"currency"`
}

// View renders the caller's cart. Callers without a session see an empty cart.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	c := Empty()
	if id, ok := h.existingSession(r); ok {
		loaded, err := h.Sessions.Load(r.Context(), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		c = loaded
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(c)})
}

// AddItem adds one unit of the posted product.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.WriteError(w, common.BadRequest("invalid JSON body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.WriteError(w, &common.AppError{
			Code: "BAD_REQUEST", Message: "productId must be a positive integer",
			HTTPStatus: http.StatusBadRequest, Err: err, Details: validationDetails(err),
		})
		return
	}
	h.mutate(w, r, func(ctx context.Context, c *Cart) (*Cart, error) {
		return h.Pipeline.AddItem(ctx, c, req.ProductID)
	})
}

// RemoveItem removes one unit of the product named in the path.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productId"), 10, 64)
	if err != nil || productID <= 0 {
		common.WriteError(w, common.BadRequest("productId must be a positive integer", err))
		return
	}
	h.mutate(w, r, func(ctx context.Context, c *Cart) (*Cart, error) {
		return h.Pipeline.RemoveItem(ctx, c, productID)
	})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, *Cart) (*Cart, error)) {
	id := h.session(w, r)
	var out *Cart
	run := func(ctx context.Context) error {
		current, err := h.Sessions.Load(ctx, id)
		if err != nil {
			return err
		}
		next, err := op(ctx, current)
		if err != nil {
			return err
		}
		if err := h.Sessions.Save(ctx, id, next); err != nil {
			return err
		}
		out = next
		return nil
	}

	var err error
	if h.Lock != nil {
		err = h.Lock.WithLock(r.Context(), h.Lock.SessionKey(id), h.LockTTL, run)
	} else {
		err = run(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.render(out)})
}

func (h *Handler) render(c *Cart) cartView {
	lines := make([]lineView, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, lineView{Item: it, UnitPrice: it.UnitPrice(), Subtotal: it.Subtotal()})
	}
	sum := c.Summary()
	return cartView{
		Items:    lines,
		Summary:  summaryView{Units: sum.Units, Subtotal: sum.Subtotal, Savings: sum.Savings, Total: sum.Total},
		Currency: h.Currency,
	}
}

func (h *Handler) existingSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(h.Cookie.Name)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return "", false
	}
	return c.Value, true
}

// session returns the caller's session ID, issuing a fresh cookie when the
// request carries none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	if id, ok := h.existingSession(r); ok {
		return id
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.Cookie.TTL > 0 {
		cookie.MaxAge = int(h.Cookie.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := mapError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError && h.Logger != nil {
		h.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("cart request failed")
	}
	common.WriteError(w, appErr)
}

func mapError(err error) *common.AppError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return common.NewAppError("BAD_REQUEST", "invalid input", http.StatusBadRequest, err)
	case errors.Is(err, ErrProductNotFound):
		return common.NewAppError("PRODUCT_NOT_FOUND", "product not found", http.StatusNotFound, err)
	case errors.Is(err, ErrNotInCart):
		return common.NewAppError("NOT_IN_CART", "product is not in the cart", http.StatusConflict, err)
	case errors.Is(err, lock.ErrNotAcquired):
		return common.NewAppError("CART_BUSY", "cart is being updated, retry shortly", http.StatusConflict, err)
	default:
		return common.NewAppError("INTERNAL", "internal error", http.StatusInternalServerError, err)
	}
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
