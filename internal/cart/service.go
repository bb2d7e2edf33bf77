package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/commerce"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultToastLimit = 20

// Toast kinds.
const (
	ToastInfo    = "info"
	ToastSuccess = "success"
	ToastError   = "error"
)

// Toast is a user-visible notification queued for a session.
type Toast struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// View is the read model returned by every engine operation.
type View struct {
	SessionID string              `json:"session_id"`
	Authority Authority           `json:"authority"`
	Items     []LineItem          `json:"items"`
	Count     int                 `json:"count"`
	Totals    Totals              `json:"totals"`
	Voucher   voucher.Application `json:"voucher"`
}

// AddInput adds quantity units of a product variant. Quantity defaults to 1.
type AddInput struct {
	ProductID string
	VariantID string
	SKU       string
	Quantity  int
}

// QuantityInput sets a line quantity; zero removes the line. Server lines may be
// addressed by VariantID instead of Key.
type QuantityInput struct {
	Key       string
	VariantID string
	Quantity  int
}

// Service is the per-session cart engine.
type Service interface {
	View(ctx context.Context, sessionID string) (*View, error)
	Refresh(ctx context.Context, sessionID string) (*View, error)
	Add(ctx context.Context, sessionID string, input AddInput) (*View, error)
	SetQuantity(ctx context.Context, sessionID string, input QuantityInput) (*View, error)
	Remove(ctx context.Context, sessionID, key string) (*View, error)
	Login(ctx context.Context, sessionID, token string) (*View, error)
	Logout(ctx context.Context, sessionID string) (*View, error)
	ApplyVoucher(ctx context.Context, sessionID, code string) (*View, error)
	ClearVoucher(ctx context.Context, sessionID string) (*View, error)
	Toast(sessionID string) (Toast, bool)
	DismissToast(sessionID string) bool
	Evict(idle time.Duration) int
}

// Config carries the static cart settings.
type Config struct {
	Currency    string
	ShippingFee decimal.Decimal
	ToastLimit  int
}

// Dependencies wires the engine to its collaborators. Metrics is optional.
type Dependencies struct {
	Guests   GuestStore
	Server   ServerCart
	Sessions Sessions
	Pricer   Pricer
	Vouchers VoucherApplier
	Metrics  Recorder
	Logger   *logger.Logger
}

type state struct {
	mu sync.Mutex

	id        string
	authority Authority
	token     string

	guest       GuestItems
	guestLoaded bool

	server         []LineItem
	serverSubtotal *decimal.Decimal
	serverLoaded   bool

	voucher  voucher.Application
	lastSeen time.Time

	toastMu sync.Mutex
	toasts  []Toast
}

type service struct {
	cfg      Config
	guests   GuestStore
	server   ServerCart
	sessions Sessions
	pricer   Pricer
	vouchers VoucherApplier
	metrics  Recorder
	logg     *logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*state
}

// NewService builds the cart engine.
func NewService(cfg Config, deps Dependencies) (Service, error) {
	if deps.Guests == nil {
		return nil, fmt.Errorf("guest store required")
	}
	if deps.Server == nil {
		return nil, fmt.Errorf("server cart client required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if deps.Pricer == nil {
		return nil, fmt.Errorf("pricer required")
	}
	if deps.Vouchers == nil {
		return nil, fmt.Errorf("voucher applier required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ShippingFee.IsNegative() {
		return nil, fmt.Errorf("shipping fee must not be negative")
	}
	if cfg.ToastLimit <= 0 {
		cfg.ToastLimit = defaultToastLimit
	}
	return &service{
		cfg:      cfg,
		guests:   deps.Guests,
		server:   deps.Server,
		sessions: deps.Sessions,
		pricer:   deps.Pricer,
		vouchers: deps.Vouchers,
		metrics:  deps.Metrics,
		logg:     deps.Logger,
		now:      time.Now,
		states:   map[string]*state{},
	}, nil
}

// acquire returns the session state locked for one operation. Operations on the
// same session run one at a time. A state evicted while we waited for its lock is
// abandoned and the lookup retried.
func (s *service) acquire(sessionID string) (*state, func()) {
	for {
		s.mu.Lock()
		st, ok := s.states[sessionID]
		if !ok {
			st = &state{id: sessionID, voucher: voucher.None()}
			s.states[sessionID] = st
		}
		s.mu.Unlock()

		st.mu.Lock()
		s.mu.Lock()
		current := s.states[sessionID] == st
		if current {
			st.lastSeen = s.now()
		}
		s.mu.Unlock()
		if current {
			return st, st.mu.Unlock
		}
		st.mu.Unlock()
	}
}

func (s *service) lookup(sessionID string) *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[sessionID]
}

// run executes op under the session lock with authority resolved and metrics recorded.
func (s *service) run(ctx context.Context, sessionID, op string, fn func(ctx context.Context, st *state) (*View, error)) (view *View, err error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	st, unlock := s.acquire(sessionID)
	defer unlock()

	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, string(st.authority), s.now().Sub(start), err)
		}
	}()

	ctx = s.logg.WithSessionID(ctx, sessionID)
	if err := s.syncAuthority(ctx, st); err != nil {
		return nil, s.fail(ctx, st, "Could not load your session", err)
	}
	ctx = s.logg.WithAuthority(ctx, string(st.authority))
	return fn(ctx, st)
}

func (s *service) ensureLoaded(ctx context.Context, st *state) error {
	if st.authority == AuthorityServer {
		if st.serverLoaded {
			return nil
		}
		return s.fetchServer(ctx, st)
	}

	if st.guestLoaded {
		return nil
	}
	items, err := s.guests.Load(ctx, st.id)
	if err != nil {
		if !errors.Is(err, ErrCorruptGuestCart) {
			return err
		}
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "discarding unreadable guest cart")
		items = GuestItems{}
	}
	st.guest = items
	st.guestLoaded = true
	return nil
}

// fetchServer replaces the server snapshot with a fresh GET /cart. On failure the
// previous snapshot is kept.
func (s *service) fetchServer(ctx context.Context, st *state) error {
	raw, err := s.server.GetCart(ctx, st.token)
	if err != nil {
		return err
	}

	var (
		items    []LineItem
		subtotal *decimal.Decimal
	)
	if raw.Valid() {
		items, subtotal = NormalizeCart(raw)
	}
	st.server = items
	st.serverSubtotal = subtotal
	st.serverLoaded = true
	return nil
}

// fail publishes a toast, logs, and returns err as a coded error.
func (s *service) fail(ctx context.Context, st *state, message string, err error) error {
	s.pushToast(st, Toast{Message: message, Type: ToastError})

	dump := pkgerrors.Dump(err)
	s.logg.Error(s.logg.WithFields(ctx, dump.Fields()), message, err)

	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, strings.ToLower(message))
}

func (s *service) View(ctx context.Context, sessionID string) (*View, error) {
	return s.run(ctx, sessionID, "view", func(ctx context.Context, st *state) (*View, error) {
		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		return s.view(ctx, st), nil
	})
}

func (s *service) Refresh(ctx context.Context, sessionID string) (*View, error) {
	return s.run(ctx, sessionID, "refresh", func(ctx context.Context, st *state) (*View, error) {
		if st.authority == AuthorityServer {
			if err := s.fetchServer(ctx, st); err != nil {
				return s.view(ctx, st), s.fail(ctx, st, "Could not refresh your cart", err)
			}
		} else if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		return s.view(ctx, st), nil
	})
}

func (s *service) Add(ctx context.Context, sessionID string, input AddInput) (*View, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	input.ProductID = strings.TrimSpace(input.ProductID)
	input.VariantID = strings.TrimSpace(input.VariantID)
	input.SKU = strings.TrimSpace(input.SKU)

	return s.run(ctx, sessionID, "add", func(ctx context.Context, st *state) (*View, error) {
		if st.authority == AuthorityServer {
			variantID, err := s.resolveVariantID(ctx, input)
			if err != nil {
				return nil, err
			}
			mutate := func() error {
				return s.server.AddToCart(ctx, st.token, commerce.CartMutation{VariantID: variantID, Quantity: input.Quantity})
			}
			return s.mutateServer(ctx, st, mutate, "Could not add the item to your cart", "Added to cart")
		}

		if input.ProductID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		key, err := s.guestKey(ctx, input)
		if err != nil {
			return nil, s.fail(ctx, st, "Could not add the item to your cart", err)
		}
		return s.mutateGuest(ctx, st, func(items GuestItems) {
			items.Set(key, items[key]+input.Quantity)
		}, "Could not add the item to your cart", "Added to cart")
	})
}

func (s *service) SetQuantity(ctx context.Context, sessionID string, input QuantityInput) (*View, error) {
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	input.Key = strings.TrimSpace(input.Key)
	input.VariantID = strings.TrimSpace(input.VariantID)

	op := "update"
	if input.Quantity == 0 {
		op = "remove"
	}
	return s.run(ctx, sessionID, op, func(ctx context.Context, st *state) (*View, error) {
		if st.authority == AuthorityServer {
			return s.setServerQuantity(ctx, st, input)
		}

		if input.Key == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "key is required")
		}
		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		if _, ok := st.guest[input.Key]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return s.mutateGuest(ctx, st, func(items GuestItems) {
			items.Set(input.Key, input.Quantity)
		}, "Could not update your cart", "")
	})
}

func (s *service) Remove(ctx context.Context, sessionID, key string) (*View, error) {
	return s.SetQuantity(ctx, sessionID, QuantityInput{Key: key})
}

func (s *service) setServerQuantity(ctx context.Context, st *state, input QuantityInput) (*View, error) {
	raw := input.VariantID
	if raw == "" {
		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		line, ok := Find(st.server, input.Key)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		raw = line.VariantID
	}
	variantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || variantID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant_id must be a positive integer")
	}

	mutate := func() error {
		if input.Quantity == 0 {
			return s.server.RemoveCartItem(ctx, st.token, variantID)
		}
		return s.server.UpdateCartItem(ctx, st.token, commerce.CartMutation{VariantID: variantID, Quantity: input.Quantity})
	}
	return s.mutateServer(ctx, st, mutate, "Could not update your cart", "")
}

// mutateServer runs one backend mutation followed by a full refetch. Nothing is
// patched locally; a failed refetch marks the snapshot stale.
func (s *service) mutateServer(ctx context.Context, st *state, mutate func() error, failure, success string) (*View, error) {
	if err := mutate(); err != nil {
		return s.view(ctx, st), s.fail(ctx, st, failure, err)
	}
	if err := s.fetchServer(ctx, st); err != nil {
		st.serverLoaded = false
		return s.view(ctx, st), s.fail(ctx, st, "Could not refresh your cart", err)
	}
	if success != "" {
		s.pushToast(st, Toast{Message: success, Type: ToastSuccess})
	}
	return s.view(ctx, st), nil
}

// mutateGuest applies change to a copy of the guest cart and writes it through
// before swapping it in.
func (s *service) mutateGuest(ctx context.Context, st *state, change func(items GuestItems), failure, success string) (*View, error) {
	if err := s.ensureLoaded(ctx, st); err != nil {
		return nil, s.fail(ctx, st, "Could not load your cart", err)
	}

	next := st.guest.Clone()
	change(next)
	if err := s.persistGuest(ctx, st.id, next); err != nil {
		return s.view(ctx, st), s.fail(ctx, st, failure, err)
	}
	st.guest = next

	if success != "" {
		s.pushToast(st, Toast{Message: success, Type: ToastSuccess})
	}
	return s.view(ctx, st), nil
}

// persistGuest writes the guest cart through; an emptied cart drops the stored key.
func (s *service) persistGuest(ctx context.Context, sessionID string, items GuestItems) error {
	if len(items) == 0 {
		return s.guests.Clear(ctx, sessionID)
	}
	return s.guests.Save(ctx, sessionID, items)
}

// guestKey resolves the added variant through the catalog so the same variant
// keys identically whether it came in by variant id or SKU. Unknown variants keep
// the raw input as their key.
func (s *service) guestKey(ctx context.Context, input AddInput) (string, error) {
	requested := input.VariantID
	if requested == "" {
		requested = input.SKU
	}
	fallback := LineKey(input.ProductID, input.SKU, input.VariantID)
	if requested == "" {
		return fallback, nil
	}

	_, variant, err := s.pricer.Lookup(ctx, input.ProductID, requested)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return fallback, nil
		}
		return "", err
	}
	if variant == nil {
		return fallback, nil
	}
	return LineKey(input.ProductID, variant.SKU, variant.VariantID), nil
}

// resolveVariantID finds the numeric variant id a server add needs, falling back to
// the catalog when only a SKU was given.
func (s *service) resolveVariantID(ctx context.Context, input AddInput) (int64, error) {
	raw := input.VariantID
	if raw == "" && input.ProductID != "" && input.SKU != "" {
		if _, variant, err := s.pricer.Lookup(ctx, input.ProductID, input.SKU); err == nil && variant != nil {
			raw = variant.VariantID
		}
	}
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "variant_id is required for a signed-in cart")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "variant_id must be a positive integer")
	}
	return id, nil
}

// Login attaches the token and loads the server cart once. A failed initial fetch
// still leaves the session signed in; the next read retries.
func (s *service) Login(ctx context.Context, sessionID, token string) (*View, error) {
	return s.run(ctx, sessionID, "login", func(ctx context.Context, st *state) (*View, error) {
		if _, err := s.sessions.Attach(ctx, st.id, token); err != nil {
			if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrTokenExpired) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "access token rejected")
			}
			return nil, s.fail(ctx, st, "Could not sign you in", err)
		}

		stored, ok, err := s.sessions.Token(ctx, st.id)
		if err != nil || !ok {
			if err == nil {
				err = fmt.Errorf("token missing after attach")
			}
			return nil, s.fail(ctx, st, "Could not sign you in", err)
		}
		s.becomeServer(st, stored)
		ctx = s.logg.WithAuthority(ctx, string(st.authority))

		if err := s.fetchServer(ctx, st); err != nil {
			_ = s.fail(ctx, st, "Could not load your cart", err)
		}
		s.logg.Info(ctx, "session signed in")
		return s.view(ctx, st), nil
	})
}

func (s *service) Logout(ctx context.Context, sessionID string) (*View, error) {
	return s.run(ctx, sessionID, "logout", func(ctx context.Context, st *state) (*View, error) {
		if err := s.sessions.Detach(ctx, st.id); err != nil {
			return nil, s.fail(ctx, st, "Could not sign you out", err)
		}
		s.becomeGuest(st)
		ctx = s.logg.WithAuthority(ctx, string(st.authority))
		s.logg.Info(ctx, "session signed out")

		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		return s.view(ctx, st), nil
	})
}

func (s *service) ApplyVoucher(ctx context.Context, sessionID, code string) (*View, error) {
	return s.run(ctx, sessionID, "voucher_apply", func(ctx context.Context, st *state) (*View, error) {
		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		st.voucher = st.voucher.Enter(code)
		return s.view(ctx, st), nil
	})
}

func (s *service) ClearVoucher(ctx context.Context, sessionID string) (*View, error) {
	return s.run(ctx, sessionID, "voucher_clear", func(ctx context.Context, st *state) (*View, error) {
		st.voucher = st.voucher.Clear()
		if err := s.ensureLoaded(ctx, st); err != nil {
			return nil, s.fail(ctx, st, "Could not load your cart", err)
		}
		return s.view(ctx, st), nil
	})
}

// view derives the read model from the current authority's data and re-validates
// the entered voucher against the fresh subtotal.
func (s *service) view(ctx context.Context, st *state) *View {
	var (
		items    []LineItem
		subtotal *decimal.Decimal
	)
	if st.authority == AuthorityServer {
		items = append([]LineItem(nil), st.server...)
		subtotal = st.serverSubtotal
	} else {
		items = s.guestLines(ctx, st)
	}

	if st.voucher.Pending() {
		sum, _, _ := Subtotal(items, subtotal)
		app, err := s.vouchers.Apply(ctx, st.voucher, sum)
		if err != nil {
			_ = s.fail(ctx, st, "Could not validate the voucher", err)
		}
		st.voucher = app
		if s.metrics != nil {
			s.metrics.IncVoucher(string(app.State))
		}
	}

	totals := Calculate(items, subtotal, s.cfg.ShippingFee, s.cfg.Currency, st.voucher)
	if totals.SubtotalMismatch {
		computed, _, _ := Subtotal(items, nil)
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"server_subtotal":   totals.Subtotal.String(),
			"computed_subtotal": computed.String(),
		}), "server subtotal disagrees with line sum")
	}

	if items == nil {
		items = []LineItem{}
	}
	return &View{
		SessionID: st.id,
		Authority: st.authority,
		Items:     items,
		Count:     Count(items),
		Totals:    totals,
		Voucher:   st.voucher,
	}
}

func (s *service) guestLines(ctx context.Context, st *state) []LineItem {
	items := make([]LineItem, 0, len(st.guest))
	for _, key := range st.guest.Keys() {
		qty := st.guest[key]
		if qty <= 0 {
			continue
		}
		productID, variantKey := SplitKey(key)
		product, variant, err := s.pricer.Lookup(ctx, productID, variantKey)
		if err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"key": key, "error": err.Error()}), "pricing guest line failed")
			product, variant = nil, nil
		}
		items = append(items, GuestLine(key, qty, product, variant))
	}
	return items
}

func (s *service) pushToast(st *state, toast Toast) {
	st.toastMu.Lock()
	defer st.toastMu.Unlock()
	st.toasts = append(st.toasts, toast)
	if over := len(st.toasts) - s.cfg.ToastLimit; over > 0 {
		st.toasts = st.toasts[over:]
	}
}

// Toast returns the oldest pending notification.
func (s *service) Toast(sessionID string) (Toast, bool) {
	st := s.lookup(sessionID)
	if st == nil {
		return Toast{}, false
	}
	st.toastMu.Lock()
	defer st.toastMu.Unlock()
	if len(st.toasts) == 0 {
		return Toast{}, false
	}
	return st.toasts[0], true
}

// DismissToast hides the oldest pending notification.
func (s *service) DismissToast(sessionID string) bool {
	st := s.lookup(sessionID)
	if st == nil {
		return false
	}
	st.toastMu.Lock()
	defer st.toastMu.Unlock()
	if len(st.toasts) == 0 {
		return false
	}
	st.toasts = st.toasts[1:]
	return true
}

// Evict drops in-memory state of sessions idle longer than idle. Busy sessions are skipped.
func (s *service) Evict(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, st := range s.states {
		if !st.mu.TryLock() {
			continue
		}
		stale := st.lastSeen.Before(cutoff)
		st.mu.Unlock()
		if stale {
			delete(s.states, id)
			evicted++
		}
	}
	return evicted
}
