package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"beauty-kart/internal/events"
	"beauty-kart/internal/gateway"
	"beauty-kart/internal/model"
	"beauty-kart/internal/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Mode is the authentication state of a cart view.
type Mode int

const (
	ModeAnonymous Mode = iota
	ModeAuthenticated
)

func (m Mode) String() string {
	if m == ModeAuthenticated {
		return "authenticated"
	}
	return "anonymous"
}

// MarshalText renders the mode as its name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ViewLine is one displayed cart line. LineID is set for remote lines only.
type ViewLine struct {
	ProductID string          `json:"productId"`
	LineID    string          `json:"lineId,omitempty"`
	Name      string          `json:"name"`
	Image     *string         `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// View is the read model shown by the UI. Subtotal is the sum of line totals
// and ItemCount the sum of quantities, in either mode.
type View struct {
	Mode      Mode            `json:"mode"`
	Lines     []ViewLine      `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ItemCount int             `json:"itemCount"`
	CartID    string          `json:"cartId,omitempty"`
}

// Badge holds the header counters.
type Badge struct {
	ItemCount int             `json:"itemCount"`
	Total     decimal.Decimal `json:"total"`
}

// LoginResult is the outcome of a login. MigrationErr is set when the
// identity was accepted but the local cart could not be migrated; the local
// cart is then left in place and migrated before the next authenticated
// read or write.
type LoginResult struct {
	Identity     model.Identity
	Migration    *MigrationResult
	MigrationErr error
}

// CheckoutResult is the outcome of a checkout.
type CheckoutResult struct {
	Submit    *SubmitResult
	Migration *MigrationResult
}

// CartViewConfig wires a CartView.
type CartViewConfig struct {
	Local     LocalCartStore
	Session   session.Store
	Bus       *events.Bus
	Carts     gateway.CartGateway
	Auth      gateway.AuthGateway
	Products  ProductService
	Migration MigrationService
	Orders    OrderService
	Logger    zerolog.Logger
}

// CartView is the cart of one session. It owns the Anonymous or
// Authenticated mode and routes every operation to the store that is
// authoritative for that mode. Mutations are serialized per view.
type CartView struct {
	mu        sync.Mutex
	local     LocalCartStore
	kv        session.Store
	bus       *events.Bus
	carts     gateway.CartGateway
	auth      gateway.AuthGateway
	products  ProductService
	migration MigrationService
	orders    OrderService
	logger    zerolog.Logger

	identity       *model.Identity
	pending        bool
	view           View
	viewGeneration uint64
	fresh          bool

	generation  atomic.Uint64
	refresh     singleflight.Group
	unsubscribe func()
}

// NewCartView creates a view and restores the session identity, if any.
func NewCartView(ctx context.Context, cfg CartViewConfig) *CartView {
	v := &CartView{
		local:     cfg.Local,
		kv:        cfg.Session,
		bus:       cfg.Bus,
		carts:     cfg.Carts,
		auth:      cfg.Auth,
		products:  cfg.Products,
		migration: cfg.Migration,
		orders:    cfg.Orders,
		logger:    cfg.Logger.With().Str("service", "cart-view").Logger(),
	}

	identity, err := session.LoadIdentity(ctx, v.kv)
	if err != nil {
		v.logger.Warn().Err(err).Msg("failed to restore identity, starting anonymous")
	}
	v.identity = identity
	v.pending = identity != nil

	v.unsubscribe = v.bus.Subscribe(func(context.Context) {
		v.generation.Add(1)
	})
	return v
}

// Close detaches the view from its bus.
func (v *CartView) Close() {
	v.unsubscribe()
}

// Events returns the bus on which cart changes of this session are published.
func (v *CartView) Events() *events.Bus {
	return v.bus
}

// Identity returns a copy of the current identity, or nil when anonymous.
func (v *CartView) Identity() *model.Identity {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.identity == nil {
		return nil
	}
	identity := *v.identity
	return &identity
}

// Snapshot returns the current view, re-reading the authoritative store when
// a change was published since the last read. Concurrent refreshes of the
// same state are collapsed.
func (v *CartView) Snapshot(ctx context.Context) (View, error) {
	v.mu.Lock()
	if _, err := v.settleLocal(ctx); err != nil {
		v.mu.Unlock()
		return View{}, fmt.Errorf("failed to load cart: %w", err)
	}
	gen := v.generation.Load()
	if v.fresh && v.viewGeneration == gen {
		view := v.view
		v.mu.Unlock()
		return view, nil
	}
	identity := v.identity
	v.mu.Unlock()

	key := fmt.Sprintf("%s:%d", ModeAnonymous, gen)
	if identity != nil {
		key = fmt.Sprintf("%s:%s:%d", ModeAuthenticated, identity.ClientID, gen)
	}

	result, err, _ := v.refresh.Do(key, func() (any, error) {
		return v.load(ctx, identity)
	})
	if err != nil {
		return View{}, err
	}
	view := result.(View)

	v.mu.Lock()
	if v.generation.Load() == gen {
		v.view = view
		v.viewGeneration = gen
		v.fresh = true
	}
	v.mu.Unlock()

	return view, nil
}

// AddItem adds quantity units of a product. Anonymous carts snapshot the
// product's current name, price and image; authenticated carts add a remote
// line, creating the active cart when there is none.
func (v *CartView) AddItem(ctx context.Context, productID string, quantity int) (View, error) {
	if productID == "" {
		return View{}, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}
	if quantity < 1 {
		return View{}, model.ErrInvalidQuantity
	}

	if err := v.addItem(ctx, productID, quantity); err != nil {
		return View{}, err
	}
	return v.Snapshot(ctx)
}

func (v *CartView) addItem(ctx context.Context, productID string, quantity int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.identity == nil {
		product, err := v.products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		v.local.AddItem(ctx, *product, quantity)
		return nil
	}

	if _, err := v.settleLocal(ctx); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}

	rctx := v.remoteContext(ctx)
	cart, err := v.carts.GetActiveCart(rctx, v.identity.ClientID)
	if err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	if cart == nil {
		cart, err = v.carts.CreateCart(rctx, v.identity.ClientID)
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		v.logger.Info().
			Str("client_id", v.identity.ClientID).
			Str("cart_id", cart.ID).
			Msg("active cart created")
	}

	if _, err := v.carts.AddLine(rctx, cart.ID, productID, quantity); err != nil {
		return fmt.Errorf("failed to add item: %w", err)
	}
	v.bus.Publish(ctx)
	return nil
}

// SetQuantity overwrites the quantity of a line; zero or less removes it.
// Unknown products are ignored.
func (v *CartView) SetQuantity(ctx context.Context, productID string, quantity int) (View, error) {
	if productID == "" {
		return View{}, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}

	if err := v.setQuantity(ctx, productID, quantity); err != nil {
		return View{}, err
	}
	return v.Snapshot(ctx)
}

func (v *CartView) setQuantity(ctx context.Context, productID string, quantity int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.identity == nil {
		v.local.SetQuantity(ctx, productID, quantity)
		return nil
	}
	if _, err := v.settleLocal(ctx); err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}

	rctx := v.remoteContext(ctx)
	cart, line, err := v.findRemoteLine(rctx, productID)
	if err != nil || line == nil {
		return err
	}

	if quantity <= 0 {
		err = v.carts.RemoveLine(rctx, cart.ID, line.ID)
	} else {
		_, err = v.carts.UpdateLine(rctx, line.ID, quantity, line.UnitPrice)
	}
	if err != nil {
		return fmt.Errorf("failed to update quantity: %w", err)
	}
	v.bus.Publish(ctx)
	return nil
}

// RemoveItem removes the line holding productID. Unknown products are ignored.
func (v *CartView) RemoveItem(ctx context.Context, productID string) (View, error) {
	if productID == "" {
		return View{}, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}

	if err := v.removeItem(ctx, productID); err != nil {
		return View{}, err
	}
	return v.Snapshot(ctx)
}

func (v *CartView) removeItem(ctx context.Context, productID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.identity == nil {
		v.local.RemoveItem(ctx, productID)
		return nil
	}
	if _, err := v.settleLocal(ctx); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	rctx := v.remoteContext(ctx)
	cart, line, err := v.findRemoteLine(rctx, productID)
	if err != nil || line == nil {
		return err
	}

	if err := v.carts.RemoveLine(rctx, cart.ID, line.ID); err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	v.bus.Publish(ctx)
	return nil
}

// Badge returns the header counters. Authenticated sessions read them from
// the remote API.
func (v *CartView) Badge(ctx context.Context) (Badge, error) {
	v.mu.Lock()
	identity := v.identity
	_, err := v.settleLocal(ctx)
	v.mu.Unlock()
	if err != nil {
		return Badge{}, fmt.Errorf("failed to read badge: %w", err)
	}

	if identity == nil {
		cart := v.local.Get(ctx)
		return Badge{ItemCount: cart.ItemCount(), Total: cart.Total}, nil
	}

	rctx := gateway.WithToken(ctx, identity.AuthToken)
	cart, err := v.carts.GetActiveCart(rctx, identity.ClientID)
	if err != nil {
		return Badge{}, fmt.Errorf("failed to read badge: %w", err)
	}
	if cart == nil {
		return Badge{Total: decimal.Zero}, nil
	}

	count, err := v.carts.GetItemCount(rctx, cart.ID)
	if err != nil {
		return Badge{}, fmt.Errorf("failed to read badge: %w", err)
	}
	total, err := v.carts.GetTotal(rctx, cart.ID)
	if err != nil {
		return Badge{}, fmt.Errorf("failed to read badge: %w", err)
	}
	return Badge{ItemCount: count, Total: total}, nil
}

// Login authenticates the session and migrates the local cart into the
// client's remote cart. A failed migration does not fail the login.
func (v *CartView) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", model.ErrValidation)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	identity, err := v.auth.Login(ctx, email, password)
	if err != nil {
		v.logger.Warn().Err(err).Msg("login rejected")
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if err := session.SaveIdentity(ctx, v.kv, *identity); err != nil {
		v.logger.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to persist identity")
	}
	v.identity = identity

	result := &LoginResult{Identity: *identity}
	result.Migration, result.MigrationErr = v.migration.Migrate(v.remoteContext(ctx), v.local, identity.ClientID)
	v.pending = result.MigrationErr != nil
	if result.MigrationErr != nil {
		v.logger.Error().
			Err(result.MigrationErr).
			Str("client_id", identity.ClientID).
			Msg("cart migration failed, local cart kept")
	}

	v.logger.Info().
		Str("user_id", identity.UserID).
		Str("client_id", identity.ClientID).
		Msg("session authenticated")

	v.bus.Publish(ctx)
	return result, nil
}

// Logout returns the session to anonymous mode with an empty local cart.
func (v *CartView) Logout(ctx context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.local.Clear(ctx)
	if err := session.ClearIdentity(ctx, v.kv); err != nil {
		v.logger.Error().Err(err).Msg("failed to clear identity")
	}
	if v.identity != nil {
		v.logger.Info().Str("user_id", v.identity.UserID).Msg("session logged out")
	}
	v.identity = nil
	v.pending = false

	v.bus.Publish(ctx)
}

// Checkout places an order for the session. A local cart left by a failed
// login migration is migrated first; otherwise the active remote cart is
// ordered.
func (v *CartView) Checkout(ctx context.Context) (*CheckoutResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.identity == nil {
		return nil, model.ErrNotAuthenticated
	}
	clientID := v.identity.ClientID
	rctx := v.remoteContext(ctx)

	result := &CheckoutResult{}
	var cartID string

	migration, err := v.settleLocal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout: %w", err)
	}

	if migration != nil {
		result.Migration = migration
		if migration.Migrated == 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrEmptyCart, migration.Summary())
		}
		cartID = migration.CartID
	} else {
		cart, err := v.carts.GetActiveCart(rctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("failed to checkout: %w", err)
		}
		if cart == nil {
			return nil, model.ErrEmptyCart
		}
		count, err := v.carts.GetItemCount(rctx, cart.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to checkout: %w", err)
		}
		if count == 0 {
			return nil, model.ErrEmptyCart
		}
		cartID = cart.ID
	}

	submit, err := v.orders.Submit(rctx, cartID, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout: %w", err)
	}
	result.Submit = submit

	v.bus.Publish(ctx)
	return result, nil
}

// load builds the view from the store that is authoritative for identity.
func (v *CartView) load(ctx context.Context, identity *model.Identity) (View, error) {
	if identity == nil {
		cart := v.local.Get(ctx)
		view := View{Mode: ModeAnonymous, Lines: make([]ViewLine, 0, len(cart.Lines))}
		for _, line := range cart.Lines {
			view.Lines = append(view.Lines, ViewLine{
				ProductID: line.ProductID,
				Name:      line.Name,
				Image:     line.Image,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				LineTotal: line.LineTotal(),
			})
		}
		return summarize(view), nil
	}

	rctx := gateway.WithToken(ctx, identity.AuthToken)
	view := View{Mode: ModeAuthenticated, Lines: []ViewLine{}}

	cart, err := v.carts.GetActiveCart(rctx, identity.ClientID)
	if err != nil {
		return View{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil {
		return summarize(view), nil
	}
	view.CartID = cart.ID

	lines, err := v.carts.GetLines(rctx, cart.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return summarize(view), nil
		}
		return View{}, fmt.Errorf("failed to load cart lines: %w", err)
	}
	for _, line := range lines {
		view.Lines = append(view.Lines, ViewLine{
			ProductID: line.Product.ID,
			LineID:    line.ID,
			Name:      line.Product.Name,
			Image:     line.Product.Image,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal(),
		})
	}
	return summarize(view), nil
}

func summarize(view View) View {
	view.Subtotal = decimal.Zero
	view.ItemCount = 0
	for _, line := range view.Lines {
		view.Subtotal = view.Subtotal.Add(line.LineTotal)
		view.ItemCount += line.Quantity
	}
	return view
}

// findRemoteLine returns the active cart and its line for productID. Both
// are nil when there is no such line.
func (v *CartView) findRemoteLine(ctx context.Context, productID string) (*model.RemoteCart, *model.RemoteCartLine, error) {
	cart, err := v.carts.GetActiveCart(ctx, v.identity.ClientID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if cart == nil {
		return nil, nil, nil
	}

	lines, err := v.carts.GetLines(ctx, cart.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read cart lines: %w", err)
	}
	for i := range lines {
		if lines[i].Product.ID == productID {
			return cart, &lines[i], nil
		}
	}
	return cart, nil, nil
}

// settleLocal migrates the local cart left behind by a failed login
// migration, so that an authenticated session never has lines in two places.
// It returns nil when nothing was pending. Callers hold v.mu.
func (v *CartView) settleLocal(ctx context.Context) (*MigrationResult, error) {
	if v.identity == nil || !v.pending {
		return nil, nil
	}
	if v.local.Get(ctx).IsEmpty() {
		v.pending = false
		return nil, nil
	}

	migration, err := v.migration.Migrate(v.remoteContext(ctx), v.local, v.identity.ClientID)
	if err != nil {
		v.logger.Warn().
			Err(err).
			Str("client_id", v.identity.ClientID).
			Msg("pending cart migration failed")
		return nil, err
	}
	v.pending = false

	v.logger.Info().
		Str("client_id", v.identity.ClientID).
		Str("cart_id", migration.CartID).
		Int("migrated", migration.Migrated).
		Int("skipped", len(migration.Skipped)).
		Msg("pending cart migrated")

	v.bus.Publish(ctx)
	return migration, nil
}

// remoteContext attaches the session token. Callers hold v.mu.
func (v *CartView) remoteContext(ctx context.Context) context.Context {
	if v.identity == nil {
		return ctx
	}
	return gateway.WithToken(ctx, v.identity.AuthToken)
}
