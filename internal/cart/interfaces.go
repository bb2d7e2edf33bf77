package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/angelmondragon/storefront/pkg/auth"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/shopspring/decimal"
)

// ErrCorruptGuestCart marks a stored guest cart that could not be decoded.
var ErrCorruptGuestCart = errors.New("corrupt guest cart")

// GuestStore persists guest carts per session.
type GuestStore interface {
	Load(ctx context.Context, sessionID string) (GuestItems, error)
	Save(ctx context.Context, sessionID string, items GuestItems) error
	Clear(ctx context.Context, sessionID string) error
}

// ServerCart is the backend cart API.
type ServerCart interface {
	GetCart(ctx context.Context, token string) (*commerce.Cart, error)
	AddToCart(ctx context.Context, token string, req commerce.CartMutation) error
	UpdateCartItem(ctx context.Context, token string, req commerce.CartMutation) error
	RemoveCartItem(ctx context.Context, token string, variantID int64) error
}

// Sessions stores the access token attached to a session.
type Sessions interface {
	Token(ctx context.Context, sessionID string) (string, bool, error)
	Attach(ctx context.Context, sessionID, token string) (*auth.AccessTokenClaims, error)
	Detach(ctx context.Context, sessionID string) error
}

// Pricer resolves guest lines against the catalog.
type Pricer interface {
	Lookup(ctx context.Context, productID, variantKey string) (*catalog.Product, *catalog.Variant, error)
}

// VoucherApplier re-evaluates the entered voucher code.
type VoucherApplier interface {
	Apply(ctx context.Context, app voucher.Application, subtotal decimal.Decimal) (voucher.Application, error)
}

// Recorder receives engine metrics.
type Recorder interface {
	ObserveOperation(op, authority string, duration time.Duration, err error)
	IncVoucher(state string)
}
