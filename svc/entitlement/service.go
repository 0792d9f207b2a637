package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/resumekit/pkg/billing"
	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// SettingLifetimePrice is the settings-store key for the current Lifetime
// price in the smallest currency unit.
const SettingLifetimePrice = "lifetime_price"

// Config holds the operational parameters of the entitlement core.
type Config struct {
	SeatCapacity          int64         `env:"LIFETIME_SEAT_CAPACITY" envDefault:"1000"`
	FallbackLifetimePrice int64         `env:"LIFETIME_FALLBACK_PRICE" envDefault:"19900"` // used until an admin sets a price
	Currency              string        `env:"BILLING_CURRENCY" envDefault:"USD"`
	AdminCredentialHash   string        `env:"ENTITLEMENT_ADMIN_CREDENTIAL_HASH"` // bcrypt hash of the admin credential
	ProviderTimeout       time.Duration `env:"BILLING_PROVIDER_TIMEOUT" envDefault:"15s"`
	OfferCacheTTL         time.Duration `env:"LIFETIME_OFFER_CACHE_TTL" envDefault:"30s"`
}

// OfferCache is an optional read cache for the lifetime offer, which the
// marketing pages fetch on every render. Misses and write failures are
// harmless; the store stays authoritative.
type OfferCache interface {
	Get(ctx context.Context) (LifetimeOffer, bool)
	Set(ctx context.Context, offer LifetimeOffer)
}

// Service wires the transaction initiator, verifier, entitlement applier,
// usage quota tracker, and seat/settings reads behind one API.
type Service struct {
	cfg      Config
	store    Store
	provider billing.Provider
	catalog  *plans.Catalog
	cache    OfferCache
	log      *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source, useful for rollover tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithOfferCache enables caching of lifetime-offer reads.
func WithOfferCache(cache OfferCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService creates the entitlement service. Panics if store or catalog is
// nil to fail fast during initialization. The billing provider may be nil
// when credentials are absent; upgrade initiation then fails with
// ErrProviderNotConfigured instead of panicking read paths.
func NewService(cfg Config, store Store, provider billing.Provider, catalog *plans.Catalog, opts ...Option) *Service {
	if store == nil {
		panic("entitlement: Store is required")
	}
	if catalog == nil {
		panic("entitlement: plan catalog is required")
	}

	s := &Service{
		cfg:      cfg,
		store:    store,
		provider: provider,
		catalog:  catalog,
		log:      slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureUser returns the entitlement state for a user, creating a fresh
// free-tier record anchored at the current time if none exists.
func (s *Service) EnsureUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	u = NewUser(userID, s.now())
	if err := s.store.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// InitiateUpgrade creates a pending transaction with the payment provider
// and persists it in created state. One-time plans produce an order,
// recurring plans a subscription; the routing is a fixed function of the
// tier. Returns the processor-issued transaction ID.
func (s *Service) InitiateUpgrade(ctx context.Context, userID uuid.UUID, tier plans.Tier, annual bool) (string, error) {
	plan, err := s.catalog.Plan(tier)
	if err != nil {
		return "", err
	}

	u, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if !tier.Outranks(u.Plan) {
		return "", ErrNotAnUpgrade
	}

	if s.provider == nil {
		return "", ErrProviderNotConfigured
	}

	// The provider call is bounded and happens strictly before any state
	// commit; no lock is held while waiting on the network.
	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	var (
		txID   string
		kind   billing.Kind
		amount plans.Money
	)

	if plan.OneTime {
		kind = billing.KindOrder
		amount = s.lifetimePrice(ctx)
		txID, err = s.provider.CreateOrder(pctx, billing.OrderRequest{
			PriceID:     plan.PriceID(false),
			CustomerID:  userID.String(),
			Description: plan.Name + " plan",
			Amount:      amount.Amount,
			Currency:    amount.Currency,
		})
	} else {
		kind = billing.KindSubscription
		amount = plan.Price
		txID, err = s.provider.CreateSubscription(pctx, billing.SubscriptionRequest{
			PriceID:    plan.PriceID(annual),
			CustomerID: userID.String(),
		})
	}
	if err != nil {
		return "", errors.Join(ErrProviderUnavailable, err)
	}

	now := s.now()
	if err := s.store.CreateTransaction(ctx, &Transaction{
		ID:        txID,
		UserID:    userID,
		Kind:      kind,
		Tier:      tier,
		Annual:    annual && !plan.OneTime,
		Amount:    amount,
		Status:    TxCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return "", err
	}

	s.log.InfoContext(ctx, "upgrade initiated",
		slog.String("user_id", userID.String()),
		slog.String("tier", string(tier)),
		slog.String("kind", string(kind)),
	)
	return txID, nil
}

// ConfirmUpgrade re-verifies a transaction directly with the payment
// provider and applies the entitlement on success. The client's claim that
// payment succeeded is never trusted. Safe to retry: an already-applied
// transaction returns nil, a pending checkout returns ErrPaymentPending,
// and a provider outage returns the retryable ErrProviderUnavailable.
func (s *Service) ConfirmUpgrade(ctx context.Context, userID uuid.UUID, txID string) error {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	// A transaction id belongs to exactly one user; do not leak other
	// users' transactions through the confirm path.
	if tx.UserID != userID {
		return ErrTransactionNotFound
	}

	switch tx.Status {
	case TxApplied:
		return nil
	case TxFailed, TxCancelled:
		return ErrVerificationFailed
	case TxCreated:
		if err := s.verify(ctx, tx); err != nil {
			return err
		}
	}

	if err := s.store.ApplyTransaction(ctx, tx.ID, s.now()); err != nil {
		if errors.Is(err, ErrSeatsExhausted) {
			s.log.WarnContext(ctx, "lifetime seats exhausted at confirmation",
				slog.String("transaction_id", tx.ID),
				slog.String("user_id", userID.String()),
			)
		}
		return err
	}

	s.log.InfoContext(ctx, "upgrade applied",
		slog.String("transaction_id", tx.ID),
		slog.String("user_id", userID.String()),
		slog.String("tier", string(tx.Tier)),
	)
	return nil
}

// verify asks the processor for the authoritative status of a created
// transaction and records the terminal classification. Once terminal the
// stored state is sticky and the processor is not asked again.
func (s *Service) verify(ctx context.Context, tx *Transaction) error {
	if s.provider == nil {
		return ErrProviderNotConfigured
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	status, err := s.provider.TransactionStatus(pctx, tx.ID, tx.Kind)
	if err != nil {
		// Outage is retryable, never proof of payment failure.
		return errors.Join(ErrProviderUnavailable, err)
	}

	now := s.now()
	switch status {
	case billing.StatusCaptured, billing.StatusActive:
		if err := s.store.SetTransactionStatus(ctx, tx.ID, TxCreated, TxVerified, now); err != nil {
			// A concurrent confirmation may have verified it first;
			// re-read and let the applier decide.
			if !errors.Is(err, ErrInvalidTransactionState) {
				return err
			}
			fresh, err := s.store.GetTransaction(ctx, tx.ID)
			if err != nil {
				return err
			}
			if fresh.Status == TxFailed || fresh.Status == TxCancelled {
				return ErrVerificationFailed
			}
		}
		return nil
	case billing.StatusFailed:
		if err := s.store.SetTransactionStatus(ctx, tx.ID, TxCreated, TxFailed, now); err != nil && !errors.Is(err, ErrInvalidTransactionState) {
			return err
		}
		return ErrVerificationFailed
	case billing.StatusCancelled:
		if err := s.store.SetTransactionStatus(ctx, tx.ID, TxCreated, TxCancelled, now); err != nil && !errors.Is(err, ErrInvalidTransactionState) {
			return err
		}
		return ErrVerificationFailed
	default:
		// Checkout still in flight; the transaction stays created and
		// inert until the processor reports a terminal state.
		return ErrPaymentPending
	}
}

// CheckQuota reports whether the user may perform a quota-limited feature
// right now. Elapsed billing periods are rolled over lazily as part of the
// check. Returns ErrQuotaExceeded when the monthly cap is reached.
func (s *Service) CheckQuota(ctx context.Context, userID uuid.UUID, f plans.Feature) error {
	u, err := s.store.SyncUsage(ctx, userID, s.now())
	if err != nil {
		return err
	}

	limit, err := s.catalog.Quota(u.Plan, f)
	if err != nil {
		return err
	}
	if limit == plans.Unlimited {
		return nil
	}
	if u.Usage[f] >= limit {
		return ErrQuotaExceeded
	}
	return nil
}

// RecordUsage increments the user's counter for a feature. Call it only
// after the gated action actually succeeded so a failed AI call never
// consumes quota.
func (s *Service) RecordUsage(ctx context.Context, userID uuid.UUID, f plans.Feature) error {
	if !slices.Contains(plans.Features, f) {
		return plans.ErrUnknownFeature
	}
	return s.store.IncrementUsage(ctx, userID, f, s.now())
}

// GetEntitlement returns the derived permission set for the UI: current
// plan, this period's usage, and the plan's limits.
func (s *Service) GetEntitlement(ctx context.Context, userID uuid.UUID) (*Entitlement, error) {
	u, err := s.store.SyncUsage(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	return &Entitlement{
		Plan:   u.Plan,
		Usage:  u.Usage,
		Limits: s.catalog.Quotas(u.Plan),
	}, nil
}

// GetLifetimeOffer returns the remaining seat count and current price.
// Reads go through the optional cache; the store stays authoritative.
func (s *Service) GetLifetimeOffer(ctx context.Context) (*LifetimeOffer, error) {
	if s.cache != nil {
		if offer, ok := s.cache.Get(ctx); ok {
			return &offer, nil
		}
	}

	remaining, err := s.store.RemainingSeats(ctx)
	if err != nil {
		return nil, err
	}

	offer := LifetimeOffer{
		RemainingSeats: remaining,
		Price:          s.lifetimePrice(ctx),
	}
	if s.cache != nil {
		s.cache.Set(ctx, offer)
	}
	return &offer, nil
}

// SetLifetimePrice updates the current Lifetime price. The credential is
// the separate administrative secret, checked against a bcrypt hash; end
// user authentication never reaches this path. Price changes apply to
// future initiations only - in-flight transactions keep the amount
// recorded when they were created.
func (s *Service) SetLifetimePrice(ctx context.Context, credential string, price int64) error {
	if err := s.checkAdminCredential(credential); err != nil {
		return err
	}
	if price <= 0 {
		return ErrInvalidPrice
	}

	if err := s.store.SetSetting(ctx, SettingLifetimePrice, strconv.FormatInt(price, 10), s.now()); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "lifetime price updated", slog.Int64("price", price))
	return nil
}

func (s *Service) checkAdminCredential(credential string) error {
	if s.cfg.AdminCredentialHash == "" || credential == "" {
		return ErrInvalidAdminCredential
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminCredentialHash), []byte(credential)); err != nil {
		return ErrInvalidAdminCredential
	}
	return nil
}

// lifetimePrice reads the configured Lifetime price, falling back to the
// hardcoded default when unset or unparsable.
func (s *Service) lifetimePrice(ctx context.Context) plans.Money {
	fallback := plans.Money{Amount: s.cfg.FallbackLifetimePrice, Currency: s.cfg.Currency}

	raw, err := s.store.Setting(ctx, SettingLifetimePrice)
	if err != nil {
		return fallback
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		s.log.WarnContext(ctx, "invalid lifetime price setting, using fallback", slog.String("raw", raw))
		return fallback
	}
	return plans.Money{Amount: amount, Currency: s.cfg.Currency}
}
