package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/resumekit/pkg/billing"
	"github.com/dmitrymomot/resumekit/pkg/pg"
	"github.com/dmitrymomot/resumekit/pkg/plans"
)

// postgresStore is the production Store. The seat pool lives in a
// single-row table with a DB-level consumed <= capacity check, and seat
// consumption is one conditional UPDATE so concurrent appliers can never
// oversell regardless of how many processes serve traffic.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given connection pool.
// The entitlement schema must already be migrated (see migrations/).
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("entitlement: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

func (s *postgresStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, plan, usage, cycle_anchor, updated_at FROM entitlement_users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *postgresStore) SaveUser(ctx context.Context, u *User) error {
	usage, err := json.Marshal(u.Usage)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO entitlement_users (id, plan, usage, cycle_anchor, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET plan = EXCLUDED.plan, usage = EXCLUDED.usage,
		    cycle_anchor = EXCLUDED.cycle_anchor, updated_at = EXCLUDED.updated_at`,
		u.ID, string(u.Plan), usage, u.CycleAnchor.UTC(), u.UpdatedAt.UTC())
	return err
}

func (s *postgresStore) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, kind, tier, annual, amount, currency, status, created_at, updated_at
		FROM entitlement_transactions WHERE id = $1`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s *postgresStore) CreateTransaction(ctx context.Context, tx *Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entitlement_transactions
			(id, user_id, kind, tier, annual, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tx.ID, tx.UserID, string(tx.Kind), string(tx.Tier), tx.Annual,
		tx.Amount.Amount, tx.Amount.Currency, string(tx.Status),
		tx.CreatedAt.UTC(), tx.UpdatedAt.UTC())
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrTransactionExists
		}
		return err
	}
	return nil
}

func (s *postgresStore) SetTransactionStatus(ctx context.Context, id string, from, to TransactionStatus, now time.Time) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransactionState
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE entitlement_transactions SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		string(to), now.UTC(), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either unknown or already moved past `from` by a racing caller.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM entitlement_transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrTransactionNotFound
		}
		return ErrInvalidTransactionState
	}
	return nil
}

func (s *postgresStore) ApplyTransaction(ctx context.Context, id string, now time.Time) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var (
		userID uuid.UUID
		tier   string
		status string
	)
	err = dbtx.QueryRow(ctx, `
		SELECT user_id, tier, status FROM entitlement_transactions
		WHERE id = $1 FOR UPDATE`, id).Scan(&userID, &tier, &status)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrTransactionNotFound
		}
		return err
	}

	switch TransactionStatus(status) {
	case TxApplied:
		// Retried confirmation; nothing left to do.
		return dbtx.Commit(ctx)
	case TxVerified:
	default:
		return ErrInvalidTransactionState
	}

	target := plans.Tier(tier)

	// The check-and-increment is one conditional UPDATE inside the same
	// transaction that flips the status, so consumed can never pass
	// capacity however many appliers race.
	if target == plans.TierLifetime {
		tag, err := dbtx.Exec(ctx,
			`UPDATE lifetime_seats SET consumed = consumed + 1 WHERE consumed < capacity`)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrSeatsExhausted
		}
	}

	var currentPlan string
	err = dbtx.QueryRow(ctx,
		`SELECT plan FROM entitlement_users WHERE id = $1 FOR UPDATE`, userID).Scan(&currentPlan)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return err
	}

	if target.Outranks(plans.Tier(currentPlan)) {
		if _, err := dbtx.Exec(ctx,
			`UPDATE entitlement_users SET plan = $1, updated_at = $2 WHERE id = $3`,
			string(target), now.UTC(), userID); err != nil {
			return err
		}
	}

	if _, err := dbtx.Exec(ctx, `
		UPDATE entitlement_transactions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(TxApplied), now.UTC(), id); err != nil {
		return err
	}

	return dbtx.Commit(ctx)
}

func (s *postgresStore) SyncUsage(ctx context.Context, userID uuid.UUID, now time.Time) (*User, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck

	u, err := s.lockUser(ctx, dbtx, userID)
	if err != nil {
		return nil, err
	}

	if err := rolloverLocked(ctx, dbtx, u, now); err != nil {
		return nil, err
	}

	if err := dbtx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *postgresStore) IncrementUsage(ctx context.Context, userID uuid.UUID, f plans.Feature, now time.Time) error {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck

	u, err := s.lockUser(ctx, dbtx, userID)
	if err != nil {
		return err
	}

	if err := rolloverLocked(ctx, dbtx, u, now); err != nil {
		return err
	}

	u.Usage[f]++
	usage, err := json.Marshal(u.Usage)
	if err != nil {
		return err
	}
	if _, err := dbtx.Exec(ctx,
		`UPDATE entitlement_users SET usage = $1, updated_at = $2 WHERE id = $3`,
		usage, now.UTC(), userID); err != nil {
		return err
	}

	return dbtx.Commit(ctx)
}

// lockUser reads a user row FOR UPDATE so per-user counters mutate
// atomically without any global serialization.
func (s *postgresStore) lockUser(ctx context.Context, dbtx pgx.Tx, userID uuid.UUID) (*User, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT id, plan, usage, cycle_anchor, updated_at
		FROM entitlement_users WHERE id = $1 FOR UPDATE`, userID)
	return scanUser(row)
}

func rolloverLocked(ctx context.Context, dbtx pgx.Tx, u *User, now time.Time) error {
	anchor, rolled := rolloverUsage(u.CycleAnchor, now)
	if !rolled {
		return nil
	}

	u.CycleAnchor = anchor
	u.Usage = make(map[plans.Feature]int64)
	u.UpdatedAt = now.UTC()

	_, err := dbtx.Exec(ctx, `
		UPDATE entitlement_users SET usage = '{}'::jsonb, cycle_anchor = $1, updated_at = $2
		WHERE id = $3`, anchor, now.UTC(), u.ID)
	return err
}

func (s *postgresStore) RemainingSeats(ctx context.Context) (int64, error) {
	var remaining int64
	err := s.pool.QueryRow(ctx,
		`SELECT GREATEST(capacity - consumed, 0) FROM lifetime_seats`).Scan(&remaining)
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *postgresStore) Setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM app_settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

func (s *postgresStore) SetSetting(ctx context.Context, key, value string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, now.UTC())
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var (
		u        User
		plan     string
		rawUsage []byte
	)
	if err := row.Scan(&u.ID, &plan, &rawUsage, &u.CycleAnchor, &u.UpdatedAt); err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	u.Plan = plans.Tier(plan)
	u.Usage = make(map[plans.Feature]int64)
	if len(rawUsage) > 0 {
		if err := json.Unmarshal(rawUsage, &u.Usage); err != nil {
			return nil, fmt.Errorf("corrupt usage counters for user %s: %w", u.ID, err)
		}
	}
	return &u, nil
}

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var (
		tx       Transaction
		kind     string
		tier     string
		status   string
		amount   int64
		currency string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &kind, &tier, &tx.Annual,
		&amount, &currency, &status, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		return nil, err
	}

	tx.Kind = billing.Kind(kind)
	tx.Tier = plans.Tier(tier)
	tx.Status = TransactionStatus(status)
	tx.Amount = plans.Money{Amount: amount, Currency: currency}
	return &tx, nil
}
