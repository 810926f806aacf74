package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopforge/commerce/internal/coupon/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Save(ctx context.Context, c domain.Coupon) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO coupons (id, code, discount_type, discount_value, active, expires_at, usage_limit, used_count, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.Active, c.ExpiresAt, c.UsageLimit, c.UsedCount, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Coupon, error) {
	return r.findOne(ctx, `SELECT id, code, discount_type, discount_value, active, expires_at, usage_limit, used_count, created_at, updated_at
			FROM coupons WHERE id=$1`, id)
}

func (r *Repository) FindActiveByCode(ctx context.Context, code string) (domain.Coupon, error) {
	return r.findOne(ctx, `SELECT id, code, discount_type, discount_value, active, expires_at, usage_limit, used_count, created_at, updated_at
			FROM coupons WHERE code=$1 AND active`, code)
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (domain.Coupon, error) {
	var c domain.Coupon
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.Active, &c.ExpiresAt, &c.UsageLimit, &c.UsedCount, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	if err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, discount_type, discount_value, active, expires_at, usage_limit, used_count, created_at, updated_at
			FROM coupons ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		var c domain.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.Active, &c.ExpiresAt, &c.UsageLimit, &c.UsedCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *Repository) Update(ctx context.Context, c domain.Coupon) error {
	ct, err := r.pool.Exec(ctx, `UPDATE coupons SET code=$2, discount_type=$3, discount_value=$4, active=$5, expires_at=$6, usage_limit=$7, updated_at=$8
			WHERE id=$1`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.Active, c.ExpiresAt, c.UsageLimit, c.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id=$1`, id)
	return err
}

// Redeem is a single increment-if-below-limit update, so concurrent
// redemptions can never push used_count past the limit.
func (r *Repository) Redeem(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE coupons SET used_count = used_count + 1, updated_at = now()
			WHERE id=$1 AND active AND (usage_limit = 0 OR used_count < usage_limit)`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrLimitReached
	}
	return nil
}
