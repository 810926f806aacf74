package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopforge/commerce/internal/report/application"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) SalesByProduct(ctx context.Context, start, end time.Time) ([]application.ProductSales, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.category_id,
		       SUM(oi.quantity)::int,
		       SUM(oi.quantity * oi.price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.created_at BETWEEN $1 AND $2 AND o.status <> 'cancelled'
		GROUP BY p.id, p.name, p.category_id
		ORDER BY SUM(oi.quantity * oi.price) DESC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []application.ProductSales
	for rows.Next() {
		var s application.ProductSales
		if err := rows.Scan(&s.ProductID, &s.ProductName, &s.CategoryID, &s.TotalQuantity, &s.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) RevenueByCategory(ctx context.Context, start, end time.Time) ([]application.CategoryRevenue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, SUM(oi.quantity * oi.price)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		JOIN categories c ON c.id = p.category_id
		WHERE o.created_at BETWEEN $1 AND $2 AND o.status <> 'cancelled'
		GROUP BY c.id, c.name
		ORDER BY SUM(oi.quantity * oi.price) DESC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []application.CategoryRevenue
	for rows.Next() {
		var c application.CategoryRevenue
		if err := rows.Scan(&c.CategoryID, &c.CategoryName, &c.TotalRevenue); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
