package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shopforge/commerce/internal/catalog/application"
	"github.com/shopforge/commerce/internal/catalog/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Save(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (id, name, description, price, stock, category_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *Repository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, price, stock, category_id, created_at, updated_at
			FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, price, stock, category_id, created_at, updated_at
			FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]application.ProductWithCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.name, p.description, p.price, p.stock, p.category_id, p.created_at, p.updated_at,
			c.id, c.name, c.description, c.created_at, c.updated_at
			FROM products p JOIN categories c ON c.id = p.category_id
			ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []application.ProductWithCategory
	for rows.Next() {
		var pc application.ProductWithCategory
		if err := rows.Scan(&pc.ID, &pc.Name, &pc.Description, &pc.Price, &pc.Stock, &pc.CategoryID, &pc.CreatedAt, &pc.UpdatedAt,
			&pc.Category.ID, &pc.Category.Name, &pc.Category.Description, &pc.Category.CreatedAt, &pc.Category.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (r *Repository) Update(ctx context.Context, p domain.Product) error {
	ct, err := r.pool.Exec(ctx, `UPDATE products SET name=$2, description=$3, price=$4, stock=$5, category_id=$6, updated_at=$7
			WHERE id=$1`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.CategoryID, p.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	return err
}

// DecrementStock is the linearizable primitive of the order pipeline: a
// single conditional update, so two concurrent orders can never both
// observe pre-decrement stock and oversell.
func (r *Repository) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	var stock int
	err := r.pool.QueryRow(ctx, `UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id=$1 AND stock >= $2 RETURNING stock`, id, qty).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrInsufficientStock
	}
	if err != nil {
		return 0, err
	}
	return stock, nil
}

type CategoryRepository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewCategoryRepository(log *slog.Logger, pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{log: log, pool: pool}
}

func (r *CategoryRepository) Save(ctx context.Context, c domain.Category) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO categories (id, name, description, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, description, created_at, updated_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, c domain.Category) error {
	ct, err := r.pool.Exec(ctx, `UPDATE categories SET name=$2, description=$3, updated_at=$4 WHERE id=$1`,
		c.ID, c.Name, c.Description, c.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	return err
}
