package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/amunra1102/grpc-asp-demo/internal/catalog/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrProductNotFound = errors.New("product not found")

type RepoInterface interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	AddProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	InsertBulk(ctx context.Context, products []*domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	Close() error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not read migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

const productColumns = "id, name, description, price, status, created_at"

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products WHERE id = ?", productColumns)

	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Status,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

func (r *Repository) GetAllProducts(ctx context.Context) ([]*domain.Product, error) {
	query := fmt.Sprintf("SELECT %s FROM products ORDER BY id", productColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p := &domain.Product{}
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Status,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return products, nil
}

func (r *Repository) AddProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO products (name, description, price, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Status, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}

	inserted := *p
	inserted.ID = id
	return &inserted, nil
}

func (r *Repository) InsertBulk(ctx context.Context, products []*domain.Product) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (name, description, price, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var count int64
	for _, p := range products {
		if _, err := tx.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Status, p.CreatedAt); err != nil {
			return 0, fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit bulk insert: %w", err)
	}

	return count, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE products
		SET name = ?, description = ?, price = ?, status = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.Price, p.Status, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrProductNotFound
	}

	return r.GetProduct(ctx, p.ID)
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}
