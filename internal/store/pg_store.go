package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	perrors "github.com/abgdnv/produce/internal/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productsTable = "products"

var productColumns = []string{"id::text AS id", "code", "name", "price", "category"}

// row is the scan target for productColumns.
type row struct {
	ID       string  `db:"id"`
	Code     float64 `db:"code"`
	Name     string  `db:"name"`
	Price    float64 `db:"price"`
	Category string  `db:"category"`
}

func (r row) toProduct() Product {
	return Product{ID: r.ID, Code: r.Code, Name: r.Name, Price: r.Price, Category: r.Category}
}

// PgStore implements ProductStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

// NewPgStore creates a new instance of ProductStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{
		db: dbp,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Ping checks that a connection can be acquired.
func (p *PgStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// FindByID retrieves a product by its unique identifier.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id string) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	query := p.sb.Select(productColumns...).From(productsTable).Where(sq.Eq{"id": id})
	product, err := p.one(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindAll retrieves all available products with pagination support.
// It returns a slice of products, which may be empty if no products exist.
func (p *PgStore) FindAll(ctx context.Context, offset, limit int32) ([]Product, error) {
	query := p.sb.Select(productColumns...).From(productsTable)
	products, err := p.list(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find all products: %w", err)
	}
	return products, nil
}

// FindByName retrieves products whose name contains name, ignoring case.
func (p *PgStore) FindByName(ctx context.Context, name string, offset, limit int32) ([]Product, error) {
	query := p.sb.Select(productColumns...).From(productsTable).
		Where(sq.ILike{"name": "%" + escapeLike(name) + "%"})
	products, err := p.list(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by name: %w", err)
	}
	return products, nil
}

// Create adds a new product to the system.
// Returns an error if the product cannot be created.
func (p *PgStore) Create(ctx context.Context, product Product) (*Product, error) {
	query := p.sb.Insert(productsTable).
		SetMap(map[string]any{
			"code":     product.Code,
			"name":     product.Name,
			"price":    product.Price,
			"category": product.Category,
		}).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))
	created, err := p.one(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

// Update modifies the patched columns of an existing product.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) Update(ctx context.Context, id string, patch ProductPatch) (*Product, error) {
	if patch.IsEmpty() {
		return p.FindByID(ctx, id)
	}
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	query := p.sb.Update(productsTable).
		SetMap(patchToColumns(patch)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))
	updated, err := p.one(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

// DeleteByID removes a product by its unique identifier and returns the removed row.
// Returns ErrProductNotFound if no product exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id string) (*Product, error) {
	if err := validateUUID(id); err != nil {
		return nil, err
	}
	query := p.sb.Delete(productsTable).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(productColumns, ", "))
	deleted, err := p.one(ctx, query)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, perrors.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to delete product by ID: %w", err)
	}
	return deleted, nil
}

func (p *PgStore) one(ctx context.Context, query sq.Sqlizer) (*Product, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	r, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	product := r.toProduct()
	return &product, nil
}

func (p *PgStore) list(ctx context.Context, query sq.SelectBuilder, offset, limit int32) ([]Product, error) {
	query = query.OrderBy("seq")
	if offset > 0 {
		query = query.Offset(uint64(offset))
	}
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}
	rows, err := p.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[row])
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(collected))
	for _, r := range collected {
		products = append(products, r.toProduct())
	}
	return products, nil
}

func patchToColumns(patch ProductPatch) map[string]any {
	columns := make(map[string]any)
	if patch.Code != nil {
		columns["code"] = *patch.Code
	}
	if patch.Name != nil {
		columns["name"] = *patch.Name
	}
	if patch.Price != nil {
		columns["price"] = *patch.Price
	}
	if patch.Category != nil {
		columns["category"] = *patch.Category
	}
	return columns
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
