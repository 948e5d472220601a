package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports that no discount definition exists for the given id.
var ErrNotFound = errors.New("discount not found")

// Method distinguishes automatic discounts from code-gated ones.
type Method string

const (
	MethodAutomatic Method = "automatic"
	MethodCode      Method = "code"
)

// CombinesWith mirrors the host platform's discount combination switches.
type CombinesWith struct {
	OrderDiscounts    bool `json:"orderDiscounts"`
	ProductDiscounts  bool `json:"productDiscounts"`
	ShippingDiscounts bool `json:"shippingDiscounts"`
}

// Definition is one merchant-configured free-gift discount.
//
// Configuration holds the raw JSON blob ({offeredProductId, freeProductId})
// exactly as the decision engine's metafield resolver will receive it; the
// store never interprets it.
type Definition struct {
	ID                     string       `json:"id"`
	Title                  string       `json:"title"`
	Method                 Method       `json:"method"`
	Code                   string       `json:"code,omitempty"`
	CombinesWith           CombinesWith `json:"combinesWith"`
	StartsAt               time.Time    `json:"startsAt"`
	EndsAt                 *time.Time   `json:"endsAt,omitempty"`
	UsageLimit             *int         `json:"usageLimit,omitempty"`
	AppliesOncePerCustomer bool         `json:"appliesOncePerCustomer"`
	Configuration          string       `json:"configuration"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
}

// CreateDefinition inserts a new definition, assigning it a fresh id and
// timestamps. The populated definition is returned.
func (s *Store) CreateDefinition(ctx context.Context, def Definition) (Definition, error) {
	now := time.Now().UTC().Truncate(time.Second)
	def.ID = uuid.NewString()
	def.CreatedAt = now
	def.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO discounts
		(id, title, method, code, combines_order, combines_product, combines_shipping,
		 starts_at, ends_at, usage_limit, once_per_customer, configuration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		def.ID,
		def.Title,
		string(def.Method),
		nullString(def.Code),
		def.CombinesWith.OrderDiscounts,
		def.CombinesWith.ProductDiscounts,
		def.CombinesWith.ShippingDiscounts,
		def.StartsAt.UTC().Format(time.RFC3339),
		nullTime(def.EndsAt),
		nullInt(def.UsageLimit),
		def.AppliesOncePerCustomer,
		def.Configuration,
		def.CreatedAt.Format(time.RFC3339),
		def.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return Definition{}, fmt.Errorf("create definition: %w", err)
	}
	return def, nil
}

// GetDefinition fetches one definition by id.
func (s *Store) GetDefinition(ctx context.Context, id string) (Definition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, method, code, combines_order, combines_product, combines_shipping,
		       starts_at, ends_at, usage_limit, once_per_customer, configuration, created_at, updated_at
		FROM discounts
		WHERE id = ?
	`, id)

	def, err := scanDefinition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Definition{}, ErrNotFound
	}
	if err != nil {
		return Definition{}, fmt.Errorf("get definition: %w", err)
	}
	return def, nil
}

// ListDefinitions returns every definition, newest first.
func (s *Store) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, method, code, combines_order, combines_product, combines_shipping,
		       starts_at, ends_at, usage_limit, once_per_customer, configuration, created_at, updated_at
		FROM discounts
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	defs := []Definition{}
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("list definitions: %w", err)
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definitions: %w", err)
	}
	return defs, nil
}

// UpdateDefinition overwrites the mutable fields of an existing definition
// and bumps its updated_at timestamp.
func (s *Store) UpdateDefinition(ctx context.Context, def Definition) (Definition, error) {
	def.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := s.db.ExecContext(ctx, `
		UPDATE discounts
		SET title = ?, method = ?, code = ?,
		    combines_order = ?, combines_product = ?, combines_shipping = ?,
		    starts_at = ?, ends_at = ?, usage_limit = ?, once_per_customer = ?,
		    configuration = ?, updated_at = ?
		WHERE id = ?
	`,
		def.Title,
		string(def.Method),
		nullString(def.Code),
		def.CombinesWith.OrderDiscounts,
		def.CombinesWith.ProductDiscounts,
		def.CombinesWith.ShippingDiscounts,
		def.StartsAt.UTC().Format(time.RFC3339),
		nullTime(def.EndsAt),
		nullInt(def.UsageLimit),
		def.AppliesOncePerCustomer,
		def.Configuration,
		def.UpdatedAt.Format(time.RFC3339),
		def.ID,
	)
	if err != nil {
		return Definition{}, fmt.Errorf("update definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Definition{}, ErrNotFound
	}
	return s.GetDefinition(ctx, def.ID)
}

// DeleteDefinition removes a definition by id.
func (s *Store) DeleteDefinition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanDefinition.
type scanner interface {
	Scan(dest ...any) error
}

func scanDefinition(row scanner) (Definition, error) {
	var (
		def       Definition
		method    string
		code      sql.NullString
		startsAt  string
		endsAt    sql.NullString
		usage     sql.NullInt64
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&def.ID, &def.Title, &method, &code,
		&def.CombinesWith.OrderDiscounts,
		&def.CombinesWith.ProductDiscounts,
		&def.CombinesWith.ShippingDiscounts,
		&startsAt, &endsAt, &usage, &def.AppliesOncePerCustomer,
		&def.Configuration, &createdAt, &updatedAt,
	)
	if err != nil {
		return Definition{}, err
	}

	def.Method = Method(method)
	if code.Valid {
		def.Code = code.String
	}
	if def.StartsAt, err = time.Parse(time.RFC3339, startsAt); err != nil {
		return Definition{}, fmt.Errorf("parse starts_at: %w", err)
	}
	if endsAt.Valid {
		t, err := time.Parse(time.RFC3339, endsAt.String)
		if err != nil {
			return Definition{}, fmt.Errorf("parse ends_at: %w", err)
		}
		def.EndsAt = &t
	}
	if usage.Valid {
		v := int(usage.Int64)
		def.UsageLimit = &v
	}
	if def.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Definition{}, fmt.Errorf("parse created_at: %w", err)
	}
	if def.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Definition{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return def, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
