package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores every collection in one jsonb table for self-hosted
// deployments. The unique index on orders (userId, menuDate) makes the
// lookup-then-create race fail deterministically with ErrConflict
// instead of producing a duplicate.
//
// Filters compare jsonb attributes as text, which is exact for the
// string, date, and boolean attributes this client queries.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) List(ctx context.Context, collection string, queries ...Query) (*DocumentList, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, created_at, updated_at, data, count(*) OVER() FROM documents WHERE collection = $1`)
	args := []any{collection}

	var orderBy []string
	limit := DefaultPageSize

	for _, q := range queries {
		switch q.Op {
		case OpEqual:
			texts := make([]string, 0, len(q.Values))
			for _, v := range q.Values {
				texts = append(texts, valueText(v))
			}
			args = append(args, q.Attribute)
			attr := fmt.Sprintf("data->>$%d", len(args))
			args = append(args, texts)
			fmt.Fprintf(&b, " AND %s = ANY($%d)", attr, len(args))
		case OpGreaterEqual:
			if len(q.Values) == 0 {
				return nil, fmt.Errorf("greaterEqual on %q needs a value", q.Attribute)
			}
			args = append(args, q.Attribute)
			attr := fmt.Sprintf("data->>$%d", len(args))
			args = append(args, valueText(q.Values[0]))
			fmt.Fprintf(&b, " AND %s >= $%d", attr, len(args))
		case OpOrderAsc, OpOrderDesc:
			dir := "ASC"
			if q.Op == OpOrderDesc {
				dir = "DESC"
			}
			switch q.Attribute {
			case AttrCreatedAt:
				orderBy = append(orderBy, "created_at "+dir)
			case AttrUpdatedAt:
				orderBy = append(orderBy, "updated_at "+dir)
			default:
				args = append(args, q.Attribute)
				orderBy = append(orderBy, fmt.Sprintf("data->>$%d %s", len(args), dir))
			}
		case OpLimit:
			if q.Count > 0 {
				limit = q.Count
			}
		}
	}

	if len(orderBy) > 0 {
		b.WriteString(" ORDER BY " + strings.Join(orderBy, ", "))
	} else {
		b.WriteString(" ORDER BY created_at ASC")
	}
	args = append(args, limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	rows, err := p.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	list := &DocumentList{}
	for rows.Next() {
		var (
			doc   Document
			data  []byte
			total int
		)
		if err := rows.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt, &data, &total); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(data, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		list.Total = total
		list.Documents = append(list.Documents, doc)
	}
	return list, rows.Err()
}

func (p *Postgres) Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if id == "" {
		id = NewID()
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}

	doc := Document{ID: id, Data: data}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3::jsonb)
		RETURNING created_at, updated_at`,
		collection, id, string(encoded),
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%s: %w", pgErr.Message, ErrConflict)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &doc, nil
}

func (p *Postgres) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document data: %w", err)
	}

	doc := Document{ID: id}
	var merged []byte
	err = p.pool.QueryRow(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING created_at, updated_at, data`,
		collection, id, string(encoded),
	).Scan(&doc.CreatedAt, &doc.UpdatedAt, &merged)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%s: %w", pgErr.Message, ErrConflict)
		}
		return nil, fmt.Errorf("update document: %w", err)
	}
	if err := json.Unmarshal(merged, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return &doc, nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	ct, err := p.pool.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// valueText renders a filter value the way jsonb ->> renders the
// stored attribute.
func valueText(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case int:
		return strconv.Itoa(tv)
	case int64:
		return strconv.FormatInt(tv, 10)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case time.Time:
		return tv.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%v", v)
}
