package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/pkg/cache"
	"github.com/lib/pq"
)

const columnCacheTTL = 10 * time.Minute

// ColumnCacheKeyPrefix prefixes cached table descriptions
const ColumnCacheKeyPrefix = "columns:"

// ColumnCacheInvalidator drops every cached table description
type ColumnCacheInvalidator struct {
	Cache cache.Cache
}

// Invalidate removes all keys under ColumnCacheKeyPrefix
func (c ColumnCacheInvalidator) Invalidate(ctx context.Context) error {
	if c.Cache == nil {
		return nil
	}
	return c.Cache.DeletePrefix(ctx, ColumnCacheKeyPrefix)
}

// tableColumns returns the column names of table in ordinal order
func (r *PostgresAttributeRepository) tableColumns(ctx context.Context, q querier, table string) ([]string, error) {
	key := ColumnCacheKeyPrefix + table
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, key); ok {
			return cached.([]string), nil
		}
	}

	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}

	if r.cache != nil {
		_ = r.cache.Set(ctx, key, columns, columnCacheTTL)
	}
	return columns, nil
}

// prepareAdditionalData keeps the attribute's additional values that map to real columns,
// drops the table's own ID and sets the attribute reference
func prepareAdditionalData(columns []string, idField, attributeIDField string, attr *entities.Attribute) map[string]interface{} {
	data := make(map[string]interface{})
	for _, col := range columns {
		if col == idField || col == attributeIDField {
			continue
		}
		if v, ok := attr.Additional[col]; ok {
			data[col] = v
		}
	}
	data[attributeIDField] = attr.ID
	return data
}

// saveAdditionalData updates the additional row of attr, inserting it when missing
func (r *PostgresAttributeRepository) saveAdditionalData(ctx context.Context, q querier, attr *entities.Attribute) error {
	table, _ := r.AdditionalTable()
	attrField := r.cfg.AdditionalTableAttributeIDField

	columns, err := r.tableColumns(ctx, q, table)
	if err != nil {
		return err
	}
	data := prepareAdditionalData(columns, r.cfg.AdditionalTableIDField, attrField, attr)

	var exists bool
	existsQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(attrField))
	if err := q.QueryRowContext(ctx, existsQuery, attr.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check additional attribute data: %w", err)
	}

	if exists {
		query, args := buildUpdate(table, data, attrField, attr.ID)
		if query == "" {
			return nil
		}
		if _, err := q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to update additional attribute data: %w", err)
		}
		return nil
	}

	query, args := buildInsert(table, data)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert additional attribute data: %w", err)
	}
	return nil
}

// loadAdditionalData merges the non-key columns of the additional row into attr.Additional
func (r *PostgresAttributeRepository) loadAdditionalData(ctx context.Context, q querier, attr *entities.Attribute) error {
	table, _ := r.AdditionalTable()
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(r.cfg.AdditionalTableAttributeIDField))

	rows, err := q.QueryContext(ctx, query, attr.ID)
	if err != nil {
		return fmt.Errorf("failed to load additional attribute data: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return rows.Err()
	}

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read additional attribute columns: %w", err)
	}
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("failed to scan additional attribute data: %w", err)
	}

	row := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		row[col] = normalizeValue(values[i])
	}
	mergeAdditionalData(attr, row, r.cfg.AdditionalTableIDField, r.cfg.AdditionalTableAttributeIDField)

	return rows.Err()
}

// mergeAdditionalData copies row into attr.Additional, skipping key columns
func mergeAdditionalData(attr *entities.Attribute, row map[string]interface{}, idField, attributeIDField string) {
	if attr.Additional == nil {
		attr.Additional = make(map[string]interface{}, len(row))
	}
	for col, v := range row {
		if col == idField || col == attributeIDField {
			continue
		}
		attr.Additional[col] = v
	}
}

// normalizeValue converts driver byte slices to strings so additional data is comparable
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
