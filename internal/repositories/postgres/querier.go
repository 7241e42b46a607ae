package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx runs fn inside a transaction, committing on success and rolling back on error
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// sortedKeys returns the keys of data in lexical order so generated SQL is deterministic
func sortedKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildInsert builds an INSERT statement for data
func buildInsert(table string, data map[string]interface{}) (string, []interface{}) {
	keys := sortedKeys(data)
	cols := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		cols[i] = pq.QuoteIdentifier(k)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = data[k]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pq.QuoteIdentifier(table),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}

// buildUpdate builds an UPDATE statement for data restricted by whereField = whereValue.
// whereField itself is never part of the SET list.
func buildUpdate(table string, data map[string]interface{}, whereField string, whereValue interface{}) (string, []interface{}) {
	keys := sortedKeys(data)
	sets := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		if k == whereField {
			continue
		}
		args = append(args, data[k])
		sets = append(sets, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(k), len(args)))
	}
	if len(sets) == 0 {
		return "", nil
	}

	args = append(args, whereValue)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		pq.QuoteIdentifier(table),
		strings.Join(sets, ", "),
		pq.QuoteIdentifier(whereField),
		len(args),
	)
	return query, args
}
