package postgres

import (
	"context"
	"fmt"

	"github.com/alekseon/eav/internal/entities"
	"github.com/lib/pq"
)

// processAttributeOptions applies the submitted options of attr.
// A missing submission or one without values is ignored.
func (r *PostgresAttributeRepository) processAttributeOptions(ctx context.Context, q querier, attr *entities.Attribute) error {
	submission := attr.Option
	if submission == nil || submission.Value == nil {
		return nil
	}

	keys := submission.Keys()
	if len(keys) == 0 {
		return nil
	}

	stores, err := r.stores.GetStores(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list stores: %w", err)
	}

	for _, key := range keys {
		optionID, err := r.updateAttributeOption(ctx, q, attr.ID, key, submission)
		if err != nil {
			return err
		}
		if optionID == 0 {
			continue
		}
		if err := r.updateAttributeOptionValues(ctx, q, optionID, submission.Value[key], stores); err != nil {
			return err
		}
	}
	return nil
}

// updateAttributeOption deletes, inserts or re-sorts the option submitted under key.
// It returns the option ID whose labels must be rewritten, or 0 when there is none.
func (r *PostgresAttributeRepository) updateAttributeOption(ctx context.Context, q querier, attributeID int64, key string, submission *entities.OptionSubmission) (int64, error) {
	optionID, existing := entities.ParseOptionKey(key)
	sortOrder := submission.SortOrderOf(key)

	if submission.IsDeleted(key) {
		if existing {
			query := `DELETE FROM alekseon_eav_attribute_option WHERE option_id = $1 AND attribute_id = $2`
			if _, err := q.ExecContext(ctx, query, optionID, attributeID); err != nil {
				return 0, fmt.Errorf("failed to delete option %d: %w", optionID, err)
			}
		}
		return 0, nil
	}

	if !existing {
		query := `
			INSERT INTO alekseon_eav_attribute_option (attribute_id, sort_order)
			VALUES ($1, $2)
			RETURNING option_id
		`
		if err := q.QueryRowContext(ctx, query, attributeID, sortOrder).Scan(&optionID); err != nil {
			return 0, fmt.Errorf("failed to insert option: %w", err)
		}
		return optionID, nil
	}

	query := `UPDATE alekseon_eav_attribute_option SET sort_order = $1 WHERE option_id = $2 AND attribute_id = $3`
	result, err := q.ExecContext(ctx, query, sortOrder, optionID, attributeID)
	if err != nil {
		return 0, fmt.Errorf("failed to update option %d: %w", optionID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		// option belongs to another attribute or no longer exists
		return 0, nil
	}
	return optionID, nil
}

// updateAttributeOptionValues replaces all store labels of an option
func (r *PostgresAttributeRepository) updateAttributeOptionValues(ctx context.Context, q querier, optionID int64, labels map[int64]string, stores []*entities.Store) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM alekseon_eav_attribute_option_value WHERE option_id = $1`, optionID); err != nil {
		return fmt.Errorf("failed to clear labels of option %d: %w", optionID, err)
	}

	query := `
		INSERT INTO alekseon_eav_attribute_option_value (option_id, store_id, value)
		VALUES ($1, $2, $3)
	`
	for _, store := range stores {
		value, ok := entities.StoreLabelAllowed(labels, store.ID)
		if !ok {
			continue
		}
		if _, err := q.ExecContext(ctx, query, optionID, store.ID, value); err != nil {
			return fmt.Errorf("failed to insert label of option %d for store %d: %w", optionID, store.ID, err)
		}
	}
	return nil
}

// OptionValues retrieves the options of an attribute ordered by sort order, with their store labels
func (r *PostgresAttributeRepository) OptionValues(ctx context.Context, attributeID int64) ([]*entities.AttributeOption, error) {
	optionsQuery := `
		SELECT option_id, attribute_id, sort_order
		FROM alekseon_eav_attribute_option
		WHERE attribute_id = $1
		ORDER BY sort_order ASC, option_id ASC
	`
	rows, err := r.db.QueryContext(ctx, optionsQuery, attributeID)
	if err != nil {
		return nil, fmt.Errorf("failed to read options: %w", err)
	}
	defer rows.Close()

	options := []*entities.AttributeOption{}
	byID := make(map[int64]*entities.AttributeOption)
	optionIDs := []int64{}
	for rows.Next() {
		opt := &entities.AttributeOption{StoreLabels: map[int64]string{}}
		if err := rows.Scan(&opt.OptionID, &opt.AttributeID, &opt.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, opt)
		byID[opt.OptionID] = opt
		optionIDs = append(optionIDs, opt.OptionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", err)
	}
	if len(options) == 0 {
		return options, nil
	}

	valuesQuery := `
		SELECT option_id, store_id, value
		FROM alekseon_eav_attribute_option_value
		WHERE option_id = ANY($1)
	`
	valueRows, err := r.db.QueryContext(ctx, valuesQuery, pq.Array(optionIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to read option values: %w", err)
	}
	defer valueRows.Close()

	for valueRows.Next() {
		var optionID, storeID int64
		var value string
		if err := valueRows.Scan(&optionID, &storeID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan option value: %w", err)
		}
		if opt, ok := byID[optionID]; ok {
			opt.SetStoreLabel(storeID, value)
		}
	}
	if err := valueRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating option values: %w", err)
	}

	return options, nil
}
