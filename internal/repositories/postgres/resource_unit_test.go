package postgres

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/pkg/cache/memorycache"
)

func TestBuildInsert(t *testing.T) {
	query, args := buildInsert("alekseon_custom_form_attribute", map[string]interface{}{
		"is_searchable": true,
		"attribute_id":  int64(7),
		"group_code":    "general",
	})

	want := `INSERT INTO "alekseon_custom_form_attribute" ("attribute_id", "group_code", "is_searchable") VALUES ($1, $2, $3)`
	if query != want {
		t.Errorf("buildInsert() query = %s, want %s", query, want)
	}
	if !reflect.DeepEqual(args, []interface{}{int64(7), "general", true}) {
		t.Errorf("buildInsert() args = %v", args)
	}
}

func TestBuildUpdate(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]interface{}
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name: "updates non-key columns",
			data: map[string]interface{}{
				"attribute_id": int64(7),
				"group_code":   "contact",
			},
			wantQuery: `UPDATE "t" SET "group_code" = $1 WHERE "attribute_id" = $2`,
			wantArgs:  []interface{}{"contact", int64(7)},
		},
		{
			name:      "nothing to update",
			data:      map[string]interface{}{"attribute_id": int64(7)},
			wantQuery: "",
			wantArgs:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildUpdate("t", tt.data, "attribute_id", int64(7))
			if query != tt.wantQuery {
				t.Errorf("buildUpdate() query = %s, want %s", query, tt.wantQuery)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("buildUpdate() args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildInsert_QuotesIdentifiers(t *testing.T) {
	query, _ := buildInsert(`bad"table`, map[string]interface{}{`col"x`: 1})
	if !strings.Contains(query, `"bad""table"`) || !strings.Contains(query, `"col""x"`) {
		t.Errorf("identifiers not quoted: %s", query)
	}
}

func TestPrepareAdditionalData(t *testing.T) {
	attr := &entities.Attribute{
		ID: 42,
		Additional: map[string]interface{}{
			"id":           1,
			"attribute_id": 99,
			"group_code":   "general",
			"not_a_column": "x",
		},
	}
	columns := []string{"id", "attribute_id", "group_code", "is_searchable"}

	got := prepareAdditionalData(columns, "id", "attribute_id", attr)
	want := map[string]interface{}{
		"attribute_id": int64(42),
		"group_code":   "general",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("prepareAdditionalData() = %v, want %v", got, want)
	}
}

func TestMergeAdditionalData(t *testing.T) {
	attr := &entities.Attribute{ID: 3}
	mergeAdditionalData(attr, map[string]interface{}{
		"id":            10,
		"attribute_id":  3,
		"group_code":    "general",
		"is_searchable": false,
	}, "id", "attribute_id")

	want := map[string]interface{}{"group_code": "general", "is_searchable": false}
	if !reflect.DeepEqual(attr.Additional, want) {
		t.Errorf("mergeAdditionalData() = %v, want %v", attr.Additional, want)
	}
}

func TestNormalizeValue(t *testing.T) {
	if got := normalizeValue([]byte("abc")); got != "abc" {
		t.Errorf("normalizeValue([]byte) = %v", got)
	}
	if got := normalizeValue(int64(5)); got != int64(5) {
		t.Errorf("normalizeValue(int64) = %v", got)
	}
}

func TestLoadSelect(t *testing.T) {
	repo := NewPostgresAttributeRepository(nil, nil, ResourceConfig{EntityTypeCode: "form_record"}, nil)

	query, err := repo.loadSelect("attribute_code")
	if err != nil {
		t.Fatalf("loadSelect() error = %v", err)
	}
	if !strings.Contains(query, `"alekseon_eav_attribute"."attribute_code" = $1`) {
		t.Errorf("loadSelect() missing field condition: %s", query)
	}
	if !strings.Contains(query, "entity_type_code = $2") {
		t.Errorf("loadSelect() missing entity type condition: %s", query)
	}

	if _, err := repo.loadSelect("entity_type_code"); err == nil {
		t.Error("loadSelect() should reject entity_type_code")
	}
	if _, err := repo.loadSelect("1=1 OR id"); err == nil {
		t.Error("loadSelect() should reject unknown fields")
	}
}

func TestBeforeSave(t *testing.T) {
	repo := NewPostgresAttributeRepository(nil, nil, ResourceConfig{EntityTypeCode: "form_record"}, nil)

	tests := []struct {
		name            string
		attr            *entities.Attribute
		wantInput       string
		wantBackend     string
		wantUserDefined *bool
		wantErr         bool
	}{
		{
			name:            "new attribute gets defaults",
			attr:            &entities.Attribute{AttributeCode: "a"},
			wantInput:       entities.InputTypeText,
			wantBackend:     entities.BackendTypeVarchar,
			wantUserDefined: entities.Bool(true),
		},
		{
			name:            "backend follows input type",
			attr:            &entities.Attribute{AttributeCode: "a", FrontendInput: entities.InputTypeSelect},
			wantInput:       entities.InputTypeSelect,
			wantBackend:     entities.BackendTypeInt,
			wantUserDefined: entities.Bool(true),
		},
		{
			name:            "explicit values are kept",
			attr:            &entities.Attribute{AttributeCode: "a", FrontendInput: entities.InputTypeDate, BackendType: entities.BackendTypeVarchar, IsUserDefined: entities.Bool(false)},
			wantInput:       entities.InputTypeDate,
			wantBackend:     entities.BackendTypeVarchar,
			wantUserDefined: entities.Bool(false),
		},
		{
			name:            "existing attribute is not defaulted",
			attr:            &entities.Attribute{ID: 5, AttributeCode: "a"},
			wantInput:       "",
			wantBackend:     "",
			wantUserDefined: nil,
		},
		{
			name:    "unknown input type",
			attr:    &entities.Attribute{AttributeCode: "a", FrontendInput: "slider"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.beforeSave(tt.attr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("beforeSave() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.attr.EntityTypeCode != "form_record" {
				t.Errorf("EntityTypeCode = %q, want form_record", tt.attr.EntityTypeCode)
			}
			if tt.wantErr {
				return
			}
			if tt.attr.FrontendInput != tt.wantInput {
				t.Errorf("FrontendInput = %q, want %q", tt.attr.FrontendInput, tt.wantInput)
			}
			if tt.attr.BackendType != tt.wantBackend {
				t.Errorf("BackendType = %q, want %q", tt.attr.BackendType, tt.wantBackend)
			}
			if !reflect.DeepEqual(tt.attr.IsUserDefined, tt.wantUserDefined) {
				t.Errorf("IsUserDefined = %v, want %v", tt.attr.IsUserDefined, tt.wantUserDefined)
			}
		})
	}
}

func TestResourceAccessors(t *testing.T) {
	plain := NewPostgresAttributeRepository(nil, nil, ResourceConfig{EntityTypeCode: "form_record"}, nil)
	if _, ok := plain.AdditionalTable(); ok {
		t.Error("expected no additional table")
	}
	if plain.BackendTablePrefix() != DefaultBackendTablePrefix {
		t.Errorf("BackendTablePrefix() = %s", plain.BackendTablePrefix())
	}
	if plain.AdditionalTableIDFieldName() != "id" || plain.AdditionalTableAttributeIDFieldName() != "attribute_id" {
		t.Error("unexpected default additional table field names")
	}
	if plain.MainTable() != AttributeTable || plain.OptionTable() != AttributeOptionTable || plain.OptionValueTable() != AttributeOptionValueTable {
		t.Error("unexpected table names")
	}

	custom := NewPostgresAttributeRepository(nil, nil, ResourceConfig{
		EntityTypeCode:                  "form_record",
		BackendTablePrefix:              "form_entity",
		AdditionalTable:                 "form_attribute",
		AdditionalTableIDField:          "entity_id",
		AdditionalTableAttributeIDField: "eav_attribute_id",
	}, nil)
	if table, ok := custom.AdditionalTable(); !ok || table != "form_attribute" {
		t.Errorf("AdditionalTable() = %s, %v", table, ok)
	}
	if custom.BackendTablePrefix() != "form_entity" {
		t.Errorf("BackendTablePrefix() = %s", custom.BackendTablePrefix())
	}
	if custom.AdditionalTableIDFieldName() != "entity_id" || custom.AdditionalTableAttributeIDFieldName() != "eav_attribute_id" {
		t.Error("unexpected custom field names")
	}
}

func TestFilterStores(t *testing.T) {
	stores := []*entities.Store{{ID: 0, Code: "admin"}, {ID: 1, Code: "default"}, {ID: 2, Code: "de"}}

	if got := filterStores(stores, true); len(got) != 3 {
		t.Errorf("filterStores(withDefault) len = %d, want 3", len(got))
	}
	got := filterStores(stores, false)
	if len(got) != 2 || got[0].ID != 1 {
		t.Errorf("filterStores(without default) = %v", got)
	}
	if len(stores) != 3 {
		t.Error("filterStores must not modify its input")
	}
}

func TestColumnCacheInvalidator(t *testing.T) {
	ctx := context.Background()
	c := memorycache.New(&memorycache.Config{MaxItems: 8, DefaultTTL: time.Minute})
	_ = c.Set(ctx, ColumnCacheKeyPrefix+"alekseon_custom_form_attribute", []string{"id"}, 0)
	_ = c.Set(ctx, "stores:active", "kept", 0)

	if err := (ColumnCacheInvalidator{Cache: c}).Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok := c.Get(ctx, ColumnCacheKeyPrefix+"alekseon_custom_form_attribute"); ok {
		t.Error("expected cached columns to be removed")
	}
	if _, ok := c.Get(ctx, "stores:active"); !ok {
		t.Error("expected unrelated keys to survive")
	}

	if err := (ColumnCacheInvalidator{}).Invalidate(ctx); err != nil {
		t.Errorf("Invalidate() without cache error = %v", err)
	}
}
