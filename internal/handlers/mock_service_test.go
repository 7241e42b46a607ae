package handlers

import (
	"context"

	"github.com/alekseon/eav/internal/entities"
)

// mockAttributeService implements services.AttributeServiceInterface for tests.
// Unset functions return zero values.
type mockAttributeService struct {
	entityTypes            []string
	getAttributeFunc       func(ctx context.Context, entityType string, id int64) (*entities.Attribute, error)
	getAttributeByCodeFunc func(ctx context.Context, entityType string, code string) (*entities.Attribute, error)
	saveAttributeFunc      func(ctx context.Context, entityType string, attr *entities.Attribute) error
	deleteAttributeFunc    func(ctx context.Context, entityType string, id int64) error
	listOptionsFunc        func(ctx context.Context, entityType string, attributeID int64) ([]*entities.AttributeOption, error)
}

func (m *mockAttributeService) EntityTypes() []string {
	return m.entityTypes
}

func (m *mockAttributeService) GetAttribute(ctx context.Context, entityType string, id int64) (*entities.Attribute, error) {
	if m.getAttributeFunc != nil {
		return m.getAttributeFunc(ctx, entityType, id)
	}
	return &entities.Attribute{ID: id, EntityTypeCode: entityType}, nil
}

func (m *mockAttributeService) GetAttributeByCode(ctx context.Context, entityType string, code string) (*entities.Attribute, error) {
	if m.getAttributeByCodeFunc != nil {
		return m.getAttributeByCodeFunc(ctx, entityType, code)
	}
	return &entities.Attribute{ID: 1, EntityTypeCode: entityType, AttributeCode: code}, nil
}

func (m *mockAttributeService) SaveAttribute(ctx context.Context, entityType string, attr *entities.Attribute) error {
	if m.saveAttributeFunc != nil {
		return m.saveAttributeFunc(ctx, entityType, attr)
	}
	return nil
}

func (m *mockAttributeService) DeleteAttribute(ctx context.Context, entityType string, id int64) error {
	if m.deleteAttributeFunc != nil {
		return m.deleteAttributeFunc(ctx, entityType, id)
	}
	return nil
}

func (m *mockAttributeService) ListOptions(ctx context.Context, entityType string, attributeID int64) ([]*entities.AttributeOption, error) {
	if m.listOptionsFunc != nil {
		return m.listOptionsFunc(ctx, entityType, attributeID)
	}
	return nil, nil
}
