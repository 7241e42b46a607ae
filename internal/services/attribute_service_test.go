package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAttributeRepository struct {
	entityType string
	saved      []*entities.Attribute
	deleted    []int64
	attrs      map[int64]*entities.Attribute
	options    map[int64][]*entities.AttributeOption
	saveErr    error
}

func newMockAttributeRepository(entityType string) *mockAttributeRepository {
	return &mockAttributeRepository{
		entityType: entityType,
		attrs:      make(map[int64]*entities.Attribute),
		options:    make(map[int64][]*entities.AttributeOption),
	}
}

func (m *mockAttributeRepository) EntityTypeCode() string { return m.entityType }

func (m *mockAttributeRepository) Save(ctx context.Context, attr *entities.Attribute) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if attr.IsNew() {
		attr.ID = int64(len(m.attrs) + 1)
	}
	attr.EntityTypeCode = m.entityType
	m.attrs[attr.ID] = attr
	m.saved = append(m.saved, attr)
	return nil
}

func (m *mockAttributeRepository) Load(ctx context.Context, id int64) (*entities.Attribute, error) {
	attr, ok := m.attrs[id]
	if !ok {
		return nil, repositories.ErrAttributeNotFound
	}
	return attr, nil
}

func (m *mockAttributeRepository) LoadBy(ctx context.Context, field string, value interface{}) (*entities.Attribute, error) {
	for _, attr := range m.attrs {
		if field == "attribute_code" && attr.AttributeCode == value {
			return attr, nil
		}
	}
	return nil, repositories.ErrAttributeNotFound
}

func (m *mockAttributeRepository) Delete(ctx context.Context, id int64) error {
	delete(m.attrs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockAttributeRepository) OptionValues(ctx context.Context, attributeID int64) ([]*entities.AttributeOption, error) {
	return m.options[attributeID], nil
}

func TestNewAttributeService(t *testing.T) {
	t.Run("正常系: 複数のエンティティタイプを登録", func(t *testing.T) {
		svc, err := NewAttributeService(newMockAttributeRepository("form_record"), newMockAttributeRepository("customer"))
		require.NoError(t, err)
		assert.Equal(t, []string{"customer", "form_record"}, svc.EntityTypes())
	})

	t.Run("異常系: 重複したエンティティタイプ", func(t *testing.T) {
		_, err := NewAttributeService(newMockAttributeRepository("form_record"), newMockAttributeRepository("form_record"))
		assert.Error(t, err)
	})

	t.Run("異常系: エンティティタイプなし", func(t *testing.T) {
		_, err := NewAttributeService(newMockAttributeRepository(""))
		assert.Error(t, err)
	})
}

func TestAttributeService_SaveAttribute(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 属性を保存", func(t *testing.T) {
		repo := newMockAttributeRepository("form_record")
		svc, err := NewAttributeService(repo)
		require.NoError(t, err)

		attr := &entities.Attribute{AttributeCode: "color", FrontendInput: entities.InputTypeSelect}
		require.NoError(t, svc.SaveAttribute(ctx, "form_record", attr))
		assert.Equal(t, int64(1), attr.ID)
		assert.Len(t, repo.saved, 1)
	})

	t.Run("異常系: 不正な属性コードは保存しない", func(t *testing.T) {
		repo := newMockAttributeRepository("form_record")
		svc, _ := NewAttributeService(repo)

		err := svc.SaveAttribute(ctx, "form_record", &entities.Attribute{AttributeCode: "Bad Code"})
		assert.ErrorIs(t, err, ErrInvalidAttribute)
		assert.Empty(t, repo.saved)
	})

	t.Run("異常系: 不明な入力タイプ", func(t *testing.T) {
		svc, _ := NewAttributeService(newMockAttributeRepository("form_record"))
		err := svc.SaveAttribute(ctx, "form_record", &entities.Attribute{AttributeCode: "color", FrontendInput: "slider"})
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})

	t.Run("異常系: 不明なエンティティタイプ", func(t *testing.T) {
		svc, _ := NewAttributeService(newMockAttributeRepository("form_record"))
		err := svc.SaveAttribute(ctx, "customer", &entities.Attribute{AttributeCode: "color"})
		assert.ErrorIs(t, err, ErrUnknownEntityType)
	})

	t.Run("異常系: nilの属性", func(t *testing.T) {
		svc, _ := NewAttributeService(newMockAttributeRepository("form_record"))
		assert.ErrorIs(t, svc.SaveAttribute(ctx, "form_record", nil), ErrInvalidAttribute)
	})

	t.Run("異常系: リポジトリのエラーをラップ", func(t *testing.T) {
		repo := newMockAttributeRepository("form_record")
		repo.saveErr = errors.New("connection refused")
		svc, _ := NewAttributeService(repo)

		err := svc.SaveAttribute(ctx, "form_record", &entities.Attribute{AttributeCode: "color"})
		require.Error(t, err)
		assert.ErrorIs(t, err, repo.saveErr)
		assert.NotErrorIs(t, err, ErrInvalidAttribute)
	})
}

func TestAttributeService_Get(t *testing.T) {
	ctx := context.Background()
	repo := newMockAttributeRepository("form_record")
	svc, _ := NewAttributeService(repo)
	require.NoError(t, svc.SaveAttribute(ctx, "form_record", &entities.Attribute{AttributeCode: "color"}))

	t.Run("正常系: IDで取得", func(t *testing.T) {
		attr, err := svc.GetAttribute(ctx, "form_record", 1)
		require.NoError(t, err)
		assert.Equal(t, "color", attr.AttributeCode)
	})

	t.Run("正常系: コードで取得", func(t *testing.T) {
		attr, err := svc.GetAttributeByCode(ctx, "form_record", "color")
		require.NoError(t, err)
		assert.Equal(t, int64(1), attr.ID)
	})

	t.Run("異常系: 存在しない属性", func(t *testing.T) {
		_, err := svc.GetAttribute(ctx, "form_record", 99)
		assert.ErrorIs(t, err, repositories.ErrAttributeNotFound)
	})

	t.Run("異常系: 不正なID", func(t *testing.T) {
		_, err := svc.GetAttribute(ctx, "form_record", 0)
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})

	t.Run("異常系: 空のコード", func(t *testing.T) {
		_, err := svc.GetAttributeByCode(ctx, "form_record", "")
		assert.ErrorIs(t, err, ErrInvalidAttribute)
	})
}

func TestAttributeService_DeleteAttribute(t *testing.T) {
	ctx := context.Background()
	repo := newMockAttributeRepository("form_record")
	svc, _ := NewAttributeService(repo)

	require.NoError(t, svc.DeleteAttribute(ctx, "form_record", 5))
	assert.Equal(t, []int64{5}, repo.deleted)

	assert.ErrorIs(t, svc.DeleteAttribute(ctx, "form_record", -1), ErrInvalidAttribute)
	assert.ErrorIs(t, svc.DeleteAttribute(ctx, "customer", 5), ErrUnknownEntityType)
}

func TestAttributeService_ListOptions(t *testing.T) {
	ctx := context.Background()
	repo := newMockAttributeRepository("form_record")
	svc, _ := NewAttributeService(repo)
	require.NoError(t, svc.SaveAttribute(ctx, "form_record", &entities.Attribute{AttributeCode: "color", FrontendInput: entities.InputTypeSelect}))
	repo.options[1] = []*entities.AttributeOption{
		{OptionID: 10, AttributeID: 1, SortOrder: 0, Label: "Red"},
		{OptionID: 11, AttributeID: 1, SortOrder: 1, Label: "Blue"},
	}

	t.Run("正常系: オプション一覧", func(t *testing.T) {
		options, err := svc.ListOptions(ctx, "form_record", 1)
		require.NoError(t, err)
		require.Len(t, options, 2)
		assert.Equal(t, "Red", options[0].Label)
	})

	t.Run("異常系: 存在しない属性", func(t *testing.T) {
		_, err := svc.ListOptions(ctx, "form_record", 2)
		assert.ErrorIs(t, err, repositories.ErrAttributeNotFound)
	})
}
