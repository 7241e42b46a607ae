package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/repositories"
)

// ErrUnknownEntityType is returned when no repository serves the requested entity type
var ErrUnknownEntityType = errors.New("unknown entity type")

// ErrInvalidAttribute wraps validation failures of a request
var ErrInvalidAttribute = errors.New("invalid attribute")

// AttributeServiceInterface defines the interface for attribute management operations
type AttributeServiceInterface interface {
	EntityTypes() []string
	GetAttribute(ctx context.Context, entityType string, id int64) (*entities.Attribute, error)
	GetAttributeByCode(ctx context.Context, entityType string, code string) (*entities.Attribute, error)
	SaveAttribute(ctx context.Context, entityType string, attr *entities.Attribute) error
	DeleteAttribute(ctx context.Context, entityType string, id int64) error
	ListOptions(ctx context.Context, entityType string, attributeID int64) ([]*entities.AttributeOption, error)
}

// AttributeService dispatches attribute operations to the repository of each entity type
type AttributeService struct {
	repos map[string]repositories.AttributeRepository
}

// NewAttributeService creates a new AttributeService.
// Each repository is registered under its own entity type code.
func NewAttributeService(repos ...repositories.AttributeRepository) (*AttributeService, error) {
	s := &AttributeService{repos: make(map[string]repositories.AttributeRepository, len(repos))}
	for _, repo := range repos {
		code := repo.EntityTypeCode()
		if code == "" {
			return nil, fmt.Errorf("repository has no entity type code")
		}
		if _, exists := s.repos[code]; exists {
			return nil, fmt.Errorf("duplicate repository for entity type %q", code)
		}
		s.repos[code] = repo
	}
	return s, nil
}

var _ AttributeServiceInterface = (*AttributeService)(nil)

// EntityTypes returns the served entity type codes in sorted order
func (s *AttributeService) EntityTypes() []string {
	codes := make([]string, 0, len(s.repos))
	for code := range s.repos {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetAttribute retrieves an attribute by ID
func (s *AttributeService) GetAttribute(ctx context.Context, entityType string, id int64) (*entities.Attribute, error) {
	repo, err := s.repository(entityType)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: attribute ID must be positive", ErrInvalidAttribute)
	}
	return repo.Load(ctx, id)
}

// GetAttributeByCode retrieves an attribute by its attribute code
func (s *AttributeService) GetAttributeByCode(ctx context.Context, entityType string, code string) (*entities.Attribute, error) {
	repo, err := s.repository(entityType)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: attribute code is required", ErrInvalidAttribute)
	}
	return repo.LoadBy(ctx, "attribute_code", code)
}

// SaveAttribute validates and saves an attribute, its additional data and options
func (s *AttributeService) SaveAttribute(ctx context.Context, entityType string, attr *entities.Attribute) error {
	repo, err := s.repository(entityType)
	if err != nil {
		return err
	}
	if attr == nil {
		return fmt.Errorf("%w: attribute is required", ErrInvalidAttribute)
	}
	if err := attr.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
	}

	if err := repo.Save(ctx, attr); err != nil {
		return fmt.Errorf("failed to save attribute %s: %w", attr.AttributeCode, err)
	}
	return nil
}

// DeleteAttribute removes an attribute; deleting a missing attribute is not an error
func (s *AttributeService) DeleteAttribute(ctx context.Context, entityType string, id int64) error {
	repo, err := s.repository(entityType)
	if err != nil {
		return err
	}
	if id <= 0 {
		return fmt.Errorf("%w: attribute ID must be positive", ErrInvalidAttribute)
	}
	return repo.Delete(ctx, id)
}

// ListOptions returns the options of an attribute with their store labels.
// The attribute must exist in the requested entity type.
func (s *AttributeService) ListOptions(ctx context.Context, entityType string, attributeID int64) ([]*entities.AttributeOption, error) {
	repo, err := s.repository(entityType)
	if err != nil {
		return nil, err
	}
	if _, err := repo.Load(ctx, attributeID); err != nil {
		return nil, err
	}
	return repo.OptionValues(ctx, attributeID)
}

func (s *AttributeService) repository(entityType string) (repositories.AttributeRepository, error) {
	repo, ok := s.repos[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, entityType)
	}
	return repo, nil
}
