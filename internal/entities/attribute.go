package entities

import (
	"fmt"
	"strings"
)

// Attribute represents an attribute definition stored in the shared attribute table
// Example: customer_form attribute "color" rendered as a select with options
type Attribute struct {
	ID             int64  // Attribute ID (0 until first save)
	EntityTypeCode string // Entity type the attribute belongs to (e.g., "alekseon_custom_form_record")
	AttributeCode  string // Attribute code, unique per entity type (e.g., "color")
	FrontendLabel  string
	FrontendInput  string // Input type code (e.g., "text", "select")
	BackendType    string // Storage type of values (e.g., "varchar", "int")
	IsUserDefined  *bool  // nil means not set yet
	IsRequired     bool
	SortOrder      int
	DefaultValue   string
	Note           string

	// Additional holds entity-type-specific columns of the additional attribute table
	Additional map[string]interface{}

	// Option holds submitted option changes; only read on save
	Option *OptionSubmission
}

// IsNew reports whether the attribute has not been persisted yet
func (a *Attribute) IsNew() bool {
	return a.ID == 0
}

// InputTypeModel returns the input type definition of the attribute
func (a *Attribute) InputTypeModel() (InputType, error) {
	return LookupInputType(a.FrontendInput)
}

// UserDefined returns the is_user_defined flag, false when unset
func (a *Attribute) UserDefined() bool {
	return a.IsUserDefined != nil && *a.IsUserDefined
}

// String returns a string representation of the attribute
// Format: entity_type_code.attribute_code (frontend_input)
func (a *Attribute) String() string {
	return fmt.Sprintf("%s.%s (%s)", a.EntityTypeCode, a.AttributeCode, a.FrontendInput)
}

// Validate checks if the attribute is valid for saving
func (a *Attribute) Validate() error {
	if strings.TrimSpace(a.AttributeCode) == "" {
		return fmt.Errorf("attribute code is required")
	}
	if !isIdentifier(a.AttributeCode) {
		return fmt.Errorf("attribute code %q must contain only lowercase letters, digits and underscores", a.AttributeCode)
	}
	if a.FrontendInput != "" {
		if _, err := LookupInputType(a.FrontendInput); err != nil {
			return err
		}
	}
	return nil
}

// Bool returns a pointer to b, for optional flags such as IsUserDefined
func Bool(b bool) *bool {
	return &b
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
