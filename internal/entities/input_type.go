package entities

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownInputType is returned for frontend input codes with no registered input type
var ErrUnknownInputType = errors.New("unknown input type")

// Input type codes
const (
	InputTypeText        = "text"
	InputTypeTextarea    = "textarea"
	InputTypeSelect      = "select"
	InputTypeMultiselect = "multiselect"
	InputTypeBoolean     = "boolean"
	InputTypeDate        = "date"
	InputTypeImage       = "image"
	InputTypeFile        = "file"
)

// Backend types
const (
	BackendTypeVarchar  = "varchar"
	BackendTypeText     = "text"
	BackendTypeInt      = "int"
	BackendTypeDatetime = "datetime"
)

// InputType describes how an attribute is entered and stored
type InputType struct {
	Code               string
	Label              string
	defaultBackendType string
	canManageOptions   bool
}

// DefaultBackendType returns the backend type used when an attribute does not set one
func (t InputType) DefaultBackendType() string {
	return t.defaultBackendType
}

// CanManageOptions reports whether attributes of this input type carry a list of options
func (t InputType) CanManageOptions() bool {
	return t.canManageOptions
}

var inputTypes = map[string]InputType{
	InputTypeText:        {Code: InputTypeText, Label: "Text Field", defaultBackendType: BackendTypeVarchar},
	InputTypeTextarea:    {Code: InputTypeTextarea, Label: "Text Area", defaultBackendType: BackendTypeText},
	InputTypeSelect:      {Code: InputTypeSelect, Label: "Dropdown", defaultBackendType: BackendTypeInt, canManageOptions: true},
	InputTypeMultiselect: {Code: InputTypeMultiselect, Label: "Multiple Select", defaultBackendType: BackendTypeVarchar, canManageOptions: true},
	InputTypeBoolean:     {Code: InputTypeBoolean, Label: "Yes/No", defaultBackendType: BackendTypeInt},
	InputTypeDate:        {Code: InputTypeDate, Label: "Date", defaultBackendType: BackendTypeDatetime},
	InputTypeImage:       {Code: InputTypeImage, Label: "Image", defaultBackendType: BackendTypeVarchar},
	InputTypeFile:        {Code: InputTypeFile, Label: "File", defaultBackendType: BackendTypeVarchar},
}

// LookupInputType returns the input type registered under code
func LookupInputType(code string) (InputType, error) {
	t, ok := inputTypes[code]
	if !ok {
		known := make([]string, 0, len(inputTypes))
		for _, t := range InputTypes() {
			known = append(known, t.Code)
		}
		return InputType{}, fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownInputType, code, strings.Join(known, ", "))
	}
	return t, nil
}

// InputTypes returns all registered input types ordered by code
func InputTypes() []InputType {
	result := make([]InputType, 0, len(inputTypes))
	for _, t := range inputTypes {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}
