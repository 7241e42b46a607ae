package handlers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/repositories"
	"github.com/alekseon/eav/internal/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// === Struct <-> entity conversion ===

// applyAttributeFields overlays the fields present in s onto attr
func applyAttributeFields(attr *entities.Attribute, s *structpb.Struct) error {
	if s == nil {
		return fmt.Errorf("attribute is required")
	}
	fields := s.GetFields()

	if id, ok, err := intField(fields, "id"); err != nil {
		return err
	} else if ok {
		attr.ID = id
	}
	if sortOrder, ok, err := intField(fields, "sort_order"); err != nil {
		return err
	} else if ok {
		attr.SortOrder = int(sortOrder)
	}

	textFields := map[string]*string{
		"attribute_code": &attr.AttributeCode,
		"frontend_label": &attr.FrontendLabel,
		"frontend_input": &attr.FrontendInput,
		"backend_type":   &attr.BackendType,
		"default_value":  &attr.DefaultValue,
		"note":           &attr.Note,
	}
	for name, target := range textFields {
		if _, ok := fields[name]; ok {
			*target = stringField(fields, name)
		}
	}

	if v, ok := fields["is_required"]; ok {
		attr.IsRequired = truthy(v)
	}
	if v, ok := fields["is_user_defined"]; ok {
		attr.IsUserDefined = entities.Bool(truthy(v))
	}
	if additional := fields["additional"].GetStructValue(); additional != nil {
		attr.Additional = additional.AsMap()
	}

	attr.Option = structToOptionSubmission(fields["option"])
	return nil
}

// structToOptionSubmission returns nil for a missing option document.
// Malformed entries are skipped: non-numeric store IDs are ignored and a
// non-integer order counts as 0.
func structToOptionSubmission(v *structpb.Value) *entities.OptionSubmission {
	option := v.GetStructValue()
	if option == nil {
		return nil
	}
	values := option.GetFields()["value"].GetStructValue()
	if values == nil {
		return nil
	}

	sub := &entities.OptionSubmission{
		Value:  make(map[string]map[int64]string, len(values.GetFields())),
		Order:  make(map[string]int),
		Delete: make(map[string]bool),
	}
	for key, labelsValue := range values.GetFields() {
		labels := make(map[int64]string)
		for storeKey, label := range labelsValue.GetStructValue().GetFields() {
			storeID, err := strconv.ParseInt(storeKey, 10, 64)
			if err != nil {
				continue
			}
			labels[storeID] = scalarString(label)
		}
		sub.Value[key] = labels
	}
	for key, order := range option.GetFields()["order"].GetStructValue().GetFields() {
		if n, ok, err := intValue(order); err == nil && ok {
			sub.Order[key] = int(n)
		}
	}
	for key, flag := range option.GetFields()["delete"].GetStructValue().GetFields() {
		sub.Delete[key] = truthy(flag)
	}
	return sub
}

func attributeToStruct(attr *entities.Attribute) (*structpb.Struct, error) {
	m := map[string]interface{}{
		"id":               attr.ID,
		"entity_type_code": attr.EntityTypeCode,
		"attribute_code":   attr.AttributeCode,
		"frontend_label":   attr.FrontendLabel,
		"frontend_input":   attr.FrontendInput,
		"backend_type":     attr.BackendType,
		"is_user_defined":  attr.UserDefined(),
		"is_required":      attr.IsRequired,
		"sort_order":       attr.SortOrder,
		"default_value":    attr.DefaultValue,
		"note":             attr.Note,
	}
	if len(attr.Additional) > 0 {
		additional := make(map[string]interface{}, len(attr.Additional))
		for k, v := range attr.Additional {
			additional[k] = structCompatible(v)
		}
		m["additional"] = additional
	}
	return structpb.NewStruct(m)
}

func optionsToStruct(options []*entities.AttributeOption) (*structpb.Struct, error) {
	list := make([]interface{}, 0, len(options))
	for _, o := range options {
		labels := make(map[string]interface{}, len(o.StoreLabels))
		for storeID, label := range o.StoreLabels {
			labels[strconv.FormatInt(storeID, 10)] = label
		}
		list = append(list, map[string]interface{}{
			"option_id":    o.OptionID,
			"attribute_id": o.AttributeID,
			"sort_order":   o.SortOrder,
			"label":        o.Label,
			"store_labels": labels,
		})
	}
	return structpb.NewStruct(map[string]interface{}{"options": list})
}

// structCompatible converts database values structpb.NewValue cannot represent
func structCompatible(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case nil, bool, string, int, int32, int64, uint32, uint64, float32, float64:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// === Field accessors ===

func stringField(fields map[string]*structpb.Value, name string) string {
	return scalarString(fields[name])
}

func scalarString(v *structpb.Value) string {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		if k.BoolValue {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}

func intField(fields map[string]*structpb.Value, name string) (int64, bool, error) {
	n, ok, err := intValue(fields[name])
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", name, err)
	}
	return n, ok, nil
}

// intValue accepts integral numbers and numeric strings
func intValue(v *structpb.Value) (int64, bool, error) {
	switch k := v.GetKind().(type) {
	case nil, *structpb.Value_NullValue:
		return 0, false, nil
	case *structpb.Value_NumberValue:
		if k.NumberValue != math.Trunc(k.NumberValue) {
			return 0, false, fmt.Errorf("expected an integer, got %v", k.NumberValue)
		}
		return int64(k.NumberValue), true, nil
	case *structpb.Value_StringValue:
		if k.StringValue == "" {
			return 0, false, nil
		}
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("expected an integer, got %q", k.StringValue)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("expected an integer")
	}
}

func truthy(v *structpb.Value) bool {
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		return k.NumberValue != 0
	case *structpb.Value_StringValue:
		return k.StringValue != "" && k.StringValue != "0" && k.StringValue != "false"
	default:
		return false
	}
}

// === Error mapping ===

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrAttributeNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, services.ErrUnknownEntityType),
		errors.Is(err, services.ErrInvalidAttribute),
		errors.Is(err, entities.ErrUnknownInputType):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}
