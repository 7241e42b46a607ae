package handlers

import (
	"context"

	"github.com/alekseon/eav/internal/entities"
	"github.com/alekseon/eav/internal/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AttributeHandler handles AttributeService gRPC requests
type AttributeHandler struct {
	attributeService services.AttributeServiceInterface
}

// NewAttributeHandler creates a new AttributeHandler
func NewAttributeHandler(attributeService services.AttributeServiceInterface) *AttributeHandler {
	return &AttributeHandler{attributeService: attributeService}
}

var _ AttributeServer = (*AttributeHandler)(nil)

// GetAttribute handles the GetAttribute RPC.
// The attribute is looked up by "id" or, when absent, by "attribute_code".
func (h *AttributeHandler) GetAttribute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entityType, err := h.entityType(req)
	if err != nil {
		return nil, err
	}
	fields := req.GetFields()

	id, hasID, err := intField(fields, "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var attrStruct *structpb.Struct
	if hasID {
		attr, err := h.attributeService.GetAttribute(ctx, entityType, id)
		if err != nil {
			return nil, toStatusError(err)
		}
		attrStruct, err = attributeToStruct(attr)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to encode attribute: %v", err)
		}
	} else {
		code := stringField(fields, "attribute_code")
		if code == "" {
			return nil, status.Error(codes.InvalidArgument, "id or attribute_code is required")
		}
		attr, err := h.attributeService.GetAttributeByCode(ctx, entityType, code)
		if err != nil {
			return nil, toStatusError(err)
		}
		attrStruct, err = attributeToStruct(attr)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "failed to encode attribute: %v", err)
		}
	}

	return wrap("attribute", attrStruct), nil
}

// SaveAttribute handles the SaveAttribute RPC and returns the saved attribute
func (h *AttributeHandler) SaveAttribute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entityType, err := h.entityType(req)
	if err != nil {
		return nil, err
	}

	fields := req.GetFields()["attribute"].GetStructValue()
	if fields == nil {
		return nil, status.Error(codes.InvalidArgument, "attribute is required")
	}

	// Updates start from the stored attribute so omitted fields keep their values
	attr := &entities.Attribute{}
	id, hasID, err := intField(fields.GetFields(), "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if hasID && id != 0 {
		if attr, err = h.attributeService.GetAttribute(ctx, entityType, id); err != nil {
			return nil, toStatusError(err)
		}
	}
	if err := applyAttributeFields(attr, fields); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := h.attributeService.SaveAttribute(ctx, entityType, attr); err != nil {
		return nil, toStatusError(err)
	}

	saved, err := h.attributeService.GetAttribute(ctx, entityType, attr.ID)
	if err != nil {
		return nil, toStatusError(err)
	}
	attrStruct, err := attributeToStruct(saved)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode attribute: %v", err)
	}
	return wrap("attribute", attrStruct), nil
}

// DeleteAttribute handles the DeleteAttribute RPC
func (h *AttributeHandler) DeleteAttribute(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	entityType, err := h.entityType(req)
	if err != nil {
		return nil, err
	}

	id, hasID, err := intField(req.GetFields(), "id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !hasID {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if err := h.attributeService.DeleteAttribute(ctx, entityType, id); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

// ListOptions handles the ListOptions RPC
func (h *AttributeHandler) ListOptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	entityType, err := h.entityType(req)
	if err != nil {
		return nil, err
	}

	attributeID, ok, err := intField(req.GetFields(), "attribute_id")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "attribute_id is required")
	}

	options, err := h.attributeService.ListOptions(ctx, entityType, attributeID)
	if err != nil {
		return nil, toStatusError(err)
	}

	resp, err := optionsToStruct(options)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode options: %v", err)
	}
	return resp, nil
}

// entityType returns the requested entity type, defaulting to the only served one
func (h *AttributeHandler) entityType(req *structpb.Struct) (string, error) {
	if code := stringField(req.GetFields(), "entity_type"); code != "" {
		return code, nil
	}
	if types := h.attributeService.EntityTypes(); len(types) == 1 {
		return types[0], nil
	}
	return "", status.Error(codes.InvalidArgument, "entity_type is required")
}

func wrap(name string, s *structpb.Struct) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{name: structpb.NewStructValue(s)}}
}
