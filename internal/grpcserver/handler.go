package grpcserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/patric-chuzhbe/userprofiles/internal/logger"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

type profileService interface {
	CreateUser(ctx context.Context, input models.UserInput) (models.User, error)

	GetUsers(ctx context.Context) ([]models.User, error)

	FindUsersByTag(ctx context.Context, tag string) ([]models.User, error)

	SearchUsers(ctx context.Context, q string) ([]models.User, error)

	GetMostUsedTags(ctx context.Context) ([]models.TagCount, error)

	Ping(ctx context.Context) error
}

type ProfileHandler struct {
	svc profileService
}

func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

// CreateUser accepts the same document as POST /api/users.
func (h *ProfileHandler) CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	body, err := json.Marshal(req.AsMap())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	input, err := models.DecodeUserInput(bytes.NewReader(body))
	if err != nil {
		return nil, toStatus(err)
	}

	usr, err := h.svc.CreateUser(ctx, input)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(usr)
}

func (h *ProfileHandler) ListUsers(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	users, err := h.svc.GetUsers(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return toList(users)
}

func (h *ProfileHandler) FindByTag(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	users, err := h.svc.FindUsersByTag(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	return toList(users)
}

func (h *ProfileHandler) Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	users, err := h.svc.SearchUsers(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}

	return toList(users)
}

func (h *ProfileHandler) MostUsedTags(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	tags, err := h.svc.GetMostUsedTags(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return toList(tags)
}

func (h *ProfileHandler) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := h.svc.Ping(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}

	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	logger.Log.Errorln("gRPC request failed", "error", err)

	return status.Error(codes.Internal, err.Error())
}

// toPlain round-trips v through JSON so the protobuf value mirrors the HTTP body.
func toPlain(v interface{}) (interface{}, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var plain interface{}
	if err := json.Unmarshal(body, &plain); err != nil {
		return nil, err
	}

	return plain, nil
}

func toStruct(usr models.User) (*structpb.Struct, error) {
	plain, err := toPlain(usr)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	result, err := structpb.NewStruct(plain.(map[string]interface{}))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return result, nil
}

func toList(v interface{}) (*structpb.ListValue, error) {
	plain, err := toPlain(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	items, _ := plain.([]interface{})
	result, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return result, nil
}
