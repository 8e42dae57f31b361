package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/patric-chuzhbe/userprofiles/internal/logger"
)

const findByTag = "/profiles.ProfileService/FindByTag"

func observeLogs(t *testing.T) *observer.ObservedLogs {
	core, logs := observer.New(zapcore.DebugLevel)
	previous := logger.Log
	logger.Log = zap.New(core).Sugar()
	t.Cleanup(func() { logger.Log = previous })
	return logs
}

func TestUnaryLoggingInterceptor(t *testing.T) {
	req := wrapperspb.String("golang")
	resp := &structpb.ListValue{}

	testCases := []struct {
		name      string
		handlerFn grpc.UnaryHandler
		level     zapcore.Level
		code      string
	}{
		{
			name: "served",
			handlerFn: func(ctx context.Context, req interface{}) (interface{}, error) {
				return resp, nil
			},
			level: zapcore.InfoLevel,
			code:  codes.OK.String(),
		},
		{
			name: "rejected payload",
			handlerFn: func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, status.Error(codes.InvalidArgument, "validation failed")
			},
			level: zapcore.WarnLevel,
			code:  codes.InvalidArgument.String(),
		},
		{
			name: "store failure",
			handlerFn: func(ctx context.Context, req interface{}) (interface{}, error) {
				return nil, status.Error(codes.Internal, "internal error")
			},
			level: zapcore.ErrorLevel,
			code:  codes.Internal.String(),
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			logs := observeLogs(t)

			intercept := UnaryLoggingInterceptor([]string{findByTag})
			_, _ = intercept(context.Background(), req, &grpc.UnaryServerInfo{FullMethod: findByTag}, testCase.handlerFn)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, testCase.level, entries[0].Level)

			fields := entries[0].ContextMap()
			assert.Equal(t, findByTag, fields["method"])
			assert.Equal(t, testCase.code, fields["code"])
			assert.EqualValues(t, proto.Size(req), fields["requestBytes"])
		})
	}
}

func TestUnaryLoggingInterceptorSkipsUnlistedMethods(t *testing.T) {
	logs := observeLogs(t)

	intercept := UnaryLoggingInterceptor([]string{findByTag})
	resp, err := intercept(
		context.Background(),
		wrapperspb.String("go"),
		&grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			return "ok", nil
		},
	)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Empty(t, logs.All())
}
