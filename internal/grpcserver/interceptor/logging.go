// Package interceptor holds unary server interceptors of the gRPC transport.
package interceptor

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	"github.com/patric-chuzhbe/userprofiles/internal/logger"
)

// UnaryLoggingInterceptor logs every call of the listed profile methods.
// Rejected payloads are logged as warnings and store or availability
// failures as errors, so they stand out from regular traffic.
func UnaryLoggingInterceptor(profileMethods []string) grpc.UnaryServerInterceptor {
	logged := make(map[string]struct{}, len(profileMethods))
	for _, m := range profileMethods {
		logged[m] = struct{}{}
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if _, ok := logged[info.FullMethod]; !ok {
			return handler(ctx, req)
		}

		started := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []interface{}{
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(started),
			"requestBytes", payloadSize(req),
			"responseBytes", payloadSize(resp),
		}
		if err != nil {
			fields = append(fields, "error", status.Convert(err).Message())
		}

		logFn := logger.Log.Infow
		switch code {
		case codes.InvalidArgument:
			logFn = logger.Log.Warnw
		case codes.Internal, codes.Unavailable, codes.Unknown:
			logFn = logger.Log.Errorw
		}
		logFn("profile call served", fields...)

		return resp, err
	}
}

func payloadSize(msg interface{}) int {
	if m, ok := msg.(proto.Message); ok && m.ProtoReflect().IsValid() {
		return proto.Size(m)
	}
	return 0
}
