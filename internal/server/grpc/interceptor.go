package grpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const requestIDHeader = "x-request-id"

// requestInterceptor tags each call with a request id, logs the outcome and
// converts domain errors into gRPC statuses.
func (s *GRPCServer) requestInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	requestID := requestIDFromMetadata(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	// fails outside a real stream (unit tests); the id is still logged
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))

	log := s.logger.With("request_id", requestID, "method", info.FullMethod)
	start := time.Now()

	resp, err := handler(ctx, req)
	if err != nil {
		st := StatusFromError(err)
		log.Error(ctx, "request failed", "code", st.Code().String(), "duration", time.Since(start), "error", err.Error())
		return nil, st.Err()
	}

	log.Debug(ctx, "request handled", "duration", time.Since(start))
	return resp, nil
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(requestIDHeader); len(v) > 0 {
		return v[0]
	}
	return ""
}
