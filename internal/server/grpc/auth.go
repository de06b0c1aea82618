package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cdn/internal/common"
	"github.com/dmitrijs2005/cdn/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const userKey ctxKey = "user"

const authorizationHeader = "authorization"

// authenticatedMethods need a session token in the authorization header.
var authenticatedMethods = map[string]bool{
	MethodMe:     true,
	MethodUpdate: true,
}

// accessTokenInterceptor resolves "authorization: Bearer <token>" to the
// stored user for methods that act on the caller. Failures are domain errors;
// requestInterceptor turns them into statuses.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !authenticatedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := bearerToken(ctx)
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.users.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	return handler(context.WithValue(ctx, userKey, user), req)
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(authorizationHeader)
	if len(values) == 0 {
		return ""
	}
	token, ok := strings.CutPrefix(values[0], "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func userFromContext(ctx context.Context) (*models.User, error) {
	user, ok := ctx.Value(userKey).(*models.User)
	if !ok || user == nil {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}
