package grpc

import (
	"errors"

	"github.com/dmitrijs2005/cdn/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusTable maps error kinds to gRPC outcomes. Order matters: a query
// error caused by connectivity matches the connection entries first.
var statusTable = []struct {
	kind error
	code codes.Code
	msg  string
}{
	{common.ErrorNotFound, codes.NotFound, "resource not found"},
	{common.ErrorConflict, codes.AlreadyExists, "resource already exists"},
	{common.ErrorUnauthorized, codes.Unauthenticated, "unauthorized"},
	{common.ErrInvalidToken, codes.Unauthenticated, "unauthorized"},
	{common.ErrTokenExpired, codes.Unauthenticated, "session expired"},
	{common.ErrConnect, codes.Unavailable, "storage unavailable"},
	{common.ErrMigrate, codes.Unavailable, "storage unavailable"},
	{common.ErrorQuery, codes.Internal, "internal error"},
}

// StatusFromError converts err to a gRPC status without leaking storage
// details. Errors that already carry a status pass through.
func StatusFromError(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}

	if st, ok := status.FromError(err); ok {
		return st
	}

	for _, e := range statusTable {
		if errors.Is(err, e.kind) {
			return status.New(e.code, e.msg)
		}
	}

	return status.New(codes.Internal, "internal error")
}
