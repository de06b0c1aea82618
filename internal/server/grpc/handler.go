package grpc

import (
	"context"
	"math"
	"time"

	"github.com/dmitrijs2005/cdn/internal/server/models"
	"github.com/dmitrijs2005/cdn/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// UserService is the account logic behind the users RPCs; *services.UserService satisfies it.
type UserService interface {
	Register(ctx context.Context, creation models.UserCreation) (*services.Session, error)
	Profile(ctx context.Context, id int64) (models.UserResult, error)
	Update(ctx context.Context, id int64, update models.UserUpdate) (models.UserResult, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	creation := models.UserCreation{}
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"username", &creation.Username},
		{"email", &creation.Email},
		{"password", &creation.Password},
	} {
		key, dst := f.key, f.dst
		v, err := stringField(req, key)
		if err != nil {
			return nil, err
		}
		if v == nil || *v == "" {
			return nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
		}
		*dst = *v
	}

	session, err := s.users.Register(ctx, creation)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registered", "user_id", session.User.ID)

	return structpb.NewStruct(map[string]any{
		"user":  resultFields(session.User),
		"token": session.Token,
	})
}

// Profile returns the public view of any user by id.
func (s *GRPCServer) Profile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	id, err := idField(req, "id")
	if err != nil {
		return nil, err
	}

	result, err := s.users.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(resultFields(result))
}

// Me returns the public view of the caller.
func (s *GRPCServer) Me(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(resultFields(user.Result()))
}

// Update edits the caller's own record. Changing the password needs
// old_password; a wrong one is reported as not found.
func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}

	update := models.UserUpdate{}
	for _, f := range []struct {
		key string
		dst **string
	}{
		{"username", &update.Username},
		{"email", &update.Email},
		{"old_password", &update.OldPassword},
		{"new_password", &update.NewPassword},
	} {
		v, err := stringField(req, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	result, err := s.users.Update(ctx, user.ID, update)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(resultFields(result))
}

func resultFields(r models.UserResult) map[string]any {
	return map[string]any{
		"id":         r.ID,
		"username":   r.Username,
		"created_at": r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// stringField returns nil for an absent or null field.
func stringField(req *structpb.Struct, key string) (*string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		return &k.StringValue, nil
	default:
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a string", key)
	}
}

func idField(req *structpb.Struct, key string) (int64, error) {
	v, ok := req.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	n := v.NumberValue
	if n != math.Trunc(n) || n < 1 || n >= math.MaxInt64 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", key)
	}
	return int64(n), nil
}
