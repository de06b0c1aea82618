package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/cdn/internal/common"
	"github.com/dmitrijs2005/cdn/internal/server/config"
	"github.com/dmitrijs2005/cdn/internal/server/models"
	"github.com/dmitrijs2005/cdn/internal/server/repositories/users"
	"github.com/dmitrijs2005/cdn/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

// ---- fakes ----

type fakeUsers struct {
	regResp *services.Session
	regErr  error
	regIn   models.UserCreation

	profileResp models.UserResult
	profileErr  error
	profileID   int64

	updateResp models.UserResult
	updateErr  error
	updateID   int64
	updateIn   models.UserUpdate

	authUser  *models.User
	authErr   error
	authToken string
}

func (f *fakeUsers) Register(ctx context.Context, c models.UserCreation) (*services.Session, error) {
	f.regIn = c
	return f.regResp, f.regErr
}

func (f *fakeUsers) Profile(ctx context.Context, id int64) (models.UserResult, error) {
	f.profileID = id
	return f.profileResp, f.profileErr
}

func (f *fakeUsers) Update(ctx context.Context, id int64, upd models.UserUpdate) (models.UserResult, error) {
	f.updateID, f.updateIn = id, upd
	return f.updateResp, f.updateErr
}

func (f *fakeUsers) Authenticate(ctx context.Context, token string) (*models.User, error) {
	f.authToken = token
	if f.authErr != nil {
		return nil, f.authErr
	}
	if f.authUser == nil {
		return nil, common.ErrorUnauthorized
	}
	return f.authUser, nil
}

// ---- harness ----

func dialUsers(t *testing.T, u UserService) *grpc.ClientConn {
	t.Helper()

	s, err := NewGRPCServer("bufnet", nopLogger{}, &stubPinger{}, u)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	srv := s.newServer()
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func call(t *testing.T, conn *grpc.ClientConn, ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out := &structpb.Struct{}
	if err := conn.Invoke(ctx, method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func withToken(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), authorizationHeader, "Bearer "+token)
}

var created = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

func codeOf(err error) codes.Code {
	return status.Code(err)
}

// ---- tests ----

func TestRegister_ReturnsPublicViewAndToken(t *testing.T) {
	f := &fakeUsers{regResp: &services.Session{
		User:  models.UserResult{ID: 7, Username: "alice", CreatedAt: created},
		Token: "tok",
	}}
	conn := dialUsers(t, f)

	out, err := call(t, conn, context.Background(), MethodRegister, map[string]any{
		"username": "alice", "email": "alice@x.com", "password": "p",
	})
	require.NoError(t, err)

	assert.Equal(t, models.UserCreation{Username: "alice", Email: "alice@x.com", Password: "p"}, f.regIn)
	assert.Equal(t, "tok", out.GetFields()["token"].GetStringValue())

	user := out.GetFields()["user"].GetStructValue().GetFields()
	assert.Equal(t, float64(7), user["id"].GetNumberValue())
	assert.Equal(t, "alice", user["username"].GetStringValue())
	assert.Equal(t, "2024-03-04T05:06:07Z", user["created_at"].GetStringValue())
	assert.Len(t, user, 3, "only id, username and created_at leave the server")
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		err  error
		code codes.Code
	}{
		{"missing password", map[string]any{"username": "a", "email": "a@x.com"}, nil, codes.InvalidArgument},
		{"wrong type", map[string]any{"username": 1.0, "email": "a@x.com", "password": "p"}, nil, codes.InvalidArgument},
		{"duplicate", map[string]any{"username": "a", "email": "a@x.com", "password": "p"}, common.ConflictError("user", errors.New("23505")), codes.AlreadyExists},
		{"storage down", map[string]any{"username": "a", "email": "a@x.com", "password": "p"},
			common.QueryError(&common.ConnectionError{Kind: common.ConnectKind, Err: errors.New("refused")}), codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialUsers(t, &fakeUsers{regErr: tt.err})

			_, err := call(t, conn, context.Background(), MethodRegister, tt.in)
			assert.Equal(t, tt.code, codeOf(err), err)
		})
	}
}

func TestProfile(t *testing.T) {
	f := &fakeUsers{profileResp: models.UserResult{ID: 3, Username: "bob", CreatedAt: created}}
	conn := dialUsers(t, f)

	out, err := call(t, conn, context.Background(), MethodProfile, map[string]any{"id": 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.profileID)
	assert.Equal(t, "bob", out.GetFields()["username"].GetStringValue())

	f.profileErr = common.NotFound("user")
	_, err = call(t, conn, context.Background(), MethodProfile, map[string]any{"id": 4})
	assert.Equal(t, codes.NotFound, codeOf(err))

	_, err = call(t, conn, context.Background(), MethodProfile, map[string]any{"id": 1.5})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))

	_, err = call(t, conn, context.Background(), MethodProfile, map[string]any{})
	assert.Equal(t, codes.InvalidArgument, codeOf(err))
}

func TestMe_RequiresToken(t *testing.T) {
	f := &fakeUsers{authUser: &models.User{ID: 9, Username: "carol", Email: "c@x.com", Password: "hash", CreatedAt: created}}
	conn := dialUsers(t, f)

	_, err := call(t, conn, context.Background(), MethodMe, nil)
	assert.Equal(t, codes.Unauthenticated, codeOf(err))

	out, err := call(t, conn, withToken("good"), MethodMe, nil)
	require.NoError(t, err)
	assert.Equal(t, "good", f.authToken)
	assert.Equal(t, "carol", out.GetFields()["username"].GetStringValue())
	assert.NotContains(t, out.GetFields(), "email")
	assert.NotContains(t, out.GetFields(), "password")
}

func TestMe_ExpiredToken(t *testing.T) {
	conn := dialUsers(t, &fakeUsers{authErr: common.ErrTokenExpired})

	_, err := call(t, conn, withToken("old"), MethodMe, nil)
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
	assert.Equal(t, "session expired", status.Convert(err).Message())
}

func TestUpdate_PassesFieldsForCaller(t *testing.T) {
	f := &fakeUsers{
		authUser:   &models.User{ID: 9},
		updateResp: models.UserResult{ID: 9, Username: "carol2", CreatedAt: created},
	}
	conn := dialUsers(t, f)

	out, err := call(t, conn, withToken("t"), MethodUpdate, map[string]any{
		"username":     "carol2",
		"email":        nil,
		"old_password": "old",
		"new_password": "new",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(9), f.updateID)
	require.NotNil(t, f.updateIn.Username)
	assert.Equal(t, "carol2", *f.updateIn.Username)
	assert.Nil(t, f.updateIn.Email)
	require.NotNil(t, f.updateIn.OldPassword)
	assert.Equal(t, "old", *f.updateIn.OldPassword)
	require.NotNil(t, f.updateIn.NewPassword)
	assert.Equal(t, "new", *f.updateIn.NewPassword)
	assert.Equal(t, "carol2", out.GetFields()["username"].GetStringValue())
}

func TestUpdate_WrongPasswordIsNotFound(t *testing.T) {
	conn := dialUsers(t, &fakeUsers{authUser: &models.User{ID: 9}, updateErr: common.NotFound("user")})

	_, err := call(t, conn, withToken("t"), MethodUpdate, map[string]any{"old_password": "bad", "new_password": "new"})
	assert.Equal(t, codes.NotFound, codeOf(err))
}

func TestUpdate_WithoutTokenNeverReachesService(t *testing.T) {
	f := &fakeUsers{authUser: &models.User{ID: 9}}
	conn := dialUsers(t, f)

	_, err := call(t, conn, context.Background(), MethodUpdate, map[string]any{"username": "x"})
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
	assert.Zero(t, f.updateID)
}

// memUsers is a users.Repository for driving the real service end to end.
type memUsers struct {
	byID map[int64]*models.User
}

func (m *memUsers) Create(ctx context.Context, c models.UserCreation) (*models.User, error) {
	u := &models.User{ID: int64(len(m.byID) + 1), Username: c.Username, Email: c.Email, Password: "hash", CreatedAt: created}
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) Get(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, common.NotFound("user")
	}
	return u, nil
}

func (m *memUsers) Edit(ctx context.Context, u *models.User, upd models.UserUpdate) (*models.User, error) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	return u, nil
}

type memRepos struct{ u *memUsers }

func (r memRepos) RunMigrations(context.Context) error { return nil }
func (r memRepos) Users() users.Repository           { return r.u }

func TestUsersService_SessionRoundTrip(t *testing.T) {
	svc := services.NewUserService(memRepos{u: &memUsers{byID: map[int64]*models.User{}}},
		&config.Config{SecretKey: "k", SessionValidityDuration: time.Hour})
	conn := dialUsers(t, svc)

	out, err := call(t, conn, context.Background(), MethodRegister, map[string]any{
		"username": "dave", "email": "d@x.com", "password": "p",
	})
	require.NoError(t, err)
	token := out.GetFields()["token"].GetStringValue()
	require.NotEmpty(t, token)

	out, err = call(t, conn, withToken(token), MethodUpdate, map[string]any{"username": "dave2"})
	require.NoError(t, err)
	assert.Equal(t, "dave2", out.GetFields()["username"].GetStringValue())

	out, err = call(t, conn, withToken(token), MethodMe, nil)
	require.NoError(t, err)
	assert.Equal(t, "dave2", out.GetFields()["username"].GetStringValue())

	_, err = call(t, conn, withToken("forged"), MethodMe, nil)
	assert.Equal(t, codes.Unauthenticated, codeOf(err))
}
