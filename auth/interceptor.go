package auth

import (
	"agora/domain/agora"
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RolesKey  contextKey = "roles"
)

// Interceptor handles JWT validation for incoming gRPC calls.
type Interceptor struct {
	tokens        TokenManager
	publicMethods map[string]struct{}
}

// NewInterceptor builds an interceptor; calls to publicMethods skip authentication.
func NewInterceptor(tokens TokenManager, publicMethods ...string) Interceptor {
	public := make(map[string]struct{}, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = struct{}{}
	}
	return Interceptor{tokens: tokens, publicMethods: public}
}

func (i Interceptor) Unary(ctx context.Context, req any,
	info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if i.isPublicMethod(info.FullMethod) {
		return handler(ctx, req)
	}
	newCtx, err := i.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(newCtx, req)
}

func (i Interceptor) Stream(srv any, ss grpc.ServerStream,
	info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if i.isPublicMethod(info.FullMethod) {
		return handler(srv, ss)
	}
	newCtx, err := i.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
}

func (i Interceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}
	tokenStr := strings.TrimPrefix(values[0], "Bearer ")
	claims, err := i.tokens.ValidateToken(tokenStr)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	newCtx := context.WithValue(ctx, UserIDKey, agora.UserID(claims.UserID))
	return context.WithValue(newCtx, RolesKey, claims.Roles), nil
}

func (i Interceptor) isPublicMethod(method string) bool {
	_, ok := i.publicMethods[method]
	return ok
}

// UserIDFromContext returns the principal injected by the interceptor.
func UserIDFromContext(ctx context.Context) (agora.UserID, bool) {
	id, ok := ctx.Value(UserIDKey).(agora.UserID)
	return id, ok
}

// WithUserID injects a principal, used by in-process callers and tests.
func WithUserID(ctx context.Context, id agora.UserID) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
