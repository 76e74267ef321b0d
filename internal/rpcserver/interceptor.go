package rpcserver

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/coldvault/trainer/internal/session"
)

// sessionTokenKey is the metadata header a client presents its session
// token under on every call other than get_challenge/create_session
// (§4.6's "per-request check").
const sessionTokenKey = "x-session-token"

// publicMethods are reachable without a session token: a client has none
// to present until create_session succeeds.
var publicMethods = map[string]bool{
	"/" + serviceName + "/get_challenge":  true,
	"/" + serviceName + "/create_session": true,
}

func peerAddr(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if idx := strings.LastIndex(addr, ":"); idx >= 0 {
		return addr[:idx]
	}
	return addr
}

func tokenFromContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	vals := md.Get(sessionTokenKey)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// verifySession maps §4.6's per-request check onto gRPC status codes (§7):
// session expiry and IP mismatch are both Aborted; an absent or otherwise
// unrecognized token is Unauthenticated.
func verifySession(ctx context.Context, mgr *session.Manager) error {
	if !mgr.AuthEnabled() {
		return nil
	}
	token, ok := tokenFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing session token")
	}
	err := mgr.VerifyRequest(token, peerAddr(ctx))
	switch err {
	case nil:
		return nil
	case session.ErrUnknownIP, session.ErrSessionExpired:
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Unauthenticated, err.Error())
	}
}

// UnaryAuthInterceptor enforces the session check on every unary RPC except
// get_challenge and create_session.
func UnaryAuthInterceptor(mgr *session.Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		if err := verifySession(ctx, mgr); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor applies the same check to the streaming RPCs, all
// of which require an established session.
func StreamAuthInterceptor(mgr *session.Manager) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if publicMethods[info.FullMethod] {
			return handler(srv, ss)
		}
		if err := verifySession(ss.Context(), mgr); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}
