package auth

import (
	"context"
	"net/http"

	perrors "xinyuan_tech/purchase-service/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/auth/jwt"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Claims are the bearer token claims issued by the passport service.
// Subject holds the user id.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwtv5.RegisteredClaims
}

// JWT verifies HS256 bearer tokens signed with secret and then lifts the
// subject and role into the request context.
func JWT(secret string) middleware.Middleware {
	verify := jwt.Server(
		func(*jwtv5.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithSigningMethod(jwtv5.SigningMethodHS256),
		jwt.WithClaims(func() jwtv5.Claims { return &Claims{} }),
	)
	return middleware.Chain(authFailed(), verify, liftClaims())
}

// authFailed reports every 401 as AUTHENTICATION_FAILED.
func authFailed() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			reply, err := handler(ctx, req)
			if err == nil {
				return reply, nil
			}
			if e := kerrors.FromError(err); e.Code == http.StatusUnauthorized && e.Reason != perrors.ReasonAuthenticationFailed {
				return nil, perrors.ErrorAuthenticationFailed("%s", e.Message)
			}
			return reply, err
		}
	}
}

func liftClaims() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			raw, ok := jwt.FromContext(ctx)
			if !ok {
				return nil, perrors.ErrorAuthenticationFailed("missing token claims")
			}
			claims, ok := raw.(*Claims)
			if !ok || claims.Subject == "" {
				return nil, perrors.ErrorAuthenticationFailed("token has no subject")
			}
			role := RoleUser
			if Role(claims.Role) == RoleAdmin {
				role = RoleAdmin
			}
			return handler(WithUser(ctx, claims.Subject, role), req)
		}
	}
}

// Sign issues a token for uid; used by tooling and tests.
func Sign(secret, uid string, role Role, claims jwtv5.RegisteredClaims) (string, error) {
	claims.Subject = uid
	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, &Claims{Role: string(role), RegisteredClaims: claims})
	return token.SignedString([]byte(secret))
}
