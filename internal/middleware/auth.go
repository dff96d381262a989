package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/liveassist/api/transport"
	"github.com/fastygo/liveassist/domain"
	"github.com/fastygo/liveassist/pkg/httpcontext"
)

// OwnerScope verifies an HS256 bearer token and scopes the request to the
// token's user_id (and optional stream_id) claims. With an empty secret the
// middleware is disabled and requests run under the configured defaults.
func OwnerScope(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if secret == "" {
		logger.Warn("JWT_SECRET not set, requests run under the default owner scope")
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(tokenString, claims, keyFunc)
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx, "invalid token")
				return
			}
			if issuer != "" && !claims.VerifyIssuer(issuer, true) {
				unauthorized(ctx, "invalid token issuer")
				return
			}

			ownerID, err := int64Claim(claims, "user_id")
			if err != nil || ownerID <= 0 {
				unauthorized(ctx, "token carries no user_id")
				return
			}
			streamID, _ := int64Claim(claims, "stream_id")

			httpcontext.SetScope(ctx, ownerID, streamID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// int64Claim accepts integer claims encoded as JSON numbers or decimal strings.
func int64Claim(claims jwt.MapClaims, key string) (int64, error) {
	switch v := claims[key].(type) {
	case nil:
		return 0, fmt.Errorf("claim %s missing", key)
	case interface{ String() string }:
		return strconv.ParseInt(v.String(), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("claim %s is not an integer", key)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("claim %s has unsupported type %T", key, v)
	}
}

func unauthorized(ctx *fasthttp.RequestCtx, msg string) {
	body := transport.NewError(string(domain.ErrCodeUnauthorized), msg, nil).String()
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBodyString(body)
}
