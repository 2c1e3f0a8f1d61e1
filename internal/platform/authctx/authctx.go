// Package authctx implements the capability-token auth middleware.
// pkg/middleware's existing auth is role/user based; partner capabilities
// here are an orthogonal, strictly capability-based model, so this piece is
// built fresh, in the Gin-middleware-chain shape pkg/middleware already uses
// elsewhere.
package authctx

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/rnrl/tradecore/internal/platform/apierr"
)

// Capability is one of the partner-level capabilities a principal may hold.
type Capability string

const (
	CapBuy       Capability = "BUY"
	CapSell      Capability = "SELL"
	CapTrade     Capability = "TRADE"
	CapBroker    Capability = "BROKER"
	CapTransport Capability = "TRANSPORT"
	CapSupervise Capability = "SUPERVISE"
)

// Principal is the caller identity populated by Middleware and read back via
// FromContext by handlers/application services that need capability checks.
type Principal struct {
	PartnerID    string
	Capabilities map[Capability]bool
}

func (p *Principal) Has(cap Capability) bool {
	if p == nil {
		return false
	}
	return p.Capabilities[cap]
}

type contextKey struct{}

var principalKey = contextKey{}

// WithPrincipal stores a principal on a plain context.Context, used outside
// of gin.Context (e.g. inside WebSocket handlers after upgrade).
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext recovers the principal stashed by WithPrincipal or Middleware.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// claims is the JWT payload shape: `sub` carries the partner id, `cap` a
// space-separated subset of BUY/SELL/TRADE/BROKER/TRANSPORT/SUPERVISE.
type claims struct {
	jwt.RegisteredClaims
	Cap string `json:"cap"`
}

// Middleware validates the bearer JWT against secret and, on success,
// populates both the gin.Context and the request's context.Context with a
// Principal so downstream handlers and application services can check
// capabilities uniformly.
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			apierr.Respond(c, apierr.New(apierr.KindAuthorization, "UNAUTHENTICATED", "missing bearer token"))
			c.Abort()
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			apierr.Respond(c, apierr.New(apierr.KindAuthorization, "UNAUTHENTICATED", "invalid or expired token"))
			c.Abort()
			return
		}
		cl := token.Claims.(*claims)

		principal := &Principal{
			PartnerID:    cl.Subject,
			Capabilities: map[Capability]bool{},
		}
		for _, c := range strings.Fields(cl.Cap) {
			principal.Capabilities[Capability(c)] = true
		}

		c.Set("principal", principal)
		ctx := WithPrincipal(c.Request.Context(), principal)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// FromGin reads the Principal the Middleware attached to the gin.Context.
func FromGin(c *gin.Context) *Principal {
	v, ok := c.Get("principal")
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}

// RequireCapability aborts with 403 unless the caller's principal holds cap.
func RequireCapability(cap Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := FromGin(c)
		if !p.Has(cap) {
			apierr.Respond(c, apierr.Authorization("CAPABILITY_REQUIRED", "missing capability: "+string(cap)))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CorrelationID attaches an inbound X-Correlation-Id header (or a fresh one)
// to the gin context under apierr.CorrelationIDKey so every response and log
// line can be traced back to the originating request.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-Id")
		if id == "" {
			id = c.Writer.Header().Get("X-Request-Id")
		}
		if id == "" {
			id = genCorrelationID()
		}
		c.Set(apierr.CorrelationIDKey, id)
		c.Writer.Header().Set("X-Correlation-Id", id)
		c.Next()
	}
}

// GoneSearch answers the deliberately-absent legacy search paths with
// 410 Gone and a migration message.
func GoneSearch(c *gin.Context) {
	c.JSON(http.StatusGone, gin.H{
		"error": gin.H{
			"code":   "SEARCH_REMOVED",
			"detail": "browsing/search endpoints were removed; matching is push-only, see /negotiations and /requirements|/availabilities",
		},
	})
}
