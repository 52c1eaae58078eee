package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

const (
	// ContextActorKey stores the authenticated services.Actor in the Gin context.
	ContextActorKey = "actor"
	// ContextClaimsKey stores the parsed *utils.Claims.
	ContextClaimsKey = "claims"
)

// ActorSource loads the current identity and role of a user id.
type ActorSource interface {
	Actor(ctx context.Context, id uint) (services.Actor, error)
}

// AuthRequired rejects requests without a valid, unrevoked bearer token.
// The role is loaded fresh so demotions take effect immediately.
func AuthRequired(users ActorSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, code, msg := bearerToken(ctx)
		if code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			return
		}
		if !authenticate(ctx, users, token) {
			return
		}
		ctx.Next()
	}
}

// OptionalAuth attaches the actor when a valid token is present and lets
// anonymous requests through. A bad token is still an error.
func OptionalAuth(users ActorSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			ctx.Next()
			return
		}
		token, code, msg := bearerToken(ctx)
		if code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			return
		}
		if !authenticate(ctx, users, token) {
			return
		}
		ctx.Next()
	}
}

// CurrentActor returns the authenticated actor, or the anonymous zero value.
func CurrentActor(ctx *gin.Context) services.Actor {
	if v, ok := ctx.Get(ContextActorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a
		}
	}
	return services.Actor{}
}

// CurrentClaims returns the parsed token claims, if any.
func CurrentClaims(ctx *gin.Context) *utils.Claims {
	if v, ok := ctx.Get(ContextClaimsKey); ok {
		if c, ok := v.(*utils.Claims); ok {
			return c
		}
	}
	return nil
}

func bearerToken(ctx *gin.Context) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return "", 40101, "authorization header missing"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", 40103, "empty bearer token"
	}
	return token, 0, ""
}

func authenticate(ctx *gin.Context, users ActorSource, token string) bool {
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return false
	}
	if utils.IsTokenBlacklisted(claims.ID) {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
		return false
	}
	actor, err := users.Actor(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "account no longer exists")
			return false
		}
		utils.Logger.Error("load actor", zap.Uint("user_id", claims.UserID), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to load account")
		return false
	}
	ctx.Set(ContextClaimsKey, claims)
	ctx.Set(ContextActorKey, actor)
	return true
}
