package middleware

import (
	"context"
	"net/http"
	"strings"

	"facilitybook/pkg/auth"
	apperrors "facilitybook/pkg/errors"
	httputil "facilitybook/pkg/http"
	"facilitybook/pkg/logger"
	"facilitybook/pkg/model"
)

type TokenParser interface {
	ParseValidate(token string) (*auth.Claims, error)
}

// ActorResolver loads the caller's directory attributes. It is consulted on
// every request so rank or department changes apply immediately.
type ActorResolver interface {
	Resolve(ctx context.Context, userID string) (*model.Actor, error)
}

func Authenticate(tokens TokenParser, directory ActorResolver, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
				return
			}

			claims, err := tokens.ParseValidate(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				logger.FromContext(r.Context(), log).Warn("Rejected bearer token",
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			actor, err := directory.Resolve(r.Context(), claims.Sub)
			if err != nil {
				logger.FromContext(r.Context(), log).Error("Failed to resolve actor",
					"user_id", claims.Sub,
					"error", err,
				)
				_ = httputil.WriteError(w, err)
				return
			}
			if !actor.Authenticated {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Account is not active"))
				return
			}

			ctx := WithActor(r.Context(), actor)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx, log).With(logger.ActorID, actor.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithActor(ctx context.Context, actor *model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext never returns nil; without an authenticated caller it
// returns the zero Actor, which every permission check rejects.
func ActorFromContext(ctx context.Context) *model.Actor {
	if actor, ok := ctx.Value(actorKey).(*model.Actor); ok && actor != nil {
		return actor
	}
	return &model.Actor{}
}
