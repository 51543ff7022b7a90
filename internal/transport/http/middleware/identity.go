package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyAnonID ctxKey = "anonymous_id"
)

// IdentityMiddleware снимает опциональную атрибуцию из заголовков.
// Валидацию токена делает upstream (gateway); здесь только идентичность
// для привязки просмотров/реакций.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if uid := strings.TrimSpace(r.Header.Get("X-User-ID")); uid != "" {
			if _, err := uuid.Parse(uid); err == nil {
				ctx = context.WithValue(ctx, ctxKeyUserID, uid)
			}
		}
		if aid := strings.TrimSpace(r.Header.Get("X-Anonymous-ID")); aid != "" {
			if _, err := uuid.Parse(aid); err == nil {
				ctx = context.WithValue(ctx, ctxKeyAnonID, aid)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromCtx(ctx context.Context) *string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return &v
	}
	return nil
}

func AnonymousIDFromCtx(ctx context.Context) *string {
	if v, ok := ctx.Value(ctxKeyAnonID).(string); ok {
		return &v
	}
	return nil
}
