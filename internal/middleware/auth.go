package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CookieName задаёт имя куки с JWT пользователя
const CookieName = "jwt_token"

// contextKey определяет тип для ключей контекста
type contextKey string

const userIDKey contextKey = "userID"

// TokenIssuer выдаёт и проверяет токены пользователей
type TokenIssuer interface {
	GenerateUserID() (string, error)
	GenerateJWT(userID string) (string, error)
	ParseJWT(token string) (string, error)
}

// AuthMiddleware проверяет куку с JWT и кладёт UserID в контекст.
// Без валидной куки пользователь получает новый идентификатор, кроме маршрутов
// из requireExisting, где отвечаем 401.
func AuthMiddleware(issuer TokenIssuer, cookieTTL time.Duration, logger *zap.Logger, requireExisting ...string) func(http.Handler) http.Handler {
	protected := make(map[string]bool, len(requireExisting))
	for _, route := range requireExisting {
		protected[route] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if cookie, err := r.Cookie(CookieName); err == nil {
				id, err := issuer.ParseJWT(cookie.Value)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
				} else {
					userID = id
				}
			}

			if userID == "" {
				if protected[r.Method+" "+r.URL.Path] {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}

				var err error
				userID, err = issuer.GenerateUserID()
				if err != nil {
					logger.Error("Failed to generate user ID", zap.Error(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				token, err := issuer.GenerateJWT(userID)
				if err != nil {
					logger.Error("Failed to generate JWT", zap.Error(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Expires:  time.Now().Add(cookieTTL),
					Path:     "/",
					HttpOnly: true,
				})
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID извлекает UserID из контекста
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(userIDKey).(string)
	return userID, ok && userID != ""
}
