package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// TrustedSubnetMiddleware пропускает только запросы, у которых X-Real-IP входит в trustedSubnet.
// Пустая подсеть запрещает доступ всем.
func TrustedSubnetMiddleware(trustedSubnet string, logger *zap.Logger) func(http.Handler) http.Handler {
	var network *net.IPNet
	var parseErr error
	if trustedSubnet != "" {
		_, network, parseErr = net.ParseCIDR(trustedSubnet)
		if parseErr != nil {
			logger.Error("Invalid trusted_subnet CIDR", zap.String("trusted_subnet", trustedSubnet), zap.Error(parseErr))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(reason string, fields ...zap.Field) {
				fields = append(fields,
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("remote_addr", r.RemoteAddr))
				logger.Warn("Access denied: "+reason, fields...)
				http.Error(w, "Access denied", http.StatusForbidden)
			}

			if trustedSubnet == "" {
				deny("trusted_subnet is empty")
				return
			}
			if parseErr != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			clientIP := r.Header.Get("X-Real-IP")
			if clientIP == "" {
				deny("X-Real-IP header is missing")
				return
			}
			ip := net.ParseIP(clientIP)
			if ip == nil {
				deny("invalid IP address in X-Real-IP header", zap.String("client_ip", clientIP))
				return
			}
			if !network.Contains(ip) {
				deny("IP not in trusted subnet", zap.String("client_ip", clientIP), zap.String("trusted_subnet", trustedSubnet))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
