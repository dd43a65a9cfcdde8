package server

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/jrsteele09/event-auth-server/token/refresh"
)

func (s *Server) sameSite() http.SameSite {
	if s.config.IsProduction() {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// SetRefreshCookie stores the refresh token in an HTTP only cookie that lives as long as the token
func (s *Server) SetRefreshCookie(w http.ResponseWriter, refreshToken string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(s.nowTime()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure(),
		SameSite: s.sameSite(),
		MaxAge:   maxAge,
		Expires:  expiresAt,
	})
}

func (s *Server) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.GetCookieSecure(),
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// bearerToken extracts the token from an "Authorization: Bearer" header
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// clientIP is the connection's address unless that peer is a trusted proxy, in which
// case X-Forwarded-For is walked from the right to the first untrusted hop
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	proxies := s.config.GetTrustedProxies()
	if len(proxies) == 0 || !isTrusted(peer, proxies) {
		return peer
	}

	client := peer
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if _, err := netip.ParseAddr(hop); err != nil {
			break
		}
		client = hop
		if !isTrusted(hop, proxies) {
			break
		}
	}
	return client
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isTrusted(ip string, proxies []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (s *Server) clientInfo(r *http.Request) refresh.ClientInfo {
	return refresh.ClientInfo{
		UserAgent: r.UserAgent(),
		IPAddress: s.clientIP(r),
	}
}
