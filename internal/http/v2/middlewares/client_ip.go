package middlewares

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const ctxClientIPKey ctxKey = "client_ip"

// TrustedProxies son los proxies cuyo X-Forwarded-For / X-Real-IP se acepta.
// Vacío = se usa siempre RemoteAddr.
type TrustedProxies []netip.Prefix

// ParseTrustedProxies acepta CIDRs ("10.0.0.0/8") o IPs sueltas.
func ParseTrustedProxies(entries []string) (TrustedProxies, error) {
	var out TrustedProxies
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", e, err)
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func (t TrustedProxies) trusts(a netip.Addr) bool {
	a = a.Unmap()
	for _, p := range t {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// Resolve devuelve la IP del cliente. Los headers de proxy solo cuentan si el
// peer es de confianza; X-Forwarded-For se recorre de derecha a izquierda y
// gana el primer hop no confiable, así un cliente no puede inventar su IP.
func (t TrustedProxies) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	pa, err := netip.ParseAddr(peer)
	if err != nil || !t.trusts(pa) {
		return peer
	}

	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		hops := strings.Split(xf, ",")
		client := peer
		for i := len(hops) - 1; i >= 0; i-- {
			h := strings.TrimSpace(hops[i])
			a, err := netip.ParseAddr(h)
			if err != nil {
				break
			}
			client = a.Unmap().String()
			if !t.trusts(a) {
				break
			}
		}
		return client
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		if a, err := netip.ParseAddr(xr); err == nil {
			return a.Unmap().String()
		}
	}
	return peer
}

// WithClientIP resuelve la IP una vez por request; ClientIP la lee después.
func WithClientIP(t TrustedProxies) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxClientIPKey, t.Resolve(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP devuelve la IP resuelta por WithClientIP, o el host de RemoteAddr.
// Nunca confía en headers por su cuenta.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ctxClientIPKey).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
