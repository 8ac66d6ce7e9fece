package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// Hash produces a stable, non-reversible 16-hex-char identifier for a client
// address. The same address always hashes identically; the raw address is
// never stored.
func Hash(addr, salt string) string {
	sum := sha256.Sum256([]byte(salt + addr))
	return hex.EncodeToString(sum[:])[:16]
}

// FromRequest extracts the client address from the request and hashes it.
// The first X-Forwarded-For hop wins when present, otherwise the socket
// address is used.
func FromRequest(r *http.Request, salt string) string {
	return Hash(clientAddr(r), salt)
}

func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
