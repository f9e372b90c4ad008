package pkg

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseTrustedProxies accepts plain IPs and CIDR ranges.
func ParseTrustedProxies(entries []string) ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("trusted proxy %s is invalid", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 8 * net.IPv4len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %s: %w", entry, err)
		}
		nets = append(nets, ipNet)
	}
	return nets, nil
}

func ipTrusted(ip net.IP, trustedProxies []*net.IPNet) bool {
	for _, ipNet := range trustedProxies {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// ReadUserIP returns the client IP. X-Real-Ip and X-Forwarded-For are only read when the
// connection comes from one of trustedProxies, otherwise the socket peer address is used.
// In X-Forwarded-For the rightmost address that is not a trusted proxy wins.
func ReadUserIP(r *http.Request, trustedProxies []*net.IPNet) (string, error) {
	peerAddr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peerAddr); err == nil {
		peerAddr = host
	}

	peer := net.ParseIP(peerAddr)
	if peer == nil {
		return "", fmt.Errorf("ip addr %s is invalid", peerAddr)
	}
	if !ipTrusted(peer, trustedProxies) {
		return peer.String(), nil
	}

	if realIP := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-Ip"))); realIP != nil {
		return realIP.String(), nil
	}

	forwardedFor := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(forwardedFor) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(forwardedFor[i]))
		if ip == nil {
			break
		}
		if !ipTrusted(ip, trustedProxies) {
			return ip.String(), nil
		}
	}

	return peer.String(), nil
}
