package utils

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseHostNoPort strips the port from "host:port" and "[v6]:port".
// Anything else is returned unchanged.
func ParseHostNoPort(s string) string {
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// proxyHeaders are consulted in order when the proxy is trusted.
var proxyHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"}

// ClientIP resolves the address a request came from. With trustProxy the
// first usable proxy header wins (left-most entry of X-Forwarded-For),
// otherwise only RemoteAddr counts.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, h := range proxyHeaders {
			v, _, _ := strings.Cut(r.Header.Get(h), ",")
			if ip := ParseHostNoPort(strings.TrimSpace(v)); ip != "" {
				return ip
			}
		}
	}
	return ParseHostNoPort(r.RemoteAddr)
}

// IPMatcher matches addresses against a list of prefixes. Single
// addresses are stored as full-length prefixes.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// ParseIPMatcher accepts IPs and CIDRs. Blank entries are skipped, invalid
// ones are reported together and left out of the matcher.
func ParseIPMatcher(list []string) (*IPMatcher, error) {
	m := &IPMatcher{}
	var invalid []string
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(s); err == nil {
			addr = addr.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		invalid = append(invalid, s)
	}
	if len(invalid) > 0 {
		return m, fmt.Errorf("invalid IP or CIDR: %s", strings.Join(invalid, ", "))
	}
	return m, nil
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

// Allow reports whether ip falls in any prefix. Unparsable input never matches.
func (m *IPMatcher) Allow(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
