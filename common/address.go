package common

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseAddress splits an "ip:port" listen address and validates both parts.
// The IP may be a literal IPv4 address or one of the wildcard spellings
// "0.0.0.0", "any", "ANY", "*" and the empty string, all of which mean
// INADDR_ANY.
func ParseAddress(address string) (string, int, error) {
	colon := strings.LastIndex(address, ":")
	if colon < 0 {
		return "", 0, fmt.Errorf("%w: address %q has no port", ErrInvalidConfig, address)
	}

	ip := address[:colon]
	portStr := address[colon+1:]

	if !isWildcardIP(ip) && net.ParseIP(ip) == nil {
		return "", 0, fmt.Errorf("%w: invalid IP address %q", ErrInvalidConfig, ip)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: invalid port %q", ErrInvalidConfig, portStr)
	}

	return ip, port, nil
}

func isWildcardIP(ip string) bool {
	switch ip {
	case "", "0.0.0.0", "any", "ANY", "*":
		return true
	}
	return false
}
