package utils

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanjana123-dot/hometownhub/config"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmailFormat performs a cheap syntactic check before the DNS lookup.
func ValidEmailFormat(email string) bool {
	return emailPattern.MatchString(email)
}

// VerifyEmailDomain checks that the email's domain publishes MX records, using
// fixed public resolvers so the result does not depend on host DNS settings.
// Lookup failures reject the address: an unreachable resolver should not let
// throwaway domains through.
func VerifyEmailDomain(ctx context.Context, email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]

	cfg := config.Get()
	for _, server := range cfg.DNSServers {
		resolver := &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 3 * time.Second}
				return d.DialContext(ctx, network, server)
			},
		}

		lookupCtx, cancel := context.WithTimeout(ctx, 4*time.Second)
		records, err := resolver.LookupMX(lookupCtx, domain)
		cancel()
		if err != nil {
			Logger.Debug("mx lookup failed", zap.String("domain", domain), zap.String("resolver", server), zap.Error(err))
			continue
		}
		return len(records) > 0
	}

	Logger.Warn("all mx resolvers failed, rejecting", zap.String("domain", domain))
	return false
}
