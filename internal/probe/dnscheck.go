package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// DNSClass is a coarse classification of why a host did or did not resolve.
type DNSClass string

const (
	DNSResolves      DNSClass = "RESOLVES"
	DNSNXDomain      DNSClass = "NXDOMAIN"
	DNSNoARecord     DNSClass = "NO_A_RECORD"
	DNSServfail      DNSClass = "SERVFAIL_or_TIMEOUT"
	DNSInvalidName   DNSClass = "INVALID_NAME"
	DNSLiteralIPAddr DNSClass = "IP_LITERAL"
)

type DNSStatus struct {
	Host          string
	Class         DNSClass
	IPs           []net.IP
	CNAME         string
	Nameservers   []string
	ResolverError string
}

var dnsTimeout = 3 * time.Second

// Resolver is the subset of *net.Resolver used by DiagnoseDNS.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
}

// DiagnoseDNS explains a failed probe from the name-resolution side.
// A nil resolver means the OS resolver.
func DiagnoseDNS(ctx context.Context, r Resolver, host string) DNSStatus {
	s := DNSStatus{Host: strings.TrimSpace(host)}
	if s.Host == "" || strings.Contains(s.Host, "://") {
		s.Class = DNSInvalidName
		return s
	}
	if ip := net.ParseIP(s.Host); ip != nil {
		s.Class = DNSLiteralIPAddr
		s.IPs = []net.IP{ip}
		return s
	}
	if r == nil {
		r = net.DefaultResolver
	}

	ctx, cancel := context.WithTimeout(ctx, dnsTimeout)
	defer cancel()

	ips, err := r.LookupIP(ctx, "ip", s.Host)
	switch {
	case err == nil && len(ips) > 0:
		s.IPs = ips
		s.Class = DNSResolves
	case err != nil:
		s.ResolverError = err.Error()
		var de *net.DNSError
		if errors.As(err, &de) {
			if de.IsNotFound {
				s.Class = DNSNXDomain
			} else if de.IsTemporary || de.Timeout() {
				s.Class = DNSServfail
			}
		}
	}

	if cname, err := r.LookupCNAME(ctx, s.Host); err == nil && !strings.EqualFold(cname, s.Host+".") {
		s.CNAME = strings.TrimSuffix(cname, ".")
	}

	if ns, err := r.LookupNS(ctx, s.Host); err == nil && len(ns) > 0 {
		for _, n := range ns {
			s.Nameservers = append(s.Nameservers, strings.TrimSuffix(n.Host, "."))
		}
		// the zone exists, just no address records
		if s.Class == DNSNXDomain {
			s.Class = DNSNoARecord
		}
	}

	if s.Class == "" {
		switch {
		case len(s.Nameservers) > 0:
			s.Class = DNSNoARecord
		case s.ResolverError != "":
			s.Class = DNSServfail
		default:
			s.Class = DNSNXDomain
		}
	}
	return s
}
