// Package dns handles all hostname resolution logic
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/tcp-ping/tcpping/option"
)

var (
	ErrResolve       = errors.New("resolve hostname")
	ErrEmptyHostname = fmt.Errorf("%w: empty hostname", ErrResolve)
	ErrNoIPv4Address = fmt.Errorf("%w: no ipv4 address found", ErrResolve)
	ErrNoIPv6Address = fmt.Errorf("%w: no ipv6 address found", ErrResolve)
)

// Family restricts resolution to one address family.
type Family int

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
	FamilyDefault // whatever the system resolver returns first
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	case FamilyDefault:
		return "any"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// network is the LookupNetIP network name for the family.
func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	default:
		return "ip"
	}
}

func (f Family) matches(ip netip.Addr) bool {
	switch f {
	case FamilyIPv4:
		return ip.Is4()
	case FamilyIPv6:
		return ip.Is6()
	default:
		return true
	}
}

func (f Family) errNotFound() error {
	if f == FamilyIPv6 {
		return ErrNoIPv6Address
	}
	return ErrNoIPv4Address
}

// Resolver handles hostname resolution with configurable options
type Resolver struct {
	timeout  time.Duration
	family   Family
	resolver *net.Resolver
}

type ResolverOption = option.Option[Resolver]

// WithTimeout sets the DNS resolution timeout
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

// WithFamily restricts the resolver to one address family.
func WithFamily(f Family) ResolverOption {
	return func(r *Resolver) {
		r.family = f
	}
}

// WithNetResolver replaces net.DefaultResolver.
func WithNetResolver(nr *net.Resolver) ResolverOption {
	return func(r *Resolver) {
		r.resolver = nr
	}
}

const defaultTimeout = 2 * time.Second

// NewResolver creates a new DNS resolver. Without options it returns IPv4 addresses only.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		timeout:  defaultTimeout,
		family:   FamilyIPv4,
		resolver: net.DefaultResolver,
	}
	option.Apply(r, opts...)
	return r
}

// Family returns the address family the resolver is restricted to.
func (r *Resolver) Family() Family {
	return r.family
}

// Resolve returns the first address of the configured family for hostname.
// IP literals are returned as they are once they match the family.
// The lookup is bounded by the resolver timeout unless ctx already has a deadline.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (netip.Addr, error) {
	if hostname == "" {
		return netip.Addr{}, ErrEmptyHostname
	}

	if ip, err := netip.ParseAddr(hostname); err == nil {
		ip = ip.Unmap()
		if !r.family.matches(ip) {
			return netip.Addr{}, fmt.Errorf("%w: %s is not an %s address", r.family.errNotFound(), hostname, r.family)
		}
		return ip, nil
	}

	lctx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	ipAddrs, err := r.resolver.LookupNetIP(lctx, r.family.network(), hostname)
	if err != nil {
		if r.family != FamilyDefault && noRecordsForFamily(err) {
			// the name may still exist with records of the other family only
			return netip.Addr{}, fmt.Errorf("%w: %s: %w", r.family.errNotFound(), hostname, err)
		}
		return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrResolve, hostname, err)
	}

	for _, ip := range ipAddrs {
		// static builds (CGO=0) return IPv4-mapped IPv6 addresses
		ip = ip.Unmap()
		if r.family.matches(ip) {
			return ip, nil
		}
	}

	if r.family == FamilyDefault {
		return netip.Addr{}, fmt.Errorf("%w: %s: no addresses", ErrResolve, hostname)
	}

	return netip.Addr{}, fmt.Errorf("%w: %s", r.family.errNotFound(), hostname)
}

// noRecordsForFamily reports whether a lookup failed because the name has no
// address of the requested family. A DNS query answers "not found", while an
// answer from the hosts file is filtered into a *net.AddrError.
func noRecordsForFamily(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound
	}

	var addrErr *net.AddrError
	return errors.As(err, &addrErr)
}

// ResolveHostname is a package-level convenience function that uses default settings
func ResolveHostname(ctx context.Context, hostname string, f Family) (netip.Addr, error) {
	return NewResolver(WithFamily(f)).Resolve(ctx, hostname)
}
