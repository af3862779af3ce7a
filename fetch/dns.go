package fetch

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"github.com/yaoapp/kun/log"
)

// Resolver look hosts up against explicit dns servers and cache the answers
type Resolver struct {
	servers []string
	client  *dns.Client
	mu      sync.RWMutex
	caches  map[string][]string
}

// NewResolver create a resolver. servers are host:port, port 53 is assumed when missing.
// With no servers the ones in /etc/resolv.conf are used
func NewResolver(servers ...string) (*Resolver, error) {
	if len(servers) == 0 {
		conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
		if err != nil || len(conf.Servers) == 0 {
			return nil, fmt.Errorf("no dns servers: %v", err)
		}
		for _, server := range conf.Servers {
			servers = append(servers, net.JoinHostPort(server, conf.Port))
		}
	}

	for i, server := range servers {
		if _, _, err := net.SplitHostPort(server); err != nil {
			servers[i] = net.JoinHostPort(server, "53")
		}
	}
	return &Resolver{servers: servers, client: new(dns.Client), caches: map[string][]string{}}, nil
}

// ResolverFromEnv create a resolver from WIDGETS_DNS (comma separated), nil when unset
func ResolverFromEnv() *Resolver {
	value := strings.TrimSpace(os.Getenv("WIDGETS_DNS"))
	if value == "" {
		return nil
	}
	servers := []string{}
	for _, server := range strings.Split(value, ",") {
		if server = strings.TrimSpace(server); server != "" {
			servers = append(servers, server)
		}
	}
	resolver, err := NewResolver(servers...)
	if err != nil {
		log.Error("[Fetch] WIDGETS_DNS %s: %s", value, err.Error())
		return nil
	}
	return resolver
}

// LookupIP the A and AAAA records of host, ip literals are returned as is
func (r *Resolver) LookupIP(ctx context.Context, host string) ([]string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []string{ip.String()}, nil
	}
	if host == "localhost" {
		return []string{"127.0.0.1"}, nil
	}

	r.mu.RLock()
	ips, has := r.caches[host]
	r.mu.RUnlock()
	if has {
		return ips, nil
	}

	for _, server := range r.servers {
		ips = []string{}
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			m := new(dns.Msg)
			m.SetQuestion(dns.Fqdn(host), qtype)
			in, _, err := r.client.ExchangeContext(ctx, m, server)
			if err != nil {
				log.Error("[Fetch] dns exchange %s %s: %s", server, host, err.Error())
				continue
			}
			if in.Rcode != dns.RcodeSuccess {
				continue
			}
			for _, answer := range in.Answer {
				switch rr := answer.(type) {
				case *dns.A:
					ips = append(ips, rr.A.String())
				case *dns.AAAA:
					ips = append(ips, rr.AAAA.String())
				}
			}
		}

		if len(ips) > 0 {
			r.mu.Lock()
			r.caches[host] = ips
			r.mu.Unlock()
			return ips, nil
		}
	}

	return nil, fmt.Errorf("dns: no address for %s", host)
}

// DialContext return a DialContext function for http.Transport, using the resolver
func (r *Resolver) DialContext() func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		ips, err := r.LookupIP(ctx, host)
		if err != nil {
			return nil, err
		}

		var dialer net.Dialer
		for _, ip := range ips {
			conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
			if err == nil {
				return conn, nil
			}
		}
		return nil, fmt.Errorf("dns: could not dial %s via %v", host, ips)
	}
}
