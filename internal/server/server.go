// Package server answers authoritative DNS queries for the Handshake
// root zone. It resolves the top-level label of each question through a
// Lookup backend, which returns the decoded resource, and projects it
// onto a signed response. Synthetic pointer names are answered locally without
// touching the backend.
package server

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"

	"github.com/handshake-labs/hnsd/internal/common/log"
	"github.com/handshake-labs/hnsd/internal/resource"
)

// Lookup fetches the decoded resource for a top-level name. A nil resource
// with a nil error means the name does not exist.
type Lookup interface {
	Resource(ctx context.Context, name string) (*resource.Resource, error)
}

// Cache stores decoded resources between queries for the same name.
type Cache interface {
	Get(name string) (*resource.Resource, bool)
	Set(name string, res *resource.Resource)
}

// Options configures a Server.
type Options struct {
	// Addr is the host:port to bind both UDP and TCP listeners to.
	Addr string

	// Lookup resolves top-level names to decoded resources.
	Lookup Lookup

	// Cache holds decoded resources. Nil disables caching.
	Cache Cache

	// Signer provides the zone keys and RRSIG hooks.
	Signer resource.Signer

	// RootAddr, when set, is advertised as the root name server's
	// address.
	RootAddr net.IP

	// Logger defaults to the global logger when nil.
	Logger log.Logger
}

// Server serves the root zone over UDP and TCP.
type Server struct {
	addr     string
	lookup   Lookup
	cache    Cache
	signer   resource.Signer
	rootAddr net.IP
	logger   log.Logger

	mu      sync.Mutex
	running bool
	udp     *dns.Server
	tcp     *dns.Server
}

// New builds a Server from options. Lookup and Signer are required.
func New(opts Options) (*Server, error) {
	if opts.Lookup == nil {
		return nil, fmt.Errorf("server: lookup backend is required")
	}
	if opts.Signer == nil {
		return nil, fmt.Errorf("server: signer is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}

	return &Server{
		addr:     opts.Addr,
		lookup:   opts.Lookup,
		cache:    opts.Cache,
		signer:   opts.Signer,
		rootAddr: opts.RootAddr,
		logger:   logger,
	}, nil
}

// Start binds the UDP and TCP listeners and serves until Stop is
// called. It returns once both listeners are running.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, req *dns.Msg) {
		s.handle(ctx, w, req)
	})

	s.udp = &dns.Server{Addr: s.addr, Net: "udp", Handler: mux}
	s.tcp = &dns.Server{Addr: s.addr, Net: "tcp", Handler: mux}

	errCh := make(chan error, 2)
	for _, srv := range []*dns.Server{s.udp, s.tcp} {
		srv := srv
		started := make(chan struct{})
		srv.NotifyStartedFunc = func() { close(started) }
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		select {
		case <-started:
		case err := <-errCh:
			return fmt.Errorf("failed to bind %s listener on %s: %w", srv.Net, s.addr, err)
		}
	}

	s.running = true

	s.logger.Info(map[string]any{
		"address": s.addr,
	}, "DNS server started")

	return nil
}

// Stop shuts down both listeners, waiting for in-flight queries up to
// the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	var firstErr error
	for _, srv := range []*dns.Server{s.udp, s.tcp} {
		if err := srv.ShutdownContext(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.running = false

	s.logger.Info(map[string]any{
		"address": s.addr,
	}, "DNS server stopped")

	return firstErr
}

// Address returns the configured bind address.
func (s *Server) Address() string {
	return s.addr
}

// handle answers one query and writes the reply.
func (s *Server) handle(ctx context.Context, w dns.ResponseWriter, req *dns.Msg) {
	out := s.respond(ctx, req)
	if out == nil {
		return
	}

	out.Id = req.Id
	out.Response = true
	out.Question = req.Question

	if err := w.WriteMsg(out); err != nil {
		s.logger.Warn(map[string]any{
			"client": w.RemoteAddr().String(),
			"error":  err.Error(),
		}, "Failed to write DNS response")
	}
}

// respond builds the unsent reply for a request.
func (s *Server) respond(ctx context.Context, req *dns.Msg) *dns.Msg {
	if len(req.Question) != 1 {
		out := new(dns.Msg)
		out.Rcode = dns.RcodeFormatError
		return out
	}

	q := req.Question[0]
	if q.Qclass != dns.ClassINET && q.Qclass != dns.ClassANY {
		return resource.NotImp()
	}

	name := strings.ToLower(q.Name)

	s.logger.Debug(map[string]any{
		"name": name,
		"type": dns.TypeToString[q.Qtype],
	}, "Received DNS query")

	if name == "." {
		return resource.Root(q.Qtype, s.rootAddr, s.signer)
	}

	if resource.IsPointer(name) {
		return s.respondPointer(name, q.Qtype)
	}

	return s.respondName(ctx, name, q.Qtype)
}

// respondPointer decodes an encoded-address name and answers with the
// address it carries. The proof of nonexistence for the mismatched
// family is omitted, matching the zone's minimal synthetic answers.
func (s *Server) respondPointer(name string, qtype uint16) *dns.Msg {
	ip, family, ok := resource.PointerToIP(name)
	if !ok {
		return resource.NX(s.signer)
	}

	out := new(dns.Msg)
	out.Authoritative = true

	if qtype == family || qtype == dns.TypeANY {
		hdr := dns.RR_Header{
			Name:   name,
			Rrtype: family,
			Class:  dns.ClassINET,
			Ttl:    resource.DefaultTTL,
		}
		switch family {
		case dns.TypeA:
			out.Answer = append(out.Answer, &dns.A{Hdr: hdr, A: ip})
		case dns.TypeAAAA:
			out.Answer = append(out.Answer, &dns.AAAA{Hdr: hdr, AAAA: ip})
		}
		s.signer.SignZSK(&out.Answer, family)
	}

	return out
}

// respondName resolves the query's top-level label and projects its
// resource onto a response.
func (s *Server) respondName(ctx context.Context, name string, qtype uint16) *dns.Msg {
	labels := dns.SplitDomainName(name)
	if len(labels) == 0 {
		return resource.ServFail()
	}
	tld := labels[len(labels)-1] + "."

	res, err := s.resolve(ctx, tld)
	if err != nil {
		s.logger.Error(map[string]any{
			"name":  tld,
			"error": err.Error(),
		}, "Name lookup failed")
		return resource.ServFail()
	}

	if res == nil {
		return resource.NX(s.signer)
	}

	out := resource.ToDNS(res, name, qtype, s.signer)
	if out == nil {
		return resource.ServFail()
	}
	return out
}

// resolve fetches a top-level name's resource through the cache.
func (s *Server) resolve(ctx context.Context, tld string) (*resource.Resource, error) {
	if s.cache != nil {
		if res, ok := s.cache.Get(tld); ok {
			s.logger.Debug(map[string]any{"name": tld}, "Resource cache hit")
			return res, nil
		}
	}

	res, err := s.lookup.Resource(ctx, tld)
	if err != nil || res == nil {
		return res, err
	}

	if s.cache != nil {
		s.cache.Set(tld, res)
	}
	return res, nil
}
