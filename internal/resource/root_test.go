package resource

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"

	"github.com/handshake-labs/hnsd/internal/common/clock"
)

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(&clock.MockClock{Current: at})
	t.Cleanup(func() { SetClock(clock.RealClock{}) })
}

func TestRootSerial(t *testing.T) {
	pinClock(t, time.Date(2026, 8, 6, 14, 30, 0, 0, time.UTC))

	if got := rootSerial(); got != 2026080614 {
		t.Errorf("rootSerial() = %d, want 2026080614", got)
	}
}

func TestRoot_SOA(t *testing.T) {
	pinClock(t, time.Date(2026, 8, 6, 14, 0, 0, 0, time.UTC))
	sec := &mockSigner{}

	msg := Root(dns.TypeSOA, net.ParseIP("198.51.100.9"), sec)

	if !msg.Authoritative {
		t.Errorf("AA not set")
	}

	if countType(msg.Answer, dns.TypeSOA) != 1 {
		t.Fatalf("answer = %v, want one SOA", msg.Answer)
	}
	soa := msg.Answer[0].(*dns.SOA)
	if soa.Hdr.Ttl != 86400 {
		t.Errorf("SOA ttl = %d, want 86400", soa.Hdr.Ttl)
	}
	if soa.Serial != 2026080614 {
		t.Errorf("SOA serial = %d, want 2026080614", soa.Serial)
	}
	if soa.Refresh != 1800 || soa.Retry != 900 || soa.Expire != 604800 || soa.Minttl != 86400 {
		t.Errorf("SOA timers = %d/%d/%d/%d", soa.Refresh, soa.Retry, soa.Expire, soa.Minttl)
	}

	if countType(msg.Ns, dns.TypeNS) != 1 {
		t.Fatalf("authority = %v, want one NS", msg.Ns)
	}
	if ttl := msg.Ns[0].Header().Ttl; ttl != 518400 {
		t.Errorf("NS ttl = %d, want 518400", ttl)
	}

	if countType(msg.Extra, dns.TypeA) != 1 {
		t.Fatalf("additional = %v, want one A", msg.Extra)
	}
	a := msg.Extra[0].(*dns.A)
	if a.Hdr.Name != "." || a.A.String() != "198.51.100.9" || a.Hdr.Ttl != 518400 {
		t.Errorf("additional A = %q %v ttl %d", a.Hdr.Name, a.A, a.Hdr.Ttl)
	}

	// One signature per rrset.
	want := []uint16{dns.TypeSOA, dns.TypeNS, dns.TypeA}
	if len(sec.zskCovered) != len(want) {
		t.Fatalf("signed types = %v, want %v", sec.zskCovered, want)
	}
	for i, typ := range want {
		if sec.zskCovered[i] != typ {
			t.Errorf("signed[%d] = %d, want %d", i, sec.zskCovered[i], typ)
		}
	}
}

func TestRoot_NS_IPv6Addr(t *testing.T) {
	sec := &mockSigner{}

	msg := Root(dns.TypeNS, net.ParseIP("2001:db8::9"), sec)

	if countType(msg.Answer, dns.TypeNS) != 1 {
		t.Fatalf("answer = %v, want one NS", msg.Answer)
	}
	if countType(msg.Extra, dns.TypeAAAA) != 1 {
		t.Fatalf("additional = %v, want one AAAA", msg.Extra)
	}
	if countType(msg.Extra, dns.TypeA) != 0 {
		t.Errorf("additional carries A for an IPv6 address")
	}
}

func TestRoot_NoAddr(t *testing.T) {
	msg := Root(dns.TypeNS, nil, &mockSigner{})

	if len(msg.Extra) != 0 {
		t.Errorf("additional = %v, want empty without a self address", msg.Extra)
	}
}

func TestRoot_DNSKEY(t *testing.T) {
	sec := &mockSigner{}

	msg := Root(dns.TypeDNSKEY, nil, sec)

	if countType(msg.Answer, dns.TypeDNSKEY) != 2 {
		t.Fatalf("answer = %v, want KSK and ZSK", msg.Answer)
	}
	if len(sec.kskCovered) != 1 || sec.kskCovered[0] != dns.TypeDNSKEY {
		t.Errorf("KSK signed types = %v, want [DNSKEY]", sec.kskCovered)
	}
	if len(sec.zskCovered) != 0 {
		t.Errorf("ZSK signed types = %v, want none", sec.zskCovered)
	}
}

func TestRoot_DS(t *testing.T) {
	sec := &mockSigner{}

	msg := Root(dns.TypeDS, nil, sec)

	if countType(msg.Answer, dns.TypeDS) != 1 {
		t.Fatalf("answer = %v, want one DS", msg.Answer)
	}
	if len(sec.zskCovered) != 1 || sec.zskCovered[0] != dns.TypeDS {
		t.Errorf("signed types = %v, want [DS]", sec.zskCovered)
	}
}

func TestRoot_DefaultEmptyProof(t *testing.T) {
	sec := &mockSigner{}

	msg := Root(dns.TypeTXT, nil, sec)

	if len(msg.Answer) != 0 {
		t.Errorf("answer = %v, want empty", msg.Answer)
	}
	if countType(msg.Ns, dns.TypeNSEC) != 1 || countType(msg.Ns, dns.TypeSOA) != 1 {
		t.Fatalf("authority = %v, want NSEC and SOA", msg.Ns)
	}

	nsec := msg.Ns[0].(*dns.NSEC)
	if nsec.NextDomain != "." {
		t.Errorf("NSEC next domain = %q, want .", nsec.NextDomain)
	}
	wantMap := []uint16{dns.TypeNS, dns.TypeSOA, dns.TypeRRSIG, dns.TypeNSEC, dns.TypeDNSKEY}
	if len(nsec.TypeBitMap) != len(wantMap) {
		t.Fatalf("type bitmap = %v, want %v", nsec.TypeBitMap, wantMap)
	}
	for i, typ := range wantMap {
		if nsec.TypeBitMap[i] != typ {
			t.Errorf("bitmap[%d] = %d, want %d", i, nsec.TypeBitMap[i], typ)
		}
	}
}

func TestRootNSEC_WireBitmap(t *testing.T) {
	var section []dns.RR
	rootToNSEC(&section)

	buf := make([]byte, 512)
	off, err := dns.PackRR(section[0], buf, 0, nil, false)
	if err != nil {
		t.Fatalf("PackRR failed: %v", err)
	}

	// Rdata is the next-domain root (one byte) followed by the fixed
	// window: 00 07 22 00 00 00 00 03 80.
	want := []byte{0x00, 0x07, 0x22, 0x00, 0x00, 0x00, 0x00, 0x03, 0x80}
	if !bytes.Equal(buf[off-len(want):off], want) {
		t.Errorf("packed bitmap = %x, want %x", buf[off-len(want):off], want)
	}
}

func TestNX(t *testing.T) {
	pinClock(t, time.Date(2026, 8, 6, 14, 0, 0, 0, time.UTC))
	sec := &mockSigner{}

	msg := NX(sec)

	if msg.Rcode != dns.RcodeNameError {
		t.Errorf("rcode = %d, want NXDOMAIN", msg.Rcode)
	}
	if !msg.Authoritative {
		t.Errorf("AA not set")
	}

	if countType(msg.Ns, dns.TypeNSEC) != 2 {
		t.Fatalf("authority = %v, want two NSECs", msg.Ns)
	}
	for _, rr := range msg.Ns {
		if rr.Header().Rrtype == dns.TypeNSEC && rr.Header().Ttl != 86400 {
			t.Errorf("NSEC ttl = %d, want 86400", rr.Header().Ttl)
		}
	}

	if countType(msg.Ns, dns.TypeSOA) != 1 {
		t.Errorf("authority SOA count = %d, want 1", countType(msg.Ns, dns.TypeSOA))
	}

	// One signature over the NSEC rrset, one over the SOA.
	want := []uint16{dns.TypeNSEC, dns.TypeSOA}
	if len(sec.zskCovered) != len(want) {
		t.Fatalf("signed types = %v, want %v", sec.zskCovered, want)
	}
}

func TestServFail(t *testing.T) {
	if msg := ServFail(); msg.Rcode != dns.RcodeServerFailure {
		t.Errorf("rcode = %d, want SERVFAIL", msg.Rcode)
	}
}

func TestNotImp(t *testing.T) {
	if msg := NotImp(); msg.Rcode != dns.RcodeNotImplemented {
		t.Errorf("rcode = %d, want NOTIMP", msg.Rcode)
	}
}
