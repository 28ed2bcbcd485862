package resource

import (
	"net"

	"github.com/miekg/dns"

	"github.com/handshake-labs/hnsd/internal/common/clock"
)

const (
	rootNSTTL   = 518400
	rootSOATTL  = 86400
	rootNSECTTL = 86400
)

// rootTypeMap is the NSEC type bitmap advertised for the empty root
// zone: NS, SOA, RRSIG, NSEC, DNSKEY. Packed, it is the literal window
// 00 07 22 00 00 00 00 03 80.
var rootTypeMap = []uint16{
	dns.TypeNS,
	dns.TypeSOA,
	dns.TypeRRSIG,
	dns.TypeNSEC,
	dns.TypeDNSKEY,
}

var clk clock.Clock = clock.RealClock{}

// SetClock replaces the clock used for SOA serial generation. Useful
// for testing.
func SetClock(c clock.Clock) {
	clk = c
}

// rootSerial packs a timestamp as YYYYMMDDHH in UTC.
func rootSerial() uint32 {
	t := clk.Now().UTC()
	return uint32(t.Year())*1e6 +
		uint32(t.Month())*1e4 +
		uint32(t.Day())*1e2 +
		uint32(t.Hour())
}

// rootToSOA appends the synthetic root SOA.
func rootToSOA(section *[]dns.RR) {
	*section = append(*section, &dns.SOA{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeSOA,
			Class:  dns.ClassINET,
			Ttl:    rootSOATTL,
		},
		Ns:      ".",
		Mbox:    ".",
		Serial:  rootSerial(),
		Refresh: 1800,
		Retry:   900,
		Expire:  604800,
		Minttl:  86400,
	})
}

// rootToNS appends the root NS record.
func rootToNS(section *[]dns.RR) {
	*section = append(*section, &dns.NS{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeNS,
			Class:  dns.ClassINET,
			Ttl:    rootNSTTL,
		},
		Ns: ".",
	})
}

// rootToA appends a root A record when addr is IPv4.
func rootToA(section *[]dns.RR, addr net.IP) {
	v4 := addr.To4()
	if v4 == nil {
		return
	}

	*section = append(*section, &dns.A{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    rootNSTTL,
		},
		A: append(net.IP(nil), v4...),
	})
}

// rootToAAAA appends a root AAAA record when addr is IPv6.
func rootToAAAA(section *[]dns.RR, addr net.IP) {
	if addr == nil || addr.To4() != nil {
		return
	}

	*section = append(*section, &dns.AAAA{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeAAAA,
			Class:  dns.ClassINET,
			Ttl:    rootNSTTL,
		},
		AAAA: append(net.IP(nil), addr.To16()...),
	})
}

// toEmpty appends an NSEC proving the queried name has no records.
// The next domain is the root and the type map carries only what the
// caller declares.
func toEmpty(name string, typeMap []uint16, section *[]dns.RR) {
	*section = append(*section, &dns.NSEC{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeNSEC,
			Class:  dns.ClassINET,
			Ttl:    rootNSECTTL,
		},
		NextDomain: ".",
		TypeBitMap: append([]uint16(nil), typeMap...),
	})
}

// rootToNSEC appends the root NSEC with the fixed type bitmap.
func rootToNSEC(section *[]dns.RR) {
	toEmpty(".", rootTypeMap, section)
}

// Root synthesizes a response for a query against the empty root zone.
// selfAddr is the address this daemon is reachable on; its family
// picks the additional-section record.
func Root(qtype uint16, selfAddr net.IP, sec Signer) *dns.Msg {
	msg := new(dns.Msg)
	msg.Authoritative = true

	an := &msg.Answer
	ns := &msg.Ns
	ar := &msg.Extra

	switch qtype {
	case dns.TypeANY, dns.TypeNS:
		rootToNS(an)
		sec.SignZSK(an, dns.TypeNS)

		rootToA(ar, selfAddr)
		sec.SignZSK(ar, dns.TypeA)

		rootToAAAA(ar, selfAddr)
		sec.SignZSK(ar, dns.TypeAAAA)
	case dns.TypeSOA:
		rootToSOA(an)
		sec.SignZSK(an, dns.TypeSOA)

		rootToNS(ns)
		sec.SignZSK(ns, dns.TypeNS)

		rootToA(ar, selfAddr)
		sec.SignZSK(ar, dns.TypeA)

		rootToAAAA(ar, selfAddr)
		sec.SignZSK(ar, dns.TypeAAAA)
	case dns.TypeDNSKEY:
		*an = append(*an, sec.KSK(), sec.ZSK())
		sec.SignKSK(an, dns.TypeDNSKEY)
	case dns.TypeDS:
		*an = append(*an, sec.DS())
		sec.SignZSK(an, dns.TypeDS)
	default:
		// Empty proof advertising the types the root signs.
		rootToNSEC(ns)
		sec.SignZSK(ns, dns.TypeNSEC)
		rootToSOA(ns)
		sec.SignZSK(ns, dns.TypeSOA)
	}

	return msg
}

// NX builds the NXDOMAIN response. The proof shapes the root as an
// empty zone: two identical root NSECs under one RRSIG, then the
// signed SOA. Strict validators accept this without further lookups.
func NX(sec Signer) *dns.Msg {
	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeNameError
	msg.Authoritative = true

	ns := &msg.Ns

	rootToNSEC(ns)
	rootToNSEC(ns)
	sec.SignZSK(ns, dns.TypeNSEC)

	rootToSOA(ns)
	sec.SignZSK(ns, dns.TypeSOA)

	return msg
}

// ServFail builds an empty SERVFAIL response.
func ServFail() *dns.Msg {
	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeServerFailure
	return msg
}

// NotImp builds an empty NOTIMP response.
func NotImp() *dns.Msg {
	msg := new(dns.Msg)
	msg.Rcode = dns.RcodeNotImplemented
	return msg
}
