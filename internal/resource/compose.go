package resource

import (
	"github.com/miekg/dns"
)

// Signer provides the DNSSEC material and signing hooks the composers
// need. Signing a section appends one RRSIG covering the rrset of the
// given type, and is a no-op when the section holds no such rrset.
type Signer interface {
	SignZSK(section *[]dns.RR, covered uint16)
	SignKSK(section *[]dns.RR, covered uint16)
	KSK() dns.RR
	ZSK() dns.RR
	DS() dns.RR
}

// ToDNS projects a resource onto a DNS response for the given query
// name and type. It returns nil only when the query name has no
// labels. Multi-label names produce a referral toward the TLD; single
// labels answer at the apex.
func ToDNS(res *Resource, name string, qtype uint16, sec Signer) *dns.Msg {
	labels := dns.CountLabel(name)

	if labels == 0 {
		return nil
	}

	tld, _ := lastLabel(name)
	tld += "."

	msg := new(dns.Msg)

	an := &msg.Answer
	ns := &msg.Ns
	ar := &msg.Extra

	// Referral.
	if labels > 1 {
		if res.HasNS() {
			res.toNS(tld, ns)
			res.toDS(tld, ns)
			res.toNSIP(tld, ar)
			res.toGlue(ar, dns.TypeNS)
			// A referral for a signed child covers the DS rrset, an
			// unsigned one covers the NS rrset.
			if !res.Has(TypeDS) {
				sec.SignZSK(ns, dns.TypeNS)
			} else {
				sec.SignZSK(ns, dns.TypeDS)
			}
		} else if res.Has(TypeDELEGATE) {
			res.toDNAME(name, an)
			res.toGlue(ar, dns.TypeDNAME)
			sec.SignZSK(an, dns.TypeDNAME)
			sec.SignZSK(ar, dns.TypeA)
			sec.SignZSK(ar, dns.TypeAAAA)
		} else {
			// Empty proof with the root SOA.
			toEmpty(tld, nil, ns)
			sec.SignZSK(ns, dns.TypeNSEC)
			rootToSOA(ns)
			sec.SignZSK(ns, dns.TypeSOA)
		}

		return msg
	}

	switch qtype {
	case dns.TypeA:
		res.toA(name, an)
		sec.SignZSK(an, dns.TypeA)
	case dns.TypeAAAA:
		res.toAAAA(name, an)
		sec.SignZSK(an, dns.TypeAAAA)
	case dns.TypeCNAME:
		res.toCNAME(name, an)
		res.toGlue(ar, dns.TypeCNAME)
		sec.SignZSK(an, dns.TypeCNAME)
		sec.SignZSK(ar, dns.TypeA)
		sec.SignZSK(ar, dns.TypeAAAA)
	case dns.TypeDNAME:
		res.toDNAME(name, an)
		res.toGlue(ar, dns.TypeDNAME)
		sec.SignZSK(an, dns.TypeDNAME)
		sec.SignZSK(ar, dns.TypeA)
		sec.SignZSK(ar, dns.TypeAAAA)
	case dns.TypeNS:
		res.toNS(name, ns)
		res.toGlue(ar, dns.TypeNS)
		res.toNSIP(name, ar)
		sec.SignZSK(ns, dns.TypeNS)
	case dns.TypeMX:
		res.toMX(name, an)
		res.toMXIP(name, ar)
		res.toGlue(ar, dns.TypeMX)
		sec.SignZSK(an, dns.TypeMX)
	case dns.TypeTXT:
		res.toTXT(name, an)
		sec.SignZSK(an, dns.TypeTXT)
	case dns.TypeLOC:
		res.toLOC(name, an)
		sec.SignZSK(an, dns.TypeLOC)
	case dns.TypeDS:
		res.toDS(name, an)
		sec.SignZSK(an, dns.TypeDS)
	case dns.TypeSSHFP:
		res.toSSHFP(name, an)
		sec.SignZSK(an, dns.TypeSSHFP)
	case dns.TypeURI:
		res.toURI(name, an)
		sec.SignZSK(an, dns.TypeURI)
	case dns.TypeRP:
		res.toRP(name, an)
		sec.SignZSK(an, dns.TypeRP)
	}

	if len(*an) > 0 {
		msg.Authoritative = true
	}

	if len(*an) == 0 && len(*ns) == 0 {
		if res.Has(TypeCANONICAL) {
			msg.Authoritative = true
			res.toCNAME(name, an)
			res.toGlue(ar, dns.TypeCNAME)
			sec.SignZSK(an, dns.TypeCNAME)
			sec.SignZSK(ar, dns.TypeA)
			sec.SignZSK(ar, dns.TypeAAAA)
		} else if res.HasNS() {
			res.toNS(name, ns)
			res.toDS(name, ns)
			res.toNSIP(name, ar)
			res.toGlue(ar, dns.TypeNS)
			if !res.Has(TypeDS) {
				sec.SignZSK(ns, dns.TypeNS)
			} else {
				sec.SignZSK(ns, dns.TypeDS)
			}
		} else {
			// Empty proof with the root SOA.
			toEmpty(name, nil, ns)
			sec.SignZSK(ns, dns.TypeNSEC)
			rootToSOA(ns)
			sec.SignZSK(ns, dns.TypeSOA)
		}
	}

	return msg
}
