package resource

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// lastLabel extracts the final label of a query name, e.g. "example"
// from "sub.example.".
func lastLabel(name string) (string, bool) {
	labels := dns.SplitDomainName(name)
	if len(labels) == 0 {
		return "", false
	}
	return labels[len(labels)-1], true
}

// targetToDNS resolves a target into an on-wire DNS name. NAME and
// GLUE targets carry the name verbatim. Address targets synthesize a
// pointer name under the query's TLD. Other variants report not
// applicable so the caller can skip the record.
func targetToDNS(t *Target, name string) (string, bool) {
	switch t.Type {
	case TargetNAME, TargetGLUE:
		return t.Name, true
	case TargetINET4, TargetINET6:
		var b32 string
		if t.Type == TargetINET4 {
			b32 = ipToB32(t.Inet4[:])
		} else {
			b32 = ipToB32(t.Inet6[:])
		}

		tld, ok := lastLabel(name)
		if !ok {
			return "", false
		}

		return "_" + b32 + "." + tld + ".", true
	}

	return "", false
}

func (r *Resource) header(name string, rrtype uint16) dns.RR_Header {
	return dns.RR_Header{
		Name:   name,
		Rrtype: rrtype,
		Class:  dns.ClassINET,
		Ttl:    r.TTL,
	}
}

// toA emits one A record per INET4 host record.
func (r *Resource) toA(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeINET4 {
			continue
		}

		*an = append(*an, &dns.A{
			Hdr: r.header(name, dns.TypeA),
			A:   append([]byte(nil), host.Target.Inet4[:]...),
		})
	}
}

// toAAAA emits one AAAA record per INET6 host record.
func (r *Resource) toAAAA(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeINET6 {
			continue
		}

		*an = append(*an, &dns.AAAA{
			Hdr:  r.header(name, dns.TypeAAAA),
			AAAA: append([]byte(nil), host.Target.Inet6[:]...),
		})
	}
}

// toCNAME emits a CNAME per CANONICAL record with a name-shaped target.
func (r *Resource) toCNAME(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeCANONICAL {
			continue
		}

		if host.Target.Type != TargetNAME && host.Target.Type != TargetGLUE {
			continue
		}

		cname, ok := targetToDNS(&host.Target, name)
		if !ok {
			continue
		}

		*an = append(*an, &dns.CNAME{
			Hdr:    r.header(name, dns.TypeCNAME),
			Target: cname,
		})
	}
}

// toDNAME emits a DNAME per DELEGATE record with a name-shaped target.
func (r *Resource) toDNAME(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeDELEGATE {
			continue
		}

		if host.Target.Type != TargetNAME && host.Target.Type != TargetGLUE {
			continue
		}

		dname, ok := targetToDNS(&host.Target, name)
		if !ok {
			continue
		}

		*an = append(*an, &dns.DNAME{
			Hdr:    r.header(name, dns.TypeDNAME),
			Target: dname,
		})
	}
}

// toNS emits an NS record for every NS-typed record. Name and glue
// targets carry the server name verbatim. Address targets get a
// synthetic server name under the _synth pseudo-TLD, which the daemon
// resolves directly.
func (r *Resource) toNS(name string, ns *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeNS {
			continue
		}

		var nsname string

		switch host.Target.Type {
		case TargetINET4:
			nsname = "_" + ipToB32(host.Target.Inet4[:]) + "._synth."
		case TargetINET6:
			nsname = "_" + ipToB32(host.Target.Inet6[:]) + "._synth."
		case TargetNAME, TargetGLUE:
			nsname = host.Target.Name
		default:
			continue
		}

		*ns = append(*ns, &dns.NS{
			Hdr: r.header(name, dns.TypeNS),
			Ns:  nsname,
		})
	}
}

// toNSIP emits additional-section address records for NS records whose
// target is a raw address. The owner is the synthetic pointer name
// under the query's TLD.
func (r *Resource) toNSIP(name string, ar *[]dns.RR) {
	for _, rec := range r.Records {
		host, ok := rec.(*HostRecord)
		if !ok || host.RType != TypeNS {
			continue
		}

		target := &host.Target

		if target.Type != TargetINET4 && target.Type != TargetINET6 {
			continue
		}

		ptr, ok := targetToDNS(target, name)
		if !ok {
			continue
		}

		if target.Type == TargetINET4 {
			*ar = append(*ar, &dns.A{
				Hdr: r.header(ptr, dns.TypeA),
				A:   append([]byte(nil), target.Inet4[:]...),
			})
		} else {
			*ar = append(*ar, &dns.AAAA{
				Hdr:  r.header(ptr, dns.TypeAAAA),
				AAAA: append([]byte(nil), target.Inet6[:]...),
			})
		}
	}
}

// isSMTP matches the service/protocol pair that maps onto MX.
func isSMTP(rec *ServiceRecord) bool {
	return strings.EqualFold(rec.Service, "smtp.") && strings.EqualFold(rec.Protocol, "tcp.")
}

// toMX emits an MX per smtp/tcp service record.
func (r *Resource) toMX(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		svc, ok := rec.(*ServiceRecord)
		if !ok || !isSMTP(svc) {
			continue
		}

		mx, ok := targetToDNS(&svc.Target, name)
		if !ok {
			continue
		}

		*an = append(*an, &dns.MX{
			Hdr:        r.header(name, dns.TypeMX),
			Preference: uint16(svc.Priority),
			Mx:         mx,
		})
	}
}

// toSRV emits an SRV per service record matching the given service and
// protocol, compared ASCII-case-insensitively.
func (r *Resource) toSRV(name, protocol, service string, an *[]dns.RR) {
	for _, rec := range r.Records {
		svc, ok := rec.(*ServiceRecord)
		if !ok {
			continue
		}

		if !strings.EqualFold(protocol, svc.Protocol) {
			continue
		}

		if !strings.EqualFold(service, svc.Service) {
			continue
		}

		host, ok := targetToDNS(&svc.Target, name)
		if !ok {
			continue
		}

		*an = append(*an, &dns.SRV{
			Hdr:      r.header(name, dns.TypeSRV),
			Priority: uint16(svc.Priority),
			Weight:   uint16(svc.Weight),
			Port:     svc.Port,
			Target:   host,
		})
	}
}

// toSRVIP emits additional-section address records for matching
// service records with raw address targets, owned by the synthetic
// pointer name.
func (r *Resource) toSRVIP(name, protocol, service string, ar *[]dns.RR) {
	for _, rec := range r.Records {
		svc, ok := rec.(*ServiceRecord)
		if !ok {
			continue
		}

		if !strings.EqualFold(protocol, svc.Protocol) {
			continue
		}

		if !strings.EqualFold(service, svc.Service) {
			continue
		}

		target := &svc.Target

		if target.Type != TargetINET4 && target.Type != TargetINET6 {
			continue
		}

		ptr, ok := targetToDNS(target, name)
		if !ok {
			continue
		}

		if target.Type == TargetINET4 {
			*ar = append(*ar, &dns.A{
				Hdr: r.header(ptr, dns.TypeA),
				A:   append([]byte(nil), target.Inet4[:]...),
			})
		} else {
			*ar = append(*ar, &dns.AAAA{
				Hdr:  r.header(ptr, dns.TypeAAAA),
				AAAA: append([]byte(nil), target.Inet6[:]...),
			})
		}
	}
}

// toMXIP emits glue for the MX projection.
func (r *Resource) toMXIP(name string, ar *[]dns.RR) {
	r.toSRVIP(name, "tcp.", "smtp.", ar)
}

// toTXT emits a single-string TXT per TEXT record.
func (r *Resource) toTXT(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		txt, ok := rec.(*TxtRecord)
		if !ok || txt.RType != TypeTEXT {
			continue
		}

		*an = append(*an, &dns.TXT{
			Hdr: r.header(name, dns.TypeTXT),
			Txt: []string{txt.Text},
		})
	}
}

// toLOC passes the LOC fields through untouched.
func (r *Resource) toLOC(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		loc, ok := rec.(*LocationRecord)
		if !ok {
			continue
		}

		*an = append(*an, &dns.LOC{
			Hdr:       r.header(name, dns.TypeLOC),
			Version:   loc.Version,
			Size:      loc.Size,
			HorizPre:  loc.HorizPre,
			VertPre:   loc.VertPre,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Altitude:  loc.Altitude,
		})
	}
}

// toDS passes delegation signer records through.
func (r *Resource) toDS(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		ds, ok := rec.(*DSRecord)
		if !ok {
			continue
		}

		*an = append(*an, &dns.DS{
			Hdr:        r.header(name, dns.TypeDS),
			KeyTag:     ds.KeyTag,
			Algorithm:  ds.Algorithm,
			DigestType: ds.DigestType,
			Digest:     hex.EncodeToString(ds.Digest),
		})
	}
}

// toSSHFP emits an SSHFP per SSH record.
func (r *Resource) toSSHFP(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		ssh, ok := rec.(*SSHRecord)
		if !ok || ssh.RType != TypeSSH {
			continue
		}

		*an = append(*an, &dns.SSHFP{
			Hdr:         r.header(name, dns.TypeSSHFP),
			Algorithm:   ssh.Algorithm,
			Type:        ssh.KeyType,
			FingerPrint: hex.EncodeToString(ssh.Fingerprint),
		})
	}
}

// firstLabel lowercases and truncates a stored label string at its
// first dot.
func firstLabel(s string) string {
	s = strings.ToLower(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return s
}

// toURI emits URI records from three sources: URL records verbatim,
// MAGNET records as magnet links, and ADDR records as currency URIs.
// Anything that would exceed 255 bytes of data is skipped.
func (r *Resource) toURI(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		txt, ok := rec.(*TxtRecord)
		if !ok || txt.RType != TypeURL {
			continue
		}

		*an = append(*an, &dns.URI{
			Hdr:      r.header(name, dns.TypeURI),
			Priority: 0,
			Weight:   0,
			Target:   txt.Text,
		})
	}

	for _, rec := range r.Records {
		magnet, ok := rec.(*MagnetRecord)
		if !ok {
			continue
		}

		nid := firstLabel(magnet.NID)

		if 16+len(nid)+len(magnet.NIN)*2+1 > 255 {
			continue
		}

		*an = append(*an, &dns.URI{
			Hdr:      r.header(name, dns.TypeURI),
			Priority: 0,
			Weight:   0,
			Target:   fmt.Sprintf("magnet:?xt=urn:%s:%s", nid, hex.EncodeToString(magnet.NIN)),
		})
	}

	for _, rec := range r.Records {
		addr, ok := rec.(*AddrRecord)
		if !ok {
			continue
		}

		if addr.CType != 0 && addr.CType != 3 {
			continue
		}

		currency := firstLabel(addr.Currency)

		var target string
		if addr.CType == 0 {
			target = addr.Address
		} else {
			target = "0x" + hex.EncodeToString(addr.Hash)
		}

		if len(currency)+1+len(target)+1 > 255 {
			continue
		}

		*an = append(*an, &dns.URI{
			Hdr:      r.header(name, dns.TypeURI),
			Priority: 0,
			Weight:   0,
			Target:   currency + ":" + target,
		})
	}
}

// toRP emits an RP per EMAIL record whose text is at most 63 bytes and
// forms a valid DNS name when a trailing dot is appended.
func (r *Resource) toRP(name string, an *[]dns.RR) {
	for _, rec := range r.Records {
		email, ok := rec.(*TxtRecord)
		if !ok || email.RType != TypeEMAIL {
			continue
		}

		if len(email.Text) > 63 {
			continue
		}

		mbox := email.Text + "."

		if _, ok := dns.IsDomainName(mbox); !ok {
			continue
		}

		*an = append(*an, &dns.RP{
			Hdr:  r.header(name, dns.TypeRP),
			Mbox: mbox,
			Txt:  ".",
		})
	}
}

// toGlue emits additional-section A/AAAA records for glue targets
// attached to records relevant to rrtype. The owner is the glue's
// stored name; an all-zero address means absent.
func (r *Resource) toGlue(ar *[]dns.RR, rrtype uint16) {
	for _, rec := range r.Records {
		var target *Target

		switch c := rec.(type) {
		case *HostRecord:
			switch c.RType {
			case TypeCANONICAL:
				if rrtype != dns.TypeCNAME {
					continue
				}
			case TypeDELEGATE:
				if rrtype != dns.TypeDNAME {
					continue
				}
			case TypeNS:
				if rrtype != dns.TypeNS {
					continue
				}
			default:
				continue
			}
			target = &c.Target
		case *ServiceRecord:
			if rrtype != dns.TypeSRV && rrtype != dns.TypeMX {
				continue
			}
			if rrtype == dns.TypeMX && !isSMTP(c) {
				continue
			}
			target = &c.Target
		default:
			continue
		}

		if target.Type != TargetGLUE {
			continue
		}

		if target.HasInet4() {
			*ar = append(*ar, &dns.A{
				Hdr: r.header(target.Name, dns.TypeA),
				A:   append([]byte(nil), target.Inet4[:]...),
			})
		}

		if target.HasInet6() {
			*ar = append(*ar, &dns.AAAA{
				Hdr:  r.header(target.Name, dns.TypeAAAA),
				AAAA: append([]byte(nil), target.Inet6[:]...),
			})
		}
	}
}
