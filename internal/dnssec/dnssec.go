// Package dnssec holds the root zone's signing material and implements
// the RRSIG hooks the resource composers call. The keys are ephemeral:
// a fresh KSK/ZSK pair is generated at startup and the DS is derived
// from the KSK, mirroring how a light client pins its own trust anchor.
package dnssec

import (
	"crypto"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/miekg/dns"

	"github.com/handshake-labs/hnsd/internal/common/clock"
)

const (
	keyTTL = 10800

	// Signature validity window around now.
	inceptionSkew = time.Hour
	expiryWindow  = 14 * 24 * time.Hour
)

// Options configures a Keyring.
type Options struct {
	// Clock stamps signature inception and expiration. Defaults to the
	// real clock.
	Clock clock.Clock
}

// Keyring owns the KSK, ZSK, and derived DS for the root zone. It is
// read-only after construction and safe for concurrent use.
type Keyring struct {
	ksk    *dns.DNSKEY
	zsk    *dns.DNSKEY
	kskKey crypto.Signer
	zskKey crypto.Signer
	ds     *dns.DS
	clk    clock.Clock
}

// New generates an ECDSA P-256 key pair for the root zone and derives
// its DS record.
func New(opts Options) (*Keyring, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}

	ksk, kskKey, err := generate(257)
	if err != nil {
		return nil, fmt.Errorf("failed to generate KSK: %w", err)
	}

	zsk, zskKey, err := generate(256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ZSK: %w", err)
	}

	ds := ksk.ToDS(dns.SHA256)
	if ds == nil {
		return nil, fmt.Errorf("failed to derive DS from KSK")
	}
	ds.Hdr.Ttl = keyTTL

	return &Keyring{
		ksk:    ksk,
		zsk:    zsk,
		kskKey: kskKey,
		zskKey: zskKey,
		ds:     ds,
		clk:    clk,
	}, nil
}

// generate builds one DNSKEY with the given flags (257 for a KSK, 256
// for a ZSK) and its private key.
func generate(flags uint16) (*dns.DNSKEY, crypto.Signer, error) {
	key := &dns.DNSKEY{
		Hdr: dns.RR_Header{
			Name:   ".",
			Rrtype: dns.TypeDNSKEY,
			Class:  dns.ClassINET,
			Ttl:    keyTTL,
		},
		Flags:     flags,
		Protocol:  3,
		Algorithm: dns.ECDSAP256SHA256,
	}

	priv, err := key.Generate(256)
	if err != nil {
		return nil, nil, err
	}

	signer, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected private key type %T", priv)
	}

	return key, signer, nil
}

// KSK returns a copy of the key-signing key record.
func (k *Keyring) KSK() dns.RR {
	return dns.Copy(k.ksk)
}

// ZSK returns a copy of the zone-signing key record.
func (k *Keyring) ZSK() dns.RR {
	return dns.Copy(k.zsk)
}

// DS returns a copy of the delegation signer record.
func (k *Keyring) DS() dns.RR {
	return dns.Copy(k.ds)
}

// SignZSK signs the rrset of the covered type within section using the
// zone-signing key and appends the RRSIG. No-op when the section holds
// no record of that type.
func (k *Keyring) SignZSK(section *[]dns.RR, covered uint16) {
	k.sign(k.zsk, k.zskKey, section, covered)
}

// SignKSK signs with the key-signing key. Only the DNSKEY rrset is
// ever signed this way.
func (k *Keyring) SignKSK(section *[]dns.RR, covered uint16) {
	k.sign(k.ksk, k.kskKey, section, covered)
}

func (k *Keyring) sign(key *dns.DNSKEY, priv crypto.Signer, section *[]dns.RR, covered uint16) {
	var rrset []dns.RR
	for _, rr := range *section {
		if rr.Header().Rrtype == covered {
			rrset = append(rrset, rr)
		}
	}

	if len(rrset) == 0 {
		return
	}

	now := k.clk.Now().UTC()

	sig := &dns.RRSIG{
		Hdr: dns.RR_Header{
			Class: dns.ClassINET,
			Ttl:   rrset[0].Header().Ttl,
		},
		Algorithm:  key.Algorithm,
		Inception:  uint32(now.Add(-inceptionSkew).Unix()),
		Expiration: uint32(now.Add(expiryWindow).Unix()),
		KeyTag:     key.KeyTag(),
		SignerName: key.Hdr.Name,
	}

	// Signing only fails on broken key material, which New rules out.
	if err := sig.Sign(priv, rrset); err != nil {
		return
	}

	*section = append(*section, sig)
}
