package resource

import (
	"bytes"
	"encoding/base32"
	"strings"

	"github.com/miekg/dns"
)

// base32hex codec used for synthetic name server labels. Lowercase,
// unpadded, per the Handshake convention.
var b32hex = base32.NewEncoding("0123456789abcdefghijklmnopqrstuv").WithPadding(base32.NoPadding)

// RFC 4291 section 2.5.5.2: prefix of an IPv4-mapped IPv6 address.
var v4mappedPrefix = []byte{
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xff, 0xff,
}

// ipRun finds the longest run of zero bytes in a 16-byte address.
// Ties break toward the earliest run. An all-zero address reports a
// zero-length run, since eliding all 16 bytes would leave nothing to
// anchor the header on.
func ipRun(ip []byte) (start, length int) {
	out := true
	last := 0

	var i int
	for i = 0; i < 16; i++ {
		if out == (ip[i] == 0) {
			if !out && i-last > length {
				start = last
				length = i - last
			}
			out = !out
			last = i
		}
	}

	if !out && i-last > length {
		start = last
		length = i - last
	}

	if length == 16 {
		start = 0
		length = 0
	}

	return start, length
}

// ipWrite compacts a 16-byte address by eliding its longest zero run.
// The header byte packs the run offset in the high nibble and the run
// length in the low nibble.
func ipWrite(ip []byte) []byte {
	start, length := ipRun(ip)
	left := 16 - (start + length)

	out := make([]byte, 0, 1+start+left)
	out = append(out, byte(start<<4|length))
	out = append(out, ip[:start]...)
	out = append(out, ip[start+length:]...)

	return out
}

// ipRead expands a compacted address. It returns the full 16 bytes,
// the number of input bytes consumed, and whether the header was sane.
func ipRead(data []byte) ([16]byte, int, bool) {
	var ip [16]byte

	if len(data) < 1 {
		return ip, 0, false
	}

	start := int(data[0] >> 4)
	length := int(data[0] & 0x0f)

	if start+length > 16 {
		return ip, 0, false
	}

	left := 16 - (start + length)

	if len(data) < 1+start+left {
		return ip, 0, false
	}

	copy(ip[:start], data[1:1+start])
	copy(ip[start+length:], data[1+start:1+start+left])

	return ip, 1 + start + left, true
}

// ipToB32 encodes an address as a base32hex label body. A 4-byte input
// is bridged through its IPv4-mapped IPv6 form first, so the label
// always derives from 16 bytes. The result is at most 29 characters.
func ipToB32(ip []byte) string {
	var mapped [16]byte

	if len(ip) == 4 {
		copy(mapped[:12], v4mappedPrefix)
		copy(mapped[12:], ip)
	} else {
		copy(mapped[:], ip)
	}

	return b32hex.EncodeToString(ipWrite(mapped[:]))
}

// b32ToIP decodes a base32hex label body back into an address. When the
// expanded bytes carry the IPv4-mapped prefix the address collapses to
// its 4-byte form and the family reports as A, otherwise AAAA.
func b32ToIP(s string) ([]byte, uint16, bool) {
	data, err := b32hex.DecodeString(strings.ToLower(s))
	if err != nil || len(data) == 0 || len(data) > 17 {
		return nil, 0, false
	}

	ip, n, ok := ipRead(data)
	if !ok || n != len(data) {
		return nil, 0, false
	}

	if bytes.Equal(ip[:12], v4mappedPrefix) {
		return ip[12:16], dns.TypeA, true
	}

	return ip[:], dns.TypeAAAA, true
}

// pointerToIP parses the first label of name as a synthetic pointer of
// the form _<b32>.
func pointerToIP(name string) ([]byte, uint16, bool) {
	labels := dns.SplitDomainName(name)
	if len(labels) == 0 {
		return nil, 0, false
	}

	label := labels[0]
	if len(label) < 2 || len(label) > 29 || label[0] != '_' {
		return nil, 0, false
	}

	return b32ToIP(label[1:])
}

// PointerToIP decodes a synthetic pointer name into its address and
// family (dns.TypeA or dns.TypeAAAA).
func PointerToIP(name string) ([]byte, uint16, bool) {
	return pointerToIP(name)
}

// SynthName builds the synthetic pointer name for a 4 or 16 byte
// address, the inverse of PointerToIP.
func SynthName(ip []byte) string {
	return "_" + ipToB32(ip) + "."
}

// IsPointer reports whether the first label of name parses as a
// synthetic _<b32> pointer.
func IsPointer(name string) bool {
	_, _, ok := pointerToIP(name)
	return ok
}
