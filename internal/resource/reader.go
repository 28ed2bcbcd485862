package resource

import (
	"fmt"

	"github.com/miekg/dns"
)

// reader is a bounded cursor over a resource blob. Every read checks
// the remaining length first; a short read fails the whole decode.
// The full blob stays reachable so embedded DNS names can resolve
// RFC 1035 compression pointers against it.
type reader struct {
	msg []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.msg) - r.off
}

func (r *reader) readU8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, fmt.Errorf("%w: unexpected end of input", ErrMalformedResource)
	}
	b := r.msg[r.off]
	r.off++
	return b, nil
}

func (r *reader) readU16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, fmt.Errorf("%w: unexpected end of input", ErrMalformedResource)
	}
	v := uint16(r.msg[r.off])<<8 | uint16(r.msg[r.off+1])
	r.off += 2
	return v, nil
}

func (r *reader) readU32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fmt.Errorf("%w: unexpected end of input", ErrMalformedResource)
	}
	v := uint32(r.msg[r.off])<<24 |
		uint32(r.msg[r.off+1])<<16 |
		uint32(r.msg[r.off+2])<<8 |
		uint32(r.msg[r.off+3])
	r.off += 4
	return v, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrMalformedResource)
	}
	out := make([]byte, n)
	copy(out, r.msg[r.off:r.off+n])
	r.off += n
	return out, nil
}

// readString reads a u8 length-prefixed string of at most limit bytes.
// Only printable ASCII is accepted, plus tab, line feed, and carriage
// return. DEL fails the read.
func (r *reader) readString(limit int) (string, error) {
	size, err := r.readU8()
	if err != nil {
		return "", err
	}

	chunk, err := r.readBytes(int(size))
	if err != nil {
		return "", err
	}

	for _, ch := range chunk {
		if ch == 0x7f {
			return "", fmt.Errorf("%w: string contains DEL", ErrMalformedResource)
		}
		if ch < 0x20 && ch != 0x09 && ch != 0x0a && ch != 0x0d {
			return "", fmt.Errorf("%w: string contains non-printable byte %#02x", ErrMalformedResource, ch)
		}
	}

	if int(size) > limit {
		return "", fmt.Errorf("%w: string exceeds %d bytes", ErrMalformedResource, limit)
	}

	return string(chunk), nil
}

// readName reads a possibly-compressed DNS name. Compression pointers
// resolve against the whole blob.
func (r *reader) readName() (string, error) {
	name, off, err := dns.UnpackDomainName(r.msg, r.off)
	if err != nil {
		return "", fmt.Errorf("%w: bad name: %v", ErrMalformedResource, err)
	}
	r.off = off
	return name, nil
}

// readIP6 reads a compacted IPv6 address.
func (r *reader) readIP6() ([16]byte, error) {
	ip, n, ok := ipRead(r.msg[r.off:])
	if !ok {
		return ip, fmt.Errorf("%w: bad address compression header", ErrMalformedResource)
	}
	r.off += n
	return ip, nil
}
