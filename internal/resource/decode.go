// Package resource decodes Handshake name-record blobs and projects
// them onto authoritative DNS responses. A blob is a version byte
// followed by a sequence of typed records; the decoder produces an
// immutable Resource that the composers in this package turn into
// signed DNS messages.
package resource

import (
	"errors"
	"fmt"
)

// DefaultTTL is the TTL applied to every record of a decoded resource.
// The chain commits resources on a fixed tree interval, so the blob
// carries no TTL of its own.
const DefaultTTL = 21600

// maxRecords caps how many records one resource may carry.
const maxRecords = 255

var (
	// ErrMalformedResource is returned when a blob cannot be decoded:
	// truncated input, unknown discriminants, oversized fields, or
	// non-printable strings.
	ErrMalformedResource = errors.New("malformed resource")

	// ErrInvalidQueryName names the failure of a query name with no
	// labels. ToDNS reports that case by returning nil, not this error.
	ErrInvalidQueryName = errors.New("invalid query name")
)

// Resource is the decoded form of a name-record blob. It is created by
// Decode and never mutated afterwards.
type Resource struct {
	Version uint8
	TTL     uint32
	Records []Record
}

// Decode parses a resource blob. Decoding is fail-fast: the first
// malformed byte aborts the whole decode and no partial resource is
// returned.
func Decode(blob []byte) (*Resource, error) {
	r := &reader{msg: blob}

	version, err := r.readU8()
	if err != nil {
		return nil, err
	}

	if version != 0 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedResource, version)
	}

	res := &Resource{
		Version: version,
		TTL:     DefaultTTL,
	}

	for r.remaining() > 0 {
		if len(res.Records) >= maxRecords {
			return nil, fmt.Errorf("%w: more than %d records", ErrMalformedResource, maxRecords)
		}

		typ, err := r.readU8()
		if err != nil {
			return nil, err
		}

		rec, err := readRecord(r, Type(typ))
		if err != nil {
			return nil, err
		}

		res.Records = append(res.Records, rec)
	}

	return res, nil
}

// Get returns the first record of the given type, or nil.
func (r *Resource) Get(typ Type) Record {
	for _, rec := range r.Records {
		if rec.Type() == typ {
			return rec
		}
	}
	return nil
}

// Has reports whether the resource contains a record of the given type.
func (r *Resource) Has(typ Type) bool {
	return r.Get(typ) != nil
}

// HasNS reports whether the resource delegates to any name server,
// whatever the target variant.
func (r *Resource) HasNS() bool {
	return r.Has(TypeNS)
}
