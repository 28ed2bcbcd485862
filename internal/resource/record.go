package resource

import (
	"fmt"
)

// Type identifies a record inside a resource blob. The values are the
// on-wire discriminant bytes.
type Type uint8

const (
	TypeINET4     Type = 1
	TypeINET6     Type = 2
	TypeONION     Type = 3
	TypeONIONNG   Type = 4
	TypeNAME      Type = 5
	TypeGLUE      Type = 6
	TypeCANONICAL Type = 7
	TypeDELEGATE  Type = 8
	TypeNS        Type = 9
	TypeSERVICE   Type = 10
	TypeURL       Type = 11
	TypeEMAIL     Type = 12
	TypeTEXT      Type = 13
	TypeLOCATION  Type = 14
	TypeMAGNET    Type = 15
	TypeDS        Type = 16
	TypeTLS       Type = 17
	TypeSSH       Type = 18
	TypePGP       Type = 19
	TypeADDR      Type = 20
	TypeEXTRA     Type = 255
)

// TargetType identifies the payload variant of a Target. The values
// are the on-wire discriminant bytes.
type TargetType uint8

const (
	TargetINET4 TargetType = iota
	TargetINET6
	TargetONION
	TargetONIONNG
	TargetNAME
	TargetGLUE
)

// Target is where a host-shaped record points: a DNS name, a glue
// tuple, or a raw address. The discriminant decides which fields are
// meaningful; projectors that cannot represent a variant skip it.
type Target struct {
	Type  TargetType
	Name  string
	Inet4 [4]byte
	Inet6 [16]byte
	Onion [33]byte
}

var (
	zeroInet4 [4]byte
	zeroInet6 [16]byte
)

// HasInet4 reports whether a glue target carries an IPv4 address.
// All-zero means absent.
func (t *Target) HasInet4() bool {
	return t.Inet4 != zeroInet4
}

// HasInet6 reports whether a glue target carries an IPv6 address.
func (t *Target) HasInet6() bool {
	return t.Inet6 != zeroInet6
}

// Record is one decoded entry of a resource. The concrete type depends
// on the wire discriminant.
type Record interface {
	Type() Type
}

// HostRecord covers the record types whose whole body is a Target:
// INET4 through NS.
type HostRecord struct {
	RType  Type
	Target Target
}

func (r *HostRecord) Type() Type { return r.RType }

// ServiceRecord is an SRV-shaped record.
type ServiceRecord struct {
	Service  string
	Protocol string
	Priority uint8
	Weight   uint8
	Port     uint16
	Target   Target
}

func (r *ServiceRecord) Type() Type { return TypeSERVICE }

// TxtRecord covers URL, EMAIL, and TEXT, which share a single
// length-prefixed string body.
type TxtRecord struct {
	RType Type
	Text  string
}

func (r *TxtRecord) Type() Type { return r.RType }

// LocationRecord carries DNS LOC fields as opaque values. Latitude,
// longitude, and altitude keep their wire bit patterns.
type LocationRecord struct {
	Version  uint8
	Size     uint8
	HorizPre uint8
	VertPre  uint8
	Latitude uint32
	Longitude uint32
	Altitude uint32
}

func (r *LocationRecord) Type() Type { return TypeLOCATION }

// MagnetRecord names a content hash: a namespace identifier label and
// up to 64 bytes of hash.
type MagnetRecord struct {
	NID string
	NIN []byte
}

func (r *MagnetRecord) Type() Type { return TypeMAGNET }

// DSRecord is a delegation signer entry.
type DSRecord struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

func (r *DSRecord) Type() Type { return TypeDS }

// TLSRecord is a TLSA-shaped certificate association.
type TLSRecord struct {
	Protocol     string
	Port         uint16
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Certificate  []byte
}

func (r *TLSRecord) Type() Type { return TypeTLS }

// SSHRecord covers SSH and PGP, which share a fingerprint layout.
type SSHRecord struct {
	RType       Type
	Algorithm   uint8
	KeyType     uint8
	Fingerprint []byte
}

func (r *SSHRecord) Type() Type { return r.RType }

// AddrRecord is a cryptocurrency address binding.
type AddrRecord struct {
	Currency string
	Address  string
	CType    uint8
	Testnet  bool
	Version  uint8
	Hash     []byte
}

func (r *AddrRecord) Type() Type { return TypeADDR }

// ExtraRecord holds an unrecognized-but-forward-compatible payload.
type ExtraRecord struct {
	RType uint8
	Data  []byte
}

func (r *ExtraRecord) Type() Type { return TypeEXTRA }

// readTarget decodes a Target from the cursor.
func readTarget(r *reader) (Target, error) {
	var t Target

	typ, err := r.readU8()
	if err != nil {
		return t, err
	}

	t.Type = TargetType(typ)

	switch t.Type {
	case TargetINET4:
		b, err := r.readBytes(4)
		if err != nil {
			return t, err
		}
		copy(t.Inet4[:], b)
	case TargetINET6:
		ip, err := r.readIP6()
		if err != nil {
			return t, err
		}
		t.Inet6 = ip
	case TargetONION, TargetONIONNG:
		b, err := r.readBytes(33)
		if err != nil {
			return t, err
		}
		copy(t.Onion[:], b)
	case TargetNAME:
		name, err := r.readName()
		if err != nil {
			return t, err
		}
		t.Name = name
	case TargetGLUE:
		name, err := r.readName()
		if err != nil {
			return t, err
		}
		t.Name = name

		b, err := r.readBytes(4)
		if err != nil {
			return t, err
		}
		copy(t.Inet4[:], b)

		b, err = r.readBytes(16)
		if err != nil {
			return t, err
		}
		copy(t.Inet6[:], b)
	default:
		return t, fmt.Errorf("%w: unknown target type %d", ErrMalformedResource, typ)
	}

	return t, nil
}

// readDigest reads a u8 length-prefixed byte field of at most limit
// bytes.
func readDigest(r *reader, limit int) ([]byte, error) {
	size, err := r.readU8()
	if err != nil {
		return nil, err
	}
	if int(size) > limit {
		return nil, fmt.Errorf("%w: digest exceeds %d bytes", ErrMalformedResource, limit)
	}
	return r.readBytes(int(size))
}

// readRecord decodes the body for one record type.
func readRecord(r *reader, typ Type) (Record, error) {
	switch typ {
	case TypeINET4, TypeINET6, TypeONION, TypeONIONNG,
		TypeNAME, TypeGLUE, TypeCANONICAL, TypeDELEGATE, TypeNS:
		target, err := readTarget(r)
		if err != nil {
			return nil, err
		}
		return &HostRecord{RType: typ, Target: target}, nil

	case TypeSERVICE:
		rec := &ServiceRecord{}
		var err error
		if rec.Service, err = r.readString(32); err != nil {
			return nil, err
		}
		if rec.Protocol, err = r.readString(32); err != nil {
			return nil, err
		}
		if rec.Priority, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Weight, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Port, err = r.readU16(); err != nil {
			return nil, err
		}
		if rec.Target, err = readTarget(r); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeURL, TypeEMAIL, TypeTEXT:
		text, err := r.readString(255)
		if err != nil {
			return nil, err
		}
		return &TxtRecord{RType: typ, Text: text}, nil

	case TypeLOCATION:
		rec := &LocationRecord{}
		var err error
		if rec.Version, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Size, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.HorizPre, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.VertPre, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Latitude, err = r.readU32(); err != nil {
			return nil, err
		}
		if rec.Longitude, err = r.readU32(); err != nil {
			return nil, err
		}
		if rec.Altitude, err = r.readU32(); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeMAGNET:
		rec := &MagnetRecord{}
		var err error
		if rec.NID, err = r.readString(32); err != nil {
			return nil, err
		}
		if rec.NIN, err = readDigest(r, 64); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeDS:
		rec := &DSRecord{}
		var err error
		if rec.KeyTag, err = r.readU16(); err != nil {
			return nil, err
		}
		if rec.Algorithm, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.DigestType, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Digest, err = readDigest(r, 64); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeTLS:
		rec := &TLSRecord{}
		var err error
		if rec.Protocol, err = r.readString(32); err != nil {
			return nil, err
		}
		if rec.Port, err = r.readU16(); err != nil {
			return nil, err
		}
		if rec.Usage, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Selector, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.MatchingType, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Certificate, err = readDigest(r, 64); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeSSH, TypePGP:
		rec := &SSHRecord{RType: typ}
		var err error
		if rec.Algorithm, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.KeyType, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Fingerprint, err = readDigest(r, 64); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeADDR:
		rec := &AddrRecord{}
		var err error
		if rec.Currency, err = r.readString(32); err != nil {
			return nil, err
		}
		if rec.Address, err = r.readString(255); err != nil {
			return nil, err
		}
		if rec.CType, err = r.readU8(); err != nil {
			return nil, err
		}
		testnet, err := r.readU8()
		if err != nil {
			return nil, err
		}
		rec.Testnet = testnet != 0
		if rec.Version, err = r.readU8(); err != nil {
			return nil, err
		}
		if rec.Hash, err = readDigest(r, 64); err != nil {
			return nil, err
		}
		return rec, nil

	case TypeEXTRA:
		rec := &ExtraRecord{}
		rtype, err := r.readU8()
		if err != nil {
			return nil, err
		}
		rec.RType = rtype
		size, err := r.readU8()
		if err != nil {
			return nil, err
		}
		if rec.Data, err = r.readBytes(int(size)); err != nil {
			return nil, err
		}
		return rec, nil
	}

	return nil, fmt.Errorf("%w: unknown record type %d", ErrMalformedResource, typ)
}
