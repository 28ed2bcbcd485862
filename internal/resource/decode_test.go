package resource

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecode_VersionOnly(t *testing.T) {
	res, err := Decode([]byte{0x00})
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	if res.Version != 0 {
		t.Errorf("Version = %d, want 0", res.Version)
	}
	if res.TTL != DefaultTTL {
		t.Errorf("TTL = %d, want %d", res.TTL, DefaultTTL)
	}
	if len(res.Records) != 0 {
		t.Errorf("Records = %d entries, want none", len(res.Records))
	}
}

func TestDecode_Inet4(t *testing.T) {
	blob := []byte{0x00, 0x01, 0x00, 0xC0, 0x00, 0x02, 0x01}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	if len(res.Records) != 1 {
		t.Fatalf("Records = %d entries, want 1", len(res.Records))
	}

	host, ok := res.Records[0].(*HostRecord)
	if !ok {
		t.Fatalf("record is %T, want *HostRecord", res.Records[0])
	}
	if host.RType != TypeINET4 {
		t.Errorf("record type = %d, want INET4", host.RType)
	}
	if host.Target.Type != TargetINET4 {
		t.Errorf("target type = %d, want INET4", host.Target.Type)
	}
	if host.Target.Inet4 != [4]byte{192, 0, 2, 1} {
		t.Errorf("address = %v, want 192.0.2.1", host.Target.Inet4)
	}
}

func TestDecode_Glue(t *testing.T) {
	blob := []byte{0x00, 0x06, 0x05}
	blob = append(blob, 0x03, 'n', 's', '1', 0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x00)
	blob = append(blob, 192, 0, 2, 53)
	blob = append(blob, make([]byte, 16)...)

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	host, ok := res.Records[0].(*HostRecord)
	if !ok || host.RType != TypeGLUE {
		t.Fatalf("record = %#v, want GLUE host record", res.Records[0])
	}

	target := host.Target
	if target.Type != TargetGLUE {
		t.Fatalf("target type = %d, want GLUE", target.Type)
	}
	if target.Name != "ns1.example." {
		t.Errorf("target name = %q, want ns1.example.", target.Name)
	}
	if target.Inet4 != [4]byte{192, 0, 2, 53} {
		t.Errorf("glue v4 = %v, want 192.0.2.53", target.Inet4)
	}
	if target.HasInet6() {
		t.Errorf("expected all-zero v6 to report absent")
	}
}

func TestDecode_Inet6Compacted(t *testing.T) {
	// 2001:db8::1 elides eleven zero bytes starting at offset 4.
	blob := []byte{0x00, 0x02, 0x01, 0x4b, 0x20, 0x01, 0x0d, 0xb8, 0x01}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	host := res.Records[0].(*HostRecord)
	want := [16]byte{0x20, 0x01, 0x0d, 0xb8, 15: 0x01}
	if host.Target.Inet6 != want {
		t.Errorf("address = %x, want %x", host.Target.Inet6, want)
	}
}

func TestDecode_Service(t *testing.T) {
	blob := []byte{0x00, 0x0A}
	blob = append(blob, 0x05, 's', 'm', 't', 'p', '.')
	blob = append(blob, 0x04, 't', 'c', 'p', '.')
	blob = append(blob, 0x0A)       // priority
	blob = append(blob, 0x05)       // weight
	blob = append(blob, 0x00, 0x19) // port 25
	blob = append(blob, 0x04)       // target: NAME
	blob = append(blob, 0x04, 'm', 'a', 'i', 'l', 0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 0x00)

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	svc, ok := res.Records[0].(*ServiceRecord)
	if !ok {
		t.Fatalf("record is %T, want *ServiceRecord", res.Records[0])
	}
	if svc.Service != "smtp." || svc.Protocol != "tcp." {
		t.Errorf("service/protocol = %q/%q, want smtp./tcp.", svc.Service, svc.Protocol)
	}
	if svc.Priority != 10 || svc.Weight != 5 || svc.Port != 25 {
		t.Errorf("priority/weight/port = %d/%d/%d, want 10/5/25", svc.Priority, svc.Weight, svc.Port)
	}
	if svc.Target.Name != "mail.example." {
		t.Errorf("target = %q, want mail.example.", svc.Target.Name)
	}
}

func TestDecode_Text(t *testing.T) {
	blob := []byte{0x00, 0x0D, 0x05, 'h', 'e', 'l', 'l', 'o'}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	txt, ok := res.Records[0].(*TxtRecord)
	if !ok || txt.RType != TypeTEXT || txt.Text != "hello" {
		t.Errorf("record = %#v, want TEXT hello", res.Records[0])
	}
}

func TestDecode_DS(t *testing.T) {
	blob := []byte{0x00, 0x10, 0x30, 0x39, 0x08, 0x02, 0x02, 0xde, 0xad}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	ds, ok := res.Records[0].(*DSRecord)
	if !ok {
		t.Fatalf("record is %T, want *DSRecord", res.Records[0])
	}
	if ds.KeyTag != 12345 || ds.Algorithm != 8 || ds.DigestType != 2 {
		t.Errorf("fields = %d/%d/%d, want 12345/8/2", ds.KeyTag, ds.Algorithm, ds.DigestType)
	}
	if !bytes.Equal(ds.Digest, []byte{0xde, 0xad}) {
		t.Errorf("digest = %x, want dead", ds.Digest)
	}
}

func TestDecode_Extra(t *testing.T) {
	blob := []byte{0x00, 0xFF, 0x2A, 0x03, 0x01, 0x02, 0x03}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	extra, ok := res.Records[0].(*ExtraRecord)
	if !ok {
		t.Fatalf("record is %T, want *ExtraRecord", res.Records[0])
	}
	if extra.RType != 42 || !bytes.Equal(extra.Data, []byte{1, 2, 3}) {
		t.Errorf("record = %#v, want rtype 42 data 010203", extra)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
	}{
		{"empty", nil},
		{"non-zero version", []byte{0x01}},
		{"unknown record type", []byte{0x00, 0x15}},
		{"unknown target type", []byte{0x00, 0x01, 0x06}},
		{"truncated inet4 target", []byte{0x00, 0x01, 0x00, 192, 0}},
		{"truncated string", []byte{0x00, 0x0D, 0x05, 'h', 'i'}},
		{"string with DEL", []byte{0x00, 0x0D, 0x01, 0x7F}},
		{"string with control byte", []byte{0x00, 0x0D, 0x01, 0x01}},
		{"oversized digest", []byte{0x00, 0x10, 0x00, 0x00, 0x08, 0x02, 0x41}},
		{"bad address header", []byte{0x00, 0x02, 0x01, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob)
			if err == nil {
				t.Fatalf("Decode(%x) succeeded, want error", tt.blob)
			}
			if !errors.Is(err, ErrMalformedResource) {
				t.Errorf("error = %v, want ErrMalformedResource", err)
			}
		})
	}
}

func TestDecode_AllowsWhitespaceInStrings(t *testing.T) {
	blob := []byte{0x00, 0x0D, 0x03, 'a', 0x09, 'b'}

	res, err := Decode(blob)
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	txt := res.Records[0].(*TxtRecord)
	if txt.Text != "a\tb" {
		t.Errorf("text = %q, want a\\tb", txt.Text)
	}
}

func TestDecode_RecordCap(t *testing.T) {
	// 256 empty TEXT records, one past the cap.
	blob := []byte{0x00}
	for i := 0; i < 256; i++ {
		blob = append(blob, 0x0D, 0x00)
	}

	if _, err := Decode(blob); !errors.Is(err, ErrMalformedResource) {
		t.Errorf("expected cap violation, got %v", err)
	}
}

func TestResource_GetHas(t *testing.T) {
	res, err := Decode([]byte{
		0x00,
		0x01, 0x00, 192, 0, 2, 1,
		0x09, 0x04, 0x03, 'n', 's', '1', 0x00,
	})
	if err != nil {
		t.Fatalf("Decode() returned error: %v", err)
	}

	if !res.Has(TypeINET4) {
		t.Errorf("Has(INET4) = false, want true")
	}
	if !res.HasNS() {
		t.Errorf("HasNS() = false, want true")
	}
	if res.Has(TypeTEXT) {
		t.Errorf("Has(TEXT) = true, want false")
	}
	if res.Get(TypeNS) == nil {
		t.Errorf("Get(NS) = nil, want record")
	}
}
