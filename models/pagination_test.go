package models

import "testing"

func TestCompositeCursorRoundTrip(t *testing.T) {
	cases := []struct {
		createdAt string
		id        int
	}{
		{"2026-08-01 10:30:00 +0000 UTC", 42},
		{"2026-08-01 10:30:00 +0000 UTC", 1},
		// rows sharing a timestamp are disambiguated by id
		{"2026-08-01 10:30:00 +0000 UTC", 43},
	}

	for _, tc := range cases {
		encoded := EncodeCompositeCursor(tc.createdAt, tc.id)
		createdAt, id := DecodeCompositeCursor(&encoded)
		if createdAt != tc.createdAt || id != tc.id {
			t.Fatalf("round trip (%q, %d) got (%q, %d)", tc.createdAt, tc.id, createdAt, id)
		}
	}
}

func TestDecodeCompositeCursor_Invalid(t *testing.T) {
	checkZero := func(name string, cursor *string) {
		createdAt, id := DecodeCompositeCursor(cursor)
		if createdAt != "" || id != 0 {
			t.Fatalf("%s: expected zero values, got (%q, %d)", name, createdAt, id)
		}
	}

	checkZero("nil cursor", nil)

	empty := ""
	checkZero("empty cursor", &empty)

	garbage := "!!not-base64!!"
	checkZero("bad encoding", &garbage)

	noSeparator := EncodeCursor("just-a-timestamp")
	checkZero("missing separator", &noSeparator)

	badId := EncodeCursor("2026-08-01|not-a-number")
	checkZero("non-numeric id", &badId)
}

func TestDecodeCursor(t *testing.T) {
	encoded := EncodeCursor("2026-08-01 10:30:00")
	decoded, err := DecodeCursor(&encoded)
	if err != nil {
		t.Fatalf("DecodeCursor error: %v", err)
	}
	if decoded != "2026-08-01 10:30:00" {
		t.Fatalf("expected original value back, got %q", decoded)
	}

	decoded, err = DecodeCursor(nil)
	if err != nil || decoded != "" {
		t.Fatalf("nil cursor expected empty string, got (%q, %v)", decoded, err)
	}
}
