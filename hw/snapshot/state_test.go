package snapshot

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"
)

func TestMemoryEncode(t *testing.T) {
	s := &Memory{
		Version: 1,
		Bank: Bank{
			Port:           [2]uint8{0x2F, 0x35},
			BankReg:        0x09,
			MapOffsetLow:   0x10000,
			MapMask:        0x0F,
			MapMegabyteLow: 0x8000000,
			Hypervisor:     true,
		},
		RAM:        []byte{1, 2, 3},
		Colour:     []byte{0x0E},
		CharWOM:    []byte{0x3C, 0x66},
		Hypervisor: []byte{0xEA},
		I2C:        []byte{},
	}

	buf, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var got Memory
	if err := got.UnmarshalJSON(buf); err != nil {
		t.Fatalf("UnmarshalJSON(%s): %v", buf, err)
	}

	// An empty slice may come back nil.
	if diff := cmp.Diff(*s, got, cmpBytes); diff != "" {
		t.Errorf("decoded state mismatch (-want +got):\n%s", diff)
	}
}

var cmpBytes = cmp.Comparer(func(a, b []byte) bool {
	return string(a) == string(b)
})

func TestBankDecode(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    Bank
		wantErr bool
	}{
		{
			name: "unknown fields are skipped",
			json: `{"port":[0,255],"future":{"a":[1,2]},"bankreg":8}`,
			want: Bank{Port: [2]uint8{0x00, 0xFF}, BankReg: 0x08},
		},
		{
			name:    "too many port registers",
			json:    `{"port":[1,2,3]}`,
			wantErr: true,
		},
		{
			name:    "byte overflow",
			json:    `{"map_mask":256}`,
			wantErr: true,
		},
		{
			name:    "bad type",
			json:    `{"hypervisor":"yes"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Bank
			err := got.Decode(jx.DecodeStr(tt.json))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %t", err, tt.wantErr)
			}
			if err == nil {
				if diff := cmp.Diff(tt.want, got); diff != "" {
					t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
