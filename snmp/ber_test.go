package snmp

import (
	"math/big"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalInt(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"127", 127, []byte{0x7f}},
		{"128", 128, []byte{0x00, 0x80}},
		{"-128", -128, []byte{0x80}},
		{"-129", -129, []byte{0xff, 0x7f}},
		{"32768", 32768, []byte{0x00, 0x80, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := marshalInt(big.NewInt(tt.in))
			require.Equal(t, tt.want, got)

			back := unmarshalInt(got)
			require.Equal(t, tt.in, back.Int64())
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"bool true", true},
		{"bool false", false},
		{"int", 42},
		{"negative int", -99999},
		{"string", "rack 4"},
		{"bytes", []byte{0xde, 0xad, 0xbe, 0xef}},
		{"ipv4", net.IPv4(192, 168, 1, 1)},
		{"nil", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewEncoder()
			require.NoError(t, enc.WriteAuto(tt.value))
			out, err := enc.Output()
			require.NoError(t, err)

			dec := NewDecoder(out)
			_, got, err := dec.Read(-1)
			require.NoError(t, err)

			switch want := tt.value.(type) {
			case net.IP:
				gotIP, ok := got.(net.IP)
				require.True(t, ok)
				require.True(t, want.Equal(gotIP))
			case int:
				gotInt, ok := got.(*big.Int)
				require.True(t, ok)
				require.Equal(t, int64(want), gotInt.Int64())
			case []byte:
				// OctetString decodes to a Go string regardless of whether
				// it was encoded from a string or a []byte.
				require.Equal(t, string(want), got)
			default:
				require.Equal(t, tt.value, got)
			}
		})
	}
}

func TestEncodeDecodeOID(t *testing.T) {
	tests := []struct {
		name string
		oid  string
		want []byte
	}{
		{"short", ".1.2.3", []byte{0x2a, 0x03}},
		{"multi-byte subidentifier", ".1.2.300000", []byte{0x2a, 0x92, 0xa7, 0x60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oid := MustParseOID(tt.oid)
			got, err := encodeOID(oid)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			back, err := decodeOID(got)
			require.NoError(t, err)
			require.Equal(t, oid, back)
		})
	}
}

func TestDecodeOIDRejectsNonMinimalEncoding(t *testing.T) {
	_, err := decodeOID([]byte{0x80, 0x01})
	require.Error(t, err)
}

func TestDecodeOIDRejectsOversizedFirstComponent(t *testing.T) {
	_, err := decodeOID([]byte{0x8c, 0x40})
	require.Error(t, err)
}

func TestEncodeOIDRejectsFirstComponentAbove39(t *testing.T) {
	_, err := encodeOID(OID(".40.1"))
	require.Error(t, err)
}

func TestOctetStringLongFormLength(t *testing.T) {
	body := make([]byte, 0xffff)
	for i := range body {
		body[i] = byte(i)
	}
	enc := NewEncoder()
	require.NoError(t, enc.WriteAuto(body))
	out, err := enc.Output()
	require.NoError(t, err)

	require.Equal(t, byte(NumOctetString), out[0])
	require.Equal(t, []byte{0x82, 0xff, 0xff}, out[1:4])

	dec := NewDecoder(out)
	_, got, err := dec.Read(-1)
	require.NoError(t, err)
	require.Equal(t, string(body), got)
}

func TestScopedEncoderNesting(t *testing.T) {
	enc := NewEncoder()
	enc.Enter(NumSequence, ClassUniversal)
	require.NoError(t, enc.WriteAuto(int64(1)))
	require.NoError(t, enc.WriteAuto("x"))
	require.NoError(t, enc.Exit())
	out, err := enc.Output()
	require.NoError(t, err)

	dec := NewDecoder(out)
	require.NoError(t, dec.Enter())
	_, first, err := dec.Read(-1)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.(*big.Int).Int64())
	_, second, err := dec.Read(-1)
	require.NoError(t, err)
	require.Equal(t, "x", second)
	require.True(t, dec.EOF())
	require.NoError(t, dec.Exit())
}

func TestExitWithoutEnterFails(t *testing.T) {
	enc := NewEncoder()
	require.Error(t, enc.Exit())

	dec := NewDecoder([]byte{0x02, 0x01, 0x01})
	require.Error(t, dec.Exit())
}
