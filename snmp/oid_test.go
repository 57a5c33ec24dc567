package snmp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOID(t *testing.T) {
	oid, err := ParseOID("1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)
	require.Equal(t, OID(".1.3.6.1.2.1.1.1.0"), oid)

	oid, err = ParseOID(".1.3.6.1.2.1.1.1.0")
	require.NoError(t, err)
	require.Equal(t, OID(".1.3.6.1.2.1.1.1.0"), oid)
}

func TestParseOIDRejectsInvalidInput(t *testing.T) {
	tests := []string{"", ".", "1", "1.a.3", "1..3"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := ParseOID(in)
			require.Error(t, err)
		})
	}
}

func TestOIDHasPrefix(t *testing.T) {
	base := MustParseOID("1.3.6.1.2.1.1")

	tests := []struct {
		name string
		oid  OID
		want bool
	}{
		{"equal", base, true},
		{"child", MustParseOID("1.3.6.1.2.1.1.1.0"), true},
		{"unrelated", MustParseOID("1.3.6.1.2.2.1.1.0"), false},
		{"parent", MustParseOID("1.3.6.1.2.1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.oid.HasPrefix(base))
		})
	}
}

func TestOIDHasPrefixRejectsSiblingWithSharedDecimalPrefix(t *testing.T) {
	// .1.3.6.1.2.1.1.90 is a sibling of .1.3.6.1.2.1.1.9, not a descendant:
	// a naive strings.HasPrefix(oid, base) would wrongly match here, which
	// is exactly why HasPrefix compares against base+"." instead.
	base := MustParseOID("1.3.6.1.2.1.1.9")
	sibling := MustParseOID("1.3.6.1.2.1.1.90")
	require.False(t, sibling.HasPrefix(base))

	child := MustParseOID("1.3.6.1.2.1.1.9.0")
	require.True(t, child.HasPrefix(base))
}
