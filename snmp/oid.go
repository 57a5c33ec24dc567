package snmp

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// OID is a dotted numeric object identifier, stored with a leading dot
// (e.g. ".1.3.6.1.2.1.1.1.0"). The leading dot is canonical: it makes
// subtree prefix tests (HasPrefix) unambiguous without a separate
// "root" sentinel.
type OID string

// ParseOID normalizes s (with or without a leading dot) into an OID and
// validates that every component is a non-negative integer.
func ParseOID(s string) (OID, error) {
	trimmed := strings.TrimPrefix(s, ".")
	if trimmed == "" {
		return "", fmt.Errorf("snmp: empty oid")
	}
	parts := strings.Split(trimmed, ".")
	if len(parts) < 2 {
		return "", fmt.Errorf("snmp: oid %q needs at least two components", s)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("snmp: oid %q has an empty component", s)
		}
		if _, err := strconv.ParseUint(p, 10, 64); err != nil {
			return "", fmt.Errorf("snmp: oid %q component %q is not numeric: %w", s, p, err)
		}
	}
	return OID("." + trimmed), nil
}

// MustParseOID is ParseOID but panics on error; intended for package-level
// var initializers with literal OIDs known to be valid.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String returns the OID with its leading dot.
func (o OID) String() string {
	return string(o)
}

// components parses the OID into its numeric parts.
func (o OID) components() ([]uint64, error) {
	trimmed := strings.TrimPrefix(string(o), ".")
	parts := strings.Split(trimmed, ".")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// HasPrefix reports whether o lies within the subtree rooted at base,
// i.e. o equals base or o starts with base + ".". This is a plain string
// comparison, per spec: BER-level ordering is not used for subtree tests.
func (o OID) HasPrefix(base OID) bool {
	if o == base {
		return true
	}
	return strings.HasPrefix(string(o), string(base)+".")
}

// encodeOID renders o as a BER OBJECT IDENTIFIER body: the first two
// components are combined as 40*a+b and encoded as one base-128 group
// (which may itself span multiple bytes, since the reference encoder
// allows a in [0,39] rather than the standards-mandated [0,2] — see
// DESIGN.md), followed by one base-128 group per remaining component.
func encodeOID(o OID) ([]byte, error) {
	parts, err := o.components()
	if err != nil {
		return nil, fmt.Errorf("snmp: invalid oid %q: %w", o, err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("snmp: oid %q needs at least two components", o)
	}
	a, b := parts[0], parts[1]
	if a > 39 {
		return nil, fmt.Errorf("snmp: oid %q first component %d exceeds 39", o, a)
	}
	if b > 39 {
		return nil, fmt.Errorf("snmp: oid %q second component %d exceeds 39", o, b)
	}
	var out []byte
	out = append(out, encodeBase128(a*40+b)...)
	for _, p := range parts[2:] {
		out = append(out, encodeBase128(p)...)
	}
	return out, nil
}

// encodeBase128 encodes v as a base-128 group with continuation bits set
// on every byte but the last.
func encodeBase128(v uint64) []byte {
	if v == 0 {
		return []byte{0x00}
	}
	var digits []byte
	for v > 0 {
		digits = append([]byte{byte(v & 0x7F)}, digits...)
		v >>= 7
	}
	for i := 0; i < len(digits)-1; i++ {
		digits[i] |= 0x80
	}
	return digits
}

// decodeOID parses a BER OBJECT IDENTIFIER body into an OID.
func decodeOID(body []byte) (OID, error) {
	if len(body) == 0 {
		return "", fmt.Errorf("snmp: empty object identifier")
	}
	groups, err := splitBase128(body)
	if err != nil {
		return "", err
	}
	first := groups[0]
	if first.Cmp(big.NewInt(1599)) > 0 {
		return "", fmt.Errorf("snmp: object identifier first component %s exceeds 1599", first)
	}
	fv := first.Uint64()
	a, b := fv/40, fv%40
	var sb strings.Builder
	sb.WriteByte('.')
	sb.WriteString(strconv.FormatUint(a, 10))
	sb.WriteByte('.')
	sb.WriteString(strconv.FormatUint(b, 10))
	for _, g := range groups[1:] {
		sb.WriteByte('.')
		sb.WriteString(g.String())
	}
	return OID(sb.String()), nil
}

// splitBase128 splits body into its base-128 groups, rejecting any group
// whose leading byte is 0x80 (a non-minimal leading-zero digit).
func splitBase128(body []byte) ([]*big.Int, error) {
	var groups []*big.Int
	i := 0
	for i < len(body) {
		if body[i] == 0x80 {
			return nil, fmt.Errorf("snmp: non-minimal object identifier encoding at byte %d", i)
		}
		v := new(big.Int)
		for {
			if i >= len(body) {
				return nil, fmt.Errorf("snmp: truncated object identifier")
			}
			b := body[i]
			i++
			v.Lsh(v, 7)
			v.Or(v, big.NewInt(int64(b&0x7F)))
			if b&0x80 == 0 {
				break
			}
		}
		groups = append(groups, v)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("snmp: empty object identifier")
	}
	return groups, nil
}
