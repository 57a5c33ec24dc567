package snmp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
)

// SNMP protocol version numbers, as carried in the Message header.
const (
	VersionV1  = 0
	VersionV2c = 1
	VersionV3  = 3
)

// ValueTag selects the explicit ASN.1 number/class used to encode a
// Varbind's value, overriding autodetection. TagAuto defers to the
// autodetection rule in Encoder.WriteAuto (integer/string-bytes/nil/IPv4).
type ValueTag int

const (
	TagAuto ValueTag = iota
	TagInteger
	TagOctetString
	TagIPAddress
	TagCounter32
	TagGauge32
	TagTimeTicks
	TagOpaque
	TagCounter64
	TagUinteger32
)

func tagNumberClass(t ValueTag) (number int, class Class) {
	switch t {
	case TagInteger:
		return NumInteger, ClassUniversal
	case TagOctetString:
		return NumOctetString, ClassUniversal
	case TagIPAddress:
		return NumIPAddress, ClassApplication
	case TagCounter32:
		return NumCounter32, ClassApplication
	case TagGauge32:
		return NumGauge32, ClassApplication
	case TagTimeTicks:
		return NumTimeTicks, ClassApplication
	case TagOpaque:
		return NumOpaque, ClassApplication
	case TagCounter64:
		return NumCounter64, ClassApplication
	case TagUinteger32:
		return NumUinteger32, ClassApplication
	default:
		return -1, ClassUniversal
	}
}

// Varbind is a variable binding: an (oid, value) pair with an optional
// explicit type tag. Value is nil, *big.Int, string, []byte, net.IP,
// bool, or OID; nil represents an absent value (NoSuchObject/NoSuchInstance/
// EndOfMibView on decode).
type Varbind struct {
	OID   OID
	Value interface{}
	Tag   ValueTag
}

// NewVarbind normalizes oid (accepting input with or without a leading
// dot) and returns a Varbind with autodetected encoding.
func NewVarbind(oid string, value interface{}) (Varbind, error) {
	o, err := ParseOID(oid)
	if err != nil {
		return Varbind{}, err
	}
	return Varbind{OID: o, Value: value}, nil
}

// NewTaggedVarbind is NewVarbind with an explicit encoding tag, for values
// whose autodetected type would be wrong (e.g. a Gauge32 vs plain Integer).
func NewTaggedVarbind(oid string, value interface{}, tag ValueTag) (Varbind, error) {
	vb, err := NewVarbind(oid, value)
	if err != nil {
		return Varbind{}, err
	}
	vb.Tag = tag
	return vb, nil
}

func (vb Varbind) encode(enc *Encoder) error {
	enc.Enter(NumSequence, ClassUniversal)
	if err := enc.WriteAuto(vb.OID); err != nil {
		return err
	}
	if vb.Tag == TagAuto {
		if err := enc.WriteAuto(vb.Value); err != nil {
			return err
		}
	} else {
		number, class := tagNumberClass(vb.Tag)
		value := vb.Value
		if vb.Tag == TagIPAddress {
			ip, ok := asIPv4(value)
			if !ok {
				return fmt.Errorf("snmp: varbind %s: value is not an IPv4 address", vb.OID)
			}
			value = ip
		}
		if err := enc.Write(value, number, class); err != nil {
			return err
		}
	}
	return enc.Exit()
}

func decodeVarbind(dec *Decoder) (Varbind, error) {
	if err := dec.Enter(); err != nil {
		return Varbind{}, err
	}
	_, oidVal, err := dec.Read(-1)
	if err != nil {
		return Varbind{}, err
	}
	oid, ok := oidVal.(OID)
	if !ok {
		return Varbind{}, fmt.Errorf("snmp: varbind: expected object identifier, got %T", oidVal)
	}
	_, value, err := dec.Read(-1)
	if err != nil {
		return Varbind{}, err
	}
	if err := dec.Exit(); err != nil {
		return Varbind{}, err
	}
	return Varbind{OID: oid, Value: value}, nil
}

func decodeVarbindList(dec *Decoder) ([]Varbind, error) {
	if err := dec.Enter(); err != nil {
		return nil, err
	}
	var out []Varbind
	for !dec.EOF() {
		vb, err := decodeVarbind(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, vb)
	}
	if err := dec.Exit(); err != nil {
		return nil, err
	}
	return out, nil
}

// PDU is a non-bulk protocol data unit: GetRequest, GetNextRequest,
// GetResponse, SetRequest, or SNMPv2Trap. Type is one of the Num* PDU
// constants in ber.go.
type PDU struct {
	Type        int
	RequestID   int32
	ErrorStatus int
	ErrorIndex  int
	Varbinds    []Varbind
}

func (p *PDU) encode(enc *Encoder) error {
	enc.Enter(p.Type, ClassContext)
	if err := enc.WriteAuto(int64(p.RequestID)); err != nil {
		return err
	}
	if err := enc.WriteAuto(int64(p.ErrorStatus)); err != nil {
		return err
	}
	if err := enc.WriteAuto(int64(p.ErrorIndex)); err != nil {
		return err
	}
	enc.Enter(NumSequence, ClassUniversal)
	for _, vb := range p.Varbinds {
		if err := vb.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.Exit(); err != nil {
		return err
	}
	return enc.Exit()
}

// BulkPDU is a GetBulkRequest, which replaces error_status/error_index
// with non_repeaters/max_repetitions.
type BulkPDU struct {
	RequestID      int32
	NonRepeaters   int
	MaxRepetitions int
	Varbinds       []Varbind
}

func (p *BulkPDU) encode(enc *Encoder) error {
	enc.Enter(NumGetBulkRequest, ClassContext)
	if err := enc.WriteAuto(int64(p.RequestID)); err != nil {
		return err
	}
	if err := enc.WriteAuto(int64(p.NonRepeaters)); err != nil {
		return err
	}
	if err := enc.WriteAuto(int64(p.MaxRepetitions)); err != nil {
		return err
	}
	enc.Enter(NumSequence, ClassUniversal)
	for _, vb := range p.Varbinds {
		if err := vb.encode(enc); err != nil {
			return err
		}
	}
	if err := enc.Exit(); err != nil {
		return err
	}
	return enc.Exit()
}

// Message is the outermost SNMP envelope: Sequence{version, community, pdu}.
// Exactly one of PDU or BulkPDU is set.
type Message struct {
	Version   int
	Community string
	PDU       *PDU
	BulkPDU   *BulkPDU
}

// Encode renders m as a BER-encoded datagram body.
func (m *Message) Encode() ([]byte, error) {
	if m.PDU == nil && m.BulkPDU == nil {
		return nil, fmt.Errorf("snmp: message has neither pdu nor bulk pdu set")
	}
	enc := NewEncoder()
	enc.Enter(NumSequence, ClassUniversal)
	if err := enc.WriteAuto(int64(m.Version)); err != nil {
		return nil, err
	}
	if err := enc.WriteAuto(m.Community); err != nil {
		return nil, err
	}
	if m.BulkPDU != nil {
		if err := m.BulkPDU.encode(enc); err != nil {
			return nil, err
		}
	} else {
		if err := m.PDU.encode(enc); err != nil {
			return nil, err
		}
	}
	if err := enc.Exit(); err != nil {
		return nil, err
	}
	return enc.Output()
}

// DecodeMessage parses a BER-encoded datagram into a Message. The outer
// PDU's context tag number is not validated here: a response's tag may
// legitimately be GetResponse(2) regardless of what request triggered it.
// Use DecodeTrapMessage for the stricter trap-specific check.
func DecodeMessage(data []byte) (*Message, error) {
	dec := NewDecoder(data)
	if err := dec.Enter(); err != nil {
		return nil, err
	}
	version, err := readInt(dec)
	if err != nil {
		return nil, err
	}
	_, commVal, err := dec.Read(-1)
	if err != nil {
		return nil, err
	}
	community, ok := commVal.(string)
	if !ok {
		return nil, fmt.Errorf("snmp: message: expected octet string community, got %T", commVal)
	}
	tag, err := dec.Peek()
	if err != nil {
		return nil, err
	}
	if err := dec.Enter(); err != nil {
		return nil, err
	}
	msg := &Message{Version: int(version), Community: community}
	if tag.Class == ClassContext && tag.Number == NumGetBulkRequest {
		requestID, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		nonRepeaters, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		maxRepetitions, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		varbinds, err := decodeVarbindList(dec)
		if err != nil {
			return nil, err
		}
		msg.BulkPDU = &BulkPDU{
			RequestID:      int32(requestID),
			NonRepeaters:   int(nonRepeaters),
			MaxRepetitions: int(maxRepetitions),
			Varbinds:       varbinds,
		}
	} else {
		requestID, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		errorStatus, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		errorIndex, err := readInt(dec)
		if err != nil {
			return nil, err
		}
		varbinds, err := decodeVarbindList(dec)
		if err != nil {
			return nil, err
		}
		msg.PDU = &PDU{
			Type:        tag.Number,
			RequestID:   int32(requestID),
			ErrorStatus: int(errorStatus),
			ErrorIndex:  int(errorIndex),
			Varbinds:    varbinds,
		}
	}
	if err := dec.Exit(); err != nil {
		return nil, err
	}
	if err := dec.Exit(); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeTrapMessage decodes data as an SNMPv2c trap message: version must
// be v2c and the PDU tag must be context-class SNMPv2Trap. If either check
// fails, it returns ErrNotATrap (an internal distinction from a decode
// failure, used by the trap receiver to drop non-trap datagrams silently
// rather than log them as malformed).
func DecodeTrapMessage(data []byte) (*Message, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	if msg.Version != VersionV2c || msg.PDU == nil || msg.PDU.Type != NumSNMPv2Trap {
		return nil, ErrNotATrap
	}
	return msg, nil
}

func readInt(dec *Decoder) (int64, error) {
	_, val, err := dec.Read(-1)
	if err != nil {
		return 0, err
	}
	n, ok := val.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("snmp: expected integer, got %T", val)
	}
	return n.Int64(), nil
}

// newRequestID returns a uniformly random request-id in [1, 2^31-1].
func newRequestID() (int32, error) {
	max := big.NewInt(1<<31 - 1)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return int32(n.Int64()) + 1, nil
}

// NewGetRequest builds a GetRequest message for the given OIDs.
func NewGetRequest(community string, oids []OID) (*Message, error) {
	return newRequest(community, NumGetRequest, oids)
}

// NewGetNextRequest builds a GetNextRequest message for the given OIDs.
func NewGetNextRequest(community string, oids []OID) (*Message, error) {
	return newRequest(community, NumGetNextRequest, oids)
}

// NewSetRequest builds a SetRequest message from already-validated varbinds.
func NewSetRequest(community string, varbinds []Varbind) (*Message, error) {
	id, err := newRequestID()
	if err != nil {
		return nil, err
	}
	return &Message{
		Version:   VersionV2c,
		Community: community,
		PDU: &PDU{
			Type:      NumSetRequest,
			RequestID: id,
			Varbinds:  varbinds,
		},
	}, nil
}

// NewGetBulkRequest builds a GetBulkRequest message for the given OIDs.
func NewGetBulkRequest(community string, oids []OID, nonRepeaters, maxRepetitions int) (*Message, error) {
	id, err := newRequestID()
	if err != nil {
		return nil, err
	}
	varbinds := make([]Varbind, len(oids))
	for i, o := range oids {
		varbinds[i] = Varbind{OID: o}
	}
	return &Message{
		Version:   VersionV2c,
		Community: community,
		BulkPDU: &BulkPDU{
			RequestID:      id,
			NonRepeaters:   nonRepeaters,
			MaxRepetitions: maxRepetitions,
			Varbinds:       varbinds,
		},
	}, nil
}

func newRequest(community string, pduType int, oids []OID) (*Message, error) {
	id, err := newRequestID()
	if err != nil {
		return nil, err
	}
	varbinds := make([]Varbind, len(oids))
	for i, o := range oids {
		varbinds[i] = Varbind{OID: o}
	}
	return &Message{
		Version:   VersionV2c,
		Community: community,
		PDU: &PDU{
			Type:      pduType,
			RequestID: id,
			Varbinds:  varbinds,
		},
	}, nil
}

// asIPv4 coerces a varbind value to a 4-byte net.IP, accepting a string
// dotted-quad as an accomodation for callers building Set requests.
func asIPv4(value interface{}) (net.IP, bool) {
	switch v := value.(type) {
	case net.IP:
		if ip4 := v.To4(); ip4 != nil {
			return ip4, true
		}
	case string:
		if ip := net.ParseIP(v); ip != nil {
			if ip4 := ip.To4(); ip4 != nil {
				return ip4, true
			}
		}
	}
	return nil, false
}
