// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package snmp implements a BER/DER codec for the ASN.1 subset used by
// SNMP, the SNMPv2c wire format built on top of it, and an async-style
// (goroutine + channel) client and trap receiver.
package snmp

import (
	"bytes"
	"fmt"
	"io"
	"math/big"
	"net"
)

// Class is the ASN.1 tag class, occupying the top two bits of the tag byte.
type Class byte

const (
	ClassUniversal   Class = 0x00
	ClassApplication Class = 0x40
	ClassContext     Class = 0x80
	ClassPrivate     Class = 0xC0
)

// Form distinguishes primitive from constructed encodings (bit 0x20).
type Form byte

const (
	FormPrimitive   Form = 0x00
	FormConstructed Form = 0x20
)

// Universal ASN.1 tag numbers used by this codec.
const (
	NumBoolean          = 1
	NumInteger          = 2
	NumOctetString      = 4
	NumNull             = 5
	NumObjectIdentifier = 6
	NumEnumerated       = 10
	NumPrintableString  = 19
	NumIA5String        = 22
	NumUTCTime          = 23
	NumSequence         = 16
	NumSet              = 17
)

// SNMP application tag numbers (Class: ClassApplication).
const (
	NumIPAddress  = 0
	NumCounter32  = 1
	NumGauge32    = 2
	NumTimeTicks  = 3
	NumOpaque     = 4
	NumCounter64  = 6
	NumUinteger32 = 7
)

// PDU context tag numbers (Class: ClassContext).
const (
	NumGetRequest     = 0
	NumGetNextRequest = 1
	NumGetResponse    = 2
	NumSetRequest     = 3
	NumGetBulkRequest = 5
	NumSNMPv2Trap     = 7
)

// Context-tagged primitives signalling an absent value in a GetResponse.
const (
	NumNoSuchObject   = 0
	NumNoSuchInstance = 1
	NumEndOfMibView   = 2
)

// Tag is the (number, form, class) triple identifying a BER element.
type Tag struct {
	Number int
	Form   Form
	Class  Class
}

func (t Tag) String() string {
	form := "primitive"
	if t.Form == FormConstructed {
		form = "constructed"
	}
	return fmt.Sprintf("[class=%#02x num=%d %s]", byte(t.Class), t.Number, form)
}

// frame is one level of nesting in an in-progress Encoder scope.
type frame struct {
	buf    bytes.Buffer
	number int
	class  Class
}

// Encoder builds a BER/DER encoding by accumulating TLVs into a stack of
// scoped buffers. enter/exit nest constructed elements; write emits leaf
// values. It is not safe for concurrent use, and is meant to be built and
// discarded per message.
type Encoder struct {
	stack []*frame
}

// NewEncoder returns an Encoder ready to accept top-level writes.
func NewEncoder() *Encoder {
	return &Encoder{stack: []*frame{{}}}
}

func (e *Encoder) top() *frame {
	return e.stack[len(e.stack)-1]
}

// Enter begins a constructed element. A matching Exit pops it, wrapping the
// accumulated body in a tag of the given number/class and its BER length.
func (e *Encoder) Enter(number int, class Class) {
	e.stack = append(e.stack, &frame{number: number, class: class})
}

// Exit closes the innermost open scope opened by Enter, emitting its TLV
// into the parent scope. It returns an error if there is no open scope.
func (e *Encoder) Exit() error {
	if len(e.stack) < 2 {
		return fmt.Errorf("snmp: ber: exit without matching enter")
	}
	child := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	tlv := encodeTLV(child.number, FormConstructed, child.class, child.buf.Bytes())
	e.top().buf.Write(tlv)
	return nil
}

// Write emits a single TLV for value into the current scope. If number is
// negative, the tag number is autodetected from the Go type of value:
// integers (int, int32, int64, uint32, uint64, *big.Int) -> Integer,
// string/[]byte -> OctetString, nil -> Null, bool -> Boolean, OID ->
// ObjectIdentifier, net.IP -> IPAddress (Application class; the class
// argument is used for the others). Any other Go type is a build-time error.
func (e *Encoder) Write(value interface{}, number int, class Class) error {
	body, autoNumber, err := marshalValue(value)
	if err != nil {
		return err
	}
	if number < 0 {
		number = autoNumber
		if _, isIP := value.(net.IP); isIP {
			class = ClassApplication
		}
	}
	e.top().buf.Write(encodeTLV(number, FormPrimitive, class, body))
	return nil
}

// WriteAuto is Write with autodetected number and Universal class
// (Application class for a net.IP value).
func (e *Encoder) WriteAuto(value interface{}) error {
	return e.Write(value, -1, ClassUniversal)
}

// Output returns the accumulated encoding. It fails if any Enter is still
// unmatched by an Exit.
func (e *Encoder) Output() ([]byte, error) {
	if len(e.stack) != 1 {
		return nil, fmt.Errorf("snmp: ber: %d unclosed scope(s)", len(e.stack)-1)
	}
	out := make([]byte, len(e.top().buf.Bytes()))
	copy(out, e.top().buf.Bytes())
	return out, nil
}

// marshalValue encodes the body bytes for value and reports the universal
// tag number that would be used were no explicit number supplied.
func marshalValue(value interface{}) (body []byte, autoNumber int, err error) {
	switch v := value.(type) {
	case nil:
		return nil, NumNull, nil
	case bool:
		if v {
			return []byte{0xFF}, NumBoolean, nil
		}
		return []byte{0x00}, NumBoolean, nil
	case int:
		return marshalInt(big.NewInt(int64(v))), NumInteger, nil
	case int32:
		return marshalInt(big.NewInt(int64(v))), NumInteger, nil
	case int64:
		return marshalInt(big.NewInt(v)), NumInteger, nil
	case uint32:
		return marshalInt(new(big.Int).SetUint64(uint64(v))), NumInteger, nil
	case uint64:
		return marshalInt(new(big.Int).SetUint64(v)), NumInteger, nil
	case *big.Int:
		return marshalInt(v), NumInteger, nil
	case string:
		return []byte(v), NumOctetString, nil
	case []byte:
		return v, NumOctetString, nil
	case net.IP:
		ip4 := v.To4()
		if ip4 == nil {
			return nil, 0, fmt.Errorf("snmp: ber: %v is not an IPv4 address", v)
		}
		return []byte(ip4), NumIPAddress, nil
	case OID:
		b, err := encodeOID(v)
		if err != nil {
			return nil, 0, err
		}
		return b, NumObjectIdentifier, nil
	default:
		return nil, 0, fmt.Errorf("snmp: ber: unsupported value type %T", value)
	}
}

// encodeTLV assembles a full Type-Length-Value for the given tag.
func encodeTLV(number int, form Form, class Class, body []byte) []byte {
	var buf bytes.Buffer
	buf.Write(encodeTag(number, form, class))
	buf.Write(encodeLength(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// encodeTag encodes a tag byte (or long-form sequence). All numbers this
// codec uses are < 31 and fit the short form; the long form is implemented
// for completeness and conformance with inputs outside that range.
func encodeTag(number int, form Form, class Class) []byte {
	if number < 31 {
		return []byte{byte(class) | byte(form) | byte(number)}
	}
	first := byte(class) | byte(form) | 0x1F
	var groups []byte
	n := number
	for n > 0 {
		groups = append([]byte{byte(n & 0x7F)}, groups...)
		n >>= 7
	}
	for i := 0; i < len(groups)-1; i++ {
		groups[i] |= 0x80
	}
	return append([]byte{first}, groups...)
}

// encodeLength encodes a BER length using short form under 128, long form
// (base-256, leading-zero-suppressed) otherwise.
func encodeLength(length int) []byte {
	if length < 128 {
		return []byte{byte(length)}
	}
	var buf []byte
	n := length
	for n > 0 {
		buf = append([]byte{byte(n & 0xFF)}, buf...)
		n >>= 8
	}
	return append([]byte{0x80 | byte(len(buf))}, buf...)
}

// marshalInt encodes v as a minimal two's-complement integer body.
func marshalInt(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0x00}
	}
	if v.Sign() > 0 {
		b := v.Bytes()
		if b[0]&0x80 != 0 {
			return append([]byte{0x00}, b...)
		}
		return b
	}
	mag := new(big.Int).Abs(v)
	nb := len(mag.Bytes())
	if nb == 0 {
		nb = 1
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(nb*8))
	tc := new(big.Int).Sub(mod, mag)
	tcBytes := tc.Bytes()
	if len(tcBytes) < nb {
		pad := make([]byte, nb-len(tcBytes))
		tcBytes = append(pad, tcBytes...)
	}
	if tcBytes[0]&0x80 == 0 {
		tcBytes = append([]byte{0xFF}, tcBytes...)
	}
	return tcBytes
}

// unmarshalInt decodes a two's-complement integer body into a big.Int.
func unmarshalInt(data []byte) *big.Int {
	if len(data) == 0 {
		return big.NewInt(0)
	}
	raw := new(big.Int).SetBytes(data)
	if data[0]&0x80 == 0 {
		return raw
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(len(data)*8))
	return new(big.Int).Sub(raw, mod)
}

// Decoder reads a BER/DER encoding produced by Encoder (or any conformant
// encoder). It tracks the current nesting level as a stack of bounded
// readers: Enter/Exit push and pop a reader bounded to the constructed
// element's body.
type Decoder struct {
	readers []*bytes.Reader
}

// NewDecoder returns a Decoder positioned at the start of data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{readers: []*bytes.Reader{bytes.NewReader(data)}}
}

func (d *Decoder) current() *bytes.Reader {
	return d.readers[len(d.readers)-1]
}

// EOF reports whether the current nesting level is fully consumed.
func (d *Decoder) EOF() bool {
	return d.current().Len() == 0
}

// Peek reads the next tag without consuming its length or value.
func (d *Decoder) Peek() (Tag, error) {
	if d.current().Len() == 0 {
		return Tag{}, fmt.Errorf("snmp: ber: peek at end of input")
	}
	pos, err := d.current().Seek(0, io.SeekCurrent)
	if err != nil {
		return Tag{}, err
	}
	tag, _, err := d.readHeader()
	if err != nil {
		return Tag{}, err
	}
	if _, err := d.current().Seek(pos, io.SeekStart); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// Enter begins consuming a constructed element, bounding subsequent reads
// to its body. It fails if the next tag is not constructed.
func (d *Decoder) Enter() error {
	tag, body, err := d.readRaw()
	if err != nil {
		return err
	}
	if tag.Form != FormConstructed {
		return fmt.Errorf("snmp: ber: enter on primitive tag %s", tag)
	}
	d.readers = append(d.readers, bytes.NewReader(body))
	return nil
}

// Exit ends the innermost scope opened by Enter.
func (d *Decoder) Exit() error {
	if len(d.readers) < 2 {
		return fmt.Errorf("snmp: ber: exit without matching enter")
	}
	d.readers = d.readers[:len(d.readers)-1]
	return nil
}

// Read consumes one TLV and decodes its value. forceNumber, when >= 0,
// overrides the tag's own number when interpreting the body (used when a
// caller already knows the expected shape, e.g. trailing varbind values).
func (d *Decoder) Read(forceNumber int) (Tag, interface{}, error) {
	tag, body, err := d.readRaw()
	if err != nil {
		return Tag{}, nil, err
	}
	number := tag.Number
	if forceNumber >= 0 {
		number = forceNumber
	}
	value, err := decodeValue(tag, number, body)
	if err != nil {
		return Tag{}, nil, err
	}
	return tag, value, nil
}

// readRaw reads a full TLV (tag, length, value) from the current scope.
func (d *Decoder) readRaw() (Tag, []byte, error) {
	tag, length, err := d.readHeader()
	if err != nil {
		return Tag{}, nil, err
	}
	body := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(d.current(), body); err != nil {
			return Tag{}, nil, fmt.Errorf("snmp: ber: truncated value: %w", err)
		}
	}
	return tag, body, nil
}

// readHeader reads a tag and its length, leaving the reader positioned at
// the start of the value.
func (d *Decoder) readHeader() (Tag, int, error) {
	r := d.current()
	first, err := r.ReadByte()
	if err != nil {
		return Tag{}, 0, fmt.Errorf("snmp: ber: premature end of input reading tag")
	}
	class := Class(first & 0xC0)
	form := Form(first & 0x20)
	number := int(first & 0x1F)
	if number == 0x1F {
		number = 0
		for {
			b, err := r.ReadByte()
			if err != nil {
				return Tag{}, 0, fmt.Errorf("snmp: ber: premature end of input reading tag number")
			}
			number = (number << 7) | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
	}
	length, err := decodeLength(r)
	if err != nil {
		return Tag{}, 0, err
	}
	return Tag{Number: number, Form: form, Class: class}, length, nil
}

// decodeLength reads a BER length from r.
func decodeLength(r *bytes.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("snmp: ber: premature end of input reading length")
	}
	if b < 0x80 {
		return int(b), nil
	}
	n := int(b & 0x7F)
	if n == 0x7F {
		return 0, fmt.Errorf("snmp: ber: reserved length form 0xFF")
	}
	if n == 0 {
		return 0, nil
	}
	lenBytes := make([]byte, n)
	if _, err := io.ReadFull(r, lenBytes); err != nil {
		return 0, fmt.Errorf("snmp: ber: truncated length: %w", err)
	}
	length := 0
	for _, lb := range lenBytes {
		length = (length << 8) | int(lb)
	}
	return length, nil
}

// decodeValue interprets body according to (number, class) as described in
// spec.md section 4.1: absent-value sentinels decode to nil; counters,
// gauges, ticks and enumerateds decode to integers; strings decode to
// Go strings (OctetString also commonly carries raw bytes, returned as
// string here since SNMP agents use it for both and callers can re-cast).
func decodeValue(tag Tag, number int, body []byte) (interface{}, error) {
	switch tag.Class {
	case ClassUniversal:
		switch number {
		case NumBoolean:
			if len(body) != 1 {
				return nil, fmt.Errorf("snmp: ber: boolean body must be 1 byte, got %d", len(body))
			}
			return body[0] != 0x00, nil
		case NumInteger, NumEnumerated:
			return unmarshalInt(body), nil
		case NumOctetString, NumPrintableString, NumIA5String, NumUTCTime:
			return string(body), nil
		case NumNull:
			if len(body) != 0 {
				return nil, fmt.Errorf("snmp: ber: null body must be empty")
			}
			return nil, nil
		case NumObjectIdentifier:
			return decodeOID(body)
		default:
			return body, nil
		}
	case ClassApplication:
		switch number {
		case NumIPAddress:
			if len(body) != 4 {
				return nil, fmt.Errorf("snmp: ber: IPAddress body must be 4 bytes, got %d", len(body))
			}
			return net.IP(append([]byte(nil), body...)), nil
		case NumCounter32, NumGauge32, NumTimeTicks, NumCounter64, NumUinteger32:
			return unmarshalInt(body), nil
		case NumOpaque:
			return body, nil
		default:
			return body, nil
		}
	case ClassContext:
		switch number {
		case NumNoSuchObject, NumNoSuchInstance, NumEndOfMibView:
			return nil, nil
		default:
			return body, nil
		}
	default:
		return body, nil
	}
}
