package snmp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	msg, err := NewGetRequest("public", []OID{OIDSysDescr, OIDSysUpTime})
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, VersionV2c, decoded.Version)
	require.Equal(t, "public", decoded.Community)
	require.NotNil(t, decoded.PDU)
	require.Equal(t, NumGetRequest, decoded.PDU.Type)
	require.Equal(t, msg.PDU.RequestID, decoded.PDU.RequestID)
	require.Len(t, decoded.PDU.Varbinds, 2)
	require.Equal(t, OIDSysDescr, decoded.PDU.Varbinds[0].OID)
	require.Nil(t, decoded.PDU.Varbinds[0].Value)
}

func TestBulkPDUEncodeDecodeRoundTrip(t *testing.T) {
	msg, err := NewGetBulkRequest("public", []OID{OIDSysDescr}, 0, 10)
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Nil(t, decoded.PDU)
	require.NotNil(t, decoded.BulkPDU)
	require.Equal(t, 0, decoded.BulkPDU.NonRepeaters)
	require.Equal(t, 10, decoded.BulkPDU.MaxRepetitions)
	require.Equal(t, msg.BulkPDU.RequestID, decoded.BulkPDU.RequestID)
}

func TestSetRequestWithTaggedValues(t *testing.T) {
	vb, err := NewTaggedVarbind(OIDSysLocation.String(), "rack 4", TagOctetString)
	require.NoError(t, err)
	msg, err := NewSetRequest("private", []Varbind{vb})
	require.NoError(t, err)

	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, NumSetRequest, decoded.PDU.Type)
	require.Equal(t, "rack 4", decoded.PDU.Varbinds[0].Value)
}

func TestDecodeMessageAcceptsGetResponseForAnyRequestType(t *testing.T) {
	pdu := &PDU{
		Type:      NumGetResponse,
		RequestID: 7,
		Varbinds:  []Varbind{{OID: OIDSysUpTime, Value: 12345}},
	}
	msg := &Message{Version: VersionV2c, Community: "public", PDU: pdu}
	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, NumGetResponse, decoded.PDU.Type)
}

func TestDecodeTrapMessageRejectsNonTrap(t *testing.T) {
	msg, err := NewGetRequest("public", []OID{OIDSysDescr})
	require.NoError(t, err)
	data, err := msg.Encode()
	require.NoError(t, err)

	_, err = DecodeTrapMessage(data)
	require.ErrorIs(t, err, ErrNotATrap)
}

func TestDecodeTrapMessageAcceptsTrap(t *testing.T) {
	pdu := &PDU{
		Type:      NumSNMPv2Trap,
		RequestID: 1,
		Varbinds: []Varbind{
			{OID: OIDSysUpTime, Value: 4200},
			{OID: MustParseOID("1.3.6.1.6.3.1.1.4.1.0"), Value: MustParseOID("1.3.6.1.4.1.9999.1")},
		},
	}
	msg := &Message{Version: VersionV2c, Community: "public", PDU: pdu}
	data, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTrapMessage(data)
	require.NoError(t, err)
	require.Equal(t, NumSNMPv2Trap, decoded.PDU.Type)
	require.Len(t, decoded.PDU.Varbinds, 2)
}

func TestDecodeTrapMessageRejectsV1(t *testing.T) {
	pdu := &PDU{Type: NumSNMPv2Trap, RequestID: 1}
	msg := &Message{Version: VersionV1, Community: "public", PDU: pdu}
	data, err := msg.Encode()
	require.NoError(t, err)

	_, err = DecodeTrapMessage(data)
	require.ErrorIs(t, err, ErrNotATrap)
}
