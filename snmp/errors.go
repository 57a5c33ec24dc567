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

package snmp

import (
	"errors"
	"fmt"
)

// ErrorStatus is an SNMP error-status code as carried in a GetResponse PDU.
type ErrorStatus int

// The 18 non-zero error-status codes defined by SNMPv2c.
const (
	StatusTooBig ErrorStatus = iota + 1
	StatusNoSuchName
	StatusBadValue
	StatusReadOnly
	StatusGenErr
	StatusNoAccess
	StatusWrongType
	StatusWrongLength
	StatusWrongEncoding
	StatusWrongValue
	StatusNoCreation
	StatusInconsistentValue
	StatusResourceUnavailable
	StatusCommitFailed
	StatusUndoFailed
	StatusAuthorizationError
	StatusNotWritable
	StatusInconsistentName
)

var statusMessages = map[ErrorStatus]string{
	StatusTooBig: "the agent could not place the results of the requested " +
		"operation in a single SNMP message",
	StatusNoSuchName: "the requested operation identified an unknown variable",
	StatusBadValue: "the requested operation tried to change a variable but " +
		"specified either a syntax or value error",
	StatusReadOnly: "the requested operation tried to change a variable that " +
		"was not allowed to change, according to the community profile of " +
		"the variable",
	StatusGenErr: "an error other than one of the other statuses occurred " +
		"during the requested operation",
	StatusNoAccess: "the specified variable is not accessible",
	StatusWrongType: "the value specifies a type that is inconsistent with " +
		"the type required for the variable",
	StatusWrongLength: "the value specifies a length that is inconsistent " +
		"with the length required for the variable",
	StatusWrongEncoding: "the value contains an ASN.1 encoding that is " +
		"inconsistent with the ASN.1 tag of the field",
	StatusWrongValue:          "the value cannot be assigned to the variable",
	StatusNoCreation:          "the variable does not exist, and the agent cannot create it",
	StatusInconsistentValue:   "the value is inconsistent with values of other managed objects",
	StatusResourceUnavailable: "assigning the value requires allocation of resources that are currently unavailable",
	StatusCommitFailed:        "no validation errors occurred, but no variables were updated",
	StatusUndoFailed: "no validation errors occurred, but some variables " +
		"were updated because it was not possible to undo their assignment",
	StatusAuthorizationError: "an authorization error occurred",
	StatusNotWritable:        "the variable exists but the agent cannot modify it",
	StatusInconsistentName: "the variable does not exist; the agent cannot " +
		"create it because the named object instance is inconsistent with " +
		"the values of other managed objects",
}

// String returns the canned, human-readable description of status.
func (s ErrorStatus) String() string {
	if msg, ok := statusMessages[s]; ok {
		return msg
	}
	return fmt.Sprintf("unknown error-status %d", int(s))
}

// StatusError is raised when a GetResponse carries a non-zero error_status.
// Index is the 1-based error_index from the response; OID is the offending
// varbind's OID from the outgoing request, populated when
// 1 <= Index <= len(request varbinds).
type StatusError struct {
	Status ErrorStatus
	Index  int
	OID    OID
}

func (e *StatusError) Error() string {
	if e.OID != "" {
		return fmt.Sprintf("snmp: %s (index %d, oid %s)", e.Status, e.Index, e.OID)
	}
	return fmt.Sprintf("snmp: %s (index %d)", e.Status, e.Index)
}

// errorForStatus builds the StatusError for a response carrying status,
// attaching the OID of the request varbind at index-1 when in range.
func errorForStatus(status ErrorStatus, index int, requestVarbinds []Varbind) *StatusError {
	e := &StatusError{Status: status, Index: index}
	if index >= 1 && index <= len(requestVarbinds) {
		e.OID = requestVarbinds[index-1].OID
	}
	return e
}

// SyntaxError describes a BER/ASN.1 decode failure (the "ASN1" error kind):
// premature end of input, non-constructed enter, stack underflow,
// malformed OID, invalid length encoding, and similar. Nothing in this
// package returns it: Decoder, decodeOID and DecodeMessage report these
// failures as plain errors built with fmt.Errorf.
type SyntaxError struct {
	Reason string
}

func (e *SyntaxError) Error() string {
	return "snmp: asn1: " + e.Reason
}

// Sentinel errors outside the per-status taxonomy.
var (
	// ErrTimeout is returned when all retries of a send are exhausted
	// without a resolving reply.
	ErrTimeout = errors.New("snmp: timed out waiting for a response")
	// ErrConnectionError is returned when the transport's socket could not
	// be set up (address resolution or bind failure), or when a request
	// datagram could not be written to it.
	ErrConnectionError = errors.New("snmp: connection error")
	// ErrConnectionClosed is returned by any send issued after Close.
	ErrConnectionClosed = errors.New("snmp: connection is closed")
	// ErrUnsupportedValueType is returned when Set is called with a value
	// that is not an integer, string, []byte or net.IP.
	ErrUnsupportedValueType = errors.New("snmp: unsupported value type for set")
	// ErrNotATrap distinguishes "not a trap message" from a malformed
	// datagram inside the trap receiver; never surfaced to a handler.
	ErrNotATrap = errors.New("snmp: message is not an SNMPv2 trap")
)

// errorForResponse maps a decoded GetResponse's error_status into the
// typed error the waiting caller should be resolved with, or nil if the
// response indicates success (error_status == 0).
func errorForResponse(pdu *PDU, requestVarbinds []Varbind) error {
	if pdu.ErrorStatus == 0 {
		return nil
	}
	return errorForStatus(ErrorStatus(pdu.ErrorStatus), pdu.ErrorIndex, requestVarbinds)
}
