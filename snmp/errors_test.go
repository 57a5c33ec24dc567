package snmp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorForResponseNilOnSuccess(t *testing.T) {
	pdu := &PDU{ErrorStatus: 0}
	require.NoError(t, errorForResponse(pdu, nil))
}

func TestErrorForResponseAllStatuses(t *testing.T) {
	statuses := []ErrorStatus{
		StatusTooBig, StatusNoSuchName, StatusBadValue, StatusReadOnly, StatusGenErr,
		StatusNoAccess, StatusWrongType, StatusWrongLength, StatusWrongEncoding,
		StatusWrongValue, StatusNoCreation, StatusInconsistentValue,
		StatusResourceUnavailable, StatusCommitFailed, StatusUndoFailed,
		StatusAuthorizationError, StatusNotWritable, StatusInconsistentName,
	}
	require.Len(t, statuses, 18)

	requestVarbinds := []Varbind{
		{OID: OIDSysDescr},
		{OID: OIDSysUpTime},
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			pdu := &PDU{ErrorStatus: int(status), ErrorIndex: 2}
			err := errorForResponse(pdu, requestVarbinds)
			require.Error(t, err)

			statusErr, ok := err.(*StatusError)
			require.True(t, ok)
			require.Equal(t, status, statusErr.Status)
			require.Equal(t, 2, statusErr.Index)
			require.Equal(t, OIDSysUpTime, statusErr.OID)
			require.NotEmpty(t, status.String())
		})
	}
}

func TestErrorForStatusIndexOutOfRange(t *testing.T) {
	e := errorForStatus(StatusGenErr, 0, []Varbind{{OID: OIDSysDescr}})
	require.Equal(t, OID(""), e.OID)

	e = errorForStatus(StatusGenErr, 5, []Varbind{{OID: OIDSysDescr}})
	require.Equal(t, OID(""), e.OID)
}

func TestUnknownErrorStatusString(t *testing.T) {
	require.Contains(t, ErrorStatus(999).String(), "unknown")
}
