package snmp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAgent is a minimal UDP responder used to exercise Client without a
// real SNMP agent. respond is called with the decoded request and returns
// the varbinds (and, optionally, an error status) to answer with; a nil
// respond func drops every datagram, for testing timeouts.
type fakeAgent struct {
	t       *testing.T
	conn    *net.UDPConn
	respond func(req *Message) (varbinds []Varbind, errorStatus, errorIndex int)
	done    chan struct{}
}

func newFakeAgent(t *testing.T, respond func(req *Message) (varbinds []Varbind, errorStatus, errorIndex int)) *fakeAgent {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	a := &fakeAgent{t: t, conn: conn, respond: respond, done: make(chan struct{})}
	go a.serve()
	return a
}

func (a *fakeAgent) addr() string {
	return a.conn.LocalAddr().String()
}

func (a *fakeAgent) port() int {
	return a.conn.LocalAddr().(*net.UDPAddr).Port
}

func (a *fakeAgent) serve() {
	buf := make([]byte, 65536)
	for {
		n, remote, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if a.respond == nil {
			continue // simulate a silent/unreachable agent
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		req, err := DecodeMessage(data)
		if err != nil {
			continue
		}
		varbinds, errorStatus, errorIndex := a.respond(req)
		var requestID int32
		if req.BulkPDU != nil {
			requestID = req.BulkPDU.RequestID
		} else {
			requestID = req.PDU.RequestID
		}
		resp := &Message{
			Version:   VersionV2c,
			Community: req.Community,
			PDU: &PDU{
				Type:        NumGetResponse,
				RequestID:   requestID,
				ErrorStatus: errorStatus,
				ErrorIndex:  errorIndex,
				Varbinds:    varbinds,
			},
		}
		out, err := resp.Encode()
		if err != nil {
			continue
		}
		_, _ = a.conn.WriteToUDP(out, remote)
	}
}

func (a *fakeAgent) close() {
	a.conn.Close()
}

func TestClientGetSuccess(t *testing.T) {
	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		return []Varbind{{OID: req.PDU.Varbinds[0].OID, Value: "test system"}}, 0, 0
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()), WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	varbinds, err := cli.Get(context.Background(), OIDSysDescr.String())
	require.NoError(t, err)
	require.Len(t, varbinds, 1)
	require.Equal(t, "test system", varbinds[0].Value)
}

func TestClientGetErrorStatus(t *testing.T) {
	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		return req.PDU.Varbinds, int(StatusNoSuchName), 1
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()), WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Get(context.Background(), OIDSysDescr.String())
	require.Error(t, err)
	statusErr, ok := err.(*StatusError)
	require.True(t, ok)
	require.Equal(t, StatusNoSuchName, statusErr.Status)
	require.Equal(t, OIDSysDescr, statusErr.OID)
}

func TestClientTimeoutExhaustsRetries(t *testing.T) {
	agent := newFakeAgent(t, nil) // never responds
	defer agent.close()

	const retries = 3
	cli, err := NewClient("127.0.0.1",
		WithPort(agent.port()),
		WithTimeout(30*time.Millisecond),
		WithRetries(retries),
	)
	require.NoError(t, err)
	defer cli.Close()

	start := time.Now()
	_, err = cli.Get(context.Background(), OIDSysDescr.String())
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, elapsed, time.Duration(retries)*30*time.Millisecond)
	require.Equal(t, int64(retries-1), cli.Metrics().Retries.Value())
}

func TestClientDropsReplyFromWrongSourceWhenValidating(t *testing.T) {
	// The agent listens on one port but relays its reply from a second
	// socket bound to a different port, so the datagram the client
	// receives carries a correct request-id but the "wrong" source port.
	listenConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listenConn.Close()
	relayConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer relayConn.Close()

	go func() {
		buf := make([]byte, 65536)
		for {
			n, remote, err := listenConn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req, err := DecodeMessage(buf[:n])
			if err != nil {
				continue
			}
			resp := &Message{
				Version:   VersionV2c,
				Community: req.Community,
				PDU: &PDU{
					Type:      NumGetResponse,
					RequestID: req.PDU.RequestID,
					Varbinds:  req.PDU.Varbinds,
				},
			}
			out, err := resp.Encode()
			if err != nil {
				continue
			}
			_, _ = relayConn.WriteToUDP(out, remote)
		}
	}()

	listenPort := listenConn.LocalAddr().(*net.UDPAddr).Port
	cli, err := NewClient("127.0.0.1",
		WithPort(listenPort),
		WithTimeout(80*time.Millisecond),
		WithRetries(1),
	)
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Get(context.Background(), OIDSysDescr.String())
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClientValidateSourceAddrDisabledAcceptsAnySource(t *testing.T) {
	// With validation disabled, a reply is correlated on request-id alone,
	// so any source address is accepted. As in the test above, the reply is
	// relayed from a second socket whose port differs from the one the
	// request was sent to.
	listenConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listenConn.Close()
	relayConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer relayConn.Close()

	go func() {
		buf := make([]byte, 65536)
		for {
			n, remote, err := listenConn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			req, err := DecodeMessage(buf[:n])
			if err != nil {
				continue
			}
			resp := &Message{
				Version:   VersionV2c,
				Community: req.Community,
				PDU: &PDU{
					Type:      NumGetResponse,
					RequestID: req.PDU.RequestID,
					Varbinds:  []Varbind{{OID: req.PDU.Varbinds[0].OID, Value: "ok"}},
				},
			}
			out, err := resp.Encode()
			if err != nil {
				continue
			}
			_, _ = relayConn.WriteToUDP(out, remote)
		}
	}()

	cli, err := NewClient("127.0.0.1",
		WithPort(listenConn.LocalAddr().(*net.UDPAddr).Port),
		WithTimeout(200*time.Millisecond),
		WithValidateSourceAddr(false),
	)
	require.NoError(t, err)
	defer cli.Close()

	varbinds, err := cli.Get(context.Background(), OIDSysDescr.String())
	require.NoError(t, err)
	require.Equal(t, "ok", varbinds[0].Value)
}

func TestClientWalkFallsBackToGetForScalarLeaf(t *testing.T) {
	leaf := OIDSysUpTime
	outside := MustParseOID("1.3.6.1.2.1.1.4.0")

	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		switch req.PDU.Type {
		case NumGetNextRequest:
			return []Varbind{{OID: outside, Value: "next"}}, 0, 0
		case NumGetRequest:
			return []Varbind{{OID: leaf, Value: 12345}}, 0, 0
		}
		return nil, int(StatusGenErr), 0
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()), WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	varbinds, err := cli.Walk(context.Background(), leaf.String())
	require.NoError(t, err)
	require.Len(t, varbinds, 1)
	require.Equal(t, leaf, varbinds[0].OID)
}

func TestClientWalkStopsAtSubtreeBoundary(t *testing.T) {
	base := MustParseOID("1.3.6.1.2.1.1")
	child1 := MustParseOID("1.3.6.1.2.1.1.1.0")
	child2 := MustParseOID("1.3.6.1.2.1.1.2.0")
	outside := MustParseOID("1.3.6.1.2.1.2.1.0")

	calls := 0
	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		calls++
		switch req.PDU.Varbinds[0].OID {
		case base:
			return []Varbind{{OID: child1, Value: "a"}}, 0, 0
		case child1:
			return []Varbind{{OID: child2, Value: "b"}}, 0, 0
		case child2:
			return []Varbind{{OID: outside, Value: "c"}}, 0, 0
		}
		return nil, int(StatusGenErr), 0
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()), WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	varbinds, err := cli.Walk(context.Background(), base.String())
	require.NoError(t, err)
	require.Len(t, varbinds, 2)
	require.Equal(t, child1, varbinds[0].OID)
	require.Equal(t, child2, varbinds[1].OID)
}

func TestClientBulkWalkStopsOnAbsentValue(t *testing.T) {
	base := MustParseOID("1.3.6.1.2.1.1")
	child1 := MustParseOID("1.3.6.1.2.1.1.1.0")
	child2 := MustParseOID("1.3.6.1.2.1.1.2.0")

	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		return []Varbind{
			{OID: child1, Value: "a"},
			{OID: child2, Value: nil}, // EndOfMibView sentinel
		}, 0, 0
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()), WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	defer cli.Close()

	varbinds, err := cli.BulkWalk(context.Background(), base.String(), 0, 10)
	require.NoError(t, err)
	require.Len(t, varbinds, 1)
	require.Equal(t, child1, varbinds[0].OID)
}

func TestClientSetRejectsUnsupportedValueType(t *testing.T) {
	cli, err := NewClient("127.0.0.1", WithPort(1))
	require.NoError(t, err)
	defer cli.Close()

	_, err = cli.Set(context.Background(), SetPair{OID: OIDSysLocation.String(), Value: 3.14})
	require.ErrorIs(t, err, ErrUnsupportedValueType)
}

func TestClientSendAfterCloseFails(t *testing.T) {
	agent := newFakeAgent(t, func(req *Message) ([]Varbind, int, int) {
		return req.PDU.Varbinds, 0, 0
	})
	defer agent.close()

	cli, err := NewClient("127.0.0.1", WithPort(agent.port()))
	require.NoError(t, err)
	require.NoError(t, cli.Close())

	_, err = cli.Get(context.Background(), OIDSysDescr.String())
	require.ErrorIs(t, err, ErrConnectionClosed)
}
