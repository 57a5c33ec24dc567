package snmp

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sendDatagram(t *testing.T, addr string, data []byte) {
	t.Helper()
	conn, err := net.Dial("udp", addr)
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write(data)
	require.NoError(t, err)
}

func encodeTrap(t *testing.T, community string) []byte {
	t.Helper()
	pdu := &PDU{
		Type:      NumSNMPv2Trap,
		RequestID: 1,
		Varbinds: []Varbind{
			{OID: OIDSysUpTime, Value: 100},
		},
	}
	msg := &Message{Version: VersionV2c, Community: community, PDU: pdu}
	data, err := msg.Encode()
	require.NoError(t, err)
	return data
}

func TestTrapServerDispatchesAcceptedTrap(t *testing.T) {
	received := make(chan *TrapMessage, 1)
	server := NewTrapServer(func(host string, port int, msg *TrapMessage) error {
		received <- msg
		return nil
	}, WithListenHost("127.0.0.1"), WithListenPort(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	sendDatagram(t, server.Address(), encodeTrap(t, "public"))

	select {
	case msg := <-received:
		require.Equal(t, "public", msg.Community)
		require.Len(t, msg.Varbinds, 1)
	case <-time.After(time.Second):
		t.Fatal("trap was not dispatched")
	}
}

func TestTrapServerFiltersByCommunity(t *testing.T) {
	var mu sync.Mutex
	var calls int
	server := NewTrapServer(func(host string, port int, msg *TrapMessage) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}, WithListenHost("127.0.0.1"), WithListenPort(0), WithTrapCommunities([]string{"allowed"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	sendDatagram(t, server.Address(), encodeTrap(t, "not-allowed"))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	require.Equal(t, 0, calls)
	mu.Unlock()

	sendDatagram(t, server.Address(), encodeTrap(t, "allowed"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTrapServerIgnoresNonTrapDatagrams(t *testing.T) {
	called := make(chan struct{}, 1)
	server := NewTrapServer(func(host string, port int, msg *TrapMessage) error {
		called <- struct{}{}
		return nil
	}, WithListenHost("127.0.0.1"), WithListenPort(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	getReq, err := NewGetRequest("public", []OID{OIDSysDescr})
	require.NoError(t, err)
	data, err := getReq.Encode()
	require.NoError(t, err)
	sendDatagram(t, server.Address(), data)

	select {
	case <-called:
		t.Fatal("handler should not be invoked for a non-trap datagram")
	case <-time.After(150 * time.Millisecond):
	}
	require.Equal(t, int64(0), server.Metrics().Errors.Value())
}

func TestTrapServerHandlerErrorIsIsolated(t *testing.T) {
	server := NewTrapServer(func(host string, port int, msg *TrapMessage) error {
		return context.DeadlineExceeded
	}, WithListenHost("127.0.0.1"), WithListenPort(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, server.Start(ctx))
	defer server.Stop()

	sendDatagram(t, server.Address(), encodeTrap(t, "public"))

	require.Eventually(t, func() bool {
		return server.Metrics().Errors.Value() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTrapMessageSysUpTime(t *testing.T) {
	msg := &TrapMessage{
		Varbinds: []Varbind{{OID: OIDSysUpTime, Value: unmarshalInt([]byte{0x00, 0x00, 0x27, 0x10})}},
	}
	ticks, ok := msg.SysUpTime()
	require.True(t, ok)
	require.Equal(t, uint32(10000), ticks)

	empty := &TrapMessage{}
	_, ok = empty.SysUpTime()
	require.False(t, ok)
}
