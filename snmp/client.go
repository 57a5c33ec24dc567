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
	"context"
	"fmt"
	"math/big"
	"net"
	"strconv"
	"sync"
	"time"
)

// correlationKey identifies a single in-flight request. When
// ValidateSourceAddr is disabled, Host/Port are left zero and every
// reply is matched on RequestID alone.
type correlationKey struct {
	host      string
	port      int
	requestID int32
}

// inflight pairs a waiter with the request's own varbinds, needed to
// attach the offending OID when a reply carries a non-zero error_status.
type inflight struct {
	w        *waiter
	varbinds []Varbind
}

// Client is an SNMPv2c client bound to a single remote agent. It owns one
// UDP socket for its lifetime, lazily created on the first send. Safe for
// concurrent use: multiple goroutines may issue requests on the same
// Client, multiplexed by request-id.
type Client struct {
	host string
	opts *ClientOptions

	connectOnce sync.Once
	connectErr  error
	conn        *net.UDPConn
	remoteAddr  *net.UDPAddr

	mu      sync.Mutex
	closed  bool
	pending map[correlationKey]*inflight

	closeOnce sync.Once
	wg        sync.WaitGroup

	metrics *Metrics
}

// NewClient returns a Client targeting host, applying opts over the
// reference defaults (port 161, community "public", timeout 1s, 6
// retries). The underlying socket is not created until the first request;
// callers should defer Close() regardless.
func NewClient(host string, opts ...Option) (*Client, error) {
	options := NewClientOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Client{
		host:    host,
		opts:    options,
		pending: make(map[correlationKey]*inflight),
		metrics: NewMetrics(),
	}, nil
}

// Metrics returns the client's live metrics.
func (c *Client) Metrics() *Metrics {
	return c.metrics
}

// Close tears down the client's socket. A send already waiting for a reply
// is not woken: its next retransmission fails with ErrConnectionError, or
// it ends with ErrTimeout after its last attempt. Any send issued afterward
// fails immediately with ErrConnectionClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.metrics.ActiveConnections.Set(0)
	})
	c.wg.Wait()
	return nil
}

func (c *Client) ensureConn() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}

	c.connectOnce.Do(func() {
		remoteAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(c.host, strconv.Itoa(c.opts.Port)))
		if err != nil {
			c.connectErr = err
			return
		}
		var localAddr *net.UDPAddr
		if c.opts.LocalAddr != "" {
			localAddr, err = net.ResolveUDPAddr("udp", c.opts.LocalAddr)
			if err != nil {
				c.connectErr = err
				return
			}
		}
		c.metrics.ConnectionAttempts.Add(1)
		conn, err := net.ListenUDP("udp", localAddr)
		if err != nil {
			c.connectErr = err
			return
		}
		c.conn = conn
		c.remoteAddr = remoteAddr
		c.metrics.ActiveConnections.Set(1)
		c.wg.Add(1)
		go c.readLoop()
	})
	if c.connectErr != nil {
		return fmt.Errorf("%w: %v", ErrConnectionError, c.connectErr)
	}
	c.mu.Lock()
	closed = c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}
	return nil
}

// readLoop is the client's single reader goroutine: it decodes inbound
// datagrams and resolves the matching waiter, executing each to
// completion before reading the next (no per-reply goroutines), mirroring
// the single-threaded reactor the protocol was designed against.
func (c *Client) readLoop() {
	defer c.wg.Done()
	buf := make([]byte, 65536)
	for {
		n, addr, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		c.handleDatagram(data, addr)
	}
}

func (c *Client) handleDatagram(data []byte, addr *net.UDPAddr) {
	msg, err := DecodeMessage(data)
	if err != nil {
		c.opts.Logger.Debug("snmp: dropping malformed reply", "error", err, "source", addr)
		return
	}
	if msg.PDU == nil {
		c.opts.Logger.Debug("snmp: dropping reply with unexpected bulk shape", "source", addr)
		return
	}

	var key correlationKey
	if c.opts.ValidateSourceAddr {
		key = correlationKey{host: addr.IP.String(), port: addr.Port, requestID: msg.PDU.RequestID}
	} else {
		key = correlationKey{requestID: msg.PDU.RequestID}
	}

	c.mu.Lock()
	entry, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if !ok {
		c.opts.Logger.Debug("snmp: dropping reply for unknown request", "requestID", msg.PDU.RequestID, "source", addr)
		return
	}

	c.metrics.ResponsesReceived.Add(1)
	c.metrics.VarbindsReceived.Add(int64(len(msg.PDU.Varbinds)))
	entry.w.resolve(msg.PDU.Varbinds, errorForResponse(msg.PDU, entry.varbinds))
}

// send transmits message to the remote agent and waits for its reply,
// sending it up to opts.Retries times in all (at least once) with a
// per-attempt opts.Timeout. The
// same request-id and waiter are used across every attempt; only the
// datagram is resent.
func (c *Client) send(ctx context.Context, message *Message, varbinds []Varbind) ([]Varbind, error) {
	if err := c.ensureConn(); err != nil {
		return nil, err
	}

	var requestID int32
	if message.BulkPDU != nil {
		requestID = message.BulkPDU.RequestID
	} else {
		requestID = message.PDU.RequestID
	}

	key := correlationKey{requestID: requestID}
	if c.opts.ValidateSourceAddr {
		key.host = c.remoteAddr.IP.String()
		key.port = c.remoteAddr.Port
	}

	w := newWaiter()
	entry := &inflight{w: w, varbinds: varbinds}
	c.mu.Lock()
	c.pending[key] = entry
	c.mu.Unlock()

	cleanup := func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}

	data, err := message.Encode()
	if err != nil {
		cleanup()
		return nil, err
	}

	c.metrics.RequestsSent.Add(1)
	c.metrics.VarbindsSent.Add(int64(len(varbinds)))

	retries := c.opts.Retries
	if retries < 1 {
		retries = 1
	}
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			c.metrics.Retries.Add(1)
		}
		if _, err := c.conn.WriteToUDP(data, c.remoteAddr); err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: %v", ErrConnectionError, err)
		}
		c.opts.Logger.Debug("snmp: sent request", "requestID", requestID, "attempt", attempt, "host", c.host)

		select {
		case <-w.done:
			cleanup()
			if w.err != nil {
				c.metrics.Errors.Add(1)
				return nil, w.err
			}
			return w.varbinds, nil
		case <-time.After(c.opts.Timeout):
			continue
		case <-ctx.Done():
			cleanup()
			return nil, ctx.Err()
		}
	}
	cleanup()
	c.metrics.Timeouts.Add(1)
	return nil, ErrTimeout
}

// Get issues a GetRequest for the given OIDs.
func (c *Client) Get(ctx context.Context, oids ...string) ([]Varbind, error) {
	c.metrics.GetRequests.Add(1)
	parsed, err := parseOIDs(oids)
	if err != nil {
		return nil, err
	}
	msg, err := NewGetRequest(c.opts.Community, parsed)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, msg, msg.PDU.Varbinds)
}

// GetNext issues a GetNextRequest for the given OIDs.
func (c *Client) GetNext(ctx context.Context, oids ...string) ([]Varbind, error) {
	c.metrics.GetNextRequests.Add(1)
	parsed, err := parseOIDs(oids)
	if err != nil {
		return nil, err
	}
	msg, err := NewGetNextRequest(c.opts.Community, parsed)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, msg, msg.PDU.Varbinds)
}

// GetBulk issues a GetBulkRequest. nonRepeaters/maxRepetitions of -1 use
// the client's configured defaults.
func (c *Client) GetBulk(ctx context.Context, nonRepeaters, maxRepetitions int, oids ...string) ([]Varbind, error) {
	c.metrics.GetBulkRequests.Add(1)
	if nonRepeaters < 0 {
		nonRepeaters = c.opts.NonRepeaters
	}
	if maxRepetitions < 0 {
		maxRepetitions = c.opts.MaxRepetitions
	}
	parsed, err := parseOIDs(oids)
	if err != nil {
		return nil, err
	}
	msg, err := NewGetBulkRequest(c.opts.Community, parsed, nonRepeaters, maxRepetitions)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, msg, msg.BulkPDU.Varbinds)
}

// SetPair is one (oid, value[, tag]) assignment for Set.
type SetPair struct {
	OID   string
	Value interface{}
	Tag   ValueTag
}

// Set issues a SetRequest. Each pair's value must be an integer (int,
// int32, int64, uint32, uint64 or *big.Int), a string, a []byte, or a
// net.IP; any other type fails with ErrUnsupportedValueType before anything
// is sent. With Tag set to TagIPAddress, a dotted-quad string is also
// accepted as an IPv4 address.
func (c *Client) Set(ctx context.Context, pairs ...SetPair) ([]Varbind, error) {
	c.metrics.SetRequests.Add(1)
	varbinds := make([]Varbind, len(pairs))
	for i, p := range pairs {
		if err := validateSetValue(p.Value); err != nil {
			return nil, err
		}
		vb, err := NewVarbind(p.OID, p.Value)
		if err != nil {
			return nil, err
		}
		vb.Tag = p.Tag
		varbinds[i] = vb
	}
	msg, err := NewSetRequest(c.opts.Community, varbinds)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, msg, msg.PDU.Varbinds)
}

func validateSetValue(value interface{}) error {
	switch value.(type) {
	case int, int32, int64, uint32, uint64, *big.Int, string, []byte, net.IP:
		return nil
	case nil:
		return fmt.Errorf("%w: nil", ErrUnsupportedValueType)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedValueType, value)
	}
}

// Walk enumerates the subtree rooted at oid via repeated GetNextRequest,
// stopping when a returned OID leaves the subtree. If the very first
// GetNextRequest already leaves the subtree (oid names a scalar leaf, not
// an internal node), Walk falls back to a single GetRequest(oid) and
// returns its result.
func (c *Client) Walk(ctx context.Context, oid string) ([]Varbind, error) {
	c.metrics.WalkRequests.Add(1)
	base, err := ParseOID(oid)
	if err != nil {
		return nil, err
	}

	varbinds, err := c.GetNext(ctx, base.String())
	if err != nil {
		return nil, err
	}
	if len(varbinds) == 0 || !varbinds[0].OID.HasPrefix(base) {
		return c.Get(ctx, base.String())
	}

	var results []Varbind
	current := varbinds[0]
	for current.OID.HasPrefix(base) {
		results = append(results, current)
		next, err := c.GetNext(ctx, current.OID.String())
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}
		current = next[0]
	}
	return results, nil
}

// BulkWalk enumerates the subtree rooted at oid via repeated
// GetBulkRequest, accepting varbinds within the subtree whose value is
// not absent (EndOfMibView/NoSuchObject/NoSuchInstance) and stopping at
// the first varbind that leaves the subtree or carries an absent value.
// If the first varbind already leaves the subtree or carries an absent
// value, BulkWalk falls back to a single GetRequest(oid), the same
// scalar-leaf accommodation as Walk.
func (c *Client) BulkWalk(ctx context.Context, oid string, nonRepeaters, maxRepetitions int) ([]Varbind, error) {
	c.metrics.WalkRequests.Add(1)
	base, err := ParseOID(oid)
	if err != nil {
		return nil, err
	}

	batch, err := c.GetBulk(ctx, nonRepeaters, maxRepetitions, base.String())
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 || !batch[0].OID.HasPrefix(base) || batch[0].Value == nil {
		return c.Get(ctx, base.String())
	}

	var results []Varbind
	for {
		accepted := 0
		var lastOID OID
		for _, vb := range batch {
			if !vb.OID.HasPrefix(base) || vb.Value == nil {
				break
			}
			results = append(results, vb)
			lastOID = vb.OID
			accepted++
		}
		if accepted == 0 || accepted < len(batch) {
			break
		}
		batch, err = c.GetBulk(ctx, nonRepeaters, maxRepetitions, lastOID.String())
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
	}
	return results, nil
}

func parseOIDs(oids []string) ([]OID, error) {
	out := make([]OID, len(oids))
	for i, s := range oids {
		o, err := ParseOID(s)
		if err != nil {
			return nil, err
		}
		out[i] = o
	}
	return out, nil
}
