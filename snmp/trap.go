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
	"errors"
	"fmt"
	"net"
	"sync"
)

// TrapServer listens for inbound SNMPv2-Trap datagrams, decodes them,
// filters by community, and dispatches to a TrapHandler.
type TrapServer struct {
	opts    *TrapListenerOptions
	handler TrapHandler

	conn *net.UDPConn
	done chan struct{}
	wg   sync.WaitGroup

	metrics *Metrics
}

// NewTrapServer returns a TrapServer that will invoke handler for each
// accepted trap once Start is called.
func NewTrapServer(handler TrapHandler, opts ...TrapListenerOption) *TrapServer {
	options := NewTrapListenerOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &TrapServer{
		opts:    options,
		handler: handler,
		done:    make(chan struct{}),
		metrics: NewMetrics(),
	}
}

// Start binds the listen socket and begins serving. It returns once the
// socket is bound; serving continues on a background goroutine until Stop
// or the context is cancelled.
func (s *TrapServer) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionError, err)
	}
	s.conn = conn
	s.opts.Logger.Info("snmp: trap listener started", "address", conn.LocalAddr())

	s.wg.Add(1)
	go s.serve()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop closes the listen socket and waits for the serve loop to exit.
func (s *TrapServer) Stop() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()
	s.opts.Logger.Info("snmp: trap listener stopped")
	return nil
}

// Address returns the socket's bound local address, valid after Start.
func (s *TrapServer) Address() string {
	if s.conn != nil {
		return s.conn.LocalAddr().String()
	}
	return net.JoinHostPort(s.opts.Host, fmt.Sprint(s.opts.Port))
}

// Metrics returns the server's live metrics.
func (s *TrapServer) Metrics() *Metrics {
	return s.metrics
}

func (s *TrapServer) serve() {
	defer s.wg.Done()
	buf := make([]byte, 65535)
	for {
		n, remoteAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.opts.Logger.Warn("snmp: trap read error", "error", err)
				continue
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.handleDatagram(data, remoteAddr)
	}
}

func (s *TrapServer) handleDatagram(data []byte, remoteAddr *net.UDPAddr) {
	msg, err := DecodeTrapMessage(data)
	if err != nil {
		if errors.Is(err, ErrNotATrap) {
			s.opts.Logger.Debug("snmp: dropping non-trap datagram", "source", remoteAddr)
		} else {
			s.opts.Logger.Warn("snmp: dropping malformed trap", "error", err, "source", remoteAddr)
			s.metrics.Errors.Add(1)
		}
		return
	}

	if len(s.opts.Communities) > 0 && !containsString(s.opts.Communities, msg.Community) {
		s.opts.Logger.Warn("snmp: trap community mismatch", "source", remoteAddr)
		return
	}

	s.metrics.TrapsReceived.Add(1)
	s.metrics.VarbindsReceived.Add(int64(len(msg.PDU.Varbinds)))

	trap := &TrapMessage{
		SourceHost: remoteAddr.IP.String(),
		SourcePort: remoteAddr.Port,
		Community:  msg.Community,
		Varbinds:   msg.PDU.Varbinds,
	}

	if s.handler == nil {
		return
	}
	go func() {
		if err := s.handler(trap.SourceHost, trap.SourcePort, trap); err != nil {
			s.opts.Logger.Warn("snmp: trap handler error", "error", err, "source", remoteAddr)
			s.metrics.Errors.Add(1)
		}
	}()
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
