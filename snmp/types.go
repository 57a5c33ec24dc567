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
	"math/big"
	"sync"
	"time"
)

// waiter is the single-shot completion slot a pending request is resolved
// through: either a list of varbinds (success) or an error. It stands in
// for the asyncio Future the reference implementation resolves once per
// request. Only a matching reply completes it; a timeout or cancellation
// leaves it unresolved and removes its entry from the pending map, so a
// late reply finds no entry and is dropped.
type waiter struct {
	done     chan struct{}
	once     sync.Once
	varbinds []Varbind
	err      error
}

func newWaiter() *waiter {
	return &waiter{done: make(chan struct{})}
}

// resolve completes the waiter exactly once; later calls are no-ops.
func (w *waiter) resolve(varbinds []Varbind, err error) {
	w.once.Do(func() {
		w.varbinds = varbinds
		w.err = err
		close(w.done)
	})
}

// TrapMessage is the decoded, source-annotated form of an inbound
// SNMPv2-Trap datagram handed to a TrapHandler.
type TrapMessage struct {
	SourceHost string
	SourcePort int
	Community  string
	Varbinds   []Varbind
}

// SysUpTime returns the trap's sysUpTime.0 varbind value, if present.
func (t *TrapMessage) SysUpTime() (uint32, bool) {
	for _, vb := range t.Varbinds {
		if vb.OID != OIDSysUpTime {
			continue
		}
		if n, ok := vb.Value.(*big.Int); ok {
			return uint32(n.Int64()), true
		}
	}
	return 0, false
}

// TrapHandler is invoked for each inbound trap that passes the community
// allow-list filter. Handler errors are isolated per datagram: the return
// value is logged, not propagated.
type TrapHandler func(sourceHost string, sourcePort int, message *TrapMessage) error

// Common well-known OIDs, used by tests and by TrapMessage.SysUpTime.
var (
	OIDSysDescr    = MustParseOID("1.3.6.1.2.1.1.1.0")
	OIDSysObjectID = MustParseOID("1.3.6.1.2.1.1.2.0")
	OIDSysUpTime   = MustParseOID("1.3.6.1.2.1.1.3.0")
	OIDSysContact  = MustParseOID("1.3.6.1.2.1.1.4.0")
	OIDSysName     = MustParseOID("1.3.6.1.2.1.1.5.0")
	OIDSysLocation = MustParseOID("1.3.6.1.2.1.1.6.0")
	OIDSysServices = MustParseOID("1.3.6.1.2.1.1.7.0")
)

// Default client/server configuration, matching the reference implementation.
const (
	DefaultPort           = 161
	DefaultTrapPort       = 162
	DefaultCommunity      = "public"
	DefaultTimeout        = 1 * time.Second
	DefaultRetries        = 6
	DefaultMaxRepetitions = 10
	DefaultNonRepeaters   = 0
)
