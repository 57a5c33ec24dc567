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

package main

import (
	"fmt"
	"math/big"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fieldgear/snmpv2c/snmp"
)

var setCmd = &cobra.Command{
	Use:   "set [oid type value]...",
	Short: "Issue a SetRequest for one or more OID/type/value triples",
	Long: `Each varbind is given as three arguments: an OID, a type code, and a value.

Type codes:
  i   INTEGER
  s   OCTET STRING
  a   IpAddress
  u   Gauge32 / Unsigned32 (unsigned integer)
  x   OCTET STRING given as hex bytes (e.g. de:ad:be:ef)

Example:
  snmpctl set -t 192.168.1.1 .1.3.6.1.2.1.1.6.0 s "rack 4"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%3 != 0 {
			return fmt.Errorf("arguments must be given in OID/type/value triples")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := parseSetArgs(args)
		if err != nil {
			return err
		}
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.Set(requestContext(), pairs...)
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func parseSetArgs(args []string) ([]snmp.SetPair, error) {
	var pairs []snmp.SetPair
	for i := 0; i < len(args); i += 3 {
		oid, typeCode, raw := args[i], args[i+1], args[i+2]
		value, tag, err := parseSetValue(typeCode, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", oid, err)
		}
		pairs = append(pairs, snmp.SetPair{OID: oid, Value: value, Tag: tag})
	}
	return pairs, nil
}

func parseSetValue(typeCode, raw string) (interface{}, snmp.ValueTag, error) {
	switch typeCode {
	case "i":
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, snmp.TagAuto, fmt.Errorf("invalid integer %q", raw)
		}
		return n, snmp.TagInteger, nil
	case "s":
		return raw, snmp.TagOctetString, nil
	case "x":
		b, err := parseHexBytes(raw)
		if err != nil {
			return nil, snmp.TagAuto, err
		}
		return b, snmp.TagOctetString, nil
	case "a":
		ip := net.ParseIP(raw).To4()
		if ip == nil {
			return nil, snmp.TagAuto, fmt.Errorf("invalid IPv4 address %q", raw)
		}
		return ip, snmp.TagIPAddress, nil
	case "u":
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, snmp.TagAuto, fmt.Errorf("invalid unsigned integer %q", raw)
		}
		return uint32(n), snmp.TagGauge32, nil
	default:
		return nil, snmp.TagAuto, fmt.Errorf("unknown type code %q", typeCode)
	}
}

func parseHexBytes(raw string) ([]byte, error) {
	var out []byte
	group := ""
	for _, r := range raw {
		if r == ':' || r == ' ' {
			continue
		}
		group += string(r)
		if len(group) == 2 {
			b, err := strconv.ParseUint(group, 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid hex byte %q", group)
			}
			out = append(out, byte(b))
			group = ""
		}
	}
	if group != "" {
		return nil, fmt.Errorf("odd number of hex digits in %q", raw)
	}
	return out, nil
}
