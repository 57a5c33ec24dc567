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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fieldgear/snmpv2c/snmp"
)

// outputFormat selects how varbinds are rendered on stdout.
type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatCSV   outputFormat = "csv"
)

var outputFormatFlag string

// varbindOutput is the JSON/CSV shape of a single varbind.
type varbindOutput struct {
	OID   string      `json:"oid"`
	Value interface{} `json:"value"`
}

func printVarbinds(varbinds []snmp.Varbind) {
	switch outputFormat(outputFormatFlag) {
	case formatJSON:
		printVarbindsJSON(varbinds)
	case formatCSV:
		printVarbindsCSV(varbinds)
	default:
		printVarbindsTable(varbinds)
	}
}

func printVarbindsTable(varbinds []snmp.Varbind) {
	for _, vb := range varbinds {
		fmt.Printf("%s = %s\n", vb.OID, formatValue(vb.Value))
	}
}

func printVarbindsJSON(varbinds []snmp.Varbind) {
	out := make([]varbindOutput, 0, len(varbinds))
	for _, vb := range varbinds {
		out = append(out, varbindOutput{OID: string(vb.OID), Value: jsonValue(vb.Value)})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(data))
}

func printVarbindsCSV(varbinds []snmp.Varbind) {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()
	_ = w.Write([]string{"oid", "value"})
	for _, vb := range varbinds {
		_ = w.Write([]string{string(vb.OID), formatValue(vb.Value)})
	}
}

// formatValue renders a decoded varbind value the way a human reads SNMP
// output: byte strings as quoted text when printable, hex otherwise.
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case []byte:
		if isPrintable(v) {
			return fmt.Sprintf("%q", string(v))
		}
		return formatHex(v)
	case string:
		return fmt.Sprintf("%q", v)
	case net.IP:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// jsonValue is formatValue's counterpart for JSON output, where byte
// strings and IP addresses should still come through as plain values
// rather than Go's %v rendering.
func jsonValue(value interface{}) interface{} {
	switch v := value.(type) {
	case []byte:
		if isPrintable(v) {
			return string(v)
		}
		return formatHex(v)
	case net.IP:
		return v.String()
	default:
		return v
	}
}

func isPrintable(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return true
}

func formatHex(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
