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
	"context"
	"fmt"

	"github.com/fieldgear/snmpv2c/snmp"
)

func newClient() (*snmp.Client, error) {
	if target == "" {
		return nil, fmt.Errorf("--target is required")
	}
	return snmp.NewClient(target,
		snmp.WithPort(port),
		snmp.WithCommunity(community),
		snmp.WithTimeout(timeout),
		snmp.WithRetries(retries),
	)
}

func requestContext() context.Context {
	return context.Background()
}
