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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldgear/snmpv2c/snmp"
)

var (
	trapListenHost      string
	trapListenPort      int
	trapCommunitiesFlag string
)

var trapListenCmd = &cobra.Command{
	Use:   "trap-listen",
	Short: "Listen for inbound SNMPv2c traps and print them",
	RunE: func(cmd *cobra.Command, args []string) error {
		var communities []string
		if trapCommunitiesFlag != "" {
			communities = strings.Split(trapCommunitiesFlag, ",")
		}

		handler := func(sourceHost string, sourcePort int, msg *snmp.TrapMessage) error {
			fmt.Printf("trap from %s:%d community=%q\n", sourceHost, sourcePort, msg.Community)
			printVarbinds(msg.Varbinds)
			return nil
		}

		server := snmp.NewTrapServer(handler,
			snmp.WithListenHost(trapListenHost),
			snmp.WithListenPort(trapListenPort),
			snmp.WithTrapCommunities(communities),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("listening for traps on %s\n", server.Address())

		<-ctx.Done()
		return server.Stop()
	},
}

func init() {
	trapListenCmd.Flags().StringVar(&trapListenHost, "host", "0.0.0.0", "address to listen on")
	trapListenCmd.Flags().IntVar(&trapListenPort, "port", 162, "UDP port to listen on")
	trapListenCmd.Flags().StringVar(&trapCommunitiesFlag, "communities", "", "comma-separated list of accepted community strings (default: accept all)")
	rootCmd.AddCommand(trapListenCmd)
}
