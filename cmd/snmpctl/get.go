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
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [oid...]",
	Short: "Issue a GetRequest for one or more OIDs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.Get(requestContext(), args...)
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

var getNextCmd = &cobra.Command{
	Use:   "getnext [oid...]",
	Short: "Issue a GetNextRequest for one or more OIDs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.GetNext(requestContext(), args...)
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

var (
	bulkNonRepeaters   int
	bulkMaxRepetitions int
)

var getBulkCmd = &cobra.Command{
	Use:   "getbulk [oid...]",
	Short: "Issue a GetBulkRequest for one or more OIDs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.GetBulk(requestContext(), bulkNonRepeaters, bulkMaxRepetitions, args...)
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

func init() {
	getBulkCmd.Flags().IntVar(&bulkNonRepeaters, "non-repeaters", -1, "non-repeaters (-1 uses client default)")
	getBulkCmd.Flags().IntVar(&bulkMaxRepetitions, "max-repetitions", -1, "max-repetitions (-1 uses client default)")
	rootCmd.AddCommand(getCmd, getNextCmd, getBulkCmd)
}
