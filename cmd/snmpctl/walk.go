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

var walkCmd = &cobra.Command{
	Use:   "walk [oid]",
	Short: "Walk a subtree using repeated GetNextRequest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.Walk(requestContext(), args[0])
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

var walkNonRepeaters int

var bulkWalkCmd = &cobra.Command{
	Use:   "bulkwalk [oid]",
	Short: "Walk a subtree using repeated GetBulkRequest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := newClient()
		if err != nil {
			return err
		}
		defer cli.Close()
		varbinds, err := cli.BulkWalk(requestContext(), args[0], walkNonRepeaters, bulkMaxRepetitions)
		if err != nil {
			return err
		}
		printVarbinds(varbinds)
		return nil
	},
}

func init() {
	bulkWalkCmd.Flags().IntVar(&walkNonRepeaters, "non-repeaters", -1, "non-repeaters (-1 uses client default)")
	bulkWalkCmd.Flags().IntVar(&bulkMaxRepetitions, "max-repetitions", -1, "max-repetitions (-1 uses client default)")
	rootCmd.AddCommand(walkCmd, bulkWalkCmd)
}
