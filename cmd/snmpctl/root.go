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
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	target    string
	port      int
	community string
	timeout   time.Duration
	retries   int
)

var rootCmd = &cobra.Command{
	Use:   "snmpctl",
	Short: "SNMPv2c command-line client",
	Long: `snmpctl issues SNMPv2c get/getnext/getbulk/set/walk/bulkwalk requests
against a remote agent, and can listen for inbound SNMPv2 traps.

Examples:
  snmpctl get -t 192.168.1.1 .1.3.6.1.2.1.1.1.0
  snmpctl walk -t 192.168.1.1 .1.3.6.1.2.1.2.2
  snmpctl set -t 192.168.1.1 .1.3.6.1.2.1.1.6.0 s "rack 4"
  snmpctl trap-listen`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.snmpctl.yaml)")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", "", "SNMP agent address (required)")
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 161, "SNMP agent port")
	rootCmd.PersistentFlags().StringVarP(&community, "community", "c", "public", "community string")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Second, "per-attempt request timeout")
	rootCmd.PersistentFlags().IntVarP(&retries, "retries", "r", 6, "number of send attempts")
	rootCmd.PersistentFlags().StringVarP(&outputFormatFlag, "output", "o", "table", "output format: table, json, or csv")

	viper.BindPFlag("target", rootCmd.PersistentFlags().Lookup("target"))
	viper.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("community", rootCmd.PersistentFlags().Lookup("community"))
	viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	viper.BindPFlag("retries", rootCmd.PersistentFlags().Lookup("retries"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		viper.AddConfigPath(home)
		viper.AddConfigPath(filepath.Join(home, ".config"))
		viper.SetConfigName(".snmpctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SNMPCTL")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	if viper.IsSet("target") {
		target = viper.GetString("target")
	}
	if viper.IsSet("port") {
		port = viper.GetInt("port")
	}
	if viper.IsSet("community") {
		community = viper.GetString("community")
	}
	if viper.IsSet("timeout") {
		timeout = viper.GetDuration("timeout")
	}
	if viper.IsSet("retries") {
		retries = viper.GetInt("retries")
	}
}
