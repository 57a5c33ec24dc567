// Command snmpctl is a thin demonstration CLI over the snmp package: it
// exercises get/getnext/getbulk/set/walk/bulkwalk against a remote agent
// and can listen for incoming traps. It is not a specified component —
// it exists to drive the library end to end.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
