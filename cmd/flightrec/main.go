// Command flightrec records vehicle telemetry into a timestamped key-figure
// timeline. It runs in the foreground or as a Windows service.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
