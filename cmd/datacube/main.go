// Command datacube imports, inspects and queries persisted cubes.
//
//	datacube import --dimensions country,device --metrics visits visits events.ndjson
//	datacube inspect visits
//	datacube query visits --select country --where device=mobile --format table
//
// Every flag can also be set through a config file (--config) or an
// environment variable with the DATACUBE_ prefix, e.g. DATACUBE_STORE.
package main

import (
	"fmt"
	"os"
)

var version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
