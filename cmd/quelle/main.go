// Command quelle is the CLI for loading novel-source extensions, reading
// their metadata, fetching novels and chapters, and maintaining an
// extension lock file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
