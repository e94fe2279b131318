package samplepipe

import (
	"log"
	"os"
)

// cleanupTemps removes every path in temps, ignoring a missing file (a
// step that failed before creating its output is expected to leave one
// absent) and logging any other removal error rather than masking the
// pipeline's real error with a cleanup failure.
func cleanupTemps(temps []string) {
	for _, path := range temps {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("samplepipe: cleanup: remove %s: %v", path, err)
		}
	}
}
