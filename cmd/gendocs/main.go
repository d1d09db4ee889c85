// Command gendocs announces that project documentation is being generated.
// Arguments are ignored and the exit code is always 0.
package main

import (
	"os"

	"git.home.luguber.info/inful/gendocs/internal/announce"
)

func main() {
	// A closed stdout is not the announcer's failure to report.
	_ = announce.Write(os.Stdout)
}
