// compileinfoprint is imported for the side effect of printing the compileinfo
// to os.Stderr. Set MZSDRF_QUIET to any value to skip it.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/mzsdrf/compileinfo"
)

func init() {
	if _, quiet := os.LookupEnv("MZSDRF_QUIET"); quiet {
		return
	}

	compileinfo.PrintToStdErr()
}
