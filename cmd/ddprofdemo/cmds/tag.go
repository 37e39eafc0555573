package cmds

import (
	"github.com/continuous-profiler/ddprof-go/tag"
)

func parseTagArg(s string) ([]tag.Tag, error) {
	return tag.ParseString(s)
}
