package checkpointer

import (
	"fmt"
	"time"
)

// FilenameEnumerator returns a function which returns name with an
// increasing counter suffix followed by extension. The first call
// returns the suffix start+1. For example, FilenameEnumerator(0,
// "agent", ".gob") returns agent1.gob, agent2.gob, and so on.
func FilenameEnumerator(start int, name, extension string) func() string {
	i := start
	return func() string {
		i++
		return fmt.Sprintf("%v%v%v", name, i, extension)
	}
}

// FileTimer returns a function which appends to name the number of
// nanoseconds since January 1, 1970
func FileTimer(name, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", name, time.Now().UnixNano(),
			extension)
	}
}
