package checkpointer

import (
	"fmt"
	"time"
)

// timestampLayout sorts lexically in time order
const timestampLayout = "20060102T150405.000000000Z"

// FileTimer returns a function which appends the current UTC time to
// filename, e.g. agent-20211019T120501.123456789Z.bin
func FileTimer(filename, extension string) func() string {
	return fileTimer(filename, extension, time.Now)
}

func fileTimer(filename, extension string,
	now func() time.Time) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename,
			now().UTC().Format(timestampLayout), extension)
	}
}
