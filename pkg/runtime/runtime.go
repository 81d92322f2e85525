package runtime

import (
	"fmt"

	"github.com/adrg/xdg"
)

const (
	XDGName = "orderpane"
)

// File is a path under the xdg runtime dir, creating parent dirs.
func File(filename string) (string, error) {
	return xdg.RuntimeFile(fmt.Sprintf("%s/%s", XDGName, filename))
}

// CacheFile is a path under the xdg cache dir, creating parent dirs.
func CacheFile(filename string) (string, error) {
	return xdg.CacheFile(fmt.Sprintf("%s/%s", XDGName, filename))
}
