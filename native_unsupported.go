//go:build !linux

package rtsa

import (
	"fmt"
	"runtime"
)

// The vendor SDK ships for Linux only.
func openNative() (nativeLib, error) {
	return nil, fmt.Errorf("%w: unsupported platform %s/%s", ErrLibraryUnavailable, runtime.GOOS, runtime.GOARCH)
}
