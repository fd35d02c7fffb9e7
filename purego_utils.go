//go:build linux && !(cgo && agora_cgo)

// Shared helpers for the purego backend.

package rtsa

import (
	"os"
	"path/filepath"
	"unsafe"
)

// cStringFromPtr decodes a C string returned by the SDK. A NULL pointer
// yields "".
func cStringFromPtr(field string, ptr uintptr) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	return decodeCString(field, *(*unsafe.Pointer)(unsafe.Pointer(&ptr)))
}

// bytesPtr returns the address of b's first element or 0 for an empty slice.
// The caller keeps b alive across the native call with runtime.KeepAlive.
func bytesPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// findModuleRoot walks up the directory tree from the current working directory
// to find the module root (directory containing go.mod).
func findModuleRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
