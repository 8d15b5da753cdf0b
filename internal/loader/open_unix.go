//go:build darwin || freebsd || linux || netbsd

package loader

import "github.com/ebitengine/purego"

func openNative(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}
