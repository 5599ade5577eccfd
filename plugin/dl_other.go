//go:build !(darwin || linux)

package plugin

func openLibrary(path string) (uintptr, error) {
	return 0, ErrUnsupported
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, ErrUnsupported
}

func closeLibrary(handle uintptr) error {
	return nil
}

func bindFunc(fptr any, sym uintptr) error {
	return ErrUnsupported
}
