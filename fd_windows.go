//go:build windows

package reactor

import "golang.org/x/sys/windows"

// closeFD closes a Windows handle. fd is a windows.Handle value stored as
// an int, the same convention iocpPoller and descriptor use elsewhere in
// this package.
func closeFD(fd int) error {
	return windows.CloseHandle(windows.Handle(fd))
}

// readFD reads from a Windows handle.
func readFD(fd int, buf []byte) (int, error) {
	var n uint32
	if err := windows.ReadFile(windows.Handle(fd), buf, &n, nil); err != nil {
		return int(n), err
	}
	return int(n), nil
}

// writeFD writes to a Windows handle.
func writeFD(fd int, buf []byte) (int, error) {
	var n uint32
	if err := windows.WriteFile(windows.Handle(fd), buf, &n, nil); err != nil {
		return int(n), err
	}
	return int(n), nil
}
