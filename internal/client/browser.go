package client

import (
	"errors"
	"os/exec"
	"runtime"
)

// OpenBrowser opens the URL in the default browser. Best effort: the
// caller should print the URL regardless.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return errors.New("unsupported platform")
	}
}
