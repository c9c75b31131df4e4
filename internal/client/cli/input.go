package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// stdinFd is a test seam for the terminal file descriptor.
var stdinFd = func() int { return int(os.Stdin.Fd()) }

// GetSecret prints a prompt to w and reads the secret from the terminal
// without echo. The caller should wipe the returned slice.
func GetSecret(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter secret: "); err != nil {
		return nil, err
	}
	s, err := readPassword(stdinFd())
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return s, nil
}
