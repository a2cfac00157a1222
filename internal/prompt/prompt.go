// Package prompt reads interactive input for maintenance commands.
package prompt

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"golang.org/x/term"
)

// ErrMismatch is returned when a confirmed password does not match.
var ErrMismatch = errors.New("passwords do not match")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Text prints prompt to w and reads one line from reader. The trailing
// newline is trimmed; a partial line before EOF is returned.
func Text(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password from the terminal without echo.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func Password(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// ConfirmedPassword asks twice and fails with ErrMismatch when the answers differ.
func ConfirmedPassword(w io.Writer) ([]byte, error) {
	first, err := Password(w, "Password")
	if err != nil {
		return nil, err
	}
	second, err := Password(w, "Repeat password")
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, ErrMismatch
	}
	return first, nil
}
