package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal on stdin.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
//
// Example prompt format:
//
//	Prompt text
//	> _
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
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

// promptIfEmpty returns value, or asks for it when value is empty and stdin
// is an interactive terminal.
func promptIfEmpty(value, prompt string, reader *bufio.Reader, w io.Writer) (string, error) {
	if value != "" || !isTerminal() {
		return value, nil
	}
	return GetSimpleText(reader, prompt, w)
}
