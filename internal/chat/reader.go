package chat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// UserPrefix is printed before each line of user input.
const UserPrefix = "You: "

// AIPrefix is printed before each reply.
const AIPrefix = "AI: "

var (
	userColor = color.New(color.FgGreen, color.Bold)
	aiColor   = color.New(color.FgCyan, color.Bold)
	errColor  = color.New(color.FgRed)
)

// LineReader yields one line of user input per call. It returns io.EOF when
// the input is exhausted.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// NewReader picks the input source for in. Terminals get a readline prompt
// that keeps history in historyFile; anything else is scanned line by line.
func NewReader(in *os.File, out io.Writer, historyFile string) (LineReader, error) {
	if term.IsTerminal(int(in.Fd())) {
		return NewReadlineReader(in, out, historyFile)
	}
	return NewScannerReader(in, out), nil
}

type readlineReader struct {
	rl *readline.Instance
}

// NewReadlineReader returns a line editor on in. An empty historyFile
// disables persistent history.
func NewReadlineReader(in io.ReadCloser, out io.Writer, historyFile string) (LineReader, error) {
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            userColor.Sprint(UserPrefix),
		HistoryFile:       historyFile,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		Stdin:             in,
		Stdout:            out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	// Ctrl+C at the prompt ends the session like Ctrl+D.
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader reads lines from in, writing the prompt to out before
// each one.
func NewScannerReader(in io.Reader, out io.Writer) LineReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scannerReader{scanner: s, out: out}
}

func (r *scannerReader) ReadLine() (string, error) {
	userColor.Fprint(r.out, UserPrefix)
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *scannerReader) Close() error { return nil }
