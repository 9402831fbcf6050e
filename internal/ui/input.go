package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// LineReader reads user requests for the REPL. On a terminal it uses a
// survey input; otherwise it reads newline-separated lines.
type LineReader struct {
	prompter *SurveyPrompter
	scanner  *bufio.Scanner
}

// NewLineReader creates a reader on the given streams.
func NewLineReader(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) *LineReader {
	r := &LineReader{prompter: NewSurveyPrompter(in, out, errOut)}
	if !r.prompter.tty {
		r.scanner = bufio.NewScanner(in)
	}
	return r
}

// ReadLine returns the next trimmed line. It returns io.EOF when input ends
// and ErrInterrupted on Ctrl+C.
func (r *LineReader) ReadLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.scanner != nil {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return strings.TrimSpace(r.scanner.Text()), nil
	}

	var line string
	err := r.prompter.askOne(ctx, &survey.Input{Message: prompt}, &line)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
