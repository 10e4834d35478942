// Package confirm provides Confirmer implementations for destructive operations.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"firestore-explorer/internal/explorer/domain/repository"
)

var (
	_ repository.Confirmer = Static(false)
	_ repository.Confirmer = (*Prompt)(nil)
)

// Static answers every prompt with the same value. Static(true) is used when
// the caller already holds an explicit confirmation, such as ?confirm=true.
type Static bool

// Always approves every request.
const Always = Static(true)

// Never rejects every request.
const Never = Static(false)

func (s Static) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(s), nil
}

// Prompt asks on a terminal. Only "y" or "yes" approve; anything else,
// including an empty line or EOF, rejects.
type Prompt struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewPrompt reads answers from in and writes questions to out.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{reader: bufio.NewReader(in), writer: out}
}

func (p *Prompt) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := fmt.Fprintf(p.writer, "%s [y/N]: ", prompt); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read input: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
