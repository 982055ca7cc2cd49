// Package prompt implements context-aware interactive confirmations.
package prompt

// ABOUTME: y/N prompting that races stdin against context cancellation and
// ABOUTME: shares one buffered reader so consecutive prompts lose no input.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kstenerud/devcli/internal/prune"
)

type lineResult struct {
	line string
	err  error
}

// Prompter asks y/N questions on a single input stream.
type Prompter struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	pending chan lineResult // read left running by a cancelled prompt
}

// New creates a Prompter reading from input and writing prompts to output.
func New(input io.Reader, output io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(input), out: output}
}

// readLine reads a single line, returning early if ctx is cancelled.
// On EOF it returns ("", nil) so callers can treat it as the default
// answer. A read abandoned by cancellation is picked up by the next call
// rather than discarded.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ch := p.pending
	if ch == nil {
		ch = make(chan lineResult, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			if errors.Is(err, io.EOF) {
				err = nil
			}
			ch <- lineResult{line: strings.TrimRight(line, "\r\n"), err: err}
		}()
	}

	select {
	case <-ctx.Done():
		p.pending = ch
		return "", ctx.Err()
	case res := <-ch:
		p.pending = nil
		return res.line, res.err
	}
}

// Confirm prints prompt and reads y/N. It returns true only for "y" or
// "yes" (case-insensitive), and an error if ctx is cancelled (Ctrl+C).
func (p *Prompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.out, prompt) //nolint:errcheck // best-effort output
	line, err := p.readLine(ctx)
	if err != nil {
		fmt.Fprintln(p.out) //nolint:errcheck // best-effort output
		return false, err
	}
	answer := strings.TrimSpace(strings.ToLower(line))
	return answer == "y" || answer == "yes", nil
}

// ConfirmPrune implements prune.Confirmer.
func (p *Prompter) ConfirmPrune(ctx context.Context, class prune.Class, count int) (bool, error) {
	noun := string(class)
	if count == 1 {
		noun = class.Singular()
	}
	return p.Confirm(ctx, fmt.Sprintf("Are you sure you want to remove %d unused %s? [y/N] ", count, noun))
}

// Confirmer adapts p to prune.Confirmer.
func (p *Prompter) Confirmer() prune.Confirmer {
	return prune.ConfirmerFunc(p.ConfirmPrune)
}

// Confirm is a one-shot prompt on input. Prefer a Prompter when asking
// more than once on the same stream.
func Confirm(ctx context.Context, prompt string, input io.Reader, output io.Writer) (bool, error) {
	return New(input, output).Confirm(ctx, prompt)
}
