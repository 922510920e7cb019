package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// ChallengeResolver blocks until an operator confirms the manual challenge
// is solved in the visible browser.
type ChallengeResolver interface {
	AwaitChallenge(ctx context.Context) error
}

// ResolverFunc adapts a function to ChallengeResolver.
type ResolverFunc func(ctx context.Context) error

func (f ResolverFunc) AwaitChallenge(ctx context.Context) error { return f(ctx) }

// ConsoleResolver prompts on Out and waits for a line on In. Callers that
// also prompt for other input must read it through the same In, or the
// confirming line may already sit in another buffer.
type ConsoleResolver struct {
	In  *bufio.Reader
	Out io.Writer
}

func (c ConsoleResolver) AwaitChallenge(ctx context.Context) error {
	fmt.Fprintln(c.Out, "A verification challenge is showing in the browser. Solve it, then press Enter to continue.")

	done := make(chan error, 1)
	go func() {
		_, err := c.In.ReadString('\n')
		if err == io.EOF {
			err = fmt.Errorf("input closed before challenge was confirmed")
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
