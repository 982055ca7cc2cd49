package prompt

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstenerud/devcli/internal/prune"
)

func TestConfirm_Yes(t *testing.T) {
	var out bytes.Buffer
	confirmed, err := Confirm(context.Background(), "Continue? [y/N] ", strings.NewReader("y\n"), &out)
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, "Continue? [y/N] ", out.String())
}

func TestConfirm_YesWord(t *testing.T) {
	confirmed, err := Confirm(context.Background(), "", strings.NewReader("  YES \r\n"), io.Discard)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestConfirm_No(t *testing.T) {
	confirmed, err := Confirm(context.Background(), "Continue? [y/N] ", strings.NewReader("n\n"), io.Discard)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestConfirm_Empty(t *testing.T) {
	confirmed, err := Confirm(context.Background(), "Continue? [y/N] ", strings.NewReader("\n"), io.Discard)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestConfirm_EOF(t *testing.T) {
	confirmed, err := Confirm(context.Background(), "Continue? [y/N] ", strings.NewReader(""), io.Discard)
	require.NoError(t, err)
	assert.False(t, confirmed)
}

func TestConfirm_NoTrailingNewline(t *testing.T) {
	confirmed, err := Confirm(context.Background(), "", strings.NewReader("y"), io.Discard)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestConfirm_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	confirmed, err := Confirm(ctx, "Continue? [y/N] ", strings.NewReader("y\n"), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, confirmed)
}

func TestPrompter_ConsecutivePromptsShareInput(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("y\nn\nyes\n"), &out)
	ctx := context.Background()

	var answers []bool
	for range 3 {
		ok, err := p.Confirm(ctx, "? ")
		require.NoError(t, err)
		answers = append(answers, ok)
	}
	assert.Equal(t, []bool{true, false, true}, answers)
	assert.Equal(t, "? ? ? ", out.String())
}

func TestPrompter_CancelledReadIsResumed(t *testing.T) {
	r, w := io.Pipe()
	p := New(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Confirm(ctx, "first? ")
		errCh <- err
	}()
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	go func() {
		_, _ = w.Write([]byte("y\n"))
	}()
	ok, err := p.Confirm(context.Background(), "second? ")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrompter_ConfirmPrune(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("y\ny\n"), &out)
	ctx := context.Background()

	ok, err := p.Confirmer().Confirm(ctx, prune.ClassVolumes, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "remove 3 unused volumes? [y/N]")

	out.Reset()
	_, err = p.ConfirmPrune(ctx, prune.ClassImages, 1)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "remove 1 unused image? [y/N]")
}
