package dashboard

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// Opener hands a URL to a new browsing context.
type Opener interface {
	Open(ctx context.Context, url string) error
}

type OpenerFunc func(ctx context.Context, url string) error

func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserOpener launches the platform's default browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(_ context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	go cmd.Wait()
	return nil
}

// PrintOpener writes the URL instead of opening it, for headless use.
type PrintOpener struct {
	W io.Writer
}

func (p PrintOpener) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintln(p.W, url)
	return err
}

// clipboardWriteAll is swapped in tests.
var clipboardWriteAll = clipboard.WriteAll

// ClipboardOpener copies the URL to the system clipboard.
type ClipboardOpener struct{}

func (ClipboardOpener) Open(_ context.Context, url string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard not available on this system")
	}
	if err := clipboardWriteAll(url); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

// FallbackOpener tries each opener in turn until one succeeds.
type FallbackOpener []Opener

func (f FallbackOpener) Open(ctx context.Context, url string) error {
	var lastErr error
	for _, o := range f {
		if lastErr = o.Open(ctx, url); lastErr == nil {
			return nil
		}
	}
	if lastErr == nil {
		return fmt.Errorf("no opener configured")
	}
	return lastErr
}
