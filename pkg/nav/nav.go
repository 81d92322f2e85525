// Package nav opens studio editor paths.
package nav

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	goruntime "runtime"
	"strings"
)

type Navigator interface {
	Navigate(path string) error
}

// Browser opens studio paths in a web browser.
type Browser struct {
	BaseURL string
	// Command overrides the opener; $BROWSER and the platform default are
	// used otherwise.
	Command string

	run func(name string, args ...string) error
}

func NewBrowser(baseURL, command string) *Browser {
	return &Browser{BaseURL: baseURL, Command: command, run: start}
}

// URL joins the studio base URL and an editor path.
func (b *Browser) URL(path string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(b.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("bad studio url %q: %w", b.BaseURL, err)
	}
	return base.String() + "/" + strings.TrimPrefix(path, "/"), nil
}

func (b *Browser) Navigate(path string) error {
	target, err := b.URL(path)
	if err != nil {
		return err
	}
	name, args := b.opener()
	run := b.run
	if run == nil {
		run = start
	}
	return run(name, append(args, target)...)
}

func (b *Browser) opener() (string, []string) {
	cmd := b.Command
	if cmd == "" {
		cmd = os.Getenv("BROWSER")
	}
	if cmd != "" {
		fields := strings.Fields(cmd)
		return fields[0], fields[1:]
	}
	switch goruntime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to run %s: %w", name, err)
	}
	// reap in the background; the browser outlives us
	go func() { _ = cmd.Wait() }()
	return nil
}

// Recorder keeps every path it is asked to open.
type Recorder struct {
	Paths []string
}

func (r *Recorder) Navigate(path string) error {
	r.Paths = append(r.Paths, path)
	return nil
}
