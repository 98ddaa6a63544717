package hook

import (
	"context"
	"strings"
	"time"

	"gui-agent/internal/application/port/output"
	"gui-agent/internal/domain/entity"
)

const (
	DefaultScreenshotDir  = "screenshots"
	DefaultScreenshotName = "screenshot.png"

	filenameArg     = "filename"
	timestampLayout = "20060102_150405"
)

var _ output.ToolCallHook = (*ScreenshotNamer)(nil)

// ScreenshotNamer rewrites the filename of every browser_take_screenshot call
// to <dir>/<UTC timestamp>_<sanitized name> so captures never overwrite each
// other and sort chronologically. Two captures within the same second with
// the same requested name still collide.
type ScreenshotNamer struct {
	dir    string
	now    func() time.Time
	logger output.LoggerPort
}

type Option func(*ScreenshotNamer)

func WithClock(now func() time.Time) Option {
	return func(n *ScreenshotNamer) { n.now = now }
}

func WithLogger(logger output.LoggerPort) Option {
	return func(n *ScreenshotNamer) { n.logger = logger }
}

func NewScreenshotNamer(dir string, opts ...Option) *ScreenshotNamer {
	if dir == "" {
		dir = DefaultScreenshotDir
	}
	n := &ScreenshotNamer{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *ScreenshotNamer) Dir() string {
	return n.dir
}

func (n *ScreenshotNamer) BeforeToolCall(_ context.Context, call *entity.ToolInvocation) {
	if call == nil || call.Name != entity.ToolBrowserScreenshot {
		return
	}
	if call.Arguments == nil {
		call.Arguments = make(map[string]any)
	}

	requested, _ := call.Arguments[filenameArg].(string)
	filename := n.Filename(requested)
	call.Arguments[filenameArg] = filename

	if n.logger != nil {
		n.logger.Debug("Screenshot filename rewritten", "requested", requested, "filename", filename)
	}
}

// Filename builds the final path for a requested name. An empty request, or
// one with nothing left after sanitizing, becomes DefaultScreenshotName.
func (n *ScreenshotNamer) Filename(requested string) string {
	ts := n.now().UTC().Format(timestampLayout)

	base := DefaultScreenshotName
	if requested != "" {
		if name := SanitizeFilename(lastSegment(requested)); name != "" {
			base = name
		}
	}
	if !hasExtension(base) {
		base += ".png"
	}

	return strings.TrimRight(n.dir, "/") + "/" + ts + "_" + base
}

// SanitizeFilename maps every byte outside [A-Za-z0-9_.-] to '_', collapses
// runs of '_' and trims '_' from both ends. Trailing dots go too, so "report."
// ends up as "report". The result is a fixed point: sanitizing it again
// returns it unchanged.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastUnderscore := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isSafe(c) {
			c = '_'
		}
		if c == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		b.WriteByte(c)
	}

	out := strings.TrimLeft(b.String(), "_")
	return strings.TrimRight(out, "_.")
}

// hasExtension reports whether name ends in ".<alnum>" with something
// before the dot. "archive.tar-gz" and ".env" do not count, so they get
// ".png" appended, and every rewritten name ends in an alphanumeric
// extension.
func hasExtension(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return false
	}
	for i := dot + 1; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func lastSegment(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}

func isSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '-':
		return true
	}
	return false
}
