// internal/platform/desktop.go
package platform

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/deskpilot/internal/agent"
	"github.com/xkilldash9x/deskpilot/internal/geometry"
)

// Window is one top-level window of a SimDesktop.
type Window struct {
	Title   string
	Process string
	Rect    geometry.Rect
	// Labels is the text a TextLocator can find inside the window, in
	// window-relative coordinates.
	Labels []agent.TextMatch
}

// Element is an accessibility element of a SimDesktop.
type Element struct {
	AutomationID string
	Name         string
	Password     bool
	Invokable    bool
}

// SimDesktop is an in-memory desktop for dry runs. It keeps a window stack,
// starts windows for launched programs and answers accessibility and text
// queries from fixtures.
type SimDesktop struct {
	logger *zap.Logger

	mu         sync.Mutex
	windows    []Window
	foreground int
	elements   []Element
	focused    *Element
	commands   []string
}

var (
	_ agent.WindowProvider        = (*SimDesktop)(nil)
	_ agent.AccessibilityProvider = (*SimDesktop)(nil)
	_ agent.TextLocator           = (*SimDesktop)(nil)
	_ agent.ProcessLauncher       = (*SimDesktop)(nil)
)

var errUnknownElement = errors.New("element does not belong to this desktop")

// DefaultScreen is the work area new simulated windows occupy.
var DefaultScreen = geometry.Rect{Left: 0, Top: 0, Right: 1600, Bottom: 900}

// NewSimDesktop creates a desktop with the given windows; the first one is
// in front.
func NewSimDesktop(logger *zap.Logger, windows ...Window) *SimDesktop {
	return &SimDesktop{
		logger:     logger.Named("simdesktop"),
		windows:    append([]Window(nil), windows...),
		foreground: 0,
	}
}

// AddElement registers an accessibility element.
func (d *SimDesktop) AddElement(el Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = append(d.elements, el)
}

// Windows returns a copy of the window stack.
func (d *SimDesktop) Windows() []Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Window(nil), d.windows...)
}

// Commands returns the shell commands the desktop was asked to run.
func (d *SimDesktop) Commands() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.commands...)
}

// -- Windows --

func (d *SimDesktop) front() (Window, bool) {
	if d.foreground < 0 || d.foreground >= len(d.windows) {
		return Window{}, false
	}
	return d.windows[d.foreground], true
}

func (d *SimDesktop) ForegroundWindow() (title, process string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.front()
	if !ok {
		return "", ""
	}
	return w.Title, w.Process
}

func (d *SimDesktop) ForegroundClientRect() (geometry.Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.front()
	if !ok {
		return geometry.Rect{}, false
	}
	return w.Rect, true
}

// FocusByTitleOrProcess brings the first window whose title contains title
// and whose process equals process to the front. Empty criteria match
// anything, but at least one must be given.
func (d *SimDesktop) FocusByTitleOrProcess(title, process string) bool {
	if title == "" && process == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, w := range d.windows {
		if title != "" && !strings.Contains(strings.ToLower(w.Title), strings.ToLower(title)) {
			continue
		}
		if process != "" && !strings.EqualFold(processName(w.Process), processName(process)) {
			continue
		}
		d.foreground = i
		d.logger.Debug("Focused window", zap.String("title", w.Title), zap.String("process", w.Process))
		return true
	}
	return false
}

func processName(p string) string {
	return strings.TrimSuffix(strings.ToLower(filepath.Base(p)), ".exe")
}

// -- Launcher --

// Start opens a window for program and brings it to the front.
func (d *SimDesktop) Start(program string, args ...string) error {
	name := processName(program)
	title := titleFor(name)
	if len(args) > 0 {
		title = args[0] + " - " + title
	}
	d.mu.Lock()
	d.windows = append(d.windows, Window{Title: title, Process: name, Rect: DefaultScreen})
	d.foreground = len(d.windows) - 1
	d.mu.Unlock()
	d.logger.Info("Started simulated process", zap.String("program", name), zap.Strings("args", args))
	return nil
}

// OpenURL opens url in a simulated default browser.
func (d *SimDesktop) OpenURL(url string) error {
	return d.Start("firefox", url)
}

// Run records command without executing it.
func (d *SimDesktop) Run(_ context.Context, shell, command string) (agent.CommandOutput, error) {
	d.mu.Lock()
	d.commands = append(d.commands, command)
	d.mu.Unlock()
	d.logger.Info("Dry run: command not executed", zap.String("shell", shell), zap.String("command", command))
	return agent.CommandOutput{}, nil
}

var knownTitles = map[string]string{
	"notepad":  "Untitled - Notepad",
	"mspaint":  "Untitled - Paint",
	"calc":     "Calculator",
	"explorer": "File Explorer",
	"firefox":  "Mozilla Firefox",
	"chrome":   "Google Chrome",
	"msedge":   "Microsoft Edge",
}

func titleFor(process string) string {
	if t, ok := knownTitles[process]; ok {
		return t
	}
	return process
}

// -- Accessibility --

func (d *SimDesktop) FindElement(automationID, name string) (agent.ElementHandle, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.elements {
		el := &d.elements[i]
		if automationID != "" && el.AutomationID == automationID {
			return el, true
		}
		if automationID == "" && name != "" && strings.EqualFold(el.Name, name) {
			return el, true
		}
	}
	return nil, false
}

func (d *SimDesktop) IsPassword(h agent.ElementHandle) bool {
	el, ok := h.(*Element)
	return ok && el.Password
}

func (d *SimDesktop) TryInvoke(h agent.ElementHandle) bool {
	el, ok := h.(*Element)
	return ok && el.Invokable
}

func (d *SimDesktop) SetFocus(h agent.ElementHandle) error {
	el, ok := h.(*Element)
	if !ok {
		return errUnknownElement
	}
	d.mu.Lock()
	d.focused = el
	d.mu.Unlock()
	return nil
}

// FocusedElement returns the element last given focus, if any.
func (d *SimDesktop) FocusedElement() (Element, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.focused == nil {
		return Element{}, false
	}
	return *d.focused, true
}

// -- Text --

// FindText searches the labels of the foreground window. Matches are
// case-insensitive substrings, returned in screen coordinates and ranked.
func (d *SimDesktop) FindText(ctx context.Context, area geometry.Rect, query string) ([]agent.TextMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	w, ok := d.front()
	d.mu.Unlock()
	if !ok {
		return nil, nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var hits []agent.TextMatch
	for _, l := range w.Labels {
		if !strings.Contains(strings.ToLower(l.Text), q) {
			continue
		}
		l.Bounds = geometry.Rect{
			Left:   l.Bounds.Left + area.Left,
			Top:    l.Bounds.Top + area.Top,
			Right:  l.Bounds.Right + area.Left,
			Bottom: l.Bounds.Bottom + area.Top,
		}
		hits = append(hits, l)
	}
	agent.RankMatches(hits)
	return hits, nil
}
