package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/wlfwifi/wlfwifi/internal/attack"
)

// Console prints operator-facing status lines. Lines that start with a
// [+], [!] or [-] marker get the marker colored.
type Console struct {
	out io.Writer
	mu  sync.Mutex
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

// Printf writes one status line. It matches the signature the identity
// manager expects for its Status hook.
func (c *Console) Printf(format string, args ...any) {
	c.line(styleMarker(fmt.Sprintf(format, args...)))
}

func (c *Console) Good(format string, args ...any) {
	c.line(goodStyle.Render("[+]") + " " + textStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Warn(format string, args ...any) {
	c.line(warnStyle.Render("[!]") + " " + textStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) Fail(format string, args ...any) {
	c.line(failStyle.Render("[-]") + " " + textStyle.Render(fmt.Sprintf(format, args...)))
}

// Attack renders an attack progress update.
func (c *Console) Attack(u attack.StatusUpdate) {
	marker := progressStyle.Render("[>]")
	switch {
	case u.Done && u.Success:
		marker = goodStyle.Render("[+]")
	case u.Done:
		marker = failStyle.Render("[-]")
	}
	c.line(fmt.Sprintf("%s %s %s %s: %s",
		marker,
		dimStyle.Render(DurationHMS(u.Elapsed)),
		headerStyle.Render(strings.ToUpper(u.Attack)),
		u.Target,
		u.Message))
}

func (c *Console) line(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

var markers = []struct {
	prefix string
	style  lipgloss.Style
}{
	{"[+]", goodStyle},
	{"[!]", warnStyle},
	{"[-]", failStyle},
}

func styleMarker(s string) string {
	for _, m := range markers {
		if rest, ok := strings.CutPrefix(s, m.prefix); ok {
			return m.style.Render(m.prefix) + textStyle.Render(rest)
		}
	}
	return textStyle.Render(s)
}
