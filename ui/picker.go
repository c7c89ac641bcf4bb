package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
)

// ErrAborted is returned by Pick when the operator quits without choosing.
var ErrAborted = errors.New("target selection aborted")

type tickMsg time.Time

// Picker is the Bubble Tea model that lists targets while the scan runs
// and lets the operator choose which ones to attack.
type Picker struct {
	iface   string
	source  func() []*wifi.Target
	clients func(bssid string) int

	targets  []*wifi.Target
	cursor   int
	selected map[string]bool
	start    time.Time
	elapsed  time.Duration
	width    int

	chosen  []*wifi.Target
	aborted bool
}

// NewPicker builds a picker. source is polled every second and must return
// targets the caller will not mutate afterwards. clients may be nil.
func NewPicker(iface string, source func() []*wifi.Target, clients func(bssid string) int) *Picker {
	return &Picker{
		iface:    iface,
		source:   source,
		clients:  clients,
		selected: make(map[string]bool),
		start:    time.Now(),
	}
}

func (p *Picker) Init() tea.Cmd {
	p.refresh()
	return tickCmd()
}

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
	case tickMsg:
		p.elapsed = time.Since(p.start)
		p.refresh()
		return p, tickCmd()
	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p *Picker) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		p.aborted = true
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.targets)-1 {
			p.cursor++
		}
	case " ", "space":
		if len(p.targets) > 0 {
			key := p.targets[p.cursor].Key()
			p.selected[key] = !p.selected[key]
		}
	case "enter":
		if len(p.targets) == 0 {
			return p, nil
		}
		for _, t := range p.targets {
			if p.selected[t.Key()] {
				p.chosen = append(p.chosen, t)
			}
		}
		if len(p.chosen) == 0 {
			p.chosen = []*wifi.Target{p.targets[p.cursor]}
		}
		return p, tea.Quit
	case "a":
		if len(p.targets) == 0 {
			return p, nil
		}
		p.chosen = append([]*wifi.Target(nil), p.targets...)
		return p, tea.Quit
	}
	return p, nil
}

// refresh reloads the list and keeps the cursor on the same BSSID when the
// ordering changes.
func (p *Picker) refresh() {
	var current string
	if p.cursor < len(p.targets) {
		current = p.targets[p.cursor].Key()
	}
	p.targets = p.source()
	p.cursor = 0
	for i, t := range p.targets {
		if t.Key() == current {
			p.cursor = i
			break
		}
	}
}

func (p *Picker) View() string {
	var sb strings.Builder
	sb.WriteString(borderStyle.Render(
		bannerStyle.Render("wlfwifi") + "  " +
			dimStyle.Render(fmt.Sprintf("%s | targets: %d | %s", p.iface, len(p.targets), DurationHMS(p.elapsed))),
	))
	sb.WriteString("\n")

	if len(p.targets) == 0 {
		sb.WriteString("\n" + dimStyle.Render("  Scanning for networks... waiting for beacons") + "\n")
	} else {
		sb.WriteString(p.renderTable())
	}

	sb.WriteString("\n")
	sb.WriteString(renderKeys([][2]string{
		{"Space", "Select"},
		{"Enter", "Attack selected"},
		{"a", "Attack all"},
		{"q", "Quit"},
	}))
	return sb.String()
}

func (p *Picker) renderTable() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf(
		"  %-3s %-4s %-22s %-19s %3s %-6s %5s %-4s %-4s %s",
		"", "#", "ESSID", "BSSID", "CH", "ENC", "PWR", "SIG", "WPS", "CLI",
	)))
	sb.WriteString("\n")

	for i, t := range p.targets {
		essid := t.ESSID
		if t.Hidden() {
			essid = "<hidden>"
		}
		if r := []rune(essid); len(r) > 20 {
			essid = string(r[:20]) + ".."
		}
		mark := "[ ]"
		if p.selected[t.Key()] {
			mark = goodStyle.Render("[x]")
		}
		wps := " no"
		if t.WPS {
			wps = goodStyle.Render("yes")
		}
		clients := 0
		if p.clients != nil {
			clients = p.clients(t.BSSID)
		}

		line := fmt.Sprintf("  %s %-4d %-22s %-19s %3d %-6s %5d %s %-4s %d",
			mark, i+1, essid, t.BSSID, t.Channel, EncryptionColor(t.Encryption), t.Power, SignalBar(t.Power), wps, clients)
		if i == p.cursor {
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func renderKeys(keys [][2]string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyStyle.Render("["+k[0]+"]") + " " + helpStyle.Render(k[1])
	}
	return borderStyle.Render("  " + strings.Join(parts, "  "))
}

// Chosen returns the targets picked by the operator.
func (p *Picker) Chosen() []*wifi.Target {
	return p.chosen
}

// Aborted reports whether the operator quit without choosing.
func (p *Picker) Aborted() bool {
	return p.aborted
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Pick runs the picker full screen until the operator chooses or quits.
func Pick(ctx context.Context, p *Picker) ([]*wifi.Target, error) {
	prog := tea.NewProgram(p, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	if p.Aborted() || len(p.Chosen()) == 0 {
		return nil, ErrAborted
	}
	return p.Chosen(), nil
}
