package tools

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/wlfwifi/wlfwifi/internal/config"
)

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// ProgramExists reports whether name resolves to an executable on PATH.
// Any lookup failure reads as "not installed".
func ProgramExists(name string) bool {
	if name == "" {
		return false
	}
	_, err := lookPath(name)
	return err == nil
}

// ExternalTool is one binary filling a tool role. Role is only set when
// the configured binary replaces the stock one.
type ExternalTool struct {
	Name     string
	Role     string
	Required bool
	Note     string
	path     string
	version  string
	checked  bool
}

// ToolStatus is the cached outcome of resolving an ExternalTool.
type ToolStatus struct {
	Name      string
	Role      string
	Available bool
	Path      string
	Version   string
	Required  bool
	Note      string
}

var versionRe = regexp.MustCompile(`(\d+\.\d+[\.\d]*)`)

// Check resolves the tool once and caches the answer.
func (t *ExternalTool) Check() ToolStatus {
	if !t.checked {
		t.checked = true
		if path, err := lookPath(t.Name); err == nil {
			t.path = path
			t.version = getVersion(t.Name)
		}
	}
	return ToolStatus{
		Name:      t.Name,
		Role:      t.Role,
		Available: t.path != "",
		Path:      t.path,
		Version:   t.version,
		Required:  t.Required,
		Note:      t.Note,
	}
}

// Exists returns true if the tool is installed.
func (t *ExternalTool) Exists() bool {
	return t.Check().Available
}

func getVersion(name string) string {
	ctx := context.Background()
	for _, flag := range []string{"--version", "-V", "version"} {
		out, err := RunCapture(ctx, name, flag)
		if err == nil && out != "" {
			if match := versionRe.FindString(out); match != "" {
				return match
			}
		}
	}
	return ""
}

// DependencyChecker manages all external tool dependencies.
type DependencyChecker struct {
	tools []*ExternalTool
}

// NewDependencyChecker lists the platform tools plus every configured tool
// role. Only discovery and monitor mode are hard requirements.
func NewDependencyChecker(names config.ToolNames) *DependencyChecker {
	var all []*ExternalTool
	all = append(all, platformRequiredTools()...)
	stock := config.DefaultConfig().Tools
	all = append(all,
		&ExternalTool{Name: names.Airodump, Role: substitute(names.Airodump, stock.Airodump), Required: true, Note: "discovery + capture"},
		&ExternalTool{Name: names.Tshark, Role: substitute(names.Tshark, stock.Tshark), Note: "WPS detection + handshake counting"},
		&ExternalTool{Name: names.Ifconfig, Role: substitute(names.Ifconfig, stock.Ifconfig), Note: "MAC randomization"},
		&ExternalTool{Name: names.Aireplay, Role: substitute(names.Aireplay, stock.Aireplay), Note: "deauth + WEP replay (native injector otherwise)"},
		&ExternalTool{Name: names.Aircrack, Role: substitute(names.Aircrack, stock.Aircrack), Note: "WEP/WPA key recovery"},
		&ExternalTool{Name: names.Reaver, Role: substitute(names.Reaver, stock.Reaver), Note: "WPS PIN attack"},
	)
	return &DependencyChecker{tools: all}
}

// substitute returns the stock binary name when name replaces it.
func substitute(name, stock string) string {
	if name == stock {
		return ""
	}
	return stock
}

// InstallHint returns a platform-appropriate install message.
func InstallHint() string {
	return platformInstallHint()
}

// CheckAll verifies all dependencies and returns their status.
func (dc *DependencyChecker) CheckAll() []ToolStatus {
	results := make([]ToolStatus, len(dc.tools))
	for i, tool := range dc.tools {
		results[i] = tool.Check()
	}
	return results
}

// MissingRequired returns required tools that are not installed.
func (dc *DependencyChecker) MissingRequired() []string {
	var missing []string
	for _, tool := range dc.tools {
		s := tool.Check()
		if s.Required && !s.Available {
			missing = append(missing, tool.Name)
		}
	}
	return missing
}

// IsAvailable checks if a specific tool is available.
func (dc *DependencyChecker) IsAvailable(name string) bool {
	for _, tool := range dc.tools {
		if tool.Name == name {
			return tool.Exists()
		}
	}
	return false
}

// FormatStatus renders the report printed by `wlfwifi deps`. A binary
// substituted for a stock tool is shown as "name (stock)".
func FormatStatus(statuses []ToolStatus) string {
	var sb strings.Builder
	for _, s := range statuses {
		name := s.Name
		if s.Role != "" {
			name = fmt.Sprintf("%s (%s)", s.Name, s.Role)
		}
		if s.Available {
			ver := s.Version
			if ver == "" {
				ver = "ok"
			}
			fmt.Fprintf(&sb, " [+] %-24s %-10s %s\n", name, ver, s.Path)
		} else {
			label := "(optional)"
			if s.Required {
				label = "(REQUIRED)"
			}
			note := ""
			if s.Note != "" {
				note = " -- " + s.Note
			}
			fmt.Fprintf(&sb, " [-] %-24s %-10s %s%s\n", name, "--", label, note)
		}
	}
	return sb.String()
}
