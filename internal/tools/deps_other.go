//go:build !linux

package tools

func platformRequiredTools() []*ExternalTool {
	// Monitor mode and injection need Linux; cracked/deps/clean still work.
	return nil
}

func platformInstallHint() string {
	return "wlfwifi requires Linux for wireless attacks. Use 'wlfwifi deps' to check status."
}
