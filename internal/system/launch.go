package system

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
)

// LaunchAfterEffects asks the compositing application to open and run a
// JSX script. Only macOS can be driven directly; elsewhere the script is
// opened with the system handler or its path is printed.
func LaunchAfterEffects(jsxPath, aeVersion string) error {
	abs, err := filepath.Abs(jsxPath)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "darwin":
		osa, err := exec.LookPath("osascript")
		if err != nil {
			fmt.Printf("[*] osascript not found; open JSX manually: %s\n", abs)
			return nil
		}
		script := fmt.Sprintf("tell application %q\n  activate\n  DoScriptFile (POSIX file %q)\nend tell", aeVersion, abs)
		if out, err := exec.Command(osa, "-e", script).CombinedOutput(); err != nil {
			return fmt.Errorf("osascript: %w, output: %s", err, out)
		}
		fmt.Printf("[*] Sent JSX to %s: %s\n", aeVersion, abs)
		return nil
	case "windows":
		if err := exec.Command("cmd", "/c", "start", "", abs).Start(); err != nil {
			return fmt.Errorf("start %s: %w", abs, err)
		}
		return nil
	default:
		fmt.Printf("[*] Open this JSX in After Effects: %s\n", abs)
		return nil
	}
}
