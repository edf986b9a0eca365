package overlay

import (
	"os"
	"os/exec"
	"strings"
)

// compositors maps a compositor's process name to the name we report.
// Checked in order.
var compositors = []struct {
	process string
	name    string
}{
	{"sway", "sway"},
	{"Hyprland", "hyprland"},
	{"wayfire", "wayfire"},
	{"river", "river"},
	{"labwc", "labwc"},
	{"niri", "niri"},
	{"gnome-shell", "gnome"},
	{"kwin_wayland", "kde"},
}

// processRunning is replaced in tests
var processRunning = func(name string) bool {
	return exec.Command("pgrep", "-x", name).Run() == nil
}

// DetectCompositor names the running Wayland compositor, or "unknown".
// Session variables are consulted before the process table.
func DetectCompositor() string {
	if os.Getenv("SWAYSOCK") != "" {
		return "sway"
	}
	if os.Getenv("HYPRLAND_INSTANCE_SIGNATURE") != "" {
		return "hyprland"
	}

	desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	for _, c := range compositors {
		if desktop != "" && strings.Contains(desktop, c.name) {
			return c.name
		}
	}

	for _, c := range compositors {
		if processRunning(c.process) {
			return c.name
		}
	}
	return "unknown"
}

// lacksLayerShell reports compositors known to ship without
// zwlr_layer_shell_v1, where an X11 overlay through XWayland is the only
// way to cover the screen.
func lacksLayerShell(compositor string) bool {
	return compositor == "gnome"
}
