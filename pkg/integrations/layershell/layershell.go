//go:build cgo && !nolayershell

package layershell

/*
#cgo pkg-config: gtk4-layer-shell-0

// libgtk4-layer-shell has to be loaded before libwayland-client or
// gtk_layer_is_supported reports false. Keep it a direct dependency of the
// binary; when the linker still orders it late, LD_PRELOAD it.
#cgo LDFLAGS: -Wl,--no-as-needed -lgtk4-layer-shell

#include <stdlib.h>
#include <gtk4-layer-shell.h>
*/
import "C"

import (
	"unsafe"

	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

const namespace = "layerconfirm"

// supported reports whether the compositor speaks zwlr_layer_shell_v1.
// Only valid after GTK has been initialized.
func supported() bool {
	return C.gtk_layer_is_supported() != 0
}

// initLayerShell turns w into a layer surface anchored to every edge with
// exclusive keyboard input. It must run before w is first mapped.
func initLayerShell(w *gtk.Window, layer surface.Layer) {
	native := (*C.GtkWindow)(unsafe.Pointer(coreglib.InternObject(w).Native()))

	C.gtk_layer_init_for_window(native)

	ns := C.CString(namespace)
	defer C.free(unsafe.Pointer(ns))
	C.gtk_layer_set_namespace(native, ns)

	C.gtk_layer_set_layer(native, cLayer(layer))
	C.gtk_layer_set_keyboard_mode(native, C.GTK_LAYER_SHELL_KEYBOARD_MODE_EXCLUSIVE)

	for _, edge := range []C.GtkLayerShellEdge{
		C.GTK_LAYER_SHELL_EDGE_LEFT,
		C.GTK_LAYER_SHELL_EDGE_RIGHT,
		C.GTK_LAYER_SHELL_EDGE_TOP,
		C.GTK_LAYER_SHELL_EDGE_BOTTOM,
	} {
		C.gtk_layer_set_anchor(native, edge, C.gboolean(1))
	}

	// -1 keeps panels from pushing the overlay inwards
	C.gtk_layer_set_exclusive_zone(native, -1)
}

func cLayer(layer surface.Layer) C.GtkLayerShellLayer {
	if layer == surface.LayerOverlay {
		return C.GTK_LAYER_SHELL_LAYER_OVERLAY
	}
	return C.GTK_LAYER_SHELL_LAYER_TOP
}
