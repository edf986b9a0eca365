package x11

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/layerconfirm/layerconfirm/pkg/surface"
)

// keymap translates keycodes to keysyms using the server's keyboard mapping
type keymap struct {
	min     xproto.Keycode
	perCode int
	syms    []xproto.Keysym
}

func loadKeymap(conn *xgb.Conn) (*keymap, error) {
	setup := xproto.Setup(conn)
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)

	reply, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return nil, err
	}

	return &keymap{
		min:     setup.MinKeycode,
		perCode: int(reply.KeysymsPerKeycode),
		syms:    reply.Keysyms,
	}, nil
}

// lookup returns the keysym in column 0 for code, or column 1 when Shift is
// held and that column is bound. Unknown keycodes map to 0.
func (k *keymap) lookup(code xproto.Keycode, state uint16) surface.Keysym {
	if k == nil || k.perCode == 0 || code < k.min {
		return 0
	}

	idx := int(code-k.min) * k.perCode
	if idx >= len(k.syms) {
		return 0
	}

	sym := k.syms[idx]
	if state&xproto.KeyButMaskShift != 0 && k.perCode > 1 && idx+1 < len(k.syms) && k.syms[idx+1] != 0 {
		sym = k.syms[idx+1]
	}
	return surface.Keysym(sym)
}
