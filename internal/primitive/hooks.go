package primitive

import (
	"fmt"

	"github.com/windyware/boofuzz/internal/render"
)

// PreElementFormat renders a pre-element's (key, value) pair in the
// conventional "key:value\n" layout.
func PreElementFormat(key, value string) []byte {
	return []byte(fmt.Sprintf("%s:%s\n", key, value))
}

// NewPreElement builds a non-fuzzable primitive that renders by looking
// up key in the session's render.Context keyed store and formatting it
// with format (PreElementFormat if nil).
func NewPreElement(name, key string, format func(key, value string) []byte) *Primitive {
	if format == nil {
		format = PreElementFormat
	}
	return NewCustom(name, Capability{
		Fuzzable: false,
		RenderFunc: func(ctx *render.Context, p *Primitive) []byte {
			value, _ := ctx.Get(key)
			return format(key, value)
		},
	})
}

// NewCallBack builds a non-fuzzable primitive that renders to zero bytes
// but invokes onResponse (with the bytes received after the containing
// node is transmitted) so it can seed the keyed store for later
// PreElement lookups, kept deliberately distinct from a node-level
// response callback.
func NewCallBack(name string, onResponse func(ctx *render.Context, received []byte)) *Primitive {
	return NewCustom(name, Capability{
		Fuzzable: false,
		RenderFunc: func(ctx *render.Context, p *Primitive) []byte {
			return nil
		},
		OnResponse: onResponse,
	})
}
