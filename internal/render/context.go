// Package render carries the per-session, explicitly-passed state that
// rendering and on-response callbacks need: the keyed store harvested from
// prior responses, consumed by pre-element primitives. Every
// render/callback call takes a *Context explicitly rather than reaching
// into shared package state.
package render

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStoreSize bounds the keyed store so a long-running campaign
// against a chatty target can't grow it without bound.
const DefaultStoreSize = 4096

// Context is owned by a Session and threaded through Render/OnResponse calls.
type Context struct {
	store *lru.Cache[string, string]
}

// NewContext builds a Context with the default store size.
func NewContext() *Context {
	return NewContextSized(DefaultStoreSize)
}

// NewContextSized builds a Context whose keyed store holds at most size
// entries.
func NewContextSized(size int) *Context {
	if size <= 0 {
		size = DefaultStoreSize
	}
	store, _ := lru.New[string, string](size)
	return &Context{store: store}
}

// Set records a response-derived value under key, for later consumption by
// a pre-element primitive.
func (c *Context) Set(key, value string) {
	c.store.Add(key, value)
}

// Get retrieves a previously-stored value.
func (c *Context) Get(key string) (string, bool) {
	return c.store.Get(key)
}
