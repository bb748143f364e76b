package middleware

import (
	"github.com/danielgtaylor/huma/v2"
)

// Container collects huma middlewares for the next handler being built.
type Container struct {
	huma.Middlewares
}

func NewContainer() *Container {
	return &Container{
		Middlewares: make(huma.Middlewares, 0),
	}
}

// Add appends mw; a nil mw is ignored so optional middlewares can be added unconditionally.
func (mc *Container) Add(mw func(ctx huma.Context, next func(huma.Context))) {
	if mw == nil {
		return
	}
	mc.Middlewares = append(mc.Middlewares, mw)
}

// GetAllAndClear returns the collected middlewares and resets the container.
func (mc *Container) GetAllAndClear() huma.Middlewares {
	result := mc.Middlewares
	mc.Middlewares = nil
	return result
}
