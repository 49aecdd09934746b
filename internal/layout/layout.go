package layout

import "amplc/internal/valtypes"

// Engine computes storage sizes of value types for a Target.
type Engine struct {
	Target Target

	cache *cache
}

// New creates a new Engine for the specified target. An Engine is safe for
// concurrent use.
func New(target Target) *Engine {
	return &Engine{
		Target: target,
		cache:  newCache(),
	}
}

// SizeOf returns how many target units a variable of type t occupies.
// Unsized tags yield a *LayoutError.
func (e *Engine) SizeOf(t valtypes.ValType) (int, error) {
	if e == nil {
		return New(JVM()).SizeOf(t)
	}
	if cached, ok := e.cache.get(t); ok {
		if cached.err != nil {
			return 0, cached.err
		}
		return cached.size, nil
	}
	size, lerr := e.sizeOf(t)
	e.cache.put(t, cacheEntry{size: size, err: lerr})
	if lerr != nil {
		return 0, lerr
	}
	return size, nil
}

func (e *Engine) sizeOf(t valtypes.ValType) (int, *LayoutError) {
	if !t.Valid() {
		return 0, &LayoutError{Kind: LayoutErrInvalidTag, Type: t, Target: e.Target.Name}
	}
	if t.IsCallable() || t.Base() == valtypes.None {
		return 0, &LayoutError{Kind: LayoutErrUnsized, Type: t, Target: e.Target.Name}
	}
	var size int
	switch {
	case t.IsArray():
		size = e.Target.ReferenceSize
	case t.IsBoolean():
		size = e.Target.BooleanSize
	case t.IsInteger():
		size = e.Target.IntegerSize
	}
	if size <= 0 {
		return 0, &LayoutError{Kind: LayoutErrBadTarget, Type: t, Target: e.Target.Name}
	}
	return size, nil
}
