package log

import (
	"context"
)

// Kv is a helper type for structured logging key-value pairs.
type Kv = map[string]interface{}

// Logger is the interface that the loggers used by the application
// must implement. It supports structured values and context propagation.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	WithValues(values map[string]interface{}) Logger
	WithCtxValues(ctx context.Context) Logger
	SetValuesOnCtx(parent context.Context, values map[string]interface{}) context.Context
}

// Noop is a logger that doesn't log anything.
var Noop = noop(0)

type noop int

func (n noop) Infof(format string, args ...interface{})     {}
func (n noop) Warningf(format string, args ...interface{})  {}
func (n noop) Errorf(format string, args ...interface{})    {}
func (n noop) Debugf(format string, args ...interface{})    {}
func (n noop) WithValues(map[string]interface{}) Logger     { return n }
func (n noop) WithCtxValues(context.Context) Logger         { return n }
func (n noop) SetValuesOnCtx(parent context.Context, values map[string]interface{}) context.Context {
	return parent
}

type contextKey string

// contextLogValuesKey is the key used to store log values on a context.
const contextLogValuesKey = contextKey("spind-log-values")

// CtxWithValues returns a copy of parent with the given log values attached.
func CtxWithValues(parent context.Context, kv Kv) context.Context {
	old := ValuesFromCtx(parent)
	new := make(Kv, len(old)+len(kv))
	for k, v := range old {
		new[k] = v
	}
	for k, v := range kv {
		new[k] = v
	}

	return context.WithValue(parent, contextLogValuesKey, new)
}

// ValuesFromCtx returns the log values stored on a context, empty if none.
func ValuesFromCtx(ctx context.Context) Kv {
	values, ok := ctx.Value(contextLogValuesKey).(Kv)
	if !ok {
		return Kv{}
	}

	return values
}
