// Package script runs user supplied Lua match filters.
//
// A filter script defines a global function
//
//	function accept(text, start, stop)
//	  return #text > 3
//	end
//
// called once per match with the matched text and its byte offsets
// (start inclusive, stop exclusive, both zero based). A false or nil
// result leaves the match unstyled.
//
// Scripts run in a state with only the base, table, string and math
// libraries; io, os, debug and package are not available.
package script

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/matchstyle/internal/segment"
)

// AcceptFunction is the global a filter script must define.
const AcceptFunction = "accept"

// DefaultTimeout bounds a single accept call.
const DefaultTimeout = 100 * time.Millisecond

var (
	// ErrNoAcceptFunction is returned when a script does not define accept.
	ErrNoAcceptFunction = errors.New("script: accept function not defined")

	// ErrFilterClosed is returned when calling a closed filter.
	ErrFilterClosed = errors.New("script: filter closed")
)

// Option configures a Filter.
type Option func(*Filter)

// WithTimeout sets the time limit for one accept call.
func WithTimeout(d time.Duration) Option {
	return func(f *Filter) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithErrorHandler sets a function receiving errors raised by accept.
// Matches whose call fails stay styled.
func WithErrorHandler(fn func(error)) Option {
	return func(f *Filter) {
		f.onError = fn
	}
}

// Filter is a compiled filter script.
//
// gopher-lua states are not goroutine safe; calls are serialised.
type Filter struct {
	mu      sync.Mutex
	L       *lua.LState
	accept  *lua.LFunction
	name    string
	timeout time.Duration
	onError func(error)
	closed  bool
}

// Load compiles the script at path.
func Load(path string, opts ...Option) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return Compile(path, string(data), opts...)
}

// Compile runs source, named name in errors, and looks up its accept
// function.
func Compile(name, source string, opts ...Option) (*Filter, error) {
	f := &Filter{
		name:    name,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	L.SetContext(ctx)
	fn, err := L.LoadString(source)
	if err == nil {
		L.Push(fn)
		err = L.PCall(0, lua.MultRet, nil)
		L.SetTop(0)
	}
	L.RemoveContext()
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("script: %s: %w", name, err)
	}

	accept, ok := L.GetGlobal(AcceptFunction).(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("%w in %s", ErrNoAcceptFunction, name)
	}

	f.L = L
	f.accept = accept
	return f, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// dofile and loadfile reach the file system.
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
}

// Name returns the script name given to Compile.
func (f *Filter) Name() string {
	return f.name
}

// Accept calls the script's accept function for one match.
func (f *Filter) Accept(text string, start, stop int) (ok bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false, ErrFilterClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	f.L.SetContext(ctx)
	defer f.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script: %s: lua panic: %v", f.name, r)
		}
	}()

	err = f.L.CallByParam(lua.P{Fn: f.accept, NRet: 1, Protect: true},
		lua.LString(text), lua.LNumber(start), lua.LNumber(stop))
	if err != nil {
		return false, fmt.Errorf("script: %s: %w", f.name, err)
	}
	ret := f.L.Get(-1)
	f.L.Pop(1)
	return lua.LVAsBool(ret), nil
}

// Keep adapts the filter to segment.KeepFunc. A failing call keeps the
// match and is reported to the error handler.
func (f *Filter) Keep(text string, s segment.Segment) bool {
	ok, err := f.Accept(s.Text(text), s.Start, s.End())
	if err != nil {
		if f.onError != nil {
			f.onError(err)
		}
		return true
	}
	return ok
}

// Close releases the Lua state. It is safe to call Close multiple times.
func (f *Filter) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.L.Close()
}
