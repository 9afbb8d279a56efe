// Package hostimport registers the host-side functions guest extensions
// import under the "env" module namespace: outbound HTTP, structured
// logging, and raw stdout/stderr passthrough. Every import here is the
// guest's only way to reach outside its sandbox — a guest has no socket,
// filesystem, or console access of its own.
package hostimport

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Logger receives host-imported diagnostics: guest log_event calls and raw
// io_print/io_eprint/io_trace writes. Implementations typically wrap
// log/slog, attributing each line to the extension that produced it.
type Logger interface {
	LogEvent(ctx context.Context, extension string, level, args, modulePath, file string, line uint32)
	Print(ctx context.Context, extension string, s string)
	Eprint(ctx context.Context, extension string, s string)
	Trace(ctx context.Context, extension string, s string)
}

// extensionNameKey is how the runtime package tells host imports which
// extension is making the call, since a single host module instance is
// shared across every loaded extension.
type extensionNameKey struct{}

// WithExtensionName attaches name to ctx for the duration of a guest call,
// so host imports invoked from within it can attribute logs correctly.
func WithExtensionName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, extensionNameKey{}, name)
}

// ExtensionName recovers the name WithExtensionName attached, or "" if none.
func ExtensionName(ctx context.Context) string {
	name, _ := ctx.Value(extensionNameKey{}).(string)
	return name
}

// Register builds the "env" host module and instantiates it against r,
// wiring every host import a guest extension may call. It must happen once
// per wazero runtime, before any guest module is instantiated.
func Register(ctx context.Context, r wazero.Runtime, logger Logger) error {
	builder := r.NewHostModuleBuilder("env")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			httpSendRequest(ctx, mod, stack)
		}), []api.ValueType{api.ValueTypeI32}, []api.ValueType{api.ValueTypeI32}).
		Export("http_send_request")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			logEvent(ctx, mod, stack, logger)
		}), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		Export("log_event")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ioPrint(ctx, mod, stack, logger)
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export("io_print")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ioEprint(ctx, mod, stack, logger)
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export("io_eprint")

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ioTrace(ctx, mod, stack, logger)
		}), []api.ValueType{api.ValueTypeI32}, nil).
		Export("io_trace")

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("hostimport: instantiating env host module: %w", err)
	}
	return nil
}

// readStackString reads a host-call argument that follows the
// pointer-via-stack convention: the single i32 stack slot is the guest
// memory offset, and its length was already pushed with stack_push before
// the call, so it's recovered with stack_pop.
func readStackString(ctx context.Context, mod api.Module, ptr uint32) ([]byte, error) {
	popFn := mod.ExportedFunction("stack_pop")
	if popFn == nil {
		return nil, fmt.Errorf("hostimport: guest module does not export stack_pop")
	}
	res, err := popFn.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("hostimport: calling guest stack_pop: %w", err)
	}
	length := api.DecodeI32(res[0])

	data, ok := mod.Memory().Read(ptr, uint32(length))
	if !ok {
		return nil, fmt.Errorf("hostimport: out-of-bounds guest read at %d len %d", ptr, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// writeStackString writes data into freshly-allocated guest memory and
// pushes its length onto the guest's stack, matching the convention a
// pointer-only host import return is read with (the guest pops the length
// itself on its side of the call).
func writeStackString(ctx context.Context, mod api.Module, data []byte) (uint32, error) {
	allocFn := mod.ExportedFunction("alloc")
	if allocFn == nil {
		return 0, fmt.Errorf("hostimport: guest module does not export alloc")
	}
	res, err := allocFn.Call(ctx, api.EncodeI32(int32(len(data))))
	if err != nil {
		return 0, fmt.Errorf("hostimport: calling guest alloc: %w", err)
	}
	ptr := api.DecodeU32(res[0])

	if len(data) > 0 && !mod.Memory().Write(ptr, data) {
		return 0, fmt.Errorf("hostimport: out-of-bounds guest write at %d len %d", ptr, len(data))
	}

	pushFn := mod.ExportedFunction("stack_push")
	if pushFn == nil {
		return 0, fmt.Errorf("hostimport: guest module does not export stack_push")
	}
	if _, err := pushFn.Call(ctx, api.EncodeI32(int32(len(data)))); err != nil {
		return 0, fmt.Errorf("hostimport: calling guest stack_push: %w", err)
	}

	return ptr, nil
}
