package facade

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

// toolHandler is the mcp-go handler signature every tool registers.
type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// protect wraps a handler with the façade's uniform error policy: an
// InputError is surfaced to the caller verbatim; cancellation (ctx or
// deepwikierr.ErrCancelled/ErrResearchCancelled) is re-raised unchanged;
// anything else, including a recovered panic, is logged with its stack
// and reported to the caller as a generic error text.
func protect(logger *slog.Logger, name string, fn toolHandler) toolHandler {
	return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("tool panic", "tool", name, "panic", r, "stack", string(debug.Stack()))
				result = mcp.NewToolResultError("internal error")
				err = nil
			}
		}()

		result, err = fn(ctx, req)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, deepwikierr.ErrCancelled) || errors.Is(err, deepwikierr.ErrResearchCancelled) {
			return nil, err
		}
		if errors.Is(err, deepwikierr.ErrInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Error("tool failed", "tool", name, "error", err)
		return mcp.NewToolResultError("internal error: " + name + " failed"), nil
	}
}
