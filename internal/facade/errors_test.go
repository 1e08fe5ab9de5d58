package facade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProtectSuccess(t *testing.T) {
	t.Parallel()

	handler := protect(discardLogger(), "test_tool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestProtectInputErrorSurfacesVerbatim(t *testing.T) {
	t.Parallel()

	wantErr := fmt.Errorf("%w: repo_path parameter is required", deepwikierr.ErrInput)
	handler := protect(discardLogger(), "test_tool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, wantErr
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, textContent.Text, "repo_path parameter is required")
}

func TestProtectCancellationReraised(t *testing.T) {
	t.Parallel()

	cases := []error{
		context.Canceled,
		deepwikierr.ErrCancelled,
		deepwikierr.ErrResearchCancelled,
	}
	for _, wantErr := range cases {
		wantErr := wantErr
		t.Run(wantErr.Error(), func(t *testing.T) {
			t.Parallel()
			handler := protect(discardLogger(), "test_tool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return nil, wantErr
			})

			result, err := handler(context.Background(), mcp.CallToolRequest{})
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, wantErr))
		})
	}
}

func TestProtectGenericErrorIsGenericized(t *testing.T) {
	t.Parallel()

	handler := protect(discardLogger(), "test_tool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("sqlite3: disk image is malformed")
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.NotContains(t, textContent.Text, "sqlite3")
	assert.Contains(t, textContent.Text, "test_tool")
}

func TestProtectRecoversPanic(t *testing.T) {
	t.Parallel()

	handler := protect(discardLogger(), "test_tool", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("unexpected nil pointer")
	})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}
