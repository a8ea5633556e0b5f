package renamer

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Parameter structures for MCP tools
type RenameFilesParams struct {
	Directory     string   `json:"directory"`
	Pattern       string   `json:"pattern"`
	Replacement   string   `json:"replacement,omitempty"`
	Recursive     bool     `json:"recursive,omitempty"`
	IgnoreFolders []string `json:"ignore_folders,omitempty"`
	DryRun        bool     `json:"dry_run,omitempty"`
}

type RenameStringsParams struct {
	Directory     string   `json:"directory"`
	Pattern       string   `json:"pattern"`
	Replacement   string   `json:"replacement"`
	Recursive     bool     `json:"recursive,omitempty"`
	IgnoreFolders []string `json:"ignore_folders,omitempty"`
	DryRun        bool     `json:"dry_run,omitempty"`
}

// Tool handler functions
func RenameFilesTool(ctx context.Context, req *mcp.CallToolRequest, args RenameFilesParams, renamer TreeRenamer) (*mcp.CallToolResult, any, error) {
	result, err := renamer.RenameFiles(ctx, RenameRequest{
		Root:          args.Directory,
		Pattern:       args.Pattern,
		Replacement:   args.Replacement,
		Recursive:     args.Recursive,
		IgnoreFolders: args.IgnoreFolders,
		DryRun:        args.DryRun,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rename files: %w", err)
	}

	return nil, result, nil
}

func RenameStringsTool(ctx context.Context, req *mcp.CallToolRequest, args RenameStringsParams, renamer TreeRenamer) (*mcp.CallToolResult, any, error) {
	result, err := renamer.RenameStrings(ctx, RenameRequest{
		Root:          args.Directory,
		Pattern:       args.Pattern,
		Replacement:   args.Replacement,
		Recursive:     args.Recursive,
		IgnoreFolders: args.IgnoreFolders,
		DryRun:        args.DryRun,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to rename strings: %w", err)
	}

	return nil, result, nil
}

// RunMCPServer serves the rename tools over MCP. Logs go to logOutput since
// stdout carries the protocol. If transport is nil, stdio transport is used.
func RunMCPServer(configPath string, transport *mcp.InMemoryTransport, logOutput io.Writer) error {
	config, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := NewLogger(logOutput, false, config.LogFormat)

	renamer, err := NewDefaultTreeRenamer(config, log)
	if err != nil {
		return fmt.Errorf("failed to create renamer: %w", err)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tree-renamer",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_files",
		Description: "Rename files whose names contain a literal pattern",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenameFilesParams) (*mcp.CallToolResult, any, error) {
		return RenameFilesTool(ctx, req, args, renamer)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_strings",
		Description: "Replace a regular expression inside file contents",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RenameStringsParams) (*mcp.CallToolResult, any, error) {
		return RenameStringsTool(ctx, req, args, renamer)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Info("mcp server starting")
	if transport != nil {
		return server.Run(ctx, transport)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}
