package renamer

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RunCmdOptions contains options for customizing RunCmd behavior
type RunCmdOptions struct {
	// MCPTransport allows providing a custom transport for MCP server (used for testing)
	MCPTransport *mcp.InMemoryTransport
	// Stdout writer for normal output (defaults to os.Stdout)
	Stdout io.Writer
	// Stderr writer for log output (defaults to os.Stderr)
	Stderr io.Writer
}

// commandContext holds runtime context for command execution
type commandContext struct {
	stdout io.Writer
	stderr io.Writer
}

func RunCmd(args []string, options *RunCmdOptions) error {
	cmdCtx := &commandContext{
		stdout: io.Writer(os.Stdout),
		stderr: io.Writer(os.Stderr),
	}
	if options != nil {
		if options.Stdout != nil {
			cmdCtx.stdout = options.Stdout
		}
		if options.Stderr != nil {
			cmdCtx.stderr = options.Stderr
		}
	}

	if len(args) < 1 {
		return ShowHelp(cmdCtx.stdout)
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	var (
		help       = fs.Bool("h", false, "Show help")
		mcpOption  = fs.Bool("mcp", false, "Run as MCP server")
		configFile = fs.String("config", "", "Path to configuration file")
	)

	if len(args) > 1 {
		if err := fs.Parse(args[1:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return ShowHelp(cmdCtx.stdout)
			}
			return err
		}
	}

	if *help {
		return ShowHelp(cmdCtx.stdout)
	}

	if *mcpOption {
		var transport *mcp.InMemoryTransport
		if options != nil && options.MCPTransport != nil {
			transport = options.MCPTransport
		}
		return RunMCPServer(*configFile, transport, cmdCtx.stderr)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		return ShowHelp(cmdCtx.stdout)
	}

	ctx := context.Background()

	switch remaining[0] {
	case "rename-files":
		return renameCommand(ctx, cmdCtx, ModeFiles, *configFile, remaining[1:])
	case "rename-strings":
		return renameCommand(ctx, cmdCtx, ModeStrings, *configFile, remaining[1:])
	default:
		return fmt.Errorf("unknown command: %s", remaining[0])
	}
}

func ShowHelp(w io.Writer) error {
	help := `Tree Renamer - Rename files and file contents across a directory tree

Usage:
  tree-renamer [OPTIONS] COMMAND [ARGS...]
  tree-renamer -mcp              Run as MCP server

Options:
  -h, --help           Show this help message
  --config FILE        Path to configuration file
  -mcp                 Run as MCP server

Commands:
  rename-files         Rename files whose names contain a literal pattern
  rename-strings       Replace a regular expression inside file contents

Command options:
  --directory DIR      Directory where renaming is performed (required)
  --pattern P          Literal substring (rename-files) or regular expression (rename-strings)
  --replacement R      Replacement text (defaults to "" for rename-files, required for rename-strings)
  --recursive          Descend into subdirectories
  --ignore-folders L   Comma-separated folder names to skip with their subtrees
  --dry-run            Report planned changes without modifying files
  --verbose            Log every per-file decision
  --keep-going         Record per-file failures and continue instead of aborting
  --json               Print the result as JSON

Examples:
  tree-renamer rename-files --directory=/path/to/dir --pattern=ABC_ --replacement=A --recursive --ignore-folders=.git,vendor --verbose
  tree-renamer rename-strings --directory=/path/to/dir --pattern=ABC --replacement=XYZ --recursive --dry-run
  tree-renamer -mcp --config="/path/to/config.yaml"
`
	_, _ = fmt.Fprint(w, help)
	return nil
}

func renameCommand(ctx context.Context, cmdCtx *commandContext, mode Mode, globalConfig string, args []string) error {
	fs := flag.NewFlagSet("rename-"+string(mode), flag.ContinueOnError)
	fs.SetOutput(cmdCtx.stderr)

	directory := fs.String("directory", "", "Directory where renaming operations will be performed")
	pattern := fs.String("pattern", "", "Pattern to search for in file names or content")
	replacement := fs.String("replacement", "", "Replacement string for the pattern")
	recursive := fs.Bool("recursive", false, "Perform renaming recursively in nested directories")
	ignoreFolders := fs.String("ignore-folders", "", "Comma-separated list of folder names to ignore")
	dryRun := fs.Bool("dry-run", false, "Show what would be changed without making changes")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	keepGoing := fs.Bool("keep-going", false, "Continue after per-file failures")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	configFile := fs.String("config", globalConfig, "Path to configuration file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ShowHelp(cmdCtx.stdout)
		}
		return err
	}

	if *directory == "" {
		return fmt.Errorf("--directory is required")
	}
	if *pattern == "" {
		return fmt.Errorf("--pattern is required")
	}
	if mode == ModeStrings && !flagPassed(fs, "replacement") {
		return fmt.Errorf("--replacement is required")
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if *keepGoing {
		config.ContinueOnError = true
	}

	log := NewLogger(cmdCtx.stderr, *verbose, config.LogFormat)

	renamer, err := NewDefaultTreeRenamer(config, log)
	if err != nil {
		return fmt.Errorf("failed to create renamer: %w", err)
	}

	req := RenameRequest{
		Root:          *directory,
		Pattern:       *pattern,
		Replacement:   *replacement,
		Recursive:     *recursive,
		IgnoreFolders: ParseFolderList(*ignoreFolders),
		DryRun:        *dryRun,
	}

	if req.DryRun {
		_, _ = fmt.Fprintln(cmdCtx.stdout, "DRY RUN MODE - No files will be modified")
	}

	result, err := renamer.Run(ctx, mode, req)
	if err != nil {
		return err
	}

	if *jsonOutput {
		if err := json.NewEncoder(cmdCtx.stdout).Encode(result); err != nil {
			return err
		}
	} else {
		printResult(cmdCtx.stdout, result)
	}

	if len(result.FailedFiles) > 0 {
		return fmt.Errorf("completed with %d errors", len(result.FailedFiles))
	}
	return nil
}

func printResult(w io.Writer, result *RenameResult) {
	verb := "Renamed files"
	if result.Mode == ModeStrings {
		verb = "Modified files"
	}

	_, _ = fmt.Fprintf(w, "\n%s: %d\n", verb, len(result.Changes))
	for _, change := range result.Changes {
		if change.NewPath != "" {
			_, _ = fmt.Fprintf(w, "  %s -> %s\n", change.Path, change.NewPath)
		} else {
			_, _ = fmt.Fprintf(w, "  %s\n", change.Path)
		}
	}

	if len(result.FailedFiles) > 0 {
		_, _ = fmt.Fprintf(w, "\nFailed files: %d\n", len(result.FailedFiles))
		for i, file := range result.FailedFiles {
			_, _ = fmt.Fprintf(w, "  %s: %s\n", file, result.Errors[i])
		}
	}
}

func flagPassed(fs *flag.FlagSet, name string) bool {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// ParseFolderList splits a comma-separated folder list, dropping blank entries.
func ParseFolderList(list string) []string {
	if list == "" {
		return nil
	}
	var folders []string
	for _, part := range strings.Split(list, ",") {
		folder := strings.TrimSpace(part)
		if folder != "" {
			folders = append(folders, folder)
		}
	}
	return folders
}
