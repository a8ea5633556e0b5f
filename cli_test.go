package renamer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	renamer "github.com/thrawn01/tree-renamer"
)

func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := renamer.RunCmd(append([]string{"tree-renamer"}, args...), &renamer.RunCmdOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return stdout.String(), stderr.String(), err
}

func TestCLIIntegration(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"file_ABC.ext":         "ABC appears here",
		"sub/file_ABC_two.ext": "ABC",
	})

	tests := []struct {
		name        string
		args        []string
		expectError string
	}{
		{
			name: "Help",
			args: []string{"-h"},
		},
		{
			name: "LongHelp",
			args: []string{"--help"},
		},
		{
			name: "SubcommandHelp",
			args: []string{"rename-files", "-h"},
		},
		{
			name: "NoCommand",
			args: []string{},
		},
		{
			name: "RenameFilesDryRun",
			args: []string{"rename-files", "--directory=" + tempDir, "--pattern=ABC", "--dry-run", "--recursive"},
		},
		{
			name: "RenameStringsDryRun",
			args: []string{"rename-strings", "--directory=" + tempDir, "--pattern=ABC", "--replacement=XYZ", "--dry-run", "--json"},
		},
		{
			name:        "InvalidCommand",
			args:        []string{"invalid"},
			expectError: "unknown command: invalid",
		},
		{
			name:        "MissingDirectory",
			args:        []string{"rename-files", "--pattern=ABC"},
			expectError: "--directory is required",
		},
		{
			name:        "MissingPattern",
			args:        []string{"rename-files", "--directory=" + tempDir},
			expectError: "--pattern is required",
		},
		{
			name:        "RenameStringsRequiresReplacement",
			args:        []string{"rename-strings", "--directory=" + tempDir, "--pattern=ABC"},
			expectError: "--replacement is required",
		},
		{
			name:        "InvalidRegex",
			args:        []string{"rename-strings", "--directory=" + tempDir, "--pattern=(", "--replacement=x"},
			expectError: "invalid pattern",
		},
		{
			name:        "MissingDirectoryOnDisk",
			args:        []string{"rename-files", "--directory=" + filepath.Join(tempDir, "missing"), "--pattern=ABC"},
			expectError: "invalid directory",
		},
		{
			name:        "UnknownFlag",
			args:        []string{"rename-files", "--bogus"},
			expectError: "flag provided but not defined",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := runCmd(t, test.args...)
			if test.expectError != "" {
				assert.ErrorContains(t, err, test.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// None of the above may have modified the tree.
	assert.Equal(t, map[string]string{
		"file_ABC.ext":         "ABC appears here",
		"sub/file_ABC_two.ext": "ABC",
	}, snapshot(t, tempDir))
}

func TestCLIRenameFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"file_ABC.ext":            "one",
		"subfolder/file_ABCD.ext": "two",
		"ignored/file_ABC.ext":    "three",
	})

	stdout, _, err := runCmd(t, "rename-files",
		"--directory="+tempDir,
		"--pattern=file_ABC",
		"--replacement=new_filename",
		"--recursive",
		"--ignore-folders=ignored, .git")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Renamed files: 2")

	assert.Equal(t, map[string]string{
		"new_filename.ext":            "one",
		"subfolder/new_filenameD.ext": "two",
		"ignored/file_ABC.ext":        "three",
	}, snapshot(t, tempDir))
}

func TestCLIRenameStrings(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{"note.txt": "ABC appears here"})

	args := []string{"rename-strings", "--directory=" + tempDir, "--pattern=ABC", "--replacement=XYZ", "--json"}

	stdout, _, err := runCmd(t, args...)
	require.NoError(t, err)

	var result renamer.RenameResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, renamer.ModeStrings, result.Mode)
	assert.Len(t, result.Changes, 1)
	assert.Equal(t, map[string]string{"note.txt": "XYZ appears here"}, snapshot(t, tempDir))

	stdout, _, err = runCmd(t, args...)
	require.NoError(t, err)
	result = renamer.RenameResult{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Empty(t, result.Changes)
}

func TestCLIRenameStringsEmptyReplacement(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{"note.txt": "keep DELETE-ME this"})

	_, _, err := runCmd(t, "rename-strings", "--directory="+tempDir, "--pattern=DELETE-ME ", "--replacement=")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"note.txt": "keep this"}, snapshot(t, tempDir))
}

func TestCLIDryRunOutput(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{"file_ABC.ext": "content"})

	stdout, stderr, err := runCmd(t, "rename-files", "--directory="+tempDir, "--pattern=ABC", "--replacement=XYZ", "--dry-run")
	require.NoError(t, err)

	assert.Contains(t, stdout, "DRY RUN MODE")
	assert.Contains(t, stdout, filepath.Join(tempDir, "file_XYZ.ext"))
	// Planned changes are logged even without --verbose.
	assert.Contains(t, stderr, "dry run: renaming file")
	assert.FileExists(t, filepath.Join(tempDir, "file_ABC.ext"))
}

func TestCLIVerbose(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		expected bool
	}{
		{name: "Quiet", verbose: false, expected: false},
		{name: "Verbose", verbose: true, expected: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeTree(t, tempDir, map[string]string{"file_ABC.ext": "content"})

			args := []string{"rename-files", "--directory=" + tempDir, "--pattern=ABC", "--replacement=XYZ"}
			if test.verbose {
				args = append(args, "--verbose")
			}

			_, stderr, err := runCmd(t, args...)
			require.NoError(t, err)

			assert.Equal(t, test.expected, bytes.Contains([]byte(stderr), []byte("level=DEBUG")))
			assert.Contains(t, stderr, "rename files finished")
		})
	}
}

func TestCLIKeepGoing(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"blob.bin": "ABC\x00",
		"text.txt": "ABC",
	})

	stdout, stderr, err := runCmd(t, "rename-strings", "--directory="+tempDir, "--pattern=ABC", "--replacement=XYZ", "--keep-going")
	assert.ErrorContains(t, err, "completed with 1 errors")
	assert.Contains(t, stdout, "Failed files: 1")
	assert.Contains(t, stderr, "operation failed")
	assert.Equal(t, "XYZ", snapshot(t, tempDir)["text.txt"])

	_, _, err = runCmd(t, "rename-strings", "--directory="+tempDir, "--pattern=XYZ", "--replacement=ABC")
	assert.ErrorIs(t, err, renamer.ErrNotText)
}

func TestCLIConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"file_ABC.ext":        "one",
		"vendor/file_ABC.ext": "two",
	})

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("ignore_folders: [vendor]\nlog_format: json\n"),
		renamer.DefaultFilePermissions))

	_, stderr, err := runCmd(t, "--config="+configPath, "rename-files", "--directory="+tempDir, "--pattern=ABC", "--replacement=XYZ", "--recursive")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"app":"tree-renamer"`)

	assert.Equal(t, map[string]string{
		"file_XYZ.ext":        "one",
		"vendor/file_ABC.ext": "two",
	}, snapshot(t, tempDir))
}

func TestParseFolderList(t *testing.T) {
	assert.Nil(t, renamer.ParseFolderList(""))
	assert.Equal(t, []string{"a", "b"}, renamer.ParseFolderList("a, b,,"))
	assert.Equal(t, []string{".git"}, renamer.ParseFolderList(" .git "))
}

func TestMCPServer(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"file_ABC.ext":     "ABC appears here",
		"sub/file_ABC.ext": "ABC",
	})

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- renamer.RunCmd([]string{"tree-renamer", "-mcp"}, &renamer.RunCmdOptions{
			MCPTransport: serverTransport,
			Stderr:       io.Discard,
		})
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() {
		_ = session.Close()
	}()

	t.Run("ToolDiscovery", func(t *testing.T) {
		tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
		require.NoError(t, err)

		expectedTools := map[string]string{
			"rename_files":   "Rename files whose names contain a literal pattern",
			"rename_strings": "Replace a regular expression inside file contents",
		}

		require.Len(t, tools.Tools, len(expectedTools))
		for _, tool := range tools.Tools {
			assert.Equal(t, expectedTools[tool.Name], tool.Description)
		}
	})

	t.Run("RenameStringsDryRun", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "rename_strings",
			Arguments: map[string]any{
				"directory":   tempDir,
				"pattern":     "ABC",
				"replacement": "XYZ",
				"recursive":   true,
				"dry_run":     true,
			},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "ABC appears here", snapshot(t, tempDir)["file_ABC.ext"])
	})

	t.Run("RenameFiles", func(t *testing.T) {
		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "rename_files",
			Arguments: map[string]any{
				"directory":      tempDir,
				"pattern":        "_ABC",
				"replacement":    "_XYZ",
				"recursive":      true,
				"ignore_folders": []string{"sub"},
			},
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, map[string]string{
			"file_XYZ.ext":     "ABC appears here",
			"sub/file_ABC.ext": "ABC",
		}, snapshot(t, tempDir))
	})
}
