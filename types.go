package renamer

type Mode string

const (
	ModeFiles   Mode = "files"
	ModeStrings Mode = "strings"
)

// RenameRequest describes one invocation. It is not modified once the walk starts.
type RenameRequest struct {
	Root          string   `json:"directory"`
	Pattern       string   `json:"pattern"`
	Replacement   string   `json:"replacement"`
	Recursive     bool     `json:"recursive"`
	IgnoreFolders []string `json:"ignore_folders,omitempty"`
	DryRun        bool     `json:"dry_run"`
}

type FileEntry struct {
	Path string
	Dir  string
	Name string
	// Regular is false for symlinks, devices and other special files.
	Regular bool
}

type FileChange struct {
	Path    string `json:"path"`
	NewPath string `json:"new_path,omitempty"`
}

type RenameResult struct {
	Mode         Mode         `json:"mode"`
	DryRun       bool         `json:"dry_run"`
	FilesVisited int          `json:"files_visited"`
	Changes      []FileChange `json:"changes"`
	FailedFiles  []string     `json:"failed_files,omitempty"`
	Errors       []string     `json:"errors,omitempty"`
}

func (r *RenameResult) addFailure(path string, err error) {
	r.FailedFiles = append(r.FailedFiles, path)
	r.Errors = append(r.Errors, err.Error())
}
