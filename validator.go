package renamer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrTargetExists   = errors.New("target already exists")
	ErrNotText        = errors.New("file is not valid UTF-8 text")

	ErrInvalidReplacement = errors.New("replacement does not yield a file name in the same directory")
)

type Validator interface {
	ValidateRequest(req RenameRequest, mode Mode) error
	CompilePattern(pattern string) (*regexp.Regexp, error)
}

type DefaultValidator struct{}

func NewDefaultValidator() *DefaultValidator {
	return &DefaultValidator{}
}

func (v *DefaultValidator) ValidateRequest(req RenameRequest, mode Mode) error {
	if err := v.ValidatePath(req.Root); err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	if req.Pattern == "" {
		return fmt.Errorf("%w: pattern cannot be empty", ErrInvalidPattern)
	}

	switch mode {
	case ModeFiles:
		if strings.ContainsAny(req.Replacement, `/`+string(filepath.Separator)) {
			return fmt.Errorf("%w: %q contains a path separator", ErrInvalidReplacement, req.Replacement)
		}
		return nil
	case ModeStrings:
		_, err := v.CompilePattern(req.Pattern)
		return err
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}

func (v *DefaultValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}

	return nil
}

func (v *DefaultValidator) CompilePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}
	return re, nil
}

func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch config.CollisionPolicy {
	case CollisionFail, CollisionOverwrite:
	default:
		return fmt.Errorf("collision_policy must be %q or %q, got %q", CollisionFail, CollisionOverwrite, config.CollisionPolicy)
	}

	switch config.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log_format must be %q or %q, got %q", LogFormatText, LogFormatJSON, config.LogFormat)
	}

	for _, pattern := range config.ExcludePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid exclude_patterns glob %q: %w", pattern, err)
		}
	}

	return nil
}
