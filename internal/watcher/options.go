package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures which files the watcher reports and how long they
// must stop changing first.
type Options struct {
	// Patterns restricts events to matching file names (default *.json)
	Patterns []string
	// IgnorePatterns drops matching file names even when a pattern matches
	IgnorePatterns []string
	// SettleDelay is how long a file must stay unchanged before its event fires
	SettleDelay time.Duration
	// IgnoreHidden drops dotfiles and anything under a dot directory
	IgnoreHidden bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 500 * time.Millisecond
	}

	if o.Patterns == nil {
		o.Patterns = []string{"*.json"}
	}

	// Set default ignore patterns if none specified (nil, not just empty).
	if o.IgnorePatterns == nil {
		// Grouped output lands next to the dumps it was built from;
		// watching it back would rerun the pipeline forever.
		o.IgnorePatterns = []string{
			"*_grouped.json",
			"*.tmp",
			"*.temp",
		}
		// Also default to ignoring hidden files when no custom config provided.
		o.IgnoreHidden = true
	}
}

// matches reports whether a path is a dump file worth watching.
func (o *Options) matches(path string) bool {
	if o.IgnoreHidden {
		parts := strings.Split(filepath.Clean(path), string(filepath.Separator))
		for _, part := range parts {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return false
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return false
		}
	}

	for _, pattern := range o.Patterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
