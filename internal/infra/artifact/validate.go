package artifact

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePath rejects contract_file values that point outside plausible
// contract locations. Engine processes run with the server's privileges, so
// caller-supplied paths get the same treatment as any untrusted input.
func ValidatePath(path string) error {
	cleaned := filepath.Clean(path)

	// Block path traversal attempts
	if strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal detected")
	}

	// Block sensitive system directories
	blocked := []string{"/etc", "/proc", "/sys", "/dev", "/root", "/boot"}
	for _, b := range blocked {
		if cleaned == b || strings.HasPrefix(cleaned, b+"/") {
			return fmt.Errorf("access to %s is not allowed", b)
		}
	}

	// Block shell metacharacters and control characters
	dangerous := []string{"$(", "`", "&", "|", ";", "\n", "\r", "\x00"}
	for _, d := range dangerous {
		if strings.Contains(path, d) {
			return fmt.Errorf("invalid characters in path")
		}
	}

	return nil
}
