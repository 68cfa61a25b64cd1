package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	domain "github.com/solsentry/solsentry/internal/domain/analysis"
)

// Manager materializes contract sources into filesystem paths that external
// engines can read. Inline sources become uniquely named temporary .sol
// files; caller-supplied paths are validated and passed through unchanged.
type Manager struct {
	dir string
}

func NewManager() *Manager {
	return &Manager{dir: os.TempDir()}
}

// Materialize resolves a contract source to a path. The returned cleanup
// removes the temporary file when the source was inline; for existing files
// it is a no-op since the file is not owned by this component. When both
// inputs are set, inline source wins.
func (m *Manager) Materialize(code, file string) (string, func(), error) {
	if code != "" {
		path := filepath.Join(m.dir, fmt.Sprintf("contract-%s.sol", uuid.New().String()))
		if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
			return "", nil, fmt.Errorf("write contract source: %w", err)
		}
		return path, func() { os.Remove(path) }, nil
	}
	if file != "" {
		if err := ValidatePath(file); err != nil {
			return "", nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		if _, err := os.Stat(file); err != nil {
			return "", nil, fmt.Errorf("%w: contract file not found: %s", domain.ErrValidation, file)
		}
		return file, func() {}, nil
	}
	return "", nil, fmt.Errorf("%w: either contract_code or contract_file must be provided", domain.ErrValidation)
}
