package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/filex"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

// JSONRepository keeps all submissions in a single JSON array that is
// rewritten on every save.
type JSONRepository struct {
	path string
	mu   sync.Mutex
}

func NewJSONRepository(path string) *JSONRepository {
	return &JSONRepository{path: path}
}

func (r *JSONRepository) Save(ctx context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.load()
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	items = append(items, *s)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", r.path, err)
	}
	return filex.WriteFileAtomic(r.path, append(data, '\n'), filePerm)
}

func (r *JSONRepository) List(ctx context.Context) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

func (r *JSONRepository) load() ([]models.Submission, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	items := make([]models.Submission, 0)
	if len(bytes.TrimSpace(data)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrorCorrupted, r.path, err)
	}
	if items == nil {
		// a literal null
		items = make([]models.Submission, 0)
	}
	return items, nil
}
