package submissions

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

// TextRepository appends one tab-separated line per submission:
//
//	id<TAB>nombre<TAB>email<TAB>creado(RFC 3339)
//
// Names and emails never contain control characters (the form validation
// rejects them), so a tab cannot appear inside a field.
type TextRepository struct {
	path string
	mu   sync.Mutex
}

func NewTextRepository(path string) *TextRepository {
	return &TextRepository{path: path}
}

func (r *TextRepository) Save(ctx context.Context, s *models.Submission) error {
	line := strings.Join([]string{s.ID, s.Name, s.Email, s.CreatedAt.UTC().Format(time.RFC3339Nano)}, "\t") + "\n"

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s: %w", r.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", r.path, err)
	}
	return nil
}

func (r *TextRepository) List(ctx context.Context) ([]models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	defer f.Close()

	result := make([]models.Submission, 0)
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s, err := parseTextLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", common.ErrorCorrupted, r.path, n, err)
		}
		result = append(result, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}

	return result, nil
}

func parseTextLine(line string) (models.Submission, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return models.Submission{}, fmt.Errorf("want 4 fields, got %d", len(fields))
	}
	created, err := time.Parse(time.RFC3339Nano, fields[3])
	if err != nil {
		return models.Submission{}, err
	}
	return models.Submission{ID: fields[0], Name: fields[1], Email: fields[2], CreatedAt: created}, nil
}
