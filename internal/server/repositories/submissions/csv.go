package submissions

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

var csvHeader = []string{"id", "nombre", "email", "creado"}

// CSVRepository appends one row per submission under a fixed header.
type CSVRepository struct {
	path string
	mu   sync.Mutex
}

func NewCSVRepository(path string) *CSVRepository {
	return &CSVRepository{path: path}
}

func (r *CSVRepository) Save(ctx context.Context, s *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", r.path, err)
	}

	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write header to %s: %w", r.path, err)
		}
	}
	if err := w.Write([]string{s.ID, s.Name, s.Email, s.CreatedAt.UTC().Format(time.RFC3339Nano)}); err != nil {
		return fmt.Errorf("failed to append to %s: %w", r.path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", r.path, err)
	}
	return nil
}

func (r *CSVRepository) List(ctx context.Context) ([]models.Submission, error) {
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

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = len(csvHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrorCorrupted, r.path, err)
	}
	if !slices.Equal(header, csvHeader) {
		return nil, fmt.Errorf("%w: %s: unexpected header %v", common.ErrorCorrupted, r.path, header)
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrorCorrupted, r.path, err)
		}
		created, err := time.Parse(time.RFC3339Nano, rec[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrorCorrupted, r.path, err)
		}
		result = append(result, models.Submission{ID: rec[0], Name: rec[1], Email: rec[2], CreatedAt: created})
	}

	return result, nil
}
