// Package submissions holds the independent stores a form submission can be
// written to: a text file, a JSON file, a CSV file, SQLite and S3.
//
// Every store has the same contract. Save appends one record; List returns
// all records in insertion order. Flat-file stores report a missing file as
// common.ErrorNotFound and unparsable content as common.ErrorCorrupted.
package submissions

import (
	"context"

	"github.com/dmitrijs2005/formkeeper/internal/server/models"
)

type Repository interface {
	Save(ctx context.Context, s *models.Submission) error
	List(ctx context.Context) ([]models.Submission, error)
}

// File names inside the data directory.
const (
	TextFileName = "datos.txt"
	JSONFileName = "datos.json"
	CSVFileName  = "datos.csv"
)

const filePerm = 0o640
