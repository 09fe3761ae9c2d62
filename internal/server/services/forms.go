package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/submissions"
	"github.com/google/uuid"
)

// Backend names as they appear in the /guardar_* and /leer_* routes.
const (
	BackendText = "txt"
	BackendJSON = "json"
	BackendCSV  = "csv"
	BackendDB   = "db"
	BackendS3   = "s3"
)

var backendOrder = []string{BackendText, BackendJSON, BackendCSV, BackendDB, BackendS3}

const (
	maxNameLen  = 100
	maxEmailLen = 120
)

// FormService validates name/email submissions and writes each one to a
// single named backend. Backends are independent; nothing is copied
// between them.
type FormService struct {
	stores map[string]submissions.Repository
	now    func() time.Time
	newID  func() string
}

func NewFormService(stores map[string]submissions.Repository) *FormService {
	return &FormService{
		stores: stores,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Backends lists the configured backend names in a stable order.
func (s *FormService) Backends() []string {
	var out []string
	for _, name := range backendOrder {
		if _, ok := s.stores[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Save validates the input and performs one write against the backend.
// Invalid input yields a *common.ValidationError and nothing is written.
func (s *FormService) Save(ctx context.Context, backend, name, email string) (*models.Submission, error) {
	repo, err := s.store(backend)
	if err != nil {
		return nil, err
	}

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if err := validateSubmission(name, email); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:        s.newID(),
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	}
	if err := repo.Save(ctx, sub); err != nil {
		return nil, fmt.Errorf("error saving to %s: %w", backend, err)
	}
	return sub, nil
}

// List returns every record stored in the backend, oldest first.
func (s *FormService) List(ctx context.Context, backend string) ([]models.Submission, error) {
	repo, err := s.store(backend)
	if err != nil {
		return nil, err
	}

	items, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", backend, err)
	}
	return items, nil
}

func (s *FormService) store(backend string) (submissions.Repository, error) {
	repo, ok := s.stores[backend]
	if !ok {
		return nil, fmt.Errorf("%w: backend %q", common.ErrorNotFound, backend)
	}
	return repo, nil
}

func hasControl(v string) bool {
	return strings.IndexFunc(v, unicode.IsControl) >= 0
}

func validateSubmission(name, email string) error {
	switch {
	case name == "" || email == "":
		return common.NewValidationError("Nombre y email son obligatorios")
	case !utf8.ValidString(name) || !utf8.ValidString(email):
		return common.NewValidationError("Los datos deben estar codificados en UTF-8")
	case hasControl(name) || hasControl(email):
		return common.NewValidationError("Los datos contienen caracteres no permitidos")
	case utf8.RuneCountInString(name) > maxNameLen:
		return common.NewValidationError(fmt.Sprintf("El nombre no puede superar %d caracteres", maxNameLen))
	case utf8.RuneCountInString(email) > maxEmailLen:
		return common.NewValidationError(fmt.Sprintf("El email no puede superar %d caracteres", maxEmailLen))
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t") {
		return common.NewValidationError("El email no es válido")
	}
	return nil
}
