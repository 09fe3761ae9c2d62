package web

import (
	"context"

	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/dmitrijs2005/formkeeper/internal/server/repositories/submissions"
	"github.com/dmitrijs2005/formkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// FormService is what the form handlers need from services.FormService.
type FormService interface {
	Backends() []string
	Save(ctx context.Context, backend, name, email string) (*models.Submission, error)
	List(ctx context.Context, backend string) ([]models.Submission, error)
}

type submissionInput struct {
	Name  string `json:"nombre" form:"nombre"`
	Email string `json:"email" form:"email"`
}

var savedMessages = map[string]string{
	services.BackendText: "Datos guardados en " + submissions.TextFileName,
	services.BackendJSON: "Datos guardados en " + submissions.JSONFileName,
	services.BackendCSV:  "Datos guardados en " + submissions.CSVFileName,
	services.BackendDB:   "Datos guardados en la base de datos",
	services.BackendS3:   "Datos guardados en S3",
}

type FormHandlers struct {
	forms FormService
	pages *Renderer
}

func NewFormHandlers(fs FormService, pages *Renderer) *FormHandlers {
	return &FormHandlers{forms: fs, pages: pages}
}

// Mount registers /formulario plus one /guardar_<b> and /leer_<b> pair
// for each configured backend.
func (h *FormHandlers) Mount(r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/formulario", fiber.StatusSeeOther)
	})
	r.Get("/formulario", h.form)

	for _, b := range h.forms.Backends() {
		r.Post("/guardar_"+b, h.save(b))
		r.Get("/leer_"+b, h.list(b))
	}
}

func (h *FormHandlers) form(c *fiber.Ctx) error {
	return h.pages.Render(c, fiber.StatusOK, "formulario.html", Page{
		Title:    "Formulario",
		Backends: h.forms.Backends(),
	})
}

func (h *FormHandlers) save(backend string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in submissionInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Solicitud inválida")
		}

		sub, err := h.forms.Save(c.UserContext(), backend, in.Name, in.Email)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"mensaje": savedMessages[backend],
			"id":      sub.ID,
		})
	}
}

func (h *FormHandlers) list(backend string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := h.forms.List(c.UserContext(), backend)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"datos": items})
	}
}
