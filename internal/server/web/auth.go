package web

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/formkeeper/internal/common"
	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"github.com/dmitrijs2005/formkeeper/internal/server/auth"
	"github.com/dmitrijs2005/formkeeper/internal/server/models"
	"github.com/dmitrijs2005/formkeeper/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// Flash messages of the login flow.
const (
	MsgRegistered     = "Usuario registrado correctamente"
	MsgUserExists     = "El usuario ya existe"
	MsgBadCredentials = "Usuario o contraseña incorrectos"
	MsgLoggedOut      = "Sesión cerrada"
	MsgLoginRequired  = "Debes iniciar sesión"
)

const (
	claimsLocal   = "claims"
	routeLogin    = "/login"
	routeRegister = "/registro"
	routeProfile  = "/profile"
	routeLogout   = "/logout"
)

// UserService is what the login handlers need from services.UserService.
type UserService interface {
	Register(ctx context.Context, userName string, password []byte) (*models.User, error)
	Login(ctx context.Context, userName string, password []byte) (*services.Session, error)
	Authenticate(token string) (*auth.Claims, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

type AuthHandlers struct {
	users   UserService
	pages   *Renderer
	flashes *Flashes
	logger  logging.Logger
}

func NewAuthHandlers(us UserService, pages *Renderer, flashes *Flashes, l logging.Logger) *AuthHandlers {
	return &AuthHandlers{users: us, pages: pages, flashes: flashes, logger: l.With("module", "auth")}
}

func (h *AuthHandlers) Mount(r fiber.Router) {
	r.Get("/", h.index)
	r.Get(routeRegister, h.registerForm)
	r.Post(routeRegister, h.register)
	r.Get(routeLogin, h.loginForm)
	r.Post(routeLogin, h.login)
	r.Get(routeLogout, h.logout)
	r.Get(routeProfile, h.requireSession, h.profile)
}

func (h *AuthHandlers) index(c *fiber.Ctx) error {
	if _, ok := h.sessionClaims(c); ok {
		return c.Redirect(routeProfile, fiber.StatusSeeOther)
	}
	return c.Redirect(routeLogin, fiber.StatusSeeOther)
}

func (h *AuthHandlers) registerForm(c *fiber.Ctx) error {
	return h.renderWithFlashes(c, "registro.html", Page{Title: "Registro"})
}

func (h *AuthHandlers) loginForm(c *fiber.Ctx) error {
	return h.renderWithFlashes(c, "login.html", Page{Title: "Iniciar sesión"})
}

func (h *AuthHandlers) register(c *fiber.Ctx) error {
	password := []byte(c.FormValue("password"))
	defer common.WipeByteArray(password)

	u, err := h.users.Register(c.UserContext(), c.FormValue("username"), password)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return h.flashes.flashRedirect(c, ve.Message, routeRegister)
		case errors.Is(err, common.ErrorAlreadyExists):
			return h.flashes.flashRedirect(c, MsgUserExists, routeRegister)
		}
		return err
	}

	h.logger.Info(c.UserContext(), "user registered", "user_id", u.ID, "request_id", requestID(c))
	return h.flashes.flashRedirect(c, MsgRegistered, routeLogin)
}

func (h *AuthHandlers) login(c *fiber.Ctx) error {
	password := []byte(c.FormValue("password"))
	defer common.WipeByteArray(password)

	sess, err := h.users.Login(c.UserContext(), c.FormValue("username"), password)
	if err != nil {
		var ve *common.ValidationError
		switch {
		case errors.As(err, &ve):
			return h.flashes.flashRedirect(c, ve.Message, routeLogin)
		case errors.Is(err, common.ErrorUnauthorized):
			return h.flashes.flashRedirect(c, MsgBadCredentials, routeLogin)
		}
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.Expires,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	h.logger.Info(c.UserContext(), "user logged in", "user_id", sess.User.ID, "request_id", requestID(c))
	return c.Redirect(routeProfile, fiber.StatusSeeOther)
}

func (h *AuthHandlers) logout(c *fiber.Ctx) error {
	clearSessionCookie(c)
	return h.flashes.flashRedirect(c, MsgLoggedOut, routeLogin)
}

// requireSession lets the request through only with a valid session
// cookie; the claims are left in c.Locals.
func (h *AuthHandlers) requireSession(c *fiber.Ctx) error {
	claims, ok := h.sessionClaims(c)
	if !ok {
		clearSessionCookie(c)
		return h.flashes.flashRedirect(c, MsgLoginRequired, routeLogin)
	}
	c.Locals(claimsLocal, claims)
	return c.Next()
}

func (h *AuthHandlers) profile(c *fiber.Ctx) error {
	claims := c.Locals(claimsLocal).(*auth.Claims)

	u, err := h.users.Profile(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			clearSessionCookie(c)
			return h.flashes.flashRedirect(c, MsgLoginRequired, routeLogin)
		}
		return err
	}

	return h.renderWithFlashes(c, "profile.html", Page{Title: "Perfil", User: u})
}

func (h *AuthHandlers) sessionClaims(c *fiber.Ctx) (*auth.Claims, bool) {
	token := c.Cookies(common.SessionCookieName)
	if token == "" {
		return nil, false
	}
	claims, err := h.users.Authenticate(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

func (h *AuthHandlers) renderWithFlashes(c *fiber.Ctx, page string, data Page) error {
	msgs, err := h.flashes.Pop(c)
	if err != nil {
		return err
	}
	data.Flashes = msgs
	return h.pages.Render(c, fiber.StatusOK, page, data)
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
