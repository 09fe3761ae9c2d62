package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	flashCookieName = "flash_id"
	flashKey        = "flashes"
)

// Flashes keeps one-shot messages in a server-side fiber session keyed by
// a separate cookie. Pop returns the pending messages and forgets them.
type Flashes struct {
	store *session.Store
}

func NewFlashes() *Flashes {
	store := session.New(session.Config{
		KeyLookup:      "cookie:" + flashCookieName,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})
	store.RegisterType([]string{})
	return &Flashes{store: store}
}

func (f *Flashes) Add(c *fiber.Ctx, msg string) error {
	sess, err := f.store.Get(c)
	if err != nil {
		return err
	}
	msgs, _ := sess.Get(flashKey).([]string)
	sess.Set(flashKey, append(msgs, msg))
	return sess.Save()
}

func (f *Flashes) Pop(c *fiber.Ctx) ([]string, error) {
	sess, err := f.store.Get(c)
	if err != nil {
		return nil, err
	}
	msgs, _ := sess.Get(flashKey).([]string)
	if len(msgs) == 0 {
		return nil, nil
	}
	sess.Delete(flashKey)
	return msgs, sess.Save()
}

// flashRedirect stores msg and answers with a 303 to location.
func (f *Flashes) flashRedirect(c *fiber.Ctx, msg, location string) error {
	if err := f.Add(c, msg); err != nil {
		return err
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}
