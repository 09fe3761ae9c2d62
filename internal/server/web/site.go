package web

import "github.com/gofiber/fiber/v2"

var siteNav = []Link{
	{Href: "/", Label: "Inicio"},
	{Href: "/about", Label: "Acerca de"},
}

// MountSite serves the two-page templated site.
func MountSite(r fiber.Router, pages *Renderer) {
	r.Get("/", func(c *fiber.Ctx) error {
		return pages.Render(c, fiber.StatusOK, "index.html", Page{Title: "Inicio", Nav: siteNav})
	})
	r.Get("/about", func(c *fiber.Ctx) error {
		return pages.Render(c, fiber.StatusOK, "about.html", Page{Title: "Acerca de", Nav: siteNav})
	})
}
