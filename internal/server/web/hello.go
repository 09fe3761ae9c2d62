package web

import "github.com/gofiber/fiber/v2"

const HelloMessage = "¡Hola, mundo! Esta es mi primera aplicación con Flask."

func MountHello(r fiber.Router) {
	r.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(HelloMessage)
	})
}
