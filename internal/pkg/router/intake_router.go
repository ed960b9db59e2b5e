package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/EventSite/app/controllers"
	"github.com/ManuelReschke/EventSite/internal/pkg/constants"
	"github.com/ManuelReschke/EventSite/internal/pkg/intake"
)

type IntakeRouter struct {
	contact *intake.Pipeline
	quote   *intake.Pipeline
}

func NewIntakeRouter(contact, quote *intake.Pipeline) *IntakeRouter {
	return &IntakeRouter{contact: contact, quote: quote}
}

// InstallRouter uses All so that every method reaches the pipeline, which
// answers anything but POST with 405.
func (r IntakeRouter) InstallRouter(app *fiber.App) {
	app.All(constants.ContactRoute, r.contact.Handle)
	app.All(constants.QuoteRoute, r.quote.Handle)
}

type HealthRouter struct {
	health *controllers.HealthController
}

func NewHealthRouter(health *controllers.HealthController) *HealthRouter {
	return &HealthRouter{health: health}
}

func (r HealthRouter) InstallRouter(app *fiber.App) {
	app.Get(constants.HealthRoute, r.health.HandleHealth)
}
