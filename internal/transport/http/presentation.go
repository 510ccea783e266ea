package httptransport

import (
	"net/http"
	"strings"

	"pestbook/backend/internal/domain"
)

const (
	brand    = "Plank Termite & Pest Control LLC"
	greeting = "Thank you for choosing Plank Termite & Pest Control. We are a locally family-owned team serving South Central Missouri. Honest pricing, reliable service, guaranteed results."
)

type option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var planOptions = []option{
	{"initial", "Initial Service"},
	{"monthly", "Monthly"},
	{"bi-monthly", "Bi-Monthly (every 2 months)"},
	{"quarterly", "Quarterly"},
	{"tri-annual", "Tri-Annual"},
	{"bi-annual", "Bi-Annual"},
	{"one-time", "One-Time"},
}

var serviceOptions = []option{
	{"general", "General"},
	{"ants", "Ants"},
	{"carpenter-ants", "Carpenter Ants"},
	{"spiders", "Spiders (incl. Brown Recluse options)"},
	{"roaches", "Roaches (German/American/Oriental)"},
	{"fleas-ticks", "Fleas & Ticks"},
	{"mosquitoes", "Mosquitoes"},
	{"stinging", "Wasps / Hornets / Yellow Jackets"},
	{"stink-bugs", "Stink Bugs"},
	{"carpenter-bees", "Carpenter Bees"},
	{"silverfish", "Silverfish / Firebrats"},
	{"pantry-pests", "Pantry Pests (Moths/Beetles/Weevils)"},
	{"mice-rats", "Mice / Rats (Interior & Exterior)"},
	{"bed-bugs", "Bed Bugs (Inspection & Treatment)"},
	{"termite-inspection", "Termite Inspection"},
	{"termite-liquid", "Termite Liquid Trench & Treat"},
	{"termite-bait", "Termite Bait Station Program"},
	{"wdo-letter", "Real-Estate WDO / Termite Letter"},
	{"bats", "Bats (Inspection / Exclusion)"},
	{"raccoon", "Raccoon"},
	{"opossum", "Opossum"},
	{"skunk", "Skunk"},
	{"squirrel", "Squirrel"},
	{"snake", "Snake"},
	{"bird", "Bird (Nesting / Exclusion)"},
	{"vole-gopher", "Vole / Gopher Yard Program"},
}

type presentationResponse struct {
	OK         bool     `json:"ok"`
	Brand      string   `json:"brand"`
	Greeting   string   `json:"greeting"`
	Plans      []option `json:"plans"`
	Services   []option `json:"services"`
	Slots      []string `json:"slots"`
	ClosedDays []string `json:"closedDays"`
}

// presentationHandler serves the booking form options. Nothing here is
// enforced when booking.
func presentationHandler(catalog *domain.SlotCatalog) http.HandlerFunc {
	closed := catalog.ClosedDays()
	days := make([]string, 0, len(closed))
	for _, d := range closed {
		days = append(days, strings.ToLower(d.String()))
	}
	resp := presentationResponse{
		OK:         true,
		Brand:      brand,
		Greeting:   greeting,
		Plans:      planOptions,
		Services:   serviceOptions,
		Slots:      catalog.BaseSlots(),
		ClosedDays: days,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, resp)
	}
}
