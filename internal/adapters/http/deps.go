package http

import (
	natsadapter "github.com/samirrijal/horizonmask/internal/adapters/nats"
	"github.com/samirrijal/horizonmask/internal/adapters/postgres"
	"github.com/samirrijal/horizonmask/internal/adapters/render"
	"github.com/samirrijal/horizonmask/internal/adapters/valkey"
	"github.com/samirrijal/horizonmask/internal/core/editor"
	"github.com/samirrijal/horizonmask/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Horizon  *usecases.HorizonService
	Models   *usecases.ModelService
	Status   *usecases.StatusService
	Renderer *render.Renderer
	Hub      *Hub
	Editor   editor.Config
	NATS     *natsadapter.Publisher
	DB       *postgres.DB
	Cache    *valkey.Cache
}
