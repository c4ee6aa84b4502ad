package types

import (
	"github.com/killallgit/wavepng/internal/database"
	"github.com/killallgit/wavepng/internal/services/cache"
	"github.com/killallgit/wavepng/internal/services/envelopes"
	"github.com/killallgit/wavepng/internal/services/render"
	"github.com/killallgit/wavepng/pkg/config"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB        *database.DB
	Envelopes envelopes.EnvelopeService
	Renderer  *render.Service
	Responses cache.Cache
	Config    *config.Config
	Version   string
}
