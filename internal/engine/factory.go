package engine

import (
	"nifty-options-engine/internal/interfaces"
	"nifty-options-engine/internal/store"
)

func New(cfg *store.Config) (interfaces.Engine, error) {
	return newEngine(cfg)
}
