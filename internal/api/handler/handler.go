// Package handler wires the HTTP surface: session exchange, complaint
// lifecycle endpoints, the gamification read APIs and the live feed upgrade.
package handler

import (
	"civicpulse/backend/internal/complaints"
	"civicpulse/backend/internal/config"
	"civicpulse/backend/internal/feedhub"
	"civicpulse/backend/internal/storage"
)

// Handler carries the dependencies the endpoints need.
type Handler struct {
	Cfg        *config.Config
	Storage    storage.Storage
	Complaints *complaints.Service
	Hub        *feedhub.ManagerService
}

func NewHandler(cfg *config.Config, s storage.Storage, svc *complaints.Service, hub *feedhub.ManagerService) *Handler {
	return &Handler{Cfg: cfg, Storage: s, Complaints: svc, Hub: hub}
}
