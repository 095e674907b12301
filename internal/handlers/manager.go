package handlers

import (
	"github.com/mroshb/friendly/internal/config"
	"github.com/mroshb/friendly/internal/middleware"
	"github.com/mroshb/friendly/internal/repositories"
	"github.com/mroshb/friendly/internal/services"
)

type HandlerManager struct {
	Config    *config.Config
	People    *repositories.PersonRepository
	FriendSvc *services.FriendService
	Limiter   *middleware.RateLimiter
}

func NewHandlerManager(
	cfg *config.Config,
	people *repositories.PersonRepository,
	friendSvc *services.FriendService,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:    cfg,
		People:    people,
		FriendSvc: friendSvc,
		Limiter:   limiter,
	}
}
