// Package handler implements the REST surface of the Hoff API.
package handler

import (
	"log/slog"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
	redisstore "github.com/Alex2744-cyber/Hoff-AppV2/internal/redis"
)

// Handler carries the dependencies shared by every endpoint.
type Handler struct {
	tasks     postgres.TaskRepository
	users     postgres.UserRepository
	clients   postgres.ClientRepository
	addresses postgres.AddressRepository
	cache     redisstore.TaskCache
	limiter   redisstore.RateLimiter
	producer  kafka.Producer
	jwtSecret string
	logger    *slog.Logger
}

// Deps bundles the constructor arguments for New.
type Deps struct {
	Tasks     postgres.TaskRepository
	Users     postgres.UserRepository
	Clients   postgres.ClientRepository
	Addresses postgres.AddressRepository
	Cache     redisstore.TaskCache
	Limiter   redisstore.RateLimiter
	Producer  kafka.Producer
	JWTSecret string
	Logger    *slog.Logger
}

// New creates a Handler.
func New(d Deps) *Handler {
	return &Handler{
		tasks:     d.Tasks,
		users:     d.Users,
		clients:   d.Clients,
		addresses: d.Addresses,
		cache:     d.Cache,
		limiter:   d.Limiter,
		producer:  d.Producer,
		jwtSecret: d.JWTSecret,
		logger:    d.Logger,
	}
}
