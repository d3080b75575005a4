package memory

import (
	"time"

	"telemed-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// AuthorizationCache keeps recently resolved appointments in memory so
// join/send/history authorization stays off the database on hot paths.
// Short TTL: a cancellation or reassignment becomes visible within it.
type AuthorizationCache struct {
	cache *cache.Cache
}

func NewAuthorizationCache(ttl time.Duration) *AuthorizationCache {
	return &AuthorizationCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *AuthorizationCache) Get(appointmentId uuid.UUID) (*entity.Appointment, bool) {
	if x, found := c.cache.Get(appointmentId.String()); found {
		return x.(*entity.Appointment), true
	}
	return nil, false
}

func (c *AuthorizationCache) Set(appointment *entity.Appointment) {
	c.cache.Set(appointment.Id.String(), appointment, cache.DefaultExpiration)
}

func (c *AuthorizationCache) Invalidate(appointmentId uuid.UUID) {
	c.cache.Delete(appointmentId.String())
}
