package generation

import (
	"fmt"

	"draftsmith/internal/domain"
	"draftsmith/internal/domain/services"
)

// ClientRegistry selects a generation client by model name. Clients are
// registered at startup; the registry is read-only afterwards.
type ClientRegistry struct {
	clients []services.GenerationClient
}

// NewClientRegistry creates a registry over the given clients, in priority
// order.
func NewClientRegistry(clients ...services.GenerationClient) *ClientRegistry {
	return &ClientRegistry{clients: clients}
}

// ForModel returns the first client that supports the model.
func (r *ClientRegistry) ForModel(model string) (services.GenerationClient, error) {
	for _, client := range r.clients {
		if client.SupportsModel(model) {
			return client, nil
		}
	}
	return nil, &domain.ValidationError{
		Message: fmt.Sprintf("no generation backend supports model '%s'", model),
	}
}

// Clients returns all registered clients.
func (r *ClientRegistry) Clients() []services.GenerationClient {
	return r.clients
}
