package cmd

import (
	"github.com/flymate/flymate-go/internal/api"
	"github.com/flymate/flymate-go/internal/cache"
	"github.com/flymate/flymate-go/internal/config"
	"github.com/flymate/flymate-go/internal/transport"
)

// buildClients constructs the backend collaborators from the loaded
// config: REST client, optional Redis cache, and the transport manager.
func buildClients(cfg config.Config) (*api.Client, *cache.Cache, *transport.Manager) {
	client := api.NewClient(cfg.Server.APIURL, cfg.Server.Token)
	c := cache.Open(cache.Config{
		URL:      cfg.Cache.RedisURL,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	tm := transport.New(transport.Config{
		SocketURL: cfg.Server.SocketURL,
		UserID:    cfg.Server.UserID,
		Fallback:  client,
	})
	return client, c, tm
}
