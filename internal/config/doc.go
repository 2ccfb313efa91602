// Package config handles configuration loading, saving, and schema definition.
package config

// Config is the top-level flymate configuration.
// Uses json tags in camelCase to match the JSON config file format.
type Config struct {
	Server ServerConfig `json:"server"`
	Chat   ChatConfig   `json:"chat"`
	Cache  CacheConfig  `json:"cache"`
}

// ServerConfig holds backend connection settings.
type ServerConfig struct {
	APIURL    string `json:"apiUrl,omitempty"`    // REST base, e.g. http://localhost:5000/api
	SocketURL string `json:"socketUrl,omitempty"` // persistent channel, e.g. ws://localhost:5000/ws
	Token     string `json:"token,omitempty"`     // bearer credential from login
	UserID    string `json:"userId,omitempty"`
}

// ChatConfig holds conversation settings.
type ChatConfig struct {
	HistoryLimit int `json:"historyLimit,omitempty"` // messages fetched on session open
}

// CacheConfig holds optional Redis cache settings.
type CacheConfig struct {
	RedisURL      string `json:"redisUrl,omitempty"`
	RedisPassword string `json:"redisPassword,omitempty"`
	RedisDB       int    `json:"redisDb,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			APIURL:    "http://localhost:5000/api",
			SocketURL: "ws://localhost:5000/ws",
		},
		Chat: ChatConfig{
			HistoryLimit: 20,
		},
	}
}
