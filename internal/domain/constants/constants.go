// Package constants holds configuration values shared across layers.
package constants

// Pub/Sub providers.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Deployment environments.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)
