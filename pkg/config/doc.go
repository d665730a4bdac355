// Package config provides configuration management for the onboarding
// service.
//
// Configuration is read from a YAML file, decoded on top of Default, has
// remaining zero values filled by ApplyDefaults, is overridden from the
// environment and is finally checked by Validate.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("getgsa.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("getgsa.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention GETGSA_SECTION_FIELD:
//
//   - GETGSA_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - GETGSA_STORAGE_BACKEND overrides storage.backend
//   - GETGSA_ASSISTANT_PROVIDER_API_KEY overrides assistant.provider.api_key
//
// The plain names SECRET_KEY, OPENAI_API_KEY, DATABASE_URL and LOG_LEVEL
// are also read. DATABASE_URL switches the store to postgres.
//
// # Validation
//
// Validate collects every problem into a ValidationError of FieldErrors
// keyed by dotted YAML path, for example "storage.dsn".
//
// # Singleton
//
// The command entry points call Initialize once and read GetConfig. Library
// packages receive the sections they need as arguments.
package config
