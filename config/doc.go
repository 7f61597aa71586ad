// Package config loads varconv configuration.
//
// Values are layered in this order, later layers winning:
//
//  1. built-in defaults (ApplyDefaults on the target struct)
//  2. a YAML/JSON/TOML file (explicit --conf path or the first found of
//     ./varconv.yml, ./config/varconv.yml, ./config.yml)
//  3. a .env file (explicit or ./.env)
//  4. VARCONV_* environment variables, e.g. VARCONV_PIPELINE_PARALLELISM
//
// Command-line flags are applied by the caller after LoadConfig returns.
package config
