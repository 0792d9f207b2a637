// Package config loads typed configuration structs from environment
// variables. Fields are declared with `env` struct tags (caarlos0/env
// syntax) and a `.env` file is loaded once, best-effort, before the first
// parse so local development needs no exported shell variables.
package config
