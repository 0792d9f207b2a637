package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilTarget is returned when Load is called with a nil pointer.
	ErrNilTarget = errors.New("config: target must be a non-nil pointer")

	dotenvOnce sync.Once
)

// Load populates cfg from environment variables according to its `env`
// struct tags. The default .env file is loaded once per process; a missing
// file is not an error.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilTarget
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: failed to parse %T: %w", *cfg, err)
	}
	return nil
}

// MustLoad is Load that panics on error, for use during startup where a
// missing required variable should prevent the service from running.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
