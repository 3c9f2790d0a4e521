package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment overrides. Values in the process environment win over
// every file scope; ~/.skillset/.env is sourced first so machine-local
// settings can live outside the config files.
const (
	EnvMode     = "SKILLSET_MODE"
	EnvSigil    = "SKILLSET_SIGIL"
	EnvCacheTTL = "SKILLSET_CACHE_TTL"
)

func applyEnv(eff *Effective) error {
	if dir, err := UserDir(); err == nil {
		// Absent dotenv file is the common case, not an error.
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	if v := os.Getenv(EnvMode); v != "" {
		if v != ModeWarn && v != ModeStrict {
			return fmt.Errorf("%w: %s=%q (want warn or strict)", ErrInvalid, EnvMode, v)
		}
		eff.Mode = v
	}
	if v := os.Getenv(EnvSigil); v != "" {
		eff.Sigil = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("%w: %s=%q (want positive seconds)", ErrInvalid, EnvCacheTTL, v)
		}
		eff.CacheTTL = time.Duration(secs) * time.Second
	}
	return nil
}
