// Package config loads Heimdall's engine tunables and service settings from
// the environment, in the style of the ASGARD platform's own db.LoadConfig.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/PossumXI/Asgard/Heimdall/internal/engine"
)

// Service holds everything outside the engine's own construction knobs:
// where Heimdall listens and which backing services it talks to.
type Service struct {
	HTTPAddr   string
	NATSURL    string
	MongoURI   string
	JWTSecret  string
	AllowNoDB  bool
}

// Load reads EngineConfig and Service settings from the environment. Missing
// numeric knobs fall back to engine.DefaultConfig()'s values; a present but
// unparsable value is an error rather than a silent fallback.
func Load() (engine.Config, Service, error) {
	cfg := engine.DefaultConfig()

	var err error
	if cfg.BaseSafetyBuffer, err = getFloat("HEIMDALL_BASE_SAFETY_BUFFER", cfg.BaseSafetyBuffer); err != nil {
		return cfg, Service{}, err
	}
	if cfg.ReactionTime, err = getFloat("HEIMDALL_REACTION_TIME", cfg.ReactionTime); err != nil {
		return cfg, Service{}, err
	}
	if cfg.MaxAccel, err = getFloat("HEIMDALL_MAX_ACCEL", cfg.MaxAccel); err != nil {
		return cfg, Service{}, err
	}
	if cfg.GPSUncertainty, err = getFloat("HEIMDALL_GPS_UNCERTAINTY", cfg.GPSUncertainty); err != nil {
		return cfg, Service{}, err
	}
	if cfg.CoarseBuffer, err = getFloat("HEIMDALL_COARSE_BUFFER", cfg.CoarseBuffer); err != nil {
		return cfg, Service{}, err
	}
	if cfg.CoarseStep, err = getFloat("HEIMDALL_COARSE_STEP", cfg.CoarseStep); err != nil {
		return cfg, Service{}, err
	}
	if cfg.GridCellSize, err = getFloat("HEIMDALL_GRID_CELL_SIZE", cfg.GridCellSize); err != nil {
		return cfg, Service{}, err
	}
	if cfg.GridTimeStep, err = getFloat("HEIMDALL_GRID_TIME_STEP", cfg.GridTimeStep); err != nil {
		return cfg, Service{}, err
	}
	if cfg.VRef, err = getFloat("HEIMDALL_V_REF", cfg.VRef); err != nil {
		return cfg, Service{}, err
	}
	if cfg.DRef, err = getFloat("HEIMDALL_D_REF", cfg.DRef); err != nil {
		return cfg, Service{}, err
	}
	if cfg.TTCRef, err = getFloat("HEIMDALL_TTC_REF", cfg.TTCRef); err != nil {
		return cfg, Service{}, err
	}

	svc := Service{
		HTTPAddr:  getEnv("HEIMDALL_HTTP_ADDR", ":8090"),
		NATSURL:   getEnv("NATS_URL", "nats://localhost:4222"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		JWTSecret: getEnv("HEIMDALL_JWT_SECRET", ""),
		AllowNoDB: getEnv("HEIMDALL_ALLOW_NO_DB", "false") == "true",
	}

	return cfg, svc, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not a number: %w", key, raw, err)
	}
	return v, nil
}
