package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/rs/zerolog"
	"github.com/subosito/gotenv"
	"github/helmwallet/wallet-engine/internal/util"
)

// Engine is the top-level configuration of the wallet engine, read once from
// the environment and treated as immutable afterwards.
type Engine struct {
	Keystore     Keystore
	Registry     Registry
	Net          Net
	AutoLock     AutoLock
	AddressCache AddressCache
	Swap         Swap
	Logger       Logger
}

type Keystore struct {
	Dir      string
	InMemory bool
}

type Registry struct {
	Path           string
	DefaultChainID string
}

type Net struct {
	AttemptTimeout time.Duration
}

type AutoLock struct {
	Minutes      int
	PollInterval time.Duration
}

type AddressCache struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Swap struct {
	MaxHops         int
	RefreshAttempts int
	RefreshInterval time.Duration
}

type Logger struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

var (
	config     Engine
	configOnce sync.Once
)

// DefaultEngineConfigFromEnv returns the engine configuration parsed from the
// environment, loading a local .env file beforehand if one exists. The
// configuration is only assembled once per process.
func DefaultEngineConfigFromEnv() Engine {
	configOnce.Do(func() {
		if envFile := util.GetEnv("ENGINE_ENV_FILE", ""); envFile != "" {
			gotenv.Must(gotenv.OverLoad, envFile)
		} else {
			_ = gotenv.Load()
		}

		config = engineConfigFromEnv()
	})

	return config
}

func engineConfigFromEnv() Engine {
	return Engine{
		Keystore: Keystore{
			Dir:      util.GetEnv("ENGINE_KEYSTORE_DIR", filepath.Join(".", ".wallet")),
			InMemory: util.GetEnvAsBool("ENGINE_KEYSTORE_IN_MEMORY", false),
		},
		Registry: Registry{
			Path:           util.GetEnv("ENGINE_REGISTRY_PATH", "networks.yml"),
			DefaultChainID: util.GetEnv("ENGINE_REGISTRY_DEFAULT_CHAIN_ID", ""),
		},
		Net: Net{
			AttemptTimeout: util.GetEnvAsDuration("ENGINE_NET_ATTEMPT_TIMEOUT", 10*time.Second),
		},
		AutoLock: AutoLock{
			Minutes:      util.GetEnvAsInt("ENGINE_AUTO_LOCK_MINUTES", 15),
			PollInterval: util.GetEnvAsDuration("ENGINE_AUTO_LOCK_POLL_INTERVAL", 30*time.Second),
		},
		AddressCache: AddressCache{
			TTL:             util.GetEnvAsDuration("ENGINE_ADDRESS_CACHE_TTL", 10*time.Minute),
			CleanupInterval: util.GetEnvAsDuration("ENGINE_ADDRESS_CACHE_CLEANUP_INTERVAL", 15*time.Minute),
		},
		Swap: Swap{
			MaxHops:         util.GetEnvAsInt("ENGINE_SWAP_MAX_HOPS", 3),
			RefreshAttempts: util.GetEnvAsInt("ENGINE_SWAP_REFRESH_ATTEMPTS", 5),
			RefreshInterval: util.GetEnvAsDuration("ENGINE_SWAP_REFRESH_INTERVAL", 3*time.Second),
		},
		Logger: Logger{
			Level:              util.LogLevelFromString(util.GetEnv("ENGINE_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			PrettyPrintConsole: util.GetEnvAsBool("ENGINE_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
	}
}

// Validate returns an error if the configuration is unusable.
func (c Engine) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.Keystore.Dir, "Keystore.Dir"),
		vala.StringNotEmpty(c.Registry.Path, "Registry.Path"),
		vala.GreaterThan(int(c.Net.AttemptTimeout), 0, "Net.AttemptTimeout"),
		vala.GreaterThan(c.Swap.MaxHops, 0, "Swap.MaxHops"),
		vala.GreaterThan(c.Swap.RefreshAttempts, 0, "Swap.RefreshAttempts"),
	).Check()
}
