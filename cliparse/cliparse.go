package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	AdminKey       string
	IPHashSalt     string
	MediaDir       string
	MaxUploadBytes int64

	SettleDelay      time.Duration
	PanelSettleDelay time.Duration
	LedgerRetries    int

	GuardBackend string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	// Origin host patterns allowed to open websockets
	AllowedOrigins []string
}

// ParseFlags validates flags and fills the rest from the environment
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var brokers, origins string

	fs := flag.NewFlagSet("dummy-evm", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.MediaDir, "media", "", "Directory for uploaded images")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "Admin key for registration routes (prefer env)")
	fs.StringVar(&cfg.IPHashSalt, "ip-salt", "", "Salt for hashing voter IPs (prefer env)")

	// Voting behaviour
	fs.DurationVar(&cfg.SettleDelay, "settle", 0, "Delay before a single-race vote is revealed")
	fs.DurationVar(&cfg.PanelSettleDelay, "panel-settle", 0, "Delay before a panel vote is revealed")
	fs.IntVar(&cfg.LedgerRetries, "ledger-retries", 0, "Attempts for a ledger increment")

	// Optional backends
	fs.StringVar(&cfg.GuardBackend, "guard", "", "Duplicate-vote guard backend (sql or redis)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the redis guard")
	fs.StringVar(&brokers, "kafka", "", "Comma separated Kafka brokers for vote events")
	fs.StringVar(&cfg.KafkaTopic, "kafka-topic", "", "Kafka topic for vote events")
	fs.StringVar(&origins, "origins", "", "Comma separated origin hosts allowed to open websockets")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, errors.New("database type must be sqlite or postgres")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != "sqlite" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "file:dummy-evm.db"
	}

	if cfg.MediaDir == "" {
		cfg.MediaDir = os.Getenv("MEDIA_DIR")
		if cfg.MediaDir == "" {
			cfg.MediaDir = "./media"
		}
	}

	cfg.MaxUploadBytes = 10 << 20
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, errors.New("invalid MAX_UPLOAD_BYTES env variable")
		}
		cfg.MaxUploadBytes = n
	}

	var err error
	if cfg.SettleDelay, err = durationOr(cfg.SettleDelay, "SETTLE_DELAY", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PanelSettleDelay, err = durationOr(cfg.PanelSettleDelay, "PANEL_SETTLE_DELAY", 2500*time.Millisecond); err != nil {
		return Config{}, err
	}

	if cfg.LedgerRetries == 0 {
		if v := os.Getenv("LEDGER_RETRIES"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return Config{}, errors.New("invalid LEDGER_RETRIES env variable")
			}
			cfg.LedgerRetries = n
		} else {
			cfg.LedgerRetries = 3
		}
	}

	if cfg.GuardBackend == "" {
		cfg.GuardBackend = os.Getenv("GUARD_BACKEND")
		if cfg.GuardBackend == "" {
			cfg.GuardBackend = "sql"
		}
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	switch cfg.GuardBackend {
	case "sql":
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, errors.New("REDIS_URL required for the redis guard")
		}
	default:
		return Config{}, errors.New("guard backend must be sql or redis")
	}

	if brokers == "" {
		brokers = os.Getenv("KAFKA_BROKERS")
	}
	cfg.KafkaBrokers = splitList(brokers)
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = os.Getenv("KAFKA_TOPIC")
		if cfg.KafkaTopic == "" {
			cfg.KafkaTopic = "evm-votes"
		}
	}

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(origins)

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		cfg.AdminKey = os.Getenv("ADMIN_KEY")
	}
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	if cfg.IPHashSalt == "" {
		cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")
	}
	if cfg.IPHashSalt == "" {
		return Config{}, errors.New("IP_HASH_SALT required")
	}

	return cfg, nil
}

func durationOr(flagValue time.Duration, env string, def time.Duration) (time.Duration, error) {
	if flagValue > 0 {
		return flagValue, nil
	}
	v := os.Getenv(env)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, errors.New("invalid " + env + " env variable")
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
