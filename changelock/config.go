package changelock

import (
	"os"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	"gopkg.in/yaml.v3"

	"github.com/git-hulk/go-changelock/changelock/database"
)

type BackoffPolicy string

const (
	BackoffFixed       BackoffPolicy = "fixed"
	BackoffExponential BackoffPolicy = "exponential"
)

const (
	DefaultWaitTimeout     = 5 * time.Minute
	DefaultPollInterval    = 10 * time.Second
	DefaultMaxPollInterval = time.Minute
	DefaultBackoffFactor   = 2.0

	minPollInterval = 10 * time.Millisecond
	maxPollInterval = 10 * time.Minute
)

// Config controls how long and how often WaitForLock polls, and where the
// lock lives.
type Config struct {
	// WaitTimeout bounds the whole WaitForLock call.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
	// PollInterval is the delay between attempts, the first delay for the
	// exponential policy.
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollInterval time.Duration `yaml:"max_poll_interval"`
	Backoff         BackoffPolicy `yaml:"backoff"`
	BackoffFactor   float64       `yaml:"backoff_factor"`
	Jitter          bool          `yaml:"jitter"`
	// MaxAttempts caps the attempts within WaitTimeout, 0 means no cap.
	MaxAttempts int `yaml:"max_attempts"`

	ChangeLogTable string `yaml:"changelog_table"`
	LockTable      string `yaml:"lock_table"`
}

func DefaultConfig() Config {
	return Config{
		WaitTimeout:     DefaultWaitTimeout,
		PollInterval:    DefaultPollInterval,
		MaxPollInterval: DefaultMaxPollInterval,
		Backoff:         BackoffFixed,
		BackoffFactor:   DefaultBackoffFactor,
		ChangeLogTable:  database.DefaultChangeLogTableName,
		LockTable:       database.DefaultLockTableName,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Annotatef(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Annotatef(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Trace(err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.WaitTimeout <= 0 {
		return errors.NotValidf("wait timeout %s", c.WaitTimeout)
	}
	if c.PollInterval <= 0 {
		return errors.NotValidf("poll interval %s", c.PollInterval)
	}
	if c.MaxAttempts < 0 {
		return errors.NotValidf("max attempts %d", c.MaxAttempts)
	}
	switch c.Backoff {
	case "", BackoffFixed:
	case BackoffExponential:
		if c.BackoffFactor <= 1 {
			return errors.NotValidf("backoff factor %v", c.BackoffFactor)
		}
		if c.MaxPollInterval < c.PollInterval {
			return errors.NotValidf("max poll interval %s below poll interval %s", c.MaxPollInterval, c.PollInterval)
		}
	default:
		return errors.NotValidf("backoff policy %q", c.Backoff)
	}
	return nil
}

// DatabaseOptions returns the table names of c as database options.
func (c Config) DatabaseOptions() []database.Option {
	return []database.Option{database.WithTableNames(c.ChangeLogTable, c.LockTable)}
}

func (c Config) pollInterval() time.Duration {
	interval := c.PollInterval
	if interval > maxPollInterval {
		interval = maxPollInterval
	}
	if interval < minPollInterval {
		interval = minPollInterval
	}
	return interval
}

func (c Config) retryArgs(fn func() error, clk clock.Clock, stop <-chan struct{}) retry.CallArgs {
	args := retry.CallArgs{
		Func:        fn,
		Clock:       clk,
		Stop:        stop,
		Delay:       c.pollInterval(),
		MaxDuration: c.WaitTimeout,
		Attempts:    -1,
	}
	if c.MaxAttempts > 0 {
		args.Attempts = c.MaxAttempts
	}
	if c.Backoff == BackoffExponential {
		args.MaxDelay = c.MaxPollInterval
		args.BackoffFunc = retry.ExpBackoff(args.Delay, c.MaxPollInterval, c.BackoffFactor, c.Jitter)
	}
	return args
}
