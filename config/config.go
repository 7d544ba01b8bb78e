package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	viperOnce sync.Once
	v         *viper.Viper
)

func GetConfig() *viper.Viper {
	viperOnce.Do(func() {
		v = New()
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/" + AppName)
		v.AddConfigPath("$HOME/." + AppName)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				log.Panic(err)
			}
			fmt.Println("No config file found, using defaults and environment")
		}
	})

	return v
}

// New returns a viper instance carrying the defaults and the DYNHOST_ env overrides.
func New() *viper.Viper {
	nv := viper.New()
	nv.SetEnvPrefix("dynhost")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	nv.SetDefault("LogLevel", "info")
	nv.SetDefault("Concurrent", 1)
	nv.SetDefault("AccountsFile", "accounts.ini")
	nv.SetDefault("LogPathFile", "log_path.txt")
	nv.SetDefault("ForceUpdate", "")

	nv.SetDefault("Router.Host", "192.168.1.1")
	nv.SetDefault("Router.Username", "admin")
	nv.SetDefault("Router.Password", "")
	nv.SetDefault("Router.Timeout", 10*time.Second)

	nv.SetDefault("Interval.Steady", time.Second)
	nv.SetDefault("Interval.InvalidIP", 15*time.Second)
	nv.SetDefault("Interval.Transient", 30*time.Second)

	nv.SetDefault("Reauth.MaxAttempts", 1)
	nv.SetDefault("Reauth.Backoff", 30*time.Second)
	nv.SetDefault("Reauth.MaxBackoff", 5*time.Minute)

	nv.SetDefault("DDNS.Endpoint", "https://www.ovh.com/nic/update")
	nv.SetDefault("DDNS.Timeout", 10*time.Second)

	nv.SetDefault("Notify.Enable", false)

	return nv
}

// Load unmarshals and validates the settings held by cv.
func Load(cv *viper.Viper) (*Config, error) {
	c := new(Config)
	if err := cv.Unmarshal(c); err != nil {
		return nil, err
	}

	if c.Router == nil || c.Router.Host == "" {
		return nil, errors.New("router host is not set")
	}
	if c.Router.Password == "" {
		return nil, errors.New("router password is not set, use Router.Password or DYNHOST_ROUTER_PASSWORD")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return nil, err
	}
	if c.ForceUpdate != "" {
		if _, err := cron.ParseStandard(c.ForceUpdate); err != nil {
			return nil, fmt.Errorf("invalid ForceUpdate schedule %q: %w", c.ForceUpdate, err)
		}
	}
	if c.Concurrent < 1 {
		c.Concurrent = 1
	}
	if c.Reauth.MaxAttempts < 1 {
		c.Reauth.MaxAttempts = 1
	}

	return c, nil
}
