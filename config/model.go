package config

import (
	"time"
)

type Config struct {
	LogLevel     string    `yaml:"LogLevel"`
	Concurrent   int       `yaml:"Concurrent"`
	AccountsFile string    `yaml:"AccountsFile"`
	LogPathFile  string    `yaml:"LogPathFile"`
	ForceUpdate  string    `yaml:"ForceUpdate"`
	Router       *Router   `yaml:"Router"`
	Interval     *Interval `yaml:"Interval"`
	Reauth       *Reauth   `yaml:"Reauth"`
	DDNS         *DDNS     `yaml:"DDNS"`
	Notify       *Notify   `yaml:"Notify"`
}

type Router struct {
	Host     string        `yaml:"Host"`
	Username string        `yaml:"Username"`
	Password string        `yaml:"Password"`
	Timeout  time.Duration `yaml:"Timeout"`
}

// Interval holds the waits between two polls of the router.
type Interval struct {
	Steady    time.Duration `yaml:"Steady"`
	InvalidIP time.Duration `yaml:"InvalidIP"`
	Transient time.Duration `yaml:"Transient"`
}

// Reauth bounds the re-login attempts after the router dropped the session.
// MaxAttempts of 1 terminates on the first failed login.
type Reauth struct {
	MaxAttempts int           `yaml:"MaxAttempts"`
	Backoff     time.Duration `yaml:"Backoff"`
	MaxBackoff  time.Duration `yaml:"MaxBackoff"`
}

type DDNS struct {
	Endpoint string        `yaml:"Endpoint"`
	Timeout  time.Duration `yaml:"Timeout"`
}

type Notify struct {
	Enable   bool              `yaml:"Enable"`
	Provider string            `yaml:"Provider"`
	Config   map[string]string `yaml:"Config"`
}

// Account is one DynDNS host mapping, loaded from a section of the accounts file.
type Account struct {
	Section  string
	Domain   string
	Username string
	Password string
	Provider string
}
