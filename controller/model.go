package controller

import (
	"context"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"

	"github.com/Septrum101/dynhostMon/common/ddns"
	"github.com/Septrum101/dynhostMon/common/notify"
	"github.com/Septrum101/dynhostMon/config"
)

// Router is the part of the router session the loop drives.
type Router interface {
	Login(ctx context.Context) error
	GetPublicIP(ctx context.Context) (string, error)
}

type Service struct {
	router   Router
	clients  []ddns.Client
	notifier notify.Notify
	pool     *ants.Pool
	cron     *cron.Cron
	interval config.Interval
	reauth   config.Reauth

	lastIP string
	force  atomic.Bool
}

type state uint8

const (
	polling state = iota
	awaitingReauth
	terminated
)

func (s state) String() string {
	switch s {
	case polling:
		return "polling"
	case awaitingReauth:
		return "awaiting re-authentication"
	default:
		return "terminated"
	}
}
