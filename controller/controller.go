package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/app/router"
	"github.com/Septrum101/dynhostMon/config"
	"github.com/Septrum101/dynhostMon/helper"
)

// ErrTerminated is returned by Run once the router session could not be
// restored.
var ErrTerminated = errors.New("re-authentication failed")

func New(c *config.Config, r Router, accounts []*config.Account) (*Service, error) {
	clients := buildClients(c, accounts)

	notifier, err := buildNotifier(c.Notify)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(c.Concurrent)
	if err != nil {
		return nil, err
	}

	s := &Service{
		router:   r,
		clients:  clients,
		notifier: notifier,
		pool:     pool,
		cron:     cron.New(),
		interval: *c.Interval,
		reauth:   *c.Reauth,
	}

	if c.ForceUpdate != "" {
		if _, err := s.cron.AddFunc(c.ForceUpdate, s.forceRefresh); err != nil {
			pool.Release()
			return nil, fmt.Errorf("invalid ForceUpdate schedule %q: %w", c.ForceUpdate, err)
		}
	}

	log.Infof("Loaded %d accounts (Concurrent: %d)", len(clients), c.Concurrent)
	return s, nil
}

// Run polls the router until ctx is done or the session is lost for good.
func (s *Service) Run(ctx context.Context) error {
	s.cron.Start()
	defer s.cron.Stop()

	log.Infoln(config.AppName, "Started")

	st := polling
	for {
		var (
			next state
			err  error
		)
		switch st {
		case polling:
			next, err = s.poll(ctx)
		case awaitingReauth:
			next, err = s.reauthenticate(ctx)
		}

		if next != st {
			log.Debugf("State changed: %s -> %s", st, next)
		}
		st = next

		if st == terminated {
			if errors.Is(err, ErrTerminated) {
				s.pushMessage("Stopped", err.Error())
			}
			return err
		}
	}
}

func (s *Service) poll(ctx context.Context) (state, error) {
	ip, err := s.router.GetPublicIP(ctx)
	switch {
	case errors.Is(err, router.ErrUnauthorized):
		log.Info("Router session expired, logging in again")
		return awaitingReauth, nil
	case err != nil:
		if ctx.Err() != nil {
			return terminated, ctx.Err()
		}
		log.Errorf("Could not get public IP from router: %v; retrying", err)
		return s.wait(ctx, s.interval.Transient)
	case !helper.IsIPv4(ip):
		log.Errorf("Got wrong public IP '%s', retrying", ip)
		return s.wait(ctx, s.interval.InvalidIP)
	}

	forced := s.force.Swap(false)
	if ip != s.lastIP || forced {
		if ip == s.lastIP {
			log.Infof("Refreshing %s on every account", ip)
		} else {
			log.Infof("Public IP changed from '%s' to '%s'", s.lastIP, ip)
		}

		s.updateAll(ctx, ip)
		s.lastIP = ip
	}

	return s.wait(ctx, s.interval.Steady)
}

func (s *Service) reauthenticate(ctx context.Context) (state, error) {
	backoff := s.reauth.Backoff
	for attempt := 1; ; attempt++ {
		err := s.router.Login(ctx)
		if err == nil {
			log.Info("Logged in to the router again")
			return polling, nil
		}
		if ctx.Err() != nil {
			return terminated, ctx.Err()
		}

		if errors.Is(err, router.ErrUnauthorized) {
			log.Error("Unexpected repeated unauthorized while logging in again")
			return terminated, fmt.Errorf("%w: unexpected repeated unauthorized", ErrTerminated)
		}

		log.Errorf("Could not login again: %v (%d/%d)", err, attempt, s.reauth.MaxAttempts)
		if attempt >= s.reauth.MaxAttempts {
			return terminated, fmt.Errorf("%w: %v", ErrTerminated, err)
		}

		if _, err := s.wait(ctx, backoff); err != nil {
			return terminated, err
		}
		backoff *= 2
		if s.reauth.MaxBackoff > 0 && backoff > s.reauth.MaxBackoff {
			backoff = s.reauth.MaxBackoff
		}
	}
}

// wait sleeps for d, staying in the polling state unless ctx is done first.
func (s *Service) wait(ctx context.Context, d time.Duration) (state, error) {
	if d <= 0 {
		if err := ctx.Err(); err != nil {
			return terminated, err
		}
		return polling, nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return terminated, ctx.Err()
	case <-t.C:
		return polling, nil
	}
}

func (s *Service) forceRefresh() {
	log.Debug("Scheduled refresh, the next poll pushes the IP again")
	s.force.Store(true)
}

func (s *Service) Close() {
	log.Infoln(config.AppName, "Closing..")
	s.pool.Release()
}
