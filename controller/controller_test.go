package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Septrum101/dynhostMon/app/router"
	"github.com/Septrum101/dynhostMon/common/ddns"
	"github.com/Septrum101/dynhostMon/config"
)

type pollResult struct {
	ip  string
	err error
}

// scriptedRouter replays polls and logins, then cancels the run.
type scriptedRouter struct {
	cancel context.CancelFunc
	polls  []pollResult
	logins []error

	pollCount  int
	loginCount int
}

func (r *scriptedRouter) GetPublicIP(ctx context.Context) (string, error) {
	if r.pollCount >= len(r.polls) {
		r.cancel()
		return "", ctx.Err()
	}
	p := r.polls[r.pollCount]
	r.pollCount++
	return p.ip, p.err
}

func (r *scriptedRouter) Login(ctx context.Context) error {
	if r.loginCount >= len(r.logins) {
		r.cancel()
		return ctx.Err()
	}
	err := r.logins[r.loginCount]
	r.loginCount++
	return err
}

type recordingClient struct {
	sync.Mutex
	domain  string
	outcome ddns.Outcome
	ips     []string
}

func (c *recordingClient) Domain() string {
	return c.domain
}

func (c *recordingClient) Update(_ context.Context, ip string) ddns.Outcome {
	c.Lock()
	defer c.Unlock()
	c.ips = append(c.ips, ip)
	return c.outcome
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Webhook(title string, content string) error {
	n.messages = append(n.messages, title+": "+content)
	return nil
}

func newTestService(t *testing.T, r Router, clients ...ddns.Client) *Service {
	t.Helper()
	log.SetLevel(log.DebugLevel)

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Release)

	return &Service{
		router:  r,
		clients: clients,
		pool:    pool,
		cron:    cron.New(),
		reauth:  config.Reauth{MaxAttempts: 1},
	}
}

func run(t *testing.T, s *Service, r *scriptedRouter) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.cancel = cancel
	return s.Run(ctx)
}

func ok(ip string) pollResult {
	return pollResult{ip: ip}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunUpdatesOnChange(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{ok("10.0.0.1"), ok("10.0.0.1"), ok("10.0.0.2")}}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)

	if err := run(t, s, r); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if want := []string{"10.0.0.1", "10.0.0.2"}; !equal(c.ips, want) {
		t.Errorf("updates = %v, want %v", c.ips, want)
	}
	if s.lastIP != "10.0.0.2" {
		t.Errorf("lastIP = %s", s.lastIP)
	}
}

func TestRunSkipsInvalidIP(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{
		ok(""), ok("256.1.1.1"), ok("10.0.0.1"), ok("bogus"), ok("10.0.0.1"), ok("1.2.3"), ok("10.0.0.1"),
	}}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)

	run(t, s, r)

	if want := []string{"10.0.0.1"}; !equal(c.ips, want) {
		t.Errorf("updates = %v, want %v", c.ips, want)
	}
	if r.loginCount != 0 {
		t.Errorf("unexpected login")
	}
}

func TestRunMessageErrorKeepsPolling(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{
		{err: errors.New("got some errors in response")}, ok("10.0.0.1"), {err: errors.New("connection refused")}, ok("10.0.0.1"),
	}}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)

	run(t, s, r)

	if r.loginCount != 0 {
		t.Errorf("message errors must not trigger a login, got %d", r.loginCount)
	}
	if r.pollCount != 4 {
		t.Errorf("polls = %d, want 4", r.pollCount)
	}
	if want := []string{"10.0.0.1"}; !equal(c.ips, want) {
		t.Errorf("updates = %v, want %v", c.ips, want)
	}
}

func TestRunReauthenticates(t *testing.T) {
	r := &scriptedRouter{
		polls:  []pollResult{ok("10.0.0.1"), {err: router.ErrUnauthorized}, ok("10.0.0.1"), ok("10.0.0.3")},
		logins: []error{nil},
	}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)

	if err := run(t, s, r); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if r.loginCount != 1 {
		t.Errorf("logins = %d, want 1", r.loginCount)
	}
	if want := []string{"10.0.0.1", "10.0.0.3"}; !equal(c.ips, want) {
		t.Errorf("updates = %v, want %v", c.ips, want)
	}
}

func TestRunLogsStateChanges(t *testing.T) {
	r := &scriptedRouter{
		polls:  []pollResult{{err: router.ErrUnauthorized}, ok("10.0.0.1")},
		logins: []error{nil},
	}
	s := newTestService(t, r)

	hook := test.NewGlobal()
	defer log.StandardLogger().ReplaceHooks(make(log.LevelHooks))

	if err := run(t, s, r); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}

	var changes []string
	for _, e := range hook.AllEntries() {
		if e.Level == log.DebugLevel && strings.HasPrefix(e.Message, "State changed") {
			changes = append(changes, e.Message)
		}
	}
	want := []string{
		"State changed: polling -> awaiting re-authentication",
		"State changed: awaiting re-authentication -> polling",
		"State changed: polling -> terminated",
	}
	if !equal(changes, want) {
		t.Errorf("State changes = %q, want %q", changes, want)
	}
}

func TestRunWrappedUnauthorized(t *testing.T) {
	r := &scriptedRouter{
		polls:  []pollResult{{err: fmt.Errorf("wan status: %w", router.ErrUnauthorized)}},
		logins: []error{nil},
	}
	s := newTestService(t, r)

	run(t, s, r)

	if r.loginCount != 1 {
		t.Errorf("logins = %d, want 1", r.loginCount)
	}
}

func TestRunTerminatesOnLoginFailure(t *testing.T) {
	n := &recordingNotifier{}
	r := &scriptedRouter{
		polls:  []pollResult{{err: router.ErrUnauthorized}, ok("10.0.0.1")},
		logins: []error{errors.New("empty context ID")},
	}
	s := newTestService(t, r)
	s.notifier = n

	err := run(t, s, r)
	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("Run() = %v, want ErrTerminated", err)
	}
	if r.pollCount != 1 {
		t.Errorf("polls = %d, want 1", r.pollCount)
	}
	if len(n.messages) != 1 {
		t.Errorf("notifications = %v", n.messages)
	}
}

func TestRunTerminatesOnRepeatedUnauthorized(t *testing.T) {
	r := &scriptedRouter{
		polls:  []pollResult{{err: router.ErrUnauthorized}},
		logins: []error{router.ErrUnauthorized, nil},
	}
	s := newTestService(t, r)
	s.reauth.MaxAttempts = 5

	err := run(t, s, r)
	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("Run() = %v, want ErrTerminated", err)
	}
	if r.loginCount != 1 {
		t.Errorf("logins = %d, want 1", r.loginCount)
	}
}

func TestRunBoundedReauth(t *testing.T) {
	t.Run("recovers", func(t *testing.T) {
		r := &scriptedRouter{
			polls:  []pollResult{{err: router.ErrUnauthorized}, ok("10.0.0.1")},
			logins: []error{errors.New("timeout"), errors.New("timeout"), nil},
		}
		c := &recordingClient{domain: "a.example.com"}
		s := newTestService(t, r, c)
		s.reauth.MaxAttempts = 3

		if err := run(t, s, r); !errors.Is(err, context.Canceled) {
			t.Fatalf("Run() = %v, want context.Canceled", err)
		}
		if r.loginCount != 3 {
			t.Errorf("logins = %d, want 3", r.loginCount)
		}
		if len(c.ips) != 1 {
			t.Errorf("updates = %v", c.ips)
		}
	})

	t.Run("gives up", func(t *testing.T) {
		r := &scriptedRouter{
			polls:  []pollResult{{err: router.ErrUnauthorized}},
			logins: []error{errors.New("timeout"), errors.New("timeout"), errors.New("timeout"), nil},
		}
		s := newTestService(t, r)
		s.reauth.MaxAttempts = 3

		if err := run(t, s, r); !errors.Is(err, ErrTerminated) {
			t.Fatalf("Run() = %v, want ErrTerminated", err)
		}
		if r.loginCount != 3 {
			t.Errorf("logins = %d, want 3", r.loginCount)
		}
	})
}

func TestRunFailedUpdateIsNotRetried(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{ok("10.0.0.1"), ok("10.0.0.1"), ok("10.0.0.1")}}
	failing := &recordingClient{domain: "a.example.com", outcome: ddns.Fail("badauth")}
	good := &recordingClient{domain: "b.example.com", outcome: ddns.Outcome{Status: ddns.NoChange}}
	n := &recordingNotifier{}
	s := newTestService(t, r, failing, good)
	s.notifier = n

	run(t, s, r)

	if len(failing.ips) != 1 || len(good.ips) != 1 {
		t.Errorf("updates = %v / %v, want one each", failing.ips, good.ips)
	}
	if s.lastIP != "10.0.0.1" {
		t.Errorf("lastIP = %q, want it set despite failures", s.lastIP)
	}
	if len(n.messages) != 1 {
		t.Fatalf("notifications = %v", n.messages)
	}
}

func TestRunForcedRefresh(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{ok("10.0.0.1"), ok("10.0.0.1")}}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)
	s.lastIP = "10.0.0.1"
	s.forceRefresh()

	run(t, s, r)

	if want := []string{"10.0.0.1"}; !equal(c.ips, want) {
		t.Errorf("updates = %v, want %v", c.ips, want)
	}
	if s.force.Load() {
		t.Error("force flag not consumed")
	}
}

func TestRunForcedRefreshSurvivesErrors(t *testing.T) {
	r := &scriptedRouter{polls: []pollResult{{err: errors.New("down")}, ok("bogus"), ok("10.0.0.1")}}
	c := &recordingClient{domain: "a.example.com"}
	s := newTestService(t, r, c)
	s.lastIP = "10.0.0.1"
	s.forceRefresh()

	run(t, s, r)

	if len(c.ips) != 1 {
		t.Errorf("updates = %v, want one forced update", c.ips)
	}
}

func TestUpdateAllConcurrent(t *testing.T) {
	var clients []ddns.Client
	var recs []*recordingClient
	for _, d := range []string{"a.example.com", "b.example.com", "c.example.com", "d.example.com"} {
		rc := &recordingClient{domain: d}
		recs = append(recs, rc)
		clients = append(clients, rc)
	}
	s := newTestService(t, &scriptedRouter{}, clients...)

	if err := s.updateAll(context.Background(), "10.0.0.9"); err != nil {
		t.Fatalf("updateAll() error: %v", err)
	}
	for _, rc := range recs {
		if !equal(rc.ips, []string{"10.0.0.9"}) {
			t.Errorf("%s updates = %v", rc.domain, rc.ips)
		}
	}
	if got := s.domains(); got != "a.example.com, b.example.com, c.example.com, d.example.com" {
		t.Errorf("domains() = %q", got)
	}
}

func TestUpdateAllFailures(t *testing.T) {
	s := newTestService(t, &scriptedRouter{},
		&recordingClient{domain: "a.example.com", outcome: ddns.Fail("HTTP status 500")},
		&recordingClient{domain: "b.example.com"},
	)

	if err := s.updateAll(context.Background(), "10.0.0.9"); err == nil {
		t.Error("updateAll() expected an error")
	}
}
