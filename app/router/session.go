package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/dynhostMon/config"
)

const contentType = "application/x-sah-ws-4-call+json"

// ErrUnauthorized is returned when the router answers 401, meaning the
// session has to be created again. Every other error carries a message.
var ErrUnauthorized = errors.New("session timed out (HTTP status 401)")

// Session is an authenticated channel to the router's /ws endpoint.
// It is not safe for concurrent use.
type Session struct {
	host     string
	username string
	password string
	client   *resty.Client

	contextID string
	cookie    string
}

func New(c *config.Router) *Session {
	// the transport asks for gzip and inflates the answer itself
	cli := resty.New().
		SetBaseURL("http://"+c.Host).
		SetHeader("Content-Type", contentType).
		SetCookieJar(nil).
		SetTimeout(c.Timeout)

	return &Session{
		host:     c.Host,
		username: c.Username,
		password: c.Password,
		client:   cli,
	}
}

// Connect creates a session and logs in.
func Connect(ctx context.Context, c *config.Router) (*Session, error) {
	s := New(c)
	if err := s.Login(ctx); err != nil {
		return nil, fmt.Errorf("could not login: %w", err)
	}
	return s, nil
}

// Login creates a new router context. The stored context ID and cookie are
// only replaced when the login succeeded.
func (s *Session) Login(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).
		SetHeader("Authorization", "X-Sah-Login").
		SetBody(newLoginRequest(s.username, s.password)).
		Post("/ws")
	if err != nil {
		return err
	}

	cookie := sessionCookie(resp.Header().Values("Set-Cookie"))

	var r loginResponse
	if err := parseResponse(resp, &r); err != nil {
		return err
	}
	if r.Data.ContextID == "" {
		return errors.New("empty context ID")
	}

	if cookie == "" {
		log.Warnf("[%s] no HttpOnly session cookie in the login answer, requests may be rejected", s.host)
	}

	s.contextID = r.Data.ContextID
	s.cookie = cookie
	log.Debugf("[%s] logged in as %s", s.host, s.username)

	return nil
}

// GetPublicIP returns the IPv4 address of the WAN interface.
func (s *Session) GetPublicIP(ctx context.Context) (string, error) {
	st, err := s.GetWANStatus(ctx)
	if err != nil {
		return "", err
	}
	return st.IPAddress, nil
}

func (s *Session) GetWANStatus(ctx context.Context) (*WANStatus, error) {
	resp, err := s.authorizedPost(ctx, newWANStatusRequest())
	if err != nil {
		return nil, err
	}

	var r wanStatusResponse
	if err := parseResponse(resp, &r); err != nil {
		return nil, err
	}
	return &r.Data, nil
}

func (s *Session) authorizedPost(ctx context.Context, body *request) (*resty.Response, error) {
	return s.client.R().SetContext(ctx).
		SetHeader("Authorization", "X-Sah "+s.contextID).
		SetHeader("Cookie", fmt.Sprintf("%s; sah/contextId=%s", s.cookie, url.QueryEscape(s.contextID))).
		SetBody(body).
		Post("/ws")
}

// sessionCookie returns the name=value part of the first HttpOnly cookie.
func sessionCookie(values []string) string {
	for _, v := range values {
		if strings.Contains(v, "HttpOnly") {
			name, _, _ := strings.Cut(v, ";")
			return strings.TrimSpace(name)
		}
	}
	return ""
}

func parseResponse(resp *resty.Response, v any) error {
	if resp.StatusCode() == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	body := resp.Body()
	if !utf8.Valid(body) {
		return errors.New("response is not valid UTF-8")
	}
	if strings.Contains(string(body), "errors") {
		return fmt.Errorf("got some errors in response: %s", body)
	}
	if resp.IsError() {
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode())
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
