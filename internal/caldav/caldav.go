// Package caldav syncs meetings to a CalDAV calendar collection. Events are
// stored as <uid>.ics objects; create and update are authenticated PUTs of
// the rendered document, cancel is a DELETE.
package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pershin-daniil/CalBridge/pkg/models"
	"github.com/sirupsen/logrus"
)

type Config struct {
	CalendarURL string
	Username    string
	Password    string
}

type Client struct {
	log         *logrus.Entry
	http        *http.Client
	calendarURL string
	username    string
	password    string
}

func New(log *logrus.Logger, cfg Config) (*Client, error) {
	if cfg.CalendarURL == "" {
		return nil, fmt.Errorf("caldav calendar url is not set")
	}
	u, err := url.Parse(cfg.CalendarURL)
	if err != nil {
		return nil, fmt.Errorf("parse caldav calendar url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("caldav calendar url %q: scheme or host missing", cfg.CalendarURL)
	}
	return &Client{
		log:         log.WithField("component", "caldav"),
		http:        &http.Client{Timeout: 30 * time.Second},
		calendarURL: strings.TrimSuffix(cfg.CalendarURL, "/") + "/",
		username:    cfg.Username,
		password:    cfg.Password,
	}, nil
}

// Initialize pings the calendar collection so a misconfigured server or bad
// credentials surface at startup instead of on the first meeting.
func (c *Client) Initialize(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "PROPFIND", c.calendarURL, nil)
	if err != nil {
		return fmt.Errorf("build propfind request: %w", err)
	}
	req.Header.Set("Depth", "0")
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("propfind calendar: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("propfind calendar: %w", err)
	}
	c.log.Infof("caldav calendar reachable at %s", c.calendarURL)
	return nil
}

func (c *Client) CreateEvent(ctx context.Context, m models.Meeting, icsDoc string) (string, error) {
	eventURL := c.calendarURL + m.ICSUID + ".ics"
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, eventURL, strings.NewReader(icsDoc))
	if err != nil {
		return "", fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	req.Header.Set("If-None-Match", "*")
	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("put event: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("put event: %w", err)
	}
	c.log.Debugf("event %s created", eventURL)
	return eventURL, nil
}

func (c *Client) UpdateEvent(ctx context.Context, m models.Meeting, icsDoc string) error {
	if m.CaldavEventURL == "" {
		return fmt.Errorf("meeting %s has no event url", m.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, m.CaldavEventURL, strings.NewReader(icsDoc))
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	c.log.Debugf("event %s updated", m.CaldavEventURL)
	return nil
}

func (c *Client) CancelEvent(ctx context.Context, m models.Meeting) error {
	if m.CaldavEventURL == "" {
		return fmt.Errorf("meeting %s has no event url", m.ID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.CaldavEventURL, nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	c.log.Debugf("event %s deleted", m.CaldavEventURL)
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	return c.http.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
}
