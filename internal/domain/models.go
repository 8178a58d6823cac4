package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

var (
	ErrMissingHost = errors.New("uri has no host")
	ErrInvalidPort = errors.New("uri has no numeric port")
)

// RawTarget is a target as it appears in the config file, before parsing.
type RawTarget struct {
	URI string `json:"uri" yaml:"uri"`
}

// Target is a monitored endpoint. URI is the identity; Host and Port are
// derived from it and used only for dialing.
type Target struct {
	URI  string `json:"uri"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns the dialable host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// StatusEntry is the last known reachability of one URI.
type StatusEntry struct {
	URI string `json:"uri"`
	Up  bool   `json:"up"`
}

// ParseTarget extracts host and port from raw.URI. Any scheme is accepted;
// only the authority part matters.
func ParseTarget(raw RawTarget) (Target, error) {
	u, err := url.Parse(raw.URI)
	if err != nil {
		return Target{}, fmt.Errorf("parse %q: %w", raw.URI, err)
	}
	host := u.Hostname()
	if host == "" {
		return Target{}, fmt.Errorf("parse %q: %w", raw.URI, ErrMissingHost)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return Target{}, fmt.Errorf("parse %q: %w", raw.URI, ErrInvalidPort)
	}
	return Target{URI: raw.URI, Host: host, Port: port}, nil
}
