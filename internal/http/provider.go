// Package http implements a Provider that sends one templated HTTP request
// per unit and classifies the response.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"volley/internal/config"
	"volley/internal/core"
	"volley/internal/data"
	"volley/internal/ratelimit"
	"volley/internal/template"
)

const (
	// maxBodySize limits how much of a response is read for classification
	// and debug output.
	maxBodySize = 64 * 1024
)

// Provider sends the configured request. It is safe for concurrent use.
type Provider struct {
	target  config.TargetConfig
	client  *http.Client
	limiter *ratelimit.RateLimiter
	sources data.Sources
	debug   *DebugLogger
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClient replaces the default client built from target.Timeout.
func WithClient(c *http.Client) Option {
	return func(p *Provider) { p.client = c }
}

// WithRateLimiter overrides the limiter derived from target.MaxRPS.
func WithRateLimiter(l *ratelimit.RateLimiter) Option {
	return func(p *Provider) { p.limiter = l }
}

// WithSources injects a row of every source into each unit's variables.
func WithSources(s data.Sources) Option {
	return func(p *Provider) { p.sources = s }
}

// WithDebug dumps every request and response to d.
func WithDebug(d *DebugLogger) Option {
	return func(p *Provider) { p.debug = d }
}

// NewProvider creates a Provider that sends one request to target per unit.
func NewProvider(target config.TargetConfig, opts ...Option) *Provider {
	p := &Provider{target: target}
	if target.MaxRPS > 0 {
		p.limiter = ratelimit.NewRateLimiter(target.MaxRPS)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: target.Timeout}
	}
	return p
}

func (p *Provider) name() string {
	if p.target.Name != "" {
		return p.target.Name
	}
	return p.target.Method
}

// Send performs one request. Transport and template errors are returned
// with a Failure outcome; a response that matches the rate-limit rule
// yields RateLimited.
func (p *Provider) Send(ctx context.Context) (core.Outcome, error) {
	unit := core.UnitFromContext(ctx)

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return core.Failure, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	start := time.Now()
	req, err := p.newRequest(ctx, unit)
	if err != nil {
		p.debug.LogError(unit, p.name(), err.Error(), time.Since(start))
		return core.Failure, err
	}

	p.debug.LogRequest(unit, p.name(), req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.debug.LogError(unit, p.name(), err.Error(), time.Since(start))
		return core.Failure, err
	}
	defer resp.Body.Close()

	var body []byte
	if p.target.RateLimit.JSONPath != "" || p.debug != nil {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	}
	_, _ = io.Copy(io.Discard, resp.Body) // drain so the connection is reused

	outcome := p.Classify(resp.StatusCode, body)
	p.debug.LogResponse(unit, p.name(), resp, body, outcome, time.Since(start))

	if outcome == core.Failure {
		return core.Failure, errors.New(resp.Status)
	}
	return outcome, nil
}

func (p *Provider) newRequest(ctx context.Context, unit int) (*http.Request, error) {
	vars := core.NewVariables()
	vars.Set("unit", unit)
	vars.Set("session", core.SessionFromContext(ctx))
	if p.sources != nil {
		p.sources.Inject(vars, unit)
	}

	url, err := template.Substitute(p.target.URL, vars)
	if err != nil {
		return nil, fmt.Errorf("url: %w", err)
	}
	body, err := template.Substitute(p.target.Body, vars)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	headers, err := template.SubstituteMap(p.target.Headers, vars)
	if err != nil {
		return nil, err
	}

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, p.target.Method, url, reader)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Classify maps a response to an outcome.
// The rate-limit rule wins over the status class.
func (p *Provider) Classify(status int, body []byte) core.Outcome {
	rule := p.target.RateLimit
	if slices.Contains(rule.StatusCodes, status) {
		return core.RateLimited
	}
	if rule.JSONPath != "" && template.Matches(body, rule.JSONPath, rule.Equals) {
		return core.RateLimited
	}
	if status < 400 {
		return core.Success
	}
	return core.Failure
}
