// Package masterdata reads the insurer and policy-category lists that drive
// batch selection.
package masterdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/policy-extract/internal/entity"
)

const (
	CompaniesPath  = "/master/insurance-companies.php"
	CategoriesPath = "/master/policy-types.php"

	cacheKeyCompanies  = "companies"
	cacheKeyCategories = "policy-types"

	maxBodyBytes = 4 << 20
)

type Config struct {
	BaseURL  string        // e.g. https://crm.example.com/api
	Timeout  time.Duration // per request
	CacheTTL time.Duration // zero disables caching
}

// Master is the full selection catalogue.
type Master struct {
	Companies  []entity.InsuranceCompany `json:"companies"`
	Categories []entity.PolicyCategory   `json:"categories"`
}

// Client fetches master data over HTTP, optionally through a Cache.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      Cache
	log        *slog.Logger
}

func NewClient(cfg Config, cache Cache, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		log:        logger,
	}
}

func (c *Client) Companies(ctx context.Context) ([]entity.InsuranceCompany, error) {
	body, err := c.fetch(ctx, CompaniesPath, cacheKeyCompanies)
	if err != nil {
		return nil, err
	}
	return normalizeList[entity.InsuranceCompany](body)
}

func (c *Client) PolicyCategories(ctx context.Context) ([]entity.PolicyCategory, error) {
	body, err := c.fetch(ctx, CategoriesPath, cacheKeyCategories)
	if err != nil {
		return nil, err
	}
	return normalizeList[entity.PolicyCategory](body)
}

// Load fetches both lists concurrently.
func (c *Client) Load(ctx context.Context) (Master, error) {
	var m Master
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m.Companies, err = c.Companies(gctx)
		if err != nil {
			return fmt.Errorf("insurance companies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		m.Categories, err = c.PolicyCategories(gctx)
		if err != nil {
			return fmt.Errorf("policy types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		c.log.Error("masterdata.load.failed", "error", err)
		return Master{}, err
	}
	c.log.Info("masterdata.load.ok", "companies", len(m.Companies), "categories", len(m.Categories))
	return m, nil
}

func (c *Client) fetch(ctx context.Context, path, key string) ([]byte, error) {
	if c.cache != nil && c.cfg.CacheTTL > 0 {
		body, err := c.cache.Get(ctx, key)
		if err == nil {
			c.log.Debug("masterdata.cache.hit", "key", key)
			return body, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("masterdata.cache.get.failed", "key", key, "error", err)
		}
	}

	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		// Only cache bodies that decode; a broken page must not stick around.
		if _, nerr := normalizeList[struct{}](body); nerr == nil {
			if err := c.cache.Set(ctx, key, body, c.cfg.CacheTTL); err != nil {
				c.log.Warn("masterdata.cache.set.failed", "key", key, "error", err)
			}
		}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("masterdata.http.error", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := newStatusError(resp.StatusCode, body)
		c.log.Error("masterdata.http.status", "path", path, "status", resp.StatusCode, "message", serr.Message)
		return nil, serr
	}

	c.log.Debug("masterdata.http.ok", "path", path, "bytes", len(body), "ms", time.Since(start).Milliseconds())
	return body, nil
}
