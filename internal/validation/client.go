package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/hashicorp/golang-lru/v2/expirable"
	config "github.com/mwantia/fdatracker/internal/config/server"
	"github.com/mwantia/fdatracker/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdatracker_validation_lookups_total",
		Help: "Number of openFDA application lookups by result.",
	}, []string{"result"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fdatracker_validation_cache_hits_total",
		Help: "Number of validation lookups served from the cache.",
	})
)

var errNotFound = errors.New("application not found in Drugs@FDA")

type Item struct {
	ApplicationNo   string `json:"applicationNo"`
	BrandName       string `json:"brandName"`
	ApplicationType string `json:"applicationType"`
}

type Result struct {
	ApplicationNo string   `json:"applicationNo"`
	BrandName     string   `json:"brandName"`
	IsValid       bool     `json:"isValid"`
	FdaBrandNames []string `json:"fdaBrandNames"`
	FdaSponsor    string   `json:"fdaSponsor"`
	Error         string   `json:"error,omitempty"`
}

// application is what the registry reports for one application number.
type application struct {
	BrandNames []string
	Sponsor    string
}

type drugsFDAResponse struct {
	Results []struct {
		ApplicationNumber string `json:"application_number"`
		SponsorName       string `json:"sponsor_name"`
		Products          []struct {
			BrandName string `json:"brand_name"`
		} `json:"products"`
		OpenFDA struct {
			BrandName []string `json:"brand_name"`
		} `json:"openfda"`
	} `json:"results"`
}

// Client checks brand names against the openFDA Drugs@FDA registry.
// Lookups run sequentially in batches separated by a fixed delay.
// Inside the agent the container injects Config and Log and calls Init.
type Client struct {
	Config *config.BaseServerConfig `fabric:"inject"`
	Log    log.LoggerService        `fabric:"logger:validation"`

	http      *http.Client
	baseURL   string
	apiKey    string
	batchSize int
	limiter   *rate.Limiter
	cache     *expirable.LRU[string, application]
}

func NewClient(cfg config.ValidationServerConfig, logger log.LoggerService) *Client {
	c := &Client{Log: logger}
	c.configure(cfg)
	return c
}

func (c *Client) Init(ctx context.Context) error {
	if c.Config == nil {
		return fmt.Errorf("validation client requires a server configuration")
	}
	c.configure(c.Config.Validation)
	return nil
}

// Cleanup drops cached lookups and idle registry connections.
func (c *Client) Cleanup(ctx context.Context) error {
	if c.cache != nil {
		c.cache.Purge()
	}
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
	return nil
}

func (c *Client) configure(cfg config.ValidationServerConfig) {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}
	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}

	c.http = &http.Client{
		Timeout: config.Duration(cfg.Timeout, 15*time.Second),
	}
	c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	c.apiKey = cfg.APIKey
	c.batchSize = batchSize
	c.limiter = rate.NewLimiter(rate.Every(config.Duration(cfg.BatchDelay, time.Second)), 1)
	c.cache = expirable.NewLRU[string, application](cacheSize, nil, config.Duration(cfg.CacheTTL, 6*time.Hour))
}

// Validate looks up every distinct application once and reports, per item
// and in input order, whether its brand name is known to the registry.
// Only context cancellation is returned as an error; lookup failures are
// reported on the affected results.
func (c *Client) Validate(ctx context.Context, items []Item) ([]Result, error) {
	var unique []string
	seen := map[string]bool{}
	for _, item := range items {
		number := ApplicationNumber(item.ApplicationNo, item.ApplicationType)
		if number != "" && !seen[number] {
			seen[number] = true
			unique = append(unique, number)
		}
	}

	found := make(map[string]application, len(unique))
	failures := make(map[string]error)

	for start := 0; start < len(unique); start += c.batchSize {
		end := min(start+c.batchSize, len(unique))

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.Log.Debug("Validating batch %d-%d of %d applications", start+1, end, len(unique))

		for _, number := range unique[start:end] {
			app, err := c.lookup(ctx, number)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil {
				failures[number] = err
				continue
			}
			found[number] = app
		}
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		result := Result{
			ApplicationNo: item.ApplicationNo,
			BrandName:     item.BrandName,
			FdaBrandNames: []string{},
		}

		number := ApplicationNumber(item.ApplicationNo, item.ApplicationType)
		switch {
		case number == "":
			result.Error = "missing application number"
		case failures[number] != nil:
			result.Error = failures[number].Error()
		default:
			app := found[number]
			result.FdaBrandNames = app.BrandNames
			result.FdaSponsor = app.Sponsor
			result.IsValid = MatchBrand(item.BrandName, app.BrandNames)
		}
		results = append(results, result)
	}

	return results, nil
}

func (c *Client) lookup(ctx context.Context, number string) (application, error) {
	if app, ok := c.cache.Get(number); ok {
		cacheHitsTotal.Inc()
		return app, nil
	}

	app, err := c.fetch(ctx, number)
	switch {
	case errors.Is(err, errNotFound):
		lookupsTotal.WithLabelValues("not_found").Inc()
	case err != nil:
		lookupsTotal.WithLabelValues("error").Inc()
		c.Log.Warn("Lookup of application '%s' failed: %v", number, err)
	default:
		lookupsTotal.WithLabelValues("ok").Inc()
		c.cache.Add(number, app)
	}
	return app, err
}

func (c *Client) fetch(ctx context.Context, number string) (application, error) {
	query := url.Values{}
	query.Set("search", fmt.Sprintf("application_number:%q", number))
	query.Set("limit", "1")
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/drug/drugsfda.json?"+query.Encode(), nil)
	if err != nil {
		return application{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return application{}, fmt.Errorf("openFDA request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return application{}, errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return application{}, fmt.Errorf("openFDA returned status %d", resp.StatusCode)
	}

	var body drugsFDAResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return application{}, fmt.Errorf("failed to decode openFDA response: %w", err)
	}
	if len(body.Results) == 0 {
		return application{}, errNotFound
	}

	result := body.Results[0]
	app := application{Sponsor: result.SponsorName}

	names := map[string]bool{}
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name != "" && !names[strings.ToUpper(name)] {
			names[strings.ToUpper(name)] = true
			app.BrandNames = append(app.BrandNames, name)
		}
	}
	for _, p := range result.Products {
		add(p.BrandName)
	}
	for _, name := range result.OpenFDA.BrandName {
		add(name)
	}

	return app, nil
}

// ApplicationNumber returns the registry form of an application number,
// e.g. "NDA214662". Bare digits are prefixed with the application type.
func ApplicationNumber(applicationNo, applicationType string) string {
	number := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(applicationNo), " ", ""))
	if number == "" {
		return ""
	}
	if strings.IndexFunc(number, unicode.IsLetter) >= 0 {
		return number
	}
	return strings.ToUpper(strings.TrimSpace(applicationType)) + number
}

// MatchBrand compares brand names ignoring case and punctuation.
func MatchBrand(brand string, registry []string) bool {
	want := normalizeBrand(brand)
	if want == "" {
		return false
	}
	for _, name := range registry {
		if normalizeBrand(name) == want {
			return true
		}
	}
	return false
}

func normalizeBrand(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
