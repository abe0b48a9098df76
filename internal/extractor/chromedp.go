package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/oddsmith/matchodds/internal/cache"
	"github.com/oddsmith/matchodds/internal/criteria"
)

// Config controls the headless extractor.
type Config struct {
	TargetURL      string
	UserAgent      string
	NavTimeout     time.Duration
	TargetQPS      float64
	ResultSelector string
}

// Chromedp extracts result fields by rendering the calculator page in
// headless Chrome. One shared allocator, one tab per extraction.
type Chromedp struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewChromedp builds the headless extractor.
func NewChromedp(cfg Config, logger *zap.Logger) (*Chromedp, error) {
	if cfg.TargetURL == "" {
		return nil, fmt.Errorf("target url is required")
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}
	if cfg.ResultSelector == "" {
		cfg.ResultSelector = "#result"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	var limiter *rate.Limiter
	if cfg.TargetQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.TargetQPS), 1)
	}

	return &Chromedp{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// Close tears down the browser allocator.
func (c *Chromedp) Close() {
	c.allocCancel()
}

// Extract navigates to the calculator with the criteria encoded in the query
// string, waits for the result block, and parses its text into a payload.
// Each call carries its own navigation timeout.
func (c *Chromedp) Extract(ctx context.Context, params criteria.Normalized) (cache.Payload, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return cache.Payload{}, NewFetchError(KindNavigation, fmt.Errorf("qps wait: %w", err))
		}
	}

	tabCtx, cancelTab := chromedp.NewContext(c.allocator)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, c.cfg.NavTimeout)
	defer cancelTask()

	target := BuildURL(c.cfg.TargetURL, params)
	start := time.Now()

	var resultText string
	tasks := chromedp.Tasks{
		c.setupAction(),
		chromedp.Navigate(target),
		chromedp.WaitVisible(c.cfg.ResultSelector, chromedp.ByQuery),
		chromedp.Text(c.cfg.ResultSelector, &resultText, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		kind := KindNavigation
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return cache.Payload{}, NewFetchError(kind, fmt.Errorf("chromedp run: %w", err))
	}

	payload := ParseResultText(resultText)
	if payload.Empty() {
		return cache.Payload{}, NewFetchError(KindEmptyResult, fmt.Errorf("no result fields on page"))
	}

	c.logger.Debug("page extracted",
		zap.String("url", target),
		zap.Duration("duration", time.Since(start)),
	)
	return payload, nil
}

func (c *Chromedp) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if c.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(c.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// BuildURL encodes the criteria as the calculator's query parameters.
func BuildURL(base string, params criteria.Normalized) string {
	q := url.Values{}
	q.Set("minAge", strconv.Itoa(params.MinAge))
	q.Set("maxAge", strconv.Itoa(params.MaxAge))
	q.Set("excludeMarried", strconv.FormatBool(params.ExcludeMarried))
	q.Set("race", strconv.Itoa(int(params.Race)))
	q.Set("minHeight", criteria.FormatHeight(params.MinHeightCm))
	q.Set("excludeObese", strconv.FormatBool(params.ExcludeObese))
	q.Set("minIncome", strconv.Itoa(params.MinIncome))

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

// ParseResultText pulls the probability, label line and "1 in N" fraction out
// of the rendered result block. Lines it does not recognize are kept as
// auxiliary detail fragments.
func ParseResultText(text string) cache.Payload {
	payload := cache.Payload{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasSuffix(line, "%"):
			raw := strings.TrimSuffix(line, "%")
			if idx := strings.LastIndexByte(raw, ' '); idx >= 0 {
				raw = raw[idx+1:]
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				payload.Probability = v
				continue
			}
			addDetail(&payload, line)
		case strings.Contains(strings.ToLower(line), " in "):
			payload.ScoreFraction = line
		case payload.ScoreLabel == "":
			payload.ScoreLabel = line
		default:
			addDetail(&payload, line)
		}
	}
	return payload
}

func addDetail(p *cache.Payload, line string) {
	if p.Details == nil {
		p.Details = make(map[string]string)
	}
	key, value, found := strings.Cut(line, ":")
	if !found {
		p.Details[fmt.Sprintf("line%d", len(p.Details)+1)] = line
		return
	}
	p.Details[strings.TrimSpace(key)] = strings.TrimSpace(value)
}
