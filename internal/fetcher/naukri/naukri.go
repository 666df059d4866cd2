// Package naukri scrapes Naukri search result pages.
package naukri

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/spigell/job-matcher/internal/fetcher"
	"github.com/spigell/job-matcher/internal/jobs"
)

const (
	Name = "naukri"

	defaultBaseURL = "https://www.naukri.com"
	defaultAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	cardsPerPage   = 20
)

// Card layouts change often; every field is looked up through a list of
// selectors and the first non-empty one wins.
var (
	cardSelectors        = []string{"div.jobTuple", "article.jobTuple", "div.srp-jobtuple-wrapper", `div[class*="jobTuple"]`, `article[class*="jobTuple"]`}
	titleSelectors       = []string{"a.title", `a[class*="title"]`, "h3 a", "h2 a", ".jobTitle a", "a.jobTitle"}
	companySelectors     = []string{"a.subTitle", `a[class*="subTitle"]`, ".companyName", ".company-name", "a.comp-name"}
	locationSelectors    = []string{".locationsContainer", ".location", ".jobLocation", ".locWdth", `span[class*="location"]`}
	experienceSelectors  = []string{".expwdth", ".experience", `span[class*="exp"]`}
	salarySelectors      = []string{".sal", ".salary", `span[class*="sal"]`}
	descriptionSelectors = []string{".job-description", ".jobDescription", ".job-desc", ".desc", ".snippet"}
	tagSelectors         = []string{"ul.tags li", ".tags-gt li", ".skillTags li", ".job-skills li"}
	postedSelectors      = []string{".job-post-day", ".postedDate", `span[class*="post"]`}
)

// Config is the Naukri source configuration.
type Config struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base-url"`
	MaxPages  int           `mapstructure:"max-pages"`
	UserAgent string        `mapstructure:"user-agent"`
	Delay     time.Duration `mapstructure:"delay"`
}

type Scraper struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultAgent
	}
	return &Scraper{cfg: cfg, logger: logger}
}

func (s *Scraper) Name() string {
	return Name
}

// Fetch walks result pages until MaxResults cards are collected, a page has
// no cards or the page budget is spent.
func (s *Scraper) Fetch(ctx context.Context, q fetcher.Query) ([]jobs.RawRecord, error) {
	keywords := strings.TrimSpace(q.Keywords)
	if keywords == "" {
		return nil, nil
	}

	pages := s.cfg.MaxPages
	if q.MaxResults > 0 {
		pages = min(pages, (q.MaxResults+cardsPerPage-1)/cardsPerPage)
	}

	var records []jobs.RawRecord
	var lastErr error
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		found, err := s.scrapePage(ctx, keywords, q.Location, page)
		if err != nil {
			lastErr = err
			s.logger.Debug("page failed", zap.Int("page", page), zap.Error(err))
		}
		if len(found) == 0 {
			break
		}
		records = append(records, found...)

		if q.MaxResults > 0 && len(records) >= q.MaxResults {
			break
		}
	}

	if len(records) == 0 && lastErr != nil {
		return nil, lastErr
	}

	return records, nil
}

// pageURLs lists the URL layouts Naukri answers to, in preference order.
func (s *Scraper) pageURLs(keywords, location string, page int) []string {
	slug := url.PathEscape(strings.ReplaceAll(strings.ToLower(keywords), " ", "-"))

	values := url.Values{}
	values.Set("k", keywords)
	values.Set("page", fmt.Sprintf("%d", page))
	if location != "" {
		values.Set("l", location)
	}

	return []string{
		fmt.Sprintf("%s/%s-jobs-%d", s.cfg.BaseURL, slug, page),
		fmt.Sprintf("%s/%s-jobs?page=%d", s.cfg.BaseURL, slug, page),
		fmt.Sprintf("%s/jobs-in-india?%s", s.cfg.BaseURL, values.Encode()),
	}
}

func (s *Scraper) scrapePage(ctx context.Context, keywords, location string, page int) ([]jobs.RawRecord, error) {
	var lastErr error
	for _, target := range s.pageURLs(keywords, location, page) {
		records, err := s.scrapeURL(ctx, target)
		if err != nil {
			lastErr = err
			continue
		}
		if len(records) > 0 {
			return records, nil
		}
	}
	return nil, lastErr
}

func (s *Scraper) scrapeURL(ctx context.Context, target string) ([]jobs.RawRecord, error) {
	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(15 * time.Second)
	if s.cfg.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: s.cfg.Delay}); err != nil {
			return nil, err
		}
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var records []jobs.RawRecord
	var visitErr error

	c.OnHTML("body", func(body *colly.HTMLElement) {
		for _, sel := range cardSelectors {
			body.ForEach(sel, func(_ int, card *colly.HTMLElement) {
				if rec, ok := parseCard(card); ok {
					records = append(records, rec)
				}
			})
			if len(records) > 0 {
				return
			}
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("GET %s: status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	s.logger.Debug("visiting", zap.String("url", target))
	if err := c.Visit(target); err != nil && visitErr == nil {
		visitErr = err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return records, visitErr
}

// parseCard reads one result card. Cards without a title link are skipped.
func parseCard(card *colly.HTMLElement) (jobs.RawRecord, bool) {
	var title, link string
	for _, sel := range titleSelectors {
		el := card.DOM.Find(sel).First()
		if t := strings.TrimSpace(el.Text()); t != "" {
			title = t
			href, _ := el.Attr("href")
			link = card.Request.AbsoluteURL(href)
			break
		}
	}
	if title == "" || link == "" {
		return nil, false
	}

	rec := jobs.RawRecord{
		"title":       title,
		"job_url":     link,
		"company":     first(card, companySelectors),
		"location":    first(card, locationSelectors),
		"experience":  first(card, experienceSelectors),
		"salary":      first(card, salarySelectors),
		"description": first(card, descriptionSelectors),
		"posted_date": first(card, postedSelectors),
	}

	if id := strings.TrimSpace(card.Attr("data-job-id")); id != "" {
		rec["job_id"] = id
	}

	for _, sel := range tagSelectors {
		var tags []any
		card.ForEach(sel, func(_ int, el *colly.HTMLElement) {
			if t := strings.TrimSpace(el.Text); t != "" {
				tags = append(tags, t)
			}
		})
		if len(tags) > 0 {
			rec["key_skills"] = tags
			break
		}
	}

	return rec, true
}

func first(card *colly.HTMLElement, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(card.DOM.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
