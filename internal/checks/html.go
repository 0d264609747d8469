package checks

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultValidatorURL is the public Nu HTML Checker.
	DefaultValidatorURL = "https://validator.w3.org/nu/"
	// DefaultHTTPTimeout applies to each of the two requests an HTML check makes.
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultMaxDocumentBytes caps the size of a fetched page.
	DefaultMaxDocumentBytes int64 = 16 << 20

	defaultUserAgent = "siteaudit (+https://github.com/spboyer/siteaudit)"
	nuCheckerEngine  = "nu-html-checker"
)

// HTMLValidatorArgs holds the arguments for creating an HTML conformance checker.
type HTMLValidatorArgs struct {
	// ValidatorURL is the Nu HTML Checker endpoint. Defaults to DefaultValidatorURL.
	ValidatorURL string
	// InsecureSkipVerify disables certificate validation when fetching the
	// audited page. It never applies to the validator itself.
	InsecureSkipVerify bool
	// Timeout defaults to DefaultHTTPTimeout.
	Timeout   time.Duration
	UserAgent string
	// MaxDocumentBytes defaults to DefaultMaxDocumentBytes. Larger pages fail
	// the check instead of being validated in part.
	MaxDocumentBytes int64
}

// HTMLValidator fetches a page and submits its markup to the Nu HTML Checker.
type HTMLValidator struct {
	validatorURL    string
	userAgent       string
	maxDocument     int64
	pageClient      *http.Client
	validatorClient *http.Client
}

var _ Checker = (*HTMLValidator)(nil)

// NewHTMLValidator creates an [HTMLValidator].
func NewHTMLValidator(args HTMLValidatorArgs) *HTMLValidator {
	timeout := args.Timeout
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	validatorURL := args.ValidatorURL
	if validatorURL == "" {
		validatorURL = DefaultValidatorURL
	}
	userAgent := args.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxDocument := args.MaxDocumentBytes
	if maxDocument <= 0 {
		maxDocument = DefaultMaxDocumentBytes
	}

	pageTransport := http.DefaultTransport.(*http.Transport).Clone()
	if args.InsecureSkipVerify {
		pageTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &HTMLValidator{
		validatorURL:    validatorURL,
		userAgent:       userAgent,
		maxDocument:     maxDocument,
		pageClient:      &http.Client{Timeout: timeout, Transport: pageTransport},
		validatorClient: &http.Client{Timeout: timeout},
	}
}

func (v *HTMLValidator) Name() Name { return HTMLValidation }

func (v *HTMLValidator) Run(ctx context.Context, target string) (*Result, error) {
	doc, err := v.fetch(ctx, target)
	if err != nil {
		return nil, &Error{Check: HTMLValidation, Engine: "http", Err: err}
	}

	raw, err := v.validate(ctx, doc)
	if err != nil {
		return nil, &Error{Check: HTMLValidation, Engine: nuCheckerEngine, Err: err}
	}
	return newResult(HTMLValidation, nuCheckerEngine, raw)
}

func (v *HTMLValidator) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.pageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", target, resp.Status)
	}

	// One byte past the limit tells a page that fits exactly from one that doesn't.
	doc, err := io.ReadAll(io.LimitReader(resp.Body, v.maxDocument+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", target, err)
	}
	if int64(len(doc)) > v.maxDocument {
		return nil, fmt.Errorf("reading %s: page exceeds %d bytes", target, v.maxDocument)
	}
	return doc, nil
}

func (v *HTMLValidator) validate(ctx context.Context, doc []byte) ([]byte, error) {
	u, err := url.Parse(v.validatorURL)
	if err != nil {
		return nil, fmt.Errorf("parsing validator URL: %w", err)
	}
	q := u.Query()
	q.Set("out", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("building validator request: %w", err)
	}
	req.Header.Set("Content-Type", "text/html; charset=utf-8")
	req.Header.Set("User-Agent", v.userAgent)

	resp, err := v.validatorClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling validator: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading validator response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("validator returned %s", resp.Status)
	}
	return body, nil
}
