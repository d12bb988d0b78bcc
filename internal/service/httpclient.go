package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/store"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHTTPClient struct{ *http.Client }

func NewHTTPClient(timeout time.Duration) *DefaultHTTPClient {
	return &DefaultHTTPClient{Client: &http.Client{Timeout: timeout}}
}

type OutcomeKind int

const (
	// Changed: the origin returned a body whose hash differs from the
	// committed one (or there was no prior record).
	Changed OutcomeKind = iota
	// Unchanged: the origin confirmed "not modified"; no body was read.
	Unchanged
	// UnchangedContent: the origin re-sent a body hashing identical to the
	// committed one (conditional headers ignored or unsupported upstream).
	UnchangedContent
)

func (k OutcomeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case UnchangedContent:
		return "unchanged-content"
	default:
		return "changed"
	}
}

// Outcome is the result of one conditional fetch. Body is populated only for
// Changed. Meta is the record to commit: fresh for Changed, refreshed version
// tokens for UnchangedContent, the untouched prior record for Unchanged.
type Outcome struct {
	Kind OutcomeKind
	Body []byte
	Meta store.Meta
}

// Fetcher performs single-attempt conditional fetches. It never writes to the
// store; retry policy belongs to the caller.
type Fetcher struct {
	Client   HTTPClient
	Token    string
	MaxBytes int64
}

func NewFetcher(client HTTPClient, token string) *Fetcher {
	if client == nil {
		client = NewHTTPClient(globalconfig.HTTPTimeout)
	}
	return &Fetcher{
		Client:   client,
		Token:    token,
		MaxBytes: globalconfig.MaxDownloadBytes,
	}
}

// Fetch issues one conditional GET against url. prior may be nil (first
// fetch); when set, its ETag/Last-Modified become If-None-Match /
// If-Modified-Since. Transport failures and unexpected statuses surface as
// errors, never as an Unchanged outcome.
func (f *Fetcher) Fetch(ctx context.Context, url string, auth bool, prior *store.Meta) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("User-Agent", globalconfig.UserAgent)
	if auth && f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	if prior != nil {
		if prior.ETag != "" {
			req.Header.Set("If-None-Match", prior.ETag)
		}
		if prior.LastModified != "" {
			req.Header.Set("If-Modified-Since", prior.LastModified)
		}
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode == http.StatusNotModified {
		if prior == nil {
			return Outcome{}, fmt.Errorf("fetch %s: 304 without prior metadata", url)
		}
		return Outcome{Kind: Unchanged, Meta: *prior}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Outcome{}, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := f.readAll(resp.Body)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	sha := utils.SHA256Hex(body)
	meta := store.Meta{
		URL:          url,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		SHA256:       sha,
		SizeBytes:    int64(len(body)),
		FetchedAt:    time.Now().UTC(),
	}

	if prior != nil && store.Compare(sha, *prior) {
		// Origin ignored the conditional headers; same bytes came back.
		return Outcome{Kind: UnchangedContent, Meta: meta}, nil
	}

	return Outcome{Kind: Changed, Body: body, Meta: meta}, nil
}

func (f *Fetcher) readAll(r io.Reader) ([]byte, error) {
	max := f.MaxBytes
	if max <= 0 {
		max = globalconfig.MaxDownloadBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > max {
		return nil, fmt.Errorf("body exceeds %s cap", utils.HumanSize(max))
	}
	return body, nil
}
