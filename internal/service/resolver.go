package service

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/MrSnakeDoc/primsync/internal/globalconfig"
	"github.com/MrSnakeDoc/primsync/internal/logger"
	"github.com/MrSnakeDoc/primsync/internal/models"
	"github.com/MrSnakeDoc/primsync/internal/utils"
)

// The PRIM Gravitee portal embeds the spec URL in a JSON blob inside the
// page's JavaScript; the "swaggerUrl" key is the most reliable signal.
var swaggerURLRe = regexp.MustCompile(`"swaggerUrl"\s*:\s*"(https?://[^"]+)"`)

// Fallback patterns matching common OpenAPI URL shapes, tried in order.
var specURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s"'<>]+?(?:openapi|swagger)[^\s"'<>]*?\.json`),
	regexp.MustCompile(`(?i)https?://[^\s"'<>]+?/spec(?:/|\.json)`),
	regexp.MustCompile(`(?i)https?://[^\s"'<>]+?/api-docs(?:/|\.json)`),
	regexp.MustCompile(`(?i)https?://[^\s"'<>]+?/swagger\?[^\s"'<>]+`),
}

// ExtractSpecURL finds an OpenAPI/Swagger spec URL inside an HTML page.
// Returns "" when nothing matched.
func ExtractSpecURL(html string) string {
	if m := swaggerURLRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}
	for _, re := range specURLPatterns {
		if m := re.FindString(html); m != "" {
			return m
		}
	}
	return ""
}

// ResolveSpecURL returns the URL to fetch a spec resource from. Direct
// resources carry it in the manifest; portal_page resources need their portal
// page scraped first, with the manifest override as a last resort.
func (f *Fetcher) ResolveSpecURL(ctx context.Context, res models.Resource) (string, error) {
	switch res.Source {
	case models.SourceDirect:
		return res.SpecURL, nil
	case models.SourcePortalPage:
		// fallthrough below
	default:
		return "", fmt.Errorf("resource %s: unknown source type %q", res.ID, res.Source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.PageURL, http.NoBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", globalconfig.UserAgent)
	// Protected portals gate the catalog page itself, not just the spec.
	if res.Auth && f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		if res.SpecURLOverride != "" {
			logger.Warn("resource %s: page fetch failed (%v), using spec_url_override", res.ID, err)
			return res.SpecURLOverride, nil
		}
		return "", fmt.Errorf("fetch page %s: %w", res.PageURL, err)
	}
	defer utils.Try(resp.Body.Close)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if res.SpecURLOverride != "" {
			logger.Warn("resource %s: page returned %d, using spec_url_override", res.ID, resp.StatusCode)
			return res.SpecURLOverride, nil
		}
		return "", fmt.Errorf("fetch page %s: unexpected status %d", res.PageURL, resp.StatusCode)
	}

	html, err := f.readAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch page %s: %w", res.PageURL, err)
	}

	if url := ExtractSpecURL(string(html)); url != "" {
		return url, nil
	}
	if res.SpecURLOverride != "" {
		logger.Warn("resource %s: no spec URL found in page, using spec_url_override", res.ID)
		return res.SpecURLOverride, nil
	}
	return "", fmt.Errorf("resource %s: could not extract spec URL from %s", res.ID, res.PageURL)
}
