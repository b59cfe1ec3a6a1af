package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/avast/retry-go/v4"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hmarward/sidekick/pkg/logger"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

const (
	webFetchAttempts   = 3
	webFetchRetryDelay = 500 * time.Millisecond
	maxRedirects       = 10
)

// WebFetchToolResult represents the result of fetching content from a web URL
type WebFetchToolResult struct {
	url           string
	result        string
	contentType   string
	processedType string
	truncated     bool
	err           string
}

func (r *WebFetchToolResult) GetResult() string {
	return r.result
}

func (r *WebFetchToolResult) GetError() string {
	return r.err
}

func (r *WebFetchToolResult) IsError() bool {
	return r.err != ""
}

func (r *WebFetchToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.result, r.err)
}

func (r *WebFetchToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "web_fetch",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.WebFetchMetadata{
		URL:           r.url,
		ContentType:   r.contentType,
		Size:          int64(len(r.result)),
		ProcessedType: r.processedType,
		Content:       r.result,
		Truncated:     r.truncated,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

// WebFetchTool implements the web_fetch tool for retrieving and processing web content.
type WebFetchTool struct{}

// isLocalHost checks if the given hostname/IP is a localhost or internal address
func isLocalHost(hostname string) bool {
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" || hostname == "0.0.0.0" {
		return true
	}

	if ip := net.ParseIP(hostname); ip != nil {
		return ip.IsLoopback()
	}

	return false
}

// WebFetchInput defines the input parameters for the web_fetch tool.
type WebFetchInput struct {
	URL string `json:"url" jsonschema:"description=The URL to fetch content from"`
}

func (t *WebFetchTool) Name() string {
	return "web_fetch"
}

func (t *WebFetchTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[WebFetchInput]()
}

func (t *WebFetchTool) Description() string {
	return `Fetch content from a public URL.

# Input
- url: required URL to fetch

# Rules
- Use HTTPS for external domains.
- HTTP is allowed only for localhost/internal addresses.
- Redirects are followed only within the same domain (max 10).
- Binary content types (zip/pdf/image/audio/video/octet-stream) are rejected.

# Behavior
- HTML pages are converted to Markdown before being returned.
- Markdown and plain text content is returned as-is.
- Transient network failures are retried with backoff.
- Output is truncated if it exceeds the size limit.

# Notes
- Only public URLs are supported (no auth/session handling).
`
}

func (t *WebFetchTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &WebFetchInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return err
	}

	if input.URL == "" {
		return errors.New("url is required")
	}

	parsedURL, err := url.Parse(input.URL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	// Allow HTTP for localhost/internal addresses, require HTTPS for external domains
	if parsedURL.Scheme != "https" && (parsedURL.Scheme != "http" || !isLocalHost(parsedURL.Hostname())) {
		return errors.New("only HTTPS scheme is supported for external domains, HTTP is allowed for localhost/internal addresses")
	}

	return nil
}

func (t *WebFetchTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &WebFetchInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("url", input.URL),
	}, nil
}

func (t *WebFetchTool) Execute(ctx context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &WebFetchInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return &WebFetchToolResult{url: input.URL, err: err.Error()}
	}

	var content, contentType string
	err = retry.Do(
		func() error {
			var fetchErr error
			content, contentType, fetchErr = fetchWithSameDomainRedirects(ctx, input.URL)
			return fetchErr
		},
		retry.Context(ctx),
		retry.Attempts(webFetchAttempts),
		retry.Delay(webFetchRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransientFetchError),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying web fetch")
		}),
	)
	if err != nil {
		return &WebFetchToolResult{
			url: input.URL,
			err: fmt.Sprintf("Failed to fetch URL: %s", err),
		}
	}

	processedType := "text"
	isHTML := strings.Contains(contentType, "text/html")
	if isHTML {
		content = convertHTMLToMarkdown(ctx, content)
		processedType = "markdown"
	} else if strings.Contains(contentType, "text/markdown") || isMarkdownFromURL(input.URL) {
		processedType = "markdown"
	}

	truncated := false
	if len(content) > MaxOutputBytes {
		content = content[:MaxOutputBytes] + fmt.Sprintf("\n\n... [truncated due to max output bytes limit of %d]", MaxOutputBytes)
		truncated = true
	}

	return &WebFetchToolResult{
		url:           input.URL,
		result:        content,
		contentType:   contentType,
		processedType: processedType,
		truncated:     truncated,
	}
}

// isTransientFetchError reports whether a fetch failure is worth retrying.
// Policy violations (scheme, redirect domain, content type) are permanent.
func isTransientFetchError(err error) bool {
	var permanent *permanentFetchError
	return !errors.As(err, &permanent)
}

type permanentFetchError struct {
	msg string
}

func (e *permanentFetchError) Error() string {
	return e.msg
}

func permanentf(format string, args ...any) error {
	return &permanentFetchError{msg: fmt.Sprintf(format, args...)}
}

// isMarkdownFromURL checks if the URL ends with markdown file extensions
func isMarkdownFromURL(urlStr string) bool {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsedURL.Path))
	return ext == ".md" || ext == ".markdown"
}

// fetchWithSameDomainRedirects fetches content from a URL and follows redirects
// only if they stay within the same domain.
func fetchWithSameDomainRedirects(ctx context.Context, urlStr string) (string, string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", "", permanentf("invalid URL: %s", err)
	}

	if parsedURL.Scheme != "https" && (parsedURL.Scheme != "http" || !isLocalHost(parsedURL.Hostname())) {
		return "", "", permanentf("only HTTPS scheme is supported for external domains, HTTP is allowed for localhost/internal addresses")
	}

	originalDomain := parsedURL.Hostname()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if req.URL.Hostname() != originalDomain {
				return permanentf("redirect to different domain not allowed: %s -> %s",
					originalDomain, req.URL.Hostname())
			}

			if len(via) >= maxRedirects {
				return permanentf("stopped after %d redirects", maxRedirects)
			}

			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Server errors are worth a retry, client errors are not
		if resp.StatusCode >= 500 {
			return "", "", errors.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
		}
		return "", "", permanentf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/octet-stream") ||
		strings.Contains(contentType, "application/zip") ||
		strings.Contains(contentType, "application/pdf") ||
		strings.Contains(contentType, "image/") ||
		strings.Contains(contentType, "audio/") ||
		strings.Contains(contentType, "video/") {
		return "", "", permanentf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}

	return string(body), contentType, nil
}

// convertHTMLToMarkdown converts HTML content to Markdown.
func convertHTMLToMarkdown(ctx context.Context, htmlContent string) string {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(htmlContent)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("Failed to convert HTML to Markdown, returning raw HTML")
		return htmlContent
	}
	return markdown
}
