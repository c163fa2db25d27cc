// Package content discovers, extracts, and filters candidate reading
// material for the recommendation pipeline.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindline-ai/mindline/internal/llm"
	"github.com/mindline-ai/mindline/internal/prompts"
	"github.com/mindline-ai/mindline/pkg/models"
)

// Extractor reduces fetched HTML to structured content via one cached
// structured call.
type Extractor struct {
	model llm.Completer
}

// NewExtractor creates an extractor.
func NewExtractor(model llm.Completer) *Extractor {
	return &Extractor{model: model}
}

type extraction struct {
	Title       string                 `json:"title"`
	Source      string                 `json:"source"`
	Author      string                 `json:"author"`
	PublishDate string                 `json:"publish_date"`
	Analysis    models.ContentAnalysis `json:"analysis"`
}

// Extract turns one fetched page into ProcessedContent.
func (e *Extractor) Extract(ctx context.Context, url string, html []byte) (*models.ProcessedContent, error) {
	title, text := reduceHTML(html)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("page %s has no extractable text", url)
	}

	var out extraction
	if err := e.model.Complete(ctx, prompts.ExtractContent(url, title, text), &out); err != nil {
		return nil, fmt.Errorf("extract content from %s: %w", url, err)
	}
	if out.Title == "" {
		out.Title = title
	}

	return &models.ProcessedContent{
		ContentID:   models.ContentID(url),
		URL:         url,
		Title:       out.Title,
		Source:      out.Source,
		Author:      out.Author,
		PublishDate: out.PublishDate,
		Analysis:    out.Analysis,
	}, nil
}

// reduceHTML strips markup and returns the page title plus visible text.
// script and style bodies are dropped entirely.
func reduceHTML(html []byte) (title, text string) {
	var (
		sb        strings.Builder
		titleBuf  strings.Builder
		inTag     bool
		inTitle   bool
		skipDepth int
		tagBuf    strings.Builder
	)

	flushTag := func() {
		tag := strings.ToLower(strings.TrimSpace(tagBuf.String()))
		tagBuf.Reset()
		name, _, _ := strings.Cut(tag, " ")
		name = strings.TrimSuffix(name, "/")
		switch name {
		case "script", "style", "noscript":
			skipDepth++
		case "/script", "/style", "/noscript":
			if skipDepth > 0 {
				skipDepth--
			}
		case "title":
			inTitle = true
		case "/title":
			inTitle = false
		case "p", "/p", "br", "br/", "div", "/div", "li", "/li", "h1", "h2", "h3", "/h1", "/h2", "/h3", "tr", "/tr":
			sb.WriteByte('\n')
		}
	}

	for _, r := range string(html) {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
				flushTag()
			} else {
				tagBuf.WriteRune(r)
			}
		case r == '<':
			inTag = true
		case skipDepth > 0:
			// Dropped.
		case inTitle:
			titleBuf.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}

	title = strings.TrimSpace(titleBuf.String())
	text = collapseWhitespace(sb.String())
	return title, text
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
