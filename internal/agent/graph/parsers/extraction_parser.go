package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shipchat-core/server/internal/agent/model"
	errx "github.com/shipchat-core/server/internal/core/error"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// maxContentLen caps the model output we attempt to parse.
const maxContentLen = 64 * 1024

// ParseExtraction decodes the extraction model's output into an
// ExtractionResult. The model is instructed to emit exactly one JSON object,
// but fenced code blocks and surrounding prose are tolerated. Output that
// contains no parseable JSON object yields ExtractionParseError.
func ParseExtraction(content string) (*model.ExtractionResult, error) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "extraction_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}

	raw := extractJSONObject(content)
	if raw == "" {
		return nil, errx.WrapExtractionParse(fmt.Errorf("no JSON object in model output"))
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, errx.WrapExtractionParse(err)
	}
	return &result, nil
}

// extractJSONObject strips markdown fences and surrounding prose, returning
// the outermost {...} span or "" when none exists.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	if after, ok := strings.CutPrefix(content, "```json"); ok {
		content = after
	} else if after, ok := strings.CutPrefix(content, "```"); ok {
		content = after
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return ""
	}
	return content[start : end+1]
}
