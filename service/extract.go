package service

import (
	"fmt"

	"ragcompare-backend/models"
)

// textExtractor pulls answer text out of one response shape
type textExtractor func(resp models.ModelResponse) (string, bool)

// modelExtractors is the order used for direct model calls
var modelExtractors = []textExtractor{
	extractText,
	extractMessage,
	extractField("answer"),
	extractField("content"),
	extractField("text"),
}

// chainExtractors additionally unwraps a nested "result" ahead of the plain fields
var chainExtractors []textExtractor

func init() {
	chainExtractors = []textExtractor{
		extractText,
		extractMessage,
		extractResult,
		extractField("answer"),
		extractField("content"),
		extractField("text"),
	}
}

// ExtractModelText returns the answer text of a direct model response
func ExtractModelText(resp models.ModelResponse) string {
	return extractWith(modelExtractors, resp)
}

// ExtractChainText returns the answer text of a retrieval chain response
func ExtractChainText(resp models.ModelResponse) string {
	return extractWith(chainExtractors, resp)
}

func extractWith(extractors []textExtractor, resp models.ModelResponse) string {
	for _, extract := range extractors {
		if text, ok := extract(resp); ok {
			return text
		}
	}
	return resp.String()
}

func extractText(resp models.ModelResponse) (string, bool) {
	if resp.Kind != models.ResponseText {
		return "", false
	}
	return resp.Text, true
}

func extractMessage(resp models.ModelResponse) (string, bool) {
	if resp.Kind != models.ResponseMessage {
		return "", false
	}
	return resp.Content, true
}

func extractField(key string) textExtractor {
	return func(resp models.ModelResponse) (string, bool) {
		if resp.Kind != models.ResponseFields {
			return "", false
		}
		value, ok := resp.Fields[key]
		if !ok {
			return "", false
		}
		if s, isString := value.(string); isString {
			return s, true
		}
		return fmt.Sprint(value), true
	}
}

func extractResult(resp models.ModelResponse) (string, bool) {
	if resp.Kind != models.ResponseFields {
		return "", false
	}
	value, ok := resp.Fields["result"]
	if !ok {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case models.ModelResponse:
		return ExtractChainText(v), true
	case map[string]interface{}:
		return ExtractChainText(models.FieldsResponse(v)), true
	default:
		return fmt.Sprint(v), true
	}
}
