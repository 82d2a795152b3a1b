package models

import (
	"fmt"
	"sort"
	"strings"
)

// ResponseKind identifies which shape a model response has
type ResponseKind int

const (
	// ResponseText is a bare string
	ResponseText ResponseKind = iota
	// ResponseMessage is a chat message exposing its content
	ResponseMessage
	// ResponseFields is a structured key/value response, possibly nested
	ResponseFields
)

// ModelResponse is the raw response of a language model invocation
type ModelResponse struct {
	Kind    ResponseKind
	Text    string
	Content string
	Fields  map[string]interface{}
}

// TextResponse builds a plain string response
func TextResponse(text string) ModelResponse {
	return ModelResponse{Kind: ResponseText, Text: text}
}

// MessageResponse builds a message response
func MessageResponse(content string) ModelResponse {
	return ModelResponse{Kind: ResponseMessage, Content: content}
}

// FieldsResponse builds a structured response
func FieldsResponse(fields map[string]interface{}) ModelResponse {
	return ModelResponse{Kind: ResponseFields, Fields: fields}
}

// String returns a generic textual representation of the response
func (r ModelResponse) String() string {
	switch r.Kind {
	case ResponseText:
		return r.Text
	case ResponseMessage:
		return r.Content
	default:
		return formatFields(r.Fields)
	}
}

// formatFields renders a map with sorted keys so the fallback text is stable
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", k, fields[k]))
	}
	return "map[" + strings.Join(parts, " ") + "]"
}
