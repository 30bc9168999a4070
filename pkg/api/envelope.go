package api

import (
	"mime"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

// decodeBody extracts the JSON body of a response. A response is treated
// as bodiless when Content-Length is 0 or the content type is not JSON;
// unparseable bodies yield nil rather than an error.
func decodeBody(resp *http.Response, raw []byte) json.RawMessage {
	if resp.ContentLength == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !isJSONMediaType(mediaType) {
		return nil
	}
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}
	return json.RawMessage(raw)
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// errorEnvelope is the backend failure payload. detail may be a plain
// string or a validation array of objects carrying msg or message.
type errorEnvelope struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationItem struct {
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// errorMessage resolves the failure message from a non-2xx body, in
// precedence order: detail string, validation array joined with ". ",
// then message. Falls back to the HTTP status line.
func errorMessage(data json.RawMessage, fallback string) string {
	if len(data) == 0 {
		return fallback
	}
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fallback
	}

	if len(envelope.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(envelope.Detail, &detail); err == nil && detail != "" {
			return detail
		}
		var items []validationItem
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				msg := item.Msg
				if msg == "" {
					msg = item.Message
				}
				if msg != "" {
					parts = append(parts, msg)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, ". ")
			}
		}
	}

	if envelope.Message != "" {
		return envelope.Message
	}
	return fallback
}
