package api

import (
	"net/http"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"detail string",
			`{"detail":"environment not found","message":"ignored"}`,
			"environment not found",
		},
		{
			"validation array with msg",
			`{"detail":[{"msg":"name is required"},{"msg":"branch is required"}]}`,
			"name is required. branch is required",
		},
		{
			"validation array with message fallback",
			`{"detail":[{"message":"name is required"}]}`,
			"name is required",
		},
		{
			"validation array mixed keys",
			`{"detail":[{"msg":"first"},{"message":"second"}]}`,
			"first. second",
		},
		{
			"message only",
			`{"message":"workspace suspended"}`,
			"workspace suspended",
		},
		{
			"empty validation array falls through to message",
			`{"detail":[],"message":"nothing useful"}`,
			"nothing useful",
		},
		{
			"unrecognized body",
			`{"oops":true}`,
			"500 Internal Server Error",
		},
		{
			"empty body",
			``,
			"500 Internal Server Error",
		},
		{
			"non-object body",
			`"just a string"`,
			"500 Internal Server Error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errorMessage(json.RawMessage(tt.body), "500 Internal Server Error")
			if got != tt.want {
				t.Errorf("errorMessage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeBody(t *testing.T) {
	tests := []struct {
		name          string
		contentLength int64
		contentType   string
		raw           string
		wantNil       bool
	}{
		{"json object", -1, "application/json", `{"a":1}`, false},
		{"json with charset", -1, "application/json; charset=utf-8", `[1,2]`, false},
		{"problem+json", -1, "application/problem+json", `{"detail":"x"}`, false},
		{"explicit zero length", 0, "application/json", ``, true},
		{"html body", -1, "text/html", `<html></html>`, true},
		{"missing content type", -1, "", `{"a":1}`, true},
		{"invalid json", -1, "application/json", `{"a":`, true},
		{"empty with unknown length", -1, "application/json", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				ContentLength: tt.contentLength,
				Header:        http.Header{},
			}
			if tt.contentType != "" {
				resp.Header.Set("Content-Type", tt.contentType)
			}
			got := decodeBody(resp, []byte(tt.raw))
			if (got == nil) != tt.wantNil {
				t.Errorf("decodeBody = %s, wantNil = %v", got, tt.wantNil)
			}
		})
	}
}

func TestResultDecode(t *testing.T) {
	result := Result{Data: json.RawMessage(`{"id":"e1"}`), Status: http.StatusOK}
	var v struct {
		ID string `json:"id"`
	}
	if err := result.Decode(&v); err != nil || v.ID != "e1" {
		t.Errorf("Decode: %v, v=%+v", err, v)
	}

	empty := Result{Status: http.StatusNoContent}
	if err := empty.Decode(&v); err == nil || !strings.Contains(err.Error(), "no data") {
		t.Errorf("expected no-data error, got %v", err)
	}
}
