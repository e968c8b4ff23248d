// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing request data sent either as
// JSON (fetch calls from the sign-in page) or form-encoded (HTMX and plain
// forms).

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"devbills/internal/core"
)

// maxBodyBytes bounds every parsed request body. ID tokens are the largest
// values we accept, at a few KB.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseTransactionForm reads the new transaction form fields.
func ParseTransactionForm(r *http.Request) (core.TransactionForm, error) {
	if err := r.ParseForm(); err != nil {
		return core.TransactionForm{}, err
	}
	return core.TransactionForm{
		Description: sanitizeInput(r.PostForm.Get("description")),
		Amount:      sanitizeInput(r.PostForm.Get("amount")),
		Date:        sanitizeInput(r.PostForm.Get("date")),
		CategoryID:  sanitizeInput(r.PostForm.Get("categoryId")),
		Type:        sanitizeInput(r.PostForm.Get("type")),
	}, nil
}
