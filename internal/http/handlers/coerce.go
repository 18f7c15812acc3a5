package handlers

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Clients send wrist_inner_cm / bead_size_mm as number or string depending
// on the form widget. Coercion failure falls back to the default rather
// than aborting the request.

func coerceFloat(raw json.RawMessage, def float64) float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return def
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func coerceInt(raw json.RawMessage, def int) int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return def
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return def
	}
	return int(f)
}
