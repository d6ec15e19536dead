package domain

import (
	"strconv"
	"time"
)

// Unit is one entry of a category table. Scale is "1 unit = Scale x base unit"
// and is zero for temperature units, which convert through formulas instead.
type Unit struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Scale   float64  `json:"scale,omitempty"`
	Aliases []string `json:"aliases,omitempty"`
}

type ConversionRequest struct {
	Value    float64
	Category Category
	FromUnit string
	ToUnit   string
}

type ConversionResult struct {
	Category Category `json:"category"`
	Value    float64  `json:"value"`
	Unit     string   `json:"unit"`
}

// Format renders the value with a fixed number of decimals.
func (r ConversionResult) Format(precision int) string {
	return strconv.FormatFloat(r.Value, 'f', precision, 64)
}

// ConversionInput is what a presentation shell collects before parsing.
type ConversionInput struct {
	Category string
	Value    string
	FromUnit string
	ToUnit   string
	Username string
}

// EventLevel mirrors the severity written to the conversion log.
type EventLevel string

const (
	EventInfo    EventLevel = "INFO"
	EventWarning EventLevel = "WARNING"
	EventError   EventLevel = "ERROR"
)

// ConversionEvent records a single conversion attempt, successful or not.
type ConversionEvent struct {
	Time      time.Time  `json:"time"`
	Level     EventLevel `json:"level"`
	Message   string     `json:"message"`
	Category  string     `json:"category,omitempty"`
	Input     string     `json:"input,omitempty"`
	FromUnit  string     `json:"from_unit,omitempty"`
	Output    string     `json:"output,omitempty"`
	ToUnit    string     `json:"to_unit,omitempty"`
	Username  string     `json:"username,omitempty"`
	Error     string     `json:"error,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}
