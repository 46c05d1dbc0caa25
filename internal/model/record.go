// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"
)

// Well-known record fields.
const (
	FieldTransactionID = "transaction_id"
	FieldPaymentID     = "payment_id"
	FieldAccountID     = "account_id"
	FieldAmount        = "amount"
	FieldDate          = "date"
	FieldCountry       = "country"
	FieldIPAddress     = "ip_address"
)

// dateLayouts are tried in order when validating a record's date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// Record is a single transaction as delivered by an ingestion source.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Text renders a field as a string. Missing and nil fields render as "".
func (r Record) Text(field string) string {
	return Stringify(r[field])
}

// ID returns transaction_id, falling back to payment_id.
func (r Record) ID() string {
	if id := r.Text(FieldTransactionID); id != "" {
		return id
	}
	return r.Text(FieldPaymentID)
}

// AccountID returns the record's account.
func (r Record) AccountID() string { return r.Text(FieldAccountID) }

// Country returns the record's country, or "" when absent.
func (r Record) Country() string { return strings.TrimSpace(r.Text(FieldCountry)) }

// Amount parses the amount field as a float.
func (r Record) Amount() (float64, error) {
	v, ok := r[FieldAmount]
	if !ok || v == nil {
		return 0, fmt.Errorf("record %q: missing %s", r.ID(), FieldAmount)
	}
	amount, err := toFloat(v)
	if err != nil {
		return 0, fmt.Errorf("record %q: invalid %s: %w", r.ID(), FieldAmount, err)
	}
	return amount, nil
}

// Number parses a numeric field. It reports false when the field is absent or
// not a number.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return 0, false
	}
	f, err := toFloat(v)
	return f, err == nil
}

// Date validates the date field and returns it trimmed, as given.
func (r Record) Date() (string, error) {
	raw := strings.TrimSpace(r.Text(FieldDate))
	if raw == "" {
		return "", fmt.Errorf("record %q: missing %s", r.ID(), FieldDate)
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return raw, nil
		}
	}
	return "", fmt.Errorf("record %q: unparseable %s %q", r.ID(), FieldDate, raw)
}

// Stringify renders a scalar field value the way it is shown in keys and reports.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case json.Number:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, error) {
	f, err := parseFloat(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite number %v", v)
	}
	return f, nil
}

func parseFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// RecordsFrom converts a channel value into records. It accepts []Record,
// []map[string]any and []any holding either.
func RecordsFrom(v any) ([]Record, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Record:
		return t, nil
	case []map[string]any:
		out := make([]Record, len(t))
		for i, m := range t {
			out[i] = Record(m)
		}
		return out, nil
	case []any:
		out := make([]Record, 0, len(t))
		for i, item := range t {
			switch m := item.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, Record(m))
			default:
				return nil, fmt.Errorf("record %d: unexpected type %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected records type %T", v)
	}
}
