package trade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

// Payload is a parsed webhook body. Body keeps the bytes exactly as received.
type Payload struct {
	Body   []byte
	fields map[string]any
}

// ParsePayload checks that body is a single UTF-8 JSON document. Any JSON
// value is accepted; only objects contribute typed fields.
func ParsePayload(body []byte) (*Payload, error) {
	// json.Valid lets invalid UTF-8 through inside strings; jsonb does not
	if !utf8.Valid(body) || !json.Valid(body) {
		return nil, ErrMalformedRequest
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	p := &Payload{Body: body}
	if obj, ok := doc.(map[string]any); ok {
		p.fields = obj
	}
	return p, nil
}

// Event projects the known keys onto an Event. It never fails: a missing or
// mistyped key leaves the field nil.
func (p *Payload) Event(receivedAt time.Time) *Event {
	return &Event{
		ReceivedAt: receivedAt.UTC(),
		Strategy:   p.optString("strategy"),
		Action:     p.optString("action"),
		Side:       p.optString("side"),
		Symbol:     p.optString("symbol"),
		TimeMs:     p.optInt("time_ms"),
		Price:      p.optFloat("price"),
		Qty:        p.optFloat("qty"),
		StopLoss:   p.optFloat("sl"),
		TakeProfit: p.optFloat("tp"),
		Equity:     p.optFloat("equity"),
		Reason:     p.optString("reason"),
		Raw:        json.RawMessage(p.Body),
	}
}

func (p *Payload) optString(key string) *string {
	s, ok := p.fields[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func (p *Payload) optFloat(key string) *float64 {
	n, ok := p.fields[key].(json.Number)
	if !ok {
		return nil
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// optInt accepts integral numbers only, including forms like 1.7e12.
func (p *Payload) optInt(key string) *int64 {
	n, ok := p.fields[key].(json.Number)
	if !ok {
		return nil
	}
	if i, err := n.Int64(); err == nil {
		return &i
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	i := int64(f)
	return &i
}
