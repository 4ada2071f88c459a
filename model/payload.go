package model

import (
	"encoding/json"
)

// Payload keeps an upstream response exactly as it arrived. Bodies that are
// not JSON are wrapped as {"raw": "<text>"}.
type Payload struct {
	body json.RawMessage
	raw  bool
}

// NewPayload decodes a response body, falling back to the raw wrapper.
func NewPayload(body []byte) Payload {
	if json.Valid(body) && len(body) > 0 {
		return Payload{body: append(json.RawMessage(nil), body...)}
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(body)})
	return Payload{body: wrapped, raw: true}
}

func (p Payload) Raw() json.RawMessage {
	if len(p.body) == 0 {
		return json.RawMessage("null")
	}
	return p.body
}

// IsRaw reports whether the upstream body was not JSON.
func (p Payload) IsRaw() bool {
	return p.raw
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return p.Raw(), nil
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	p.body = append(json.RawMessage(nil), b...)
	p.raw = false
	return nil
}

// firstString looks for the first non-empty string (or number) under any of
// keys, at the top level or inside a "data" object.
func (p Payload) firstString(keys ...string) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(p.body, &top); err != nil {
		return ""
	}
	if v := lookup(top, keys); v != "" {
		return v
	}
	if nested, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			return lookup(inner, keys)
		}
	}
	return ""
}

func lookup(m map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			return n.String()
		}
	}
	return ""
}
