package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params holds rule parameters as decoded from a catalog document.
type Params map[string]any

// RuleRef binds a field to a rule by name.
type RuleRef struct {
	Name   string `json:"rule" yaml:"rule" mapstructure:"rule"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

type factory func(Params) (Rule, error)

var builtin = map[string]factory{
	"text": func(p Params) (Rule, error) {
		return &TextRule{name: "text", min: p.intParam("min", 1), max: p.intParam("max", 80)}, nil
	},
	"long_text": func(p Params) (Rule, error) {
		return &TextRule{name: "long_text", min: p.intParam("min", 1), max: p.intParam("max", 1000), multiline: true}, nil
	},
	"url": func(p Params) (Rule, error) {
		schemes := p.stringsParam("schemes")
		if len(schemes) == 0 {
			schemes = []string{"http", "https"}
		}
		return &URLRule{schemes: schemes, hosts: p.stringsParam("hosts"), assumeHTTPS: p.boolParam("assume_https")}, nil
	},
	"hex_color": func(Params) (Rule, error) { return &HexColorRule{}, nil },
	"choice": func(p Params) (Rule, error) {
		opts := p.stringsParam("options")
		if len(opts) == 0 {
			return nil, fmt.Errorf("choice rule requires options")
		}
		return &ChoiceRule{options: opts}, nil
	},
	"integer": func(p Params) (Rule, error) {
		r := &IntegerRule{}
		if v, ok := p.numberParam("min"); ok {
			r.min, r.hasMin = int64(v), true
		}
		if v, ok := p.numberParam("max"); ok {
			r.max, r.hasMax = int64(v), true
		}
		return r, nil
	},
	"decimal": func(p Params) (Rule, error) {
		r := &DecimalRule{name: "decimal"}
		if v, ok := p.numberParam("min"); ok {
			r.min, r.hasMin = v, true
		}
		if v, ok := p.numberParam("max"); ok {
			r.max, r.hasMax = v, true
		}
		return r, nil
	},
	"percent": func(Params) (Rule, error) {
		return &DecimalRule{name: "percent", min: 0, max: 100, hasMin: true, hasMax: true, suffix: "%"}, nil
	},
	"ticker": func(Params) (Rule, error) { return &TickerRule{}, nil },
	"date":   func(Params) (Rule, error) { return &DateRule{}, nil },
	"sections": func(p Params) (Rule, error) {
		r := &SectionsRule{required: p.stringsParam("required"), allowed: p.stringsParam("allowed")}
		for _, s := range r.required {
			if len(r.allowed) > 0 && !containsFold(r.allowed, s) {
				return nil, fmt.Errorf("required section %q is not allowed", s)
			}
		}
		return r, nil
	},
	"distribution": func(p Params) (Rule, error) {
		return &DistributionRule{maxLabel: p.intParam("max_label", 40)}, nil
	},
	"named_url": func(p Params) (Rule, error) {
		schemes := p.stringsParam("schemes")
		if len(schemes) == 0 {
			schemes = []string{"http", "https"}
		}
		return &NamedURLRule{url: URLRule{schemes: schemes, assumeHTTPS: true}}, nil
	},
}

// Compile resolves a rule reference into a Rule.
func Compile(ref RuleRef) (Rule, error) {
	f, ok := builtin[ref.Name]
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", ref.Name)
	}
	r, err := f(ref.Params)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", ref.Name, err)
	}
	return r, nil
}

// RuleNames lists the built-in rule names.
func RuleNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Params) intParam(key string, def int) int {
	if v, ok := p.numberParam(key); ok {
		return int(v)
	}
	return def
}

// numberParam accepts the numeric shapes produced by the YAML, TOML and JSON decoders.
func (p Params) numberParam(key string) (float64, bool) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func (p Params) boolParam(key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func (p Params) stringsParam(key string) []string {
	var out []string
	switch v := p[key].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
	case string:
		out = strings.Split(v, ",")
	}
	cleaned := out[:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
