package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

var (
	errNotNumber = errors.New("value is not a number")
	errNotRecord = errors.New(`match is not a {"name", "value"} record`)
)

// JSONSource reads values from a JSON document. Without a selector the
// document must be an object mapping names to numbers. With a JSONPath
// selector, every match must be an object carrying "name" and "value".
type JSONSource struct {
	FS       billy.Filesystem
	Path     string
	Selector string
}

// Values implements ValueSource.
func (s *JSONSource) Values(_ context.Context) (map[string]float64, error) {
	content, err := util.ReadFile(s.FS, s.Path)
	if err != nil {
		return nil, fmt.Errorf("open values %s: %w", s.Path, err)
	}
	data, err := oj.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse json %s: %w", s.Path, err)
	}
	if s.Selector == "" {
		return s.fromObject(data)
	}
	return s.fromRecords(data)
}

func (s *JSONSource) fromObject(data any) (map[string]float64, error) {
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, &ValueFormatError{Source: s.Path, Record: "$", Err: errors.New("expected an object of name: value")}
	}
	values := make(map[string]float64, len(obj))
	for name, raw := range obj {
		v, err := number(raw)
		if err != nil {
			return nil, &ValueFormatError{Source: s.Path, Record: name, Err: err}
		}
		values[name] = v
	}
	return values, nil
}

func (s *JSONSource) fromRecords(data any) (map[string]float64, error) {
	x, err := jp.ParseString(s.Selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", s.Selector, err)
	}

	results := x.Get(data)
	values := make(map[string]float64, len(results))
	for i, r := range results {
		rec, ok := r.(map[string]any)
		if !ok {
			return nil, &ValueFormatError{Source: s.Path, Record: "match " + strconv.Itoa(i), Err: errNotRecord}
		}
		name, ok := rec["name"].(string)
		if !ok {
			return nil, &ValueFormatError{Source: s.Path, Record: "match " + strconv.Itoa(i), Err: errNotRecord}
		}
		v, err := number(rec["value"])
		if err != nil {
			return nil, &ValueFormatError{Source: s.Path, Record: name, Err: err}
		}
		values[name] = v
	}
	return values, nil
}

func number(raw any) (float64, error) {
	switch v := raw.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case json.Number:
		// Numbers too long to hold exactly.
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, errNotNumber
	}
}
