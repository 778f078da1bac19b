package main

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/getclawkit/clawkit/internal/pricing"
)

var (
	needsArgRe        = regexp.MustCompile(`flag needs an argument: (?:'.' in )?(-{1,2}[\w-]+)`)
	unknownShortRe    = regexp.MustCompile(`unknown shorthand flag: '.*' in (-\w)`)
	invalidArgumentRe = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: (.*)`)
)

func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		if parts := needsArgRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		if parts := unknownShortRe.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s has an invalid argument."
		if parts := invalidArgumentRe.FindStringSubmatch(s); len(parts) > 2 { //nolint:mnd
			flag = parts[1]
			reason = "Flag %s has an invalid argument: " + strings.ReplaceAll(parts[2], "%", "%%")
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

// durationFlag also accepts days and weeks, as in 1d or 2w.
type durationFlag time.Duration

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	if err != nil {
		return err //nolint:wrapcheck
	}
	*d = durationFlag(v)
	return nil
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

// priceFlag collects rate overrides given as id=input:output, in dollars per
// million tokens. It can be repeated; a later value for the same model wins.
type priceFlag map[string]pricing.Override

func newPriceFlag(p *map[string]pricing.Override) *priceFlag {
	if *p == nil {
		*p = map[string]pricing.Override{}
	}
	return (*priceFlag)(p)
}

func (f *priceFlag) Set(s string) error {
	id, rates, ok := strings.Cut(s, "=")
	id = strings.ToLower(strings.TrimSpace(id))
	if !ok || id == "" {
		return errors.New("expected id=input:output")
	}
	input, output, ok := strings.Cut(rates, ":")
	if !ok {
		return errors.New("expected id=input:output")
	}
	var o pricing.Override
	var err error
	if o.Input, err = parseRate(input); err != nil {
		return fmt.Errorf("input rate: %w", err)
	}
	if o.Output, err = parseRate(output); err != nil {
		return fmt.Errorf("output rate: %w", err)
	}
	(*f)[id] = o
	return nil
}

func parseRate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}
	if v < 0 {
		return 0, fmt.Errorf("%v is negative", v)
	}
	return v, nil
}

func (f *priceFlag) String() string {
	ids := slices.Sorted(maps.Keys(*f))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		o := (*f)[id]
		parts = append(parts, fmt.Sprintf("%s=%g:%g", id, o.Input, o.Output))
	}
	return strings.Join(parts, ",")
}

func (*priceFlag) Type() string {
	return "id=in:out"
}
