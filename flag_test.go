package main

import (
	"errors"
	"testing"
	"time"

	"github.com/getclawkit/clawkit/internal/pricing"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

var flagParseErrorTests = []struct {
	in     string
	flag   string
	reason string
}{
	{
		"unknown flag: --nope",
		"--nope",
		"Flag %s is missing.",
	},
	{
		"flag needs an argument: --daily-runs",
		"--daily-runs",
		"Flag %s needs an argument.",
	},
	{
		"flag needs an argument: 'm' in -m",
		"-m",
		"Flag %s needs an argument.",
	},
	{
		"unknown shorthand flag: 'x' in -x",
		"-x",
		"Short flag %s is missing.",
	},
	{
		`invalid argument "20dd" for "--timeout" flag: time: unknown unit "dd" in duration "20dd"`,
		"--timeout",
		`Flag %s has an invalid argument: time: unknown unit "dd" in duration "20dd"`,
	},
	{
		`invalid argument "lots" for "--steps" flag: strconv.ParseInt: parsing "lots": invalid syntax`,
		"--steps",
		`Flag %s has an invalid argument: strconv.ParseInt: parsing "lots": invalid syntax`,
	},
	{
		`invalid argument "x" for "--cache-hit" flag: 5% is not a number`,
		"--cache-hit",
		"Flag %s has an invalid argument: 5%% is not a number",
	},
}

func TestFlagParseError(t *testing.T) {
	for _, tf := range flagParseErrorTests {
		t.Run(tf.in, func(t *testing.T) {
			err := newFlagParseError(errors.New(tf.in))
			require.Equal(t, tf.flag, err.Flag())
			require.Equal(t, tf.reason, err.ReasonFormat())
			require.Equal(t, tf.in, err.Error())
		})
	}
}

func TestDurationFlag(t *testing.T) {
	var d time.Duration
	f := newDurationFlag(5*time.Second, &d)
	require.Equal(t, 5*time.Second, d)
	require.Equal(t, "duration", f.Type())

	require.NoError(t, f.Set("1d"))
	require.Equal(t, 24*time.Hour, d)
	require.Equal(t, "24h0m0s", f.String())

	require.Error(t, f.Set("soon"))
	require.Equal(t, 24*time.Hour, d, "a bad value keeps the previous one")
}

func TestPriceFlag(t *testing.T) {
	var prices map[string]pricing.Override
	flags := pflag.NewFlagSet("cost", pflag.ContinueOnError)
	flags.Var(newPriceFlag(&prices), "price", "")

	require.NoError(t, flags.Parse([]string{
		"--price", "custom=1.5:3",
		"--price", " GPT4 = 2 : 4 ",
		"--price", "custom=1:2",
	}))
	require.Equal(t, map[string]pricing.Override{
		"custom": {Input: 1, Output: 2},
		"gpt4":   {Input: 2, Output: 4},
	}, prices)
	require.Equal(t, "custom=1:2,gpt4=2:4", flags.Lookup("price").Value.String())

	for _, bad := range []string{"custom", "=1:2", "custom=1", "custom=a:2", "custom=1:b", "custom=-1:2"} {
		t.Run(bad, func(t *testing.T) {
			var prices map[string]pricing.Override
			flags := pflag.NewFlagSet("cost", pflag.ContinueOnError)
			flags.Var(newPriceFlag(&prices), "price", "")
			err := flags.Parse([]string{"--price", bad})
			require.Error(t, err)

			ferr := newFlagParseError(err)
			require.Equal(t, "--price", ferr.Flag())
			require.Contains(t, ferr.ReasonFormat(), "Flag %s has an invalid argument: ")
		})
	}
}
