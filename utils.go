// general purpose utilities
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// cannot continue, exit immediately without a stacktrace.
// just use `panic` if you do need a stracktrace.
func fatal() {
	fmt.Printf("cannot continue, ") // "cannot continue, exit status 1"
	os.Exit(1)
}

// when `b` is true, log error `msg` and die quietly.
func die(b bool, msg string, args ...any) {
	if b {
		slog.Error(msg, args...)
		fatal()
	}
}

// assert `b` is true, otherwise panic with message `msg`.
func ensure(b bool, msg string) {
	if !b {
		panic(msg)
	}
}

// returns `true` if tests are being run.
func is_testing() bool {
	return testing.Testing()
}

// returns just the unique items in `list`.
// order is preserved.
func unique[T comparable](list []T) []T {
	idx := make(map[T]bool)
	var result []T
	for _, item := range list {
		_, present := idx[item]
		if !present {
			idx[item] = true
			result = append(result, item)
		}
	}
	return result
}

// takes N lists of things `T` and returns a single list of them.
func flatten[T any](tll ...[]T) []T {
	final_tl := []T{}
	for _, tl := range tll {
		final_tl = append(final_tl, tl...)
	}
	return final_tl
}

// pretty-print any `thing` to `out`.
func pprint(out io.Writer, thing any) {
	s, _ := json.MarshalIndent(thing, "", "\t")
	fmt.Fprintln(out, string(s))
}

func path_exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

// "/CustomLevels/3036 (Milk Crown on Sonnetica - hexagonial)" => "3036 (Milk Crown on Sonnetica - hexagonial)"
func basename(path string) string {
	return filepath.Base(path)
}

var utf8_bom = []byte("\uFEFF")

// removes a leading UTF-8 byte-order mark from `b`, if present.
// some level editors write one at the start of `Info.dat`.
func elide_bom(b []byte) []byte {
	return bytes.TrimPrefix(b, utf8_bom)
}

// returns the value of the first non-empty of `flag_val` and the environment variable `env_key`,
// falling back to `default_val`.
func config_value(flag_val, env_key, default_val string) string {
	if flag_val != "" {
		return flag_val
	}
	env_val, present := os.LookupEnv(env_key)
	if present && env_val != "" {
		return env_val
	}
	return default_val
}
