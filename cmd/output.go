package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	shellquote "github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/state"
)

// Output formats accepted by -o.
const (
	formatPlain = "plain"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatEnv   = "env"
)

// Environment variables describing a lease.
const (
	envPortBase  = "FORAGE_PORT_BASE"
	envPortCount = "FORAGE_PORT_COUNT"
	envPortLabel = "FORAGE_PORT_LABEL"
	envPortN     = "FORAGE_PORT_"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// checkFormat rejects formats outside allowed.
func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return errors.InvalidArgument("unknown output format %q (want one of %v)", format, allowed)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// leaseEnv returns the environment describing a lease: base, count, label
// and one variable per port.
func leaseEnv(a state.Allocation) []string {
	env := []string{
		envPortBase + "=" + strconv.Itoa(a.Base),
		envPortCount + "=" + strconv.Itoa(a.Size),
	}
	if a.Label != "" {
		env = append(env, envPortLabel+"="+a.Label)
	}
	for i, port := range a.Ports() {
		env = append(env, envPortN+strconv.Itoa(i)+"="+strconv.Itoa(port))
	}
	return env
}

// writeEnv prints leaseEnv as shell assignments, safe to eval.
func writeEnv(w io.Writer, a state.Allocation) error {
	for _, kv := range leaseEnv(a) {
		key, value, _ := strings.Cut(kv, "=")
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, shellquote.Join(value)); err != nil {
			return err
		}
	}
	return nil
}
