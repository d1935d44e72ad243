package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dagger/uidsl/internal/dagger"
)

// tidyStep is one source hygiene rule. script exits non-zero and prints
// the offending diff or file list when the rule is broken.
type tidyStep struct {
	name   string
	script string
	fix    string
}

var tidySteps = []tidyStep{
	{
		name:   "go.mod and go.sum",
		script: "cp go.mod /tmp/go.mod && cp go.sum /tmp/go.sum && go mod tidy && diff -u /tmp/go.mod go.mod && diff -u /tmp/go.sum go.sum",
		fix:    "run 'go mod tidy'",
	},
	{
		name:   "gofmt",
		script: `out=$(gofmt -l $(go list -f '{{.Dir}}' ./...)); test -z "$out" || { echo "$out"; exit 1; }`,
		fix:    "run 'gofmt -w' on the listed files",
	},
}

// CheckTidy fails when go.mod and go.sum are not tidy or when a package
// of the uidsl module is not gofmt-clean. Every rule runs so a single
// failure reports all offenders.
//
// +check
func (u *UIDSL) CheckTidy(ctx context.Context) (string, error) {
	var (
		report []string
		errs   []error
	)
	for _, step := range tidySteps {
		_, err := u.goContainer().
			WithExec([]string{"sh", "-c", step.script}).
			Stdout(ctx)

		var execErr *dagger.ExecError
		switch {
		case errors.As(err, &execErr):
			errs = append(errs, fmt.Errorf("%s: %s and commit the changes\n\n%s", step.name, step.fix, execErr.Stdout))
		case err != nil:
			return "", fmt.Errorf("%s: unexpected error: %w", step.name, err)
		default:
			report = append(report, step.name+": ok")
		}
	}

	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return strings.Join(report, "\n"), nil
}
