package tokenstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

var ErrPassUnavailable = errors.New("pass command unavailable")

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// passBackend keeps the token as the first line of one pass(1) entry.
type passBackend struct {
	entry string
	run   runFunc
}

func newPassBackend(entry string) *passBackend {
	return &passBackend{entry: strings.Trim(strings.TrimSpace(entry), "/"), run: runPass}
}

func (p *passBackend) String() string {
	return "pass " + p.entry
}

func (p *passBackend) load(ctx context.Context) (string, error) {
	stdout, stderr, err := p.run(ctx, "", "show", p.entry)
	if err != nil {
		if errors.Is(err, ErrPassUnavailable) || strings.Contains(stderr, "is not in the password store") {
			return "", domain.ErrNoToken
		}
		return "", passError(err, stderr)
	}

	token, _, _ := strings.Cut(stdout, "\n")
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrNoToken
	}
	return token, nil
}

func (p *passBackend) save(ctx context.Context, token string) error {
	if _, stderr, err := p.run(ctx, token+"\n", "insert", "-m", "-f", p.entry); err != nil {
		return passError(err, stderr)
	}
	return nil
}

func (p *passBackend) clear(ctx context.Context) error {
	_, stderr, err := p.run(ctx, "", "rm", "-f", p.entry)
	if err != nil && !strings.Contains(stderr, "is not in the password store") {
		return passError(err, stderr)
	}
	return nil
}

func runPass(ctx context.Context, input string, args ...string) (string, string, error) {
	binary, err := exec.LookPath("pass")
	if err != nil {
		return "", "", ErrPassUnavailable
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func passError(err error, stderr string) error {
	if stderr == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, stderr)
}
