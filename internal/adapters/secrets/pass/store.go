package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/waselni/waselni-cli/internal/domain"
	"github.com/waselni/waselni-cli/internal/ports"
)

var (
	ErrUnavailable  = errors.New("pass command unavailable")
	errInvalidKey   = errors.New("invalid pass entry name")
	errInvalidValue = errors.New("token values must be a single non-empty line")
)

const notInStoreMarker = "is not in the password store"

type runFunc func(ctx context.Context, input string, args ...string) (stdout string, stderr string, err error)

// Store keeps session tokens as single-line entries in the user's pass(1)
// password store, one entry per key (e.g. waselni/default/token).
type Store struct {
	run runFunc
}

var _ ports.SecretStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{run: runPassCommand}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := entryName(key)
	if err != nil {
		return err
	}
	if value == "" || strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("pass put %q: %w", entry, errInvalidValue)
	}

	// --echo reads exactly one line, which is all a token needs.
	if _, stderr, err := s.run(ctx, value+"\n", "insert", "--echo", "--force", entry); err != nil {
		return commandError("put", entry, err, stderr)
	}
	return nil
}

// Get returns the first line of the entry; pass keeps the secret there and
// leaves later lines for free-form notes.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	entry, err := entryName(key)
	if err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, "", "show", entry)
	if err != nil {
		return "", commandError("get", entry, err, stderr)
	}

	token, _, _ := strings.Cut(stdout, "\n")
	token = strings.TrimRight(token, "\r")
	if token == "" {
		return "", fmt.Errorf("pass get %q: empty entry: %w", entry, domain.ErrSecretNotFound)
	}
	return token, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry, err := entryName(key)
	if err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, "", "rm", "--force", entry)
	if err != nil && !strings.Contains(stderr, notInStoreMarker) {
		return commandError("delete", entry, err, stderr)
	}
	return nil
}

// entryName rejects names pass would resolve outside the store.
func entryName(key string) (string, error) {
	entry := strings.Trim(strings.TrimSpace(key), "/")
	if entry == "" {
		return "", fmt.Errorf("%w: empty", errInvalidKey)
	}
	for _, segment := range strings.Split(entry, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", errInvalidKey, key)
		}
	}
	return entry, nil
}

func runPassCommand(ctx context.Context, input string, args ...string) (string, string, error) {
	path, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func commandError(op, entry string, err error, stderr string) error {
	switch {
	case strings.Contains(stderr, notInStoreMarker):
		return fmt.Errorf("pass %s %q: %w", op, entry, domain.ErrSecretNotFound)
	case stderr == "":
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	default:
		return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
	}
}
