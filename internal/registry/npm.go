package registry

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/typings-labs/typepub/internal/logging"
)

// NPMClient implements Client by shelling out to the npm binary.
type NPMClient struct {
	registryURL string
	npmPath     string
	logger      *logging.Logger
}

// NewNPMClient locates npm on PATH and returns a client bound to the given
// registry URL.
func NewNPMClient(registryURL string, logger *logging.Logger) (*NPMClient, error) {
	npmPath, err := exec.LookPath("npm")
	if err != nil {
		return nil, fmt.Errorf("npm not found on PATH: %w", err)
	}
	return &NPMClient{registryURL: registryURL, npmPath: npmPath, logger: logger}, nil
}

// Publish uploads the package rooted at dir under the given dist-tag.
func (c *NPMClient) Publish(ctx context.Context, dir, tag string, dryRun bool) error {
	args := []string{"publish", "--access", "public", "--tag", tag, "--registry", c.registryURL}
	if dryRun {
		args = append(args, "--dry-run")
	}

	c.logger.Info("publishing package",
		zap.String("dir", dir), zap.String("tag", tag), zap.Bool("dry_run", dryRun))
	return c.run(ctx, dir, args)
}

// Tag points the dist-tag at an already-published version.
func (c *NPMClient) Tag(ctx context.Context, pkg, version, tag string) error {
	args := []string{"dist-tag", "add", pkg + "@" + version, tag, "--registry", c.registryURL}

	c.logger.Info("tagging version",
		zap.String("package", pkg), zap.String("version", version), zap.String("tag", tag))
	return c.run(ctx, "", args)
}

// Install installs pkg at the given dist-tag into dir's node_modules.
// Scripts are disabled; the installed tree is only read back for comparison.
func (c *NPMClient) Install(ctx context.Context, pkg, tag, dir string) error {
	args := []string{
		"install", pkg + "@" + tag,
		"--registry", c.registryURL,
		"--ignore-scripts", "--no-audit", "--no-fund", "--no-save",
	}

	c.logger.Info("installing package",
		zap.String("package", pkg), zap.String("tag", tag), zap.String("dir", dir))
	return c.run(ctx, dir, args)
}

// run executes npm with args in dir, surfacing stderr in the error.
func (c *NPMClient) run(ctx context.Context, dir string, args []string) error {
	cmd := exec.CommandContext(ctx, c.npmPath, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("npm %s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("npm %s: %w", args[0], err)
	}
	return nil
}
