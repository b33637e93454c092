package upscaler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultExecArgs matches the command line of the ncnn-vulkan family of
// upscalers (realesrgan-ncnn-vulkan, waifu2x-ncnn-vulkan).
var DefaultExecArgs = []string{"-i", "{input}", "-o", "{output}", "-s", "{scale}", "-t", "{tile}", "-m", "{weights}", "-f", "png"}

// execBackend runs an external upscaler binary once per Upscale call.
type execBackend struct {
	bin  string
	args []string
}

// NewExecBackend validates bin and returns a backend that spawns it. args may
// reference {input}, {output}, {scale}, {tile}, {weights} and {model}.
func NewExecBackend(bin string, args []string) (Backend, error) {
	if strings.TrimSpace(bin) == "" {
		return nil, errors.New("exec backend requires a binary")
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("exec backend: %w", err)
	}
	if len(args) == 0 {
		args = DefaultExecArgs
	}
	return &execBackend{bin: path, args: append([]string(nil), args...)}, nil
}

func (e *execBackend) Name() string { return BackendExec }

func (e *execBackend) Load(_ context.Context, opts Options) (Instance, error) {
	if _, err := os.Stat(opts.Weights); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	return &execInstance{b: e, opts: opts}, nil
}

type execInstance struct {
	b    *execBackend
	opts Options
}

func (x *execInstance) Upscale(ctx context.Context, img image.Image) (image.Image, error) {
	dir, err := os.MkdirTemp("", "upscaled-exec-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.png")
	out := filepath.Join(dir, "out.png")
	data, err := Encode(img, "png")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, fmt.Errorf("write input: %w", err)
	}

	r := strings.NewReplacer(
		"{input}", in,
		"{output}", out,
		"{scale}", strconv.Itoa(x.opts.Scale),
		"{tile}", strconv.Itoa(x.opts.Tile),
		"{weights}", x.opts.Weights,
		"{model}", x.opts.Model,
	)
	args := make([]string, len(x.b.args))
	for i, a := range x.b.args {
		args[i] = r.Replace(a)
	}
	cmd := exec.CommandContext(ctx, x.b.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[len(msg)-512:]
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(x.b.bin), err, msg)
	}
	res, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	decoded, _, err := Decode(res)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	return decoded, nil
}

func (x *execInstance) Close() error { return nil }
