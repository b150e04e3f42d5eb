package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/feat/internal/encoding"
	"github.com/desertthunder/feat/internal/formatter"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Encode writes the base64 encoding of a file or stdin, followed by a newline.
func (r *Runner) Encode(ctx context.Context, cmd *cli.Command) error {
	in, closeFn, err := r.open(cmd.StringArg("path"))
	if err != nil {
		return err
	}
	defer closeFn()

	prefix := ""
	if cmd.Bool("data-uri") {
		prefix = encoding.DataURIPrefix(cmd.String("mime"))
	}

	if cmd.Bool("stream") {
		if err := r.writePlain("%s", prefix); err != nil {
			return err
		}
		enc := encoding.NewEncoder(r.output)
		n, err := io.Copy(enc, in)
		if err != nil {
			return fmt.Errorf("failed to encode input: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode input: %w", err)
		}
		r.logger.Debug("encoded stream", "size", humanize.Bytes(uint64(n)))
		return r.writePlain("\n")
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	r.logger.Debug("encoding input", "size", humanize.Bytes(uint64(len(data))))

	return r.writePlain("%s%s\n", prefix, encoding.Encode(data))
}

// CSV converts a JSON array of objects to CSV on stdout or into --output.
func (r *Runner) CSV(ctx context.Context, cmd *cli.Command) error {
	in, closeFn, err := r.open(cmd.String("input"))
	if err != nil {
		return err
	}
	defer closeFn()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	out, err := formatter.ConvertJSONToCSV(data, cmd.StringSlice("header"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteCSV(path, out); err != nil {
			return err
		}
		r.logger.Info("csv written", "path", path, "size", humanize.Bytes(uint64(len(out))))
		return nil
	}

	if _, err := r.output.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// open returns path for reading, or the runner's input for "" and "-".
func (r *Runner) open(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return r.input, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
