package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/homefit-engine/internal/config"
	"github.com/couchcryptid/homefit-engine/internal/domain"
	"github.com/couchcryptid/homefit-engine/internal/observability"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score one assessment request and print the result",
	Long:  "Read an assessment request ({\"listing\":...,\"prefs\":...}) from a file or stdin, score it, and print the ScoreResult JSON to stdout.",
	RunE:  runAssess,
}

var (
	assessInputFile string
	assessRequestID string
	assessCompact   bool
)

func init() {
	assessCmd.Flags().StringVarP(&assessInputFile, "file", "f", "", "Path to request JSON (default: stdin)")
	assessCmd.Flags().StringVar(&assessRequestID, "request-id", "", "Request ID recorded in diagnostics (default: random UUID)")
	assessCmd.Flags().BoolVar(&assessCompact, "compact", false, "Print the result on a single line")

	rootCmd.AddCommand(assessCmd)
}

func runAssess(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLoggerTo(os.Stderr, cfg)
	metrics := observability.NewMetrics()

	req, err := readRequest(cmd.InOrStdin(), assessInputFile)
	if err != nil {
		return err
	}

	// Ctrl-C cancels every in-flight provider call.
	ctx, stop := signalContext(context.Background())
	defer stop()

	engine, closeSink, err := buildEngine(ctx, cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer closeSink()

	requestID := assessRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result, err := engine.Assess(ctx, req, requestID)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Message)
			}
		}
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !assessCompact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readRequest(stdin io.Reader, path string) (domain.AssessmentRequest, error) {
	var req domain.AssessmentRequest

	r := stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}
