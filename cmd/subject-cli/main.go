package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mikey/subject-analyzer/internal/adapters/filter"
	"github.com/mikey/subject-analyzer/internal/core"
	"github.com/mikey/subject-analyzer/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()
	if flags.Subject == "" {
		fmt.Fprintln(os.Stderr, "Usage: subject-cli -subject \"Your subject line\" [-industry saas] [-offline]")
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(logger *zap.Logger, cli *filter.CliFilter, analyzer core.AIAnalyzer) error {
		defer logger.Sync()
		if closer, ok := analyzer.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		if !flags.Offline && analyzer == nil {
			logger.Info("No AI provider, results are rule-based only")
		}

		_, err := cli.ProcessSubject(context.Background(), flags.Subject, flags.Industry)
		return err
	}); err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			for _, d := range vErr.Details {
				fmt.Fprintf(os.Stderr, "%s: %s\n", d.Field, d.Message)
			}
			os.Exit(2)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
