package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/flatplanetpl/poc-digital-twin/pkg/cli/config"
	httpctrl "github.com/flatplanetpl/poc-digital-twin/pkg/controller/http"
	"github.com/flatplanetpl/poc-digital-twin/pkg/usecase"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var asyncAudit bool
	var repoCfg config.Repository
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var rankingCfg config.Ranking

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("TWIN_ADDR"),
			Destination: &addr,
		},
		&cli.BoolFlag{
			Name:        "async-audit",
			Usage:       "Write query and search audit records off the request path",
			Sources:     cli.EnvVars("TWIN_ASYNC_AUDIT"),
			Destination: &asyncAudit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, rankingCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, cleanup, err := buildUseCases(ctx, &repoCfg, &indexCfg, &geminiCfg, &rankingCfg, asyncAudit)
			if err != nil {
				return err
			}
			defer cleanup()

			httpHandler, err := httpctrl.New(uc)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// buildUseCases wires the repository, index, LLM client, and ranking
// configuration into the use case layer. The returned cleanup closes the
// repository and index.
func buildUseCases(ctx context.Context, repoCfg *config.Repository, indexCfg *config.Index, geminiCfg *config.Gemini, rankingCfg *config.Ranking, asyncAudit bool) (*usecase.UseCases, func(), error) {
	rankCfg, err := rankingCfg.Configure()
	if err != nil {
		return nil, nil, err
	}

	repo, err := repoCfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	index, err := indexCfg.Configure(ctx)
	if err != nil {
		if closeErr := repo.Close(); closeErr != nil {
			logging.Default().Error("failed to close repository", "error", closeErr.Error())
		}
		return nil, nil, goerr.Wrap(err, "failed to initialize similarity index")
	}

	cleanup := func() {
		if err := index.Close(); err != nil {
			logging.Default().Error("failed to close index", "error", err.Error())
		}
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}

	llm, err := geminiCfg.Configure(ctx)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to initialize LLM client")
	}

	opts := []usecase.Option{
		usecase.WithLLMInfo(geminiCfg.Provider(), geminiCfg.Model()),
	}
	if asyncAudit {
		opts = append(opts, usecase.WithAsyncAudit())
	}

	uc, err := usecase.New(repo, index, llm, rankCfg, opts...)
	if err != nil {
		cleanup()
		return nil, nil, goerr.Wrap(err, "failed to initialize use cases")
	}

	return uc, cleanup, nil
}
