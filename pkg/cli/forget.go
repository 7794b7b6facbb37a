package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/flatplanetpl/poc-digital-twin/pkg/cli/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/flatplanetpl/poc-digital-twin/pkg/usecase"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
)

func cmdForget() *cli.Command {
	var documentID string
	var sender string
	var sourceType string
	var reason string
	var repoCfg config.Repository
	var indexCfg config.Index

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "document-id",
			Usage:       "Forget one document",
			Destination: &documentID,
		},
		&cli.StringFlag{
			Name:        "sender",
			Usage:       "Forget all data from one sender",
			Destination: &sender,
		},
		&cli.StringFlag{
			Name:        "source-type",
			Usage:       "Forget all data of one source type",
			Destination: &sourceType,
		},
		&cli.StringFlag{
			Name:        "reason",
			Usage:       "Reason recorded in the audit log (required)",
			Required:    true,
			Destination: &reason,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:  "forget",
		Usage: "Erase all data matching a document, sender, or source type",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			index, err := indexCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize similarity index")
			}
			defer func() {
				if err := index.Close(); err != nil {
					logging.Default().Error("failed to close index", "error", err.Error())
				}
			}()

			uc, err := usecase.New(repo, index, nil, nil)
			if err != nil {
				return err
			}

			result, err := uc.Forget(ctx, &model.ForgetRequest{
				DocumentID: types.DocumentID(documentID),
				Sender:     sender,
				SourceType: types.SourceType(sourceType),
				Reason:     reason,
			})
			if err != nil {
				if result != nil {
					// Partial failure; show what was erased before the failure.
					if printErr := printJSON(result); printErr != nil {
						return printErr
					}
				}
				return err
			}

			return printJSON(result)
		},
	}
}
