package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/flatplanetpl/poc-digital-twin/pkg/cli/config"
)

func cmdSearch() *cli.Command {
	var repoCfg config.Repository
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var rankingCfg config.Ranking
	var filters filterFlags

	flags := []cli.Flag{}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, rankingCfg.Flags()...)
	flags = append(flags, filters.Flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Rank matching documents without generating an answer",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return goerr.New("exactly one query argument is required")
			}

			filter, err := filters.Configure()
			if err != nil {
				return err
			}

			uc, cleanup, err := buildUseCases(ctx, &repoCfg, &indexCfg, &geminiCfg, &rankingCfg, false)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := uc.Search(ctx, c.Args().First(), filter, 0)
			if err != nil {
				return err
			}

			return printJSON(map[string]any{
				"results":     out.Results,
				"explanation": out.Explanation,
			})
		},
	}
}
