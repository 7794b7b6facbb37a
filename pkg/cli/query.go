package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/flatplanetpl/poc-digital-twin/pkg/cli/config"
	"github.com/flatplanetpl/poc-digital-twin/pkg/usecase"
)

func cmdQuery() *cli.Command {
	var repoCfg config.Repository
	var indexCfg config.Index
	var geminiCfg config.Gemini
	var rankingCfg config.Ranking
	var filters filterFlags
	var explain bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "explain",
			Usage:       "Include the retrieval explanation in the output",
			Sources:     cli.EnvVars("TWIN_EXPLAIN"),
			Destination: &explain,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, rankingCfg.Flags()...)
	flags = append(flags, filters.Flags()...)

	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Answer a question from indexed personal data",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.NArg() != 1 {
				return goerr.New("exactly one question argument is required")
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

			out, err := uc.Query(ctx, &usecase.QueryInput{
				Query:  c.Args().First(),
				Filter: filter,
			})
			if err != nil {
				return err
			}

			body := map[string]any{
				"answer_text":      out.Response.AnswerText,
				"citations":        out.Response.Citations,
				"is_grounded":      out.Response.IsGrounded,
				"no_context_found": out.Response.NoContextFound,
				"transcript_id":    out.TranscriptID,
			}
			if explain {
				body["explanation"] = out.Explanation
			}

			return printJSON(body)
		},
	}
}

func printJSON(body any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}
