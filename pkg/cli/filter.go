package cli

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/model"
	"github.com/flatplanetpl/poc-digital-twin/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// filterFlags holds the shared retrieval filter flags of query and search
type filterFlags struct {
	documentID string
	sender     string
	sourceType string
	since      string
	until      string
}

func (f *filterFlags) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "document-id",
			Usage:       "Restrict retrieval to one document",
			Destination: &f.documentID,
		},
		&cli.StringFlag{
			Name:        "sender",
			Usage:       "Restrict retrieval to one sender",
			Destination: &f.sender,
		},
		&cli.StringFlag{
			Name:        "source-type",
			Usage:       "Restrict retrieval to one source type",
			Destination: &f.sourceType,
		},
		&cli.StringFlag{
			Name:        "since",
			Usage:       "Only content dated at or after this time (RFC3339 or YYYY-MM-DD)",
			Destination: &f.since,
		},
		&cli.StringFlag{
			Name:        "until",
			Usage:       "Only content dated at or before this time (RFC3339 or YYYY-MM-DD)",
			Destination: &f.until,
		},
	}
}

func (f *filterFlags) Configure() (*model.IndexFilter, error) {
	filter := &model.IndexFilter{
		DocumentID: types.DocumentID(f.documentID),
		Sender:     f.sender,
		SourceType: types.SourceType(f.sourceType),
	}
	if f.sourceType != "" && !filter.SourceType.IsKnown() {
		return nil, goerr.New("unknown source type", goerr.V("source_type", f.sourceType))
	}

	var err error
	if filter.Since, err = parseTimeFlag(f.since); err != nil {
		return nil, err
	}
	if filter.Until, err = parseTimeFlag(f.until); err != nil {
		return nil, err
	}

	if filter.IsZero() {
		return nil, nil
	}
	return filter, nil
}

func parseTimeFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, goerr.New("invalid time value", goerr.V("value", value))
}
