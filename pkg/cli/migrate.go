package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/flatplanetpl/poc-digital-twin/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var projectID string
	var databaseID string
	var dryRun bool

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "firestore-project-id",
				Usage:       "Firestore Project ID (required)",
				Required:    true,
				Sources:     cli.EnvVars("TWIN_FIRESTORE_PROJECT_ID"),
				Destination: &projectID,
			},
			&cli.StringFlag{
				Name:        "firestore-database-id",
				Usage:       "Firestore Database ID",
				Sources:     cli.EnvVars("TWIN_FIRESTORE_DATABASE_ID"),
				Destination: &databaseID,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "Preview changes without applying",
				Destination: &dryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			logger.Info("Migrate configuration",
				"projectID", projectID,
				"databaseID", databaseID,
				"dryRun", dryRun)

			indexConfig := getIndexConfig()

			client, err := fireconf.NewClient(ctx, projectID, databaseID)
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client")
			}
			defer func() {
				if err := client.Close(); err != nil {
					logger.Error("failed to close fireconf client", "error", err.Error())
				}
			}()

			if dryRun {
				logger.Info("Dry run mode - previewing changes")
				plan, err := client.GetMigrationPlan(ctx, indexConfig)
				if err != nil {
					return goerr.Wrap(err, "failed to create migration plan")
				}

				if len(plan.Steps) == 0 {
					logger.Info("No changes required")
					return nil
				}

				for _, step := range plan.Steps {
					logger.Info("Migration step",
						"collection", step.Collection,
						"operation", step.Operation,
						"description", step.Description,
						"destructive", step.Destructive)
				}
			} else {
				logger.Info("Applying migrations")
				if err := client.Migrate(ctx, indexConfig); err != nil {
					return goerr.Wrap(err, "failed to apply migrations")
				}
				logger.Info("Migrations applied successfully")
			}

			return nil
		},
	}
}

// getIndexConfig returns the Firestore index configuration
func getIndexConfig() *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "documents",
				Indexes: []fireconf.Index{
					// List by status: Status ASC, IndexedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Status", Order: fireconf.OrderAscending},
							{Path: "IndexedAt", Order: fireconf.OrderDescending},
						},
					},
					// List by sender: Sender ASC, IndexedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Sender", Order: fireconf.OrderAscending},
							{Path: "IndexedAt", Order: fireconf.OrderDescending},
						},
					},
					// List by source type: SourceType ASC, IndexedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "SourceType", Order: fireconf.OrderAscending},
							{Path: "IndexedAt", Order: fireconf.OrderDescending},
						},
					},
					// Forget target resolution: Status ASC, Sender ASC, IndexedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Status", Order: fireconf.OrderAscending},
							{Path: "Sender", Order: fireconf.OrderAscending},
							{Path: "IndexedAt", Order: fireconf.OrderDescending},
						},
					},
					// Forget target resolution: Status ASC, SourceType ASC, IndexedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Status", Order: fireconf.OrderAscending},
							{Path: "SourceType", Order: fireconf.OrderAscending},
							{Path: "IndexedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: "audit_log",
				Indexes: []fireconf.Index{
					// Deletion report: Operation ASC, ID DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Operation", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderDescending},
						},
					},
					// Filtered audit listing: EntityType ASC, ID DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "EntityType", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderDescending},
						},
					},
					// Operation and entity type combined: Operation ASC, EntityType ASC, ID DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Operation", Order: fireconf.OrderAscending},
							{Path: "EntityType", Order: fireconf.OrderAscending},
							{Path: "ID", Order: fireconf.OrderDescending},
						},
					},
					// Time-bounded listing: Operation ASC, Timestamp DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "Operation", Order: fireconf.OrderAscending},
							{Path: "Timestamp", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
