package commands

import (
	"fmt"
	"strings"

	"orderlyflow/internal/auth"
	"orderlyflow/internal/config"
	"orderlyflow/internal/database"
	"orderlyflow/internal/logger"
	"orderlyflow/internal/model"
	"orderlyflow/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// withDB runs fn against the database named by the environment.
func withDB(fn func(cfg *config.Config, db *gorm.DB, log *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.Logger.Output = "stderr"
	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer log.Close()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return fn(cfg, db, log)
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Apply or revert schema migrations"}
	var steps int
	down := &cobra.Command{
		Use:  "down",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(_ *config.Config, db *gorm.DB, log *logger.Logger) error {
				if err := database.Rollback(db, steps); err != nil {
					return err
				}
				log.Infow("Reverted migrations", "steps", steps)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	cmd.AddCommand(
		&cobra.Command{
			Use:  "up",
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(_ *config.Config, db *gorm.DB, log *logger.Logger) error {
					return database.Migrate(db, log)
				})
			},
		},
		down,
	)
	return cmd
}

func newSeedCommand() *cobra.Command {
	var orgID, orgName, email, name string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an organization with an owner and print a token for them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *gorm.DB, log *logger.Logger) error {
				ctx := cmd.Context()
				users := repository.NewUserRepository(db)
				orgs := repository.NewOrganizationRepository(db)

				user, err := users.Ensure(ctx, &model.User{ID: uuid.NewString(), Email: email, Name: name})
				if err != nil {
					return fmt.Errorf("seed user: %w", err)
				}

				org := &model.Organization{ID: orgID, Name: orgName, Slug: strings.ToLower(strings.ReplaceAll(orgName, " ", "-"))}
				member := model.Member{ID: uuid.NewString(), OrganizationID: org.ID, UserID: user.ID, Role: model.RoleOwner}
				if err := orgs.Upsert(ctx, org, []model.Member{member}); err != nil {
					return fmt.Errorf("seed organization: %w", err)
				}
				log.Infow("Seeded organization", "org_id", org.ID, "user_id", user.ID)

				token, err := auth.NewIssuer(cfg.JWT).GenerateToken(user.ID, org.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&orgID, "org-id", "org-dev", "organization id")
	f.StringVar(&orgName, "org-name", "Dev Org", "organization name")
	f.StringVar(&email, "email", "dev@example.com", "owner email")
	f.StringVar(&name, "name", "Dev User", "owner name")
	return cmd
}
