package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/eventsync-services/common/config"
	"github.com/eventsync-services/common/db"
	"github.com/eventsync-services/common/jwt"
	"github.com/eventsync-services/services/auth-lambda/models"
	"github.com/eventsync-services/services/auth-lambda/usecase"
)

// connector opens the database for one command run
type connector func(ctx context.Context) (*sqlx.DB, *config.Config, func(), error)

func newRootCmd(connect connector) *cobra.Command {
	root := &cobra.Command{
		Use:          "eventsync-admin",
		Short:        "Operator tasks for the EventSync API",
		SilenceUsage: true,
	}
	root.AddCommand(
		newMigrateCmd(connect),
		newCreateAdminCmd(connect),
		newUnlockAdminCmd(connect),
		newListAdminsCmd(connect),
	)
	return root
}

func newMigrateCmd(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, _, closeFn, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}

func newCreateAdminCmd(connect connector) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an administrator account without the passkey",
		Example: `  eventsync-admin create-admin --name "Dean Office" --email dean@college.edu --password s3cret!`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAuth(cmd.Context(), connect, func(auth *usecase.AuthUseCase) error {
				admin, err := auth.CreateAdmin(cmd.Context(), models.RegisterRequest{Name: name, Email: email, Password: password})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created administrator %d <%s>\n", admin.ID, admin.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password (min 6 characters)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUnlockAdminCmd(connect connector) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "unlock-admin",
		Short: "Move a BLOCKED administrator back to ACTIVE and reset passkey attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAuth(cmd.Context(), connect, func(auth *usecase.AuthUseCase) error {
				admin, err := auth.UnlockAdmin(cmd.Context(), email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s is %s\n", admin.Email, admin.Status())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newListAdminsCmd(connect connector) *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List administrator accounts and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAuth(cmd.Context(), connect, func(auth *usecase.AuthUseCase) error {
				admins, err := auth.ListAdmins(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSTATUS\tKEY ATTEMPTS")
				for _, a := range admins {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", a.ID, a.Name, a.Email, a.Status, a.AdminKeyAttempts)
				}
				return w.Flush()
			})
		},
	}
}

func withAuth(ctx context.Context, connect connector, fn func(*usecase.AuthUseCase) error) error {
	conn, cfg, closeFn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	auth := usecase.NewAuthUseCase(conn, jwt.NewManager(cfg.JWTSecret, cfg.TokenTTL), usecase.Config{
		AdminPasskey:   cfg.AdminPasskey,
		MaxKeyAttempts: cfg.AdminMaxKeyAttempts,
	})
	return fn(auth)
}
