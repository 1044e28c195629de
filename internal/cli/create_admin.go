package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/authgate/internal/audit"
	"github.com/mrlokans/authgate/internal/auth"
	"github.com/mrlokans/authgate/internal/config"
	"github.com/mrlokans/authgate/internal/database"
	"github.com/mrlokans/authgate/internal/database/securitylog"
	"github.com/mrlokans/authgate/internal/database/users"
)

// PasswordEnvVar lets scripts pass the password without exposing it in argv.
const PasswordEnvVar = "AUTHGATE_ADMIN_PASSWORD"

// CreateAdminCommand creates an administrator account directly in the database.
type CreateAdminCommand struct {
	Email        string
	Password     string
	DatabasePath string
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Email address of the new administrator (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 10 characters (or set "+PasswordEnvVar+")")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account. Works regardless of\n")
		fmt.Fprintf(os.Stderr, "AUTH_ALLOW_ADMIN_REGISTRATION.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s=s3cret-passw0rd %s create-admin -email admin@example.com\n", PasswordEnvVar, os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}
	if cmd.Password == "" {
		cmd.Password = os.Getenv(PasswordEnvVar)
	}
	if cmd.Password == "" {
		return fmt.Errorf("password not provided: use -password or %s", PasswordEnvVar)
	}

	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return cmd.run(context.Background(), db)
}

func (cmd *CreateAdminCommand) run(ctx context.Context, db *database.Database) error {
	cfg := config.NewConfig()

	securityLog := audit.NewService(securitylog.NewRepository(db.DB), cfg.SecurityLog.ListLimit)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		securityLog.Flush(flushCtx)
	}()

	svc := auth.NewService(users.NewRepository(db.DB), securityLog, cfg.Auth)
	user, err := svc.CreateAdmin(ctx, cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Printf("Created administrator %s (id %s)\n", user.Email, user.ID)
	return nil
}
