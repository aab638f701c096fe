package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tm-go/internal/app"
	"tm-go/internal/config"
	"tm-go/internal/encryption"
	"tm-go/internal/tm"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "UserCreate", "MirrorPush").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pwd, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pwd), nil
}

var rootCmd = &cobra.Command{
	Use:   "tm",
	Short: "Tutoring matchmaking data store",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and encryption keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Create config with defaults
		cfg := config.NewConfig(defaults["base_dir"])

		// Initialize config file
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		// Generate the snapshot key pair, private key under a passphrase.
		passphrase, err := promptPassword("Passphrase for snapshot key: ")
		if err != nil {
			return err
		}
		enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
		if err != nil {
			return fmt.Errorf("creating encryptor: %w", err)
		}
		if err := enc.Setup(passphrase); err != nil {
			return fmt.Errorf("generating snapshot keys: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Printf("Document: %s\n", cfg.Store.Path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get application defaults
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		// Read config
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		// Display config
		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("Document:  %s (%s)\n", cfg.Store.Path, cfg.Store.Type)
		fmt.Printf("Sync:      every %ds\n", cfg.Sync.IntervalSeconds)
		fmt.Printf("Audit:     %s\n", cfg.Audit.Type)
		if cfg.Mirror.Type == "" {
			fmt.Printf("Mirror:    disabled\n")
		} else {
			fmt.Printf("Mirror:    %s\n", cfg.Mirror.Type)
		}
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View document status",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		doc := a.Service().Document()
		fmt.Printf("Document version: %s\n", doc.Metadata.Version)
		fmt.Printf("Last updated:     %s\n", doc.Metadata.LastUpdated.Format("2006-01-02 15:04:05"))
		fmt.Printf("Users:            %d\n", len(doc.Users))
		fmt.Printf("Messages:         %d\n", len(doc.Messages))
		fmt.Printf("Notifications:    %d\n", len(doc.Notifications))
		fmt.Printf("Assignments:      %d\n", len(doc.Assignments))
		active := 0
		for _, rel := range doc.ApprovedRelations {
			if rel.Status == tm.RelationActive {
				active++
			}
		}
		fmt.Printf("Relations:        %d (%d active)\n", len(doc.ApprovedRelations), active)
		return nil
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create EMAIL",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		nom, _ := cmd.Flags().GetString("nom")
		prenoms, _ := cmd.Flags().GetString("prenoms")
		telephone, _ := cmd.Flags().GetString("telephone")
		commune, _ := cmd.Flags().GetString("commune")
		niveau, _ := cmd.Flags().GetString("niveau")
		disciplines, _ := cmd.Flags().GetStringSlice("disciplines")
		niveaux, _ := cmd.Flags().GetStringSlice("niveaux")
		besoins, _ := cmd.Flags().GetStringSlice("besoins")
		maxEleves, _ := cmd.Flags().GetInt("max-eleves")

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		a, err := newApp("UserCreate")
		if err != nil {
			return err
		}
		defer a.Close()

		in := tm.NewUser{
			Role:      tm.Role(role),
			Email:     args[0],
			Password:  password,
			Nom:       nom,
			Prenoms:   prenoms,
			Telephone: telephone,
		}
		switch in.Role {
		case tm.RoleEncadreur:
			in.CommuneIntervention = commune
			in.Disciplines = disciplines
			in.NiveauxEnseignes = niveaux
			in.MaxEleves = maxEleves
		case tm.RoleParentEleve:
			in.CommuneApprenant = commune
			in.NiveauApprenant = niveau
			in.Besoins = besoins
		}

		usr, err := a.Service().CreateUser(in)
		if err != nil {
			return err
		}

		fmt.Printf("Created %s user %s (%s)\n", usr.Role, usr.Email, usr.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserList")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.Service().Users()
		if err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Println("No users.")
			return nil
		}

		for _, u := range users {
			commune := u.CommuneIntervention
			if u.Role == tm.RoleParentEleve {
				commune = u.CommuneApprenant
			}
			fmt.Printf("%-36s  %-15s  %-30s  %s\n", u.ID, u.Role, u.Email, commune)
		}
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a user and cascade cleanup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("UserDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteUser(args[0]); err != nil {
			return err
		}

		fmt.Printf("Deleted user %s\n", args[0])
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export the document as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Service().Export()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			fmt.Println(string(data))
			return nil
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Exported document to %s\n", args[0])
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace the document with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().Import(data); err != nil {
			return err
		}

		fmt.Printf("Imported document from %s\n", args[0])
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the reconciliation loop until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Syncer().Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// mirror command
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Manage encrypted snapshots on the mirror",
}

var mirrorPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Encrypt and upload a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MirrorPush")
		if err != nil {
			return err
		}
		defer a.Close()

		key, err := a.PushSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Pushed snapshot %s\n", key)
		return nil
	},
}

var mirrorPullCmd = &cobra.Command{
	Use:   "pull [KEY]",
	Short: "Download and import a snapshot (latest when KEY is omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := ""
		if len(args) > 0 {
			key = args[0]
		}

		passphrase, err := promptPassword("Passphrase for snapshot key: ")
		if err != nil {
			return err
		}

		a, err := newApp("MirrorPull")
		if err != nil {
			return err
		}
		defer a.Close()

		pulled, err := a.PullSnapshot(cmd.Context(), key, passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Imported snapshot %s\n", pulled)
		return nil
	},
}

var mirrorListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots on the mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MirrorList")
		if err != nil {
			return err
		}
		defer a.Close()

		keys, err := a.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

// audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("Audit")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Service().AuditTrail(limit)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No audit entries.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("#%d  %s  %-20s  actor:%-36s  %s  %s\n",
				e.ID,
				e.CreatedAt.Format("2006-01-02 15:04:05"),
				e.Operation,
				e.ActorID,
				e.EntityID,
				e.Detail,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	// user subcommands
	userCmd.AddCommand(userCreateCmd)
	userCreateCmd.Flags().String("role", string(tm.RoleParentEleve), "ADMINISTRATEUR, ENCADREUR or PARENT_ELEVE")
	userCreateCmd.Flags().String("nom", "", "Family name")
	userCreateCmd.Flags().String("prenoms", "", "Given names")
	userCreateCmd.Flags().String("telephone", "", "Phone number")
	userCreateCmd.Flags().String("commune", "", "Intervention commune (tutor) or learner commune (parent)")
	userCreateCmd.Flags().String("niveau", "", "Learner level")
	userCreateCmd.Flags().StringSlice("disciplines", nil, "Taught disciplines")
	userCreateCmd.Flags().StringSlice("niveaux", nil, "Taught levels")
	userCreateCmd.Flags().StringSlice("besoins", nil, "Learner needs")
	userCreateCmd.Flags().Int("max-eleves", 0, "Maximum concurrent students")
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userDeleteCmd)

	// mirror subcommands
	mirrorCmd.AddCommand(mirrorPushCmd)
	mirrorCmd.AddCommand(mirrorPullCmd)
	mirrorCmd.AddCommand(mirrorListCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(mirrorCmd)
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries to show")
}
