package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"learnly/internal/config"
	"learnly/internal/importer"
	"learnly/internal/models"
	"learnly/pkg/database"
	"learnly/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "learnctl",
		Short:        "Operator tools for the learnly backend",
		SilenceUsage: true,
	}
	root.AddCommand(newImportCmd(), newMigrateCmd())
	return root
}

func newImportCmd() *cobra.Command {
	var setType string
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Parse bulk import text and print the resulting items as JSON",
		Long: "Reads flashcard (Front:/Back:) or quiz (Q:/A:-D:/Ans:) text from a file,\n" +
			"or from stdin when no file is given, and prints the items it would add.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := models.SetType(setType)
			if !t.Valid() {
				return fmt.Errorf("unknown set type %q (want flashcards or quizzes)", setType)
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			items := importer.Import(t, string(text))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d item(s) parsed\n", len(items))
			return nil
		},
	}
	cmd.Flags().StringVarP(&setType, "type", "t", string(models.SetTypeFlashcards), "set type: flashcards or quizzes")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)

			db, err := database.Open(&database.Config{
				Driver:     cfg.Database.Driver,
				Host:       cfg.Database.Host,
				Port:       cfg.Database.Port,
				User:       cfg.Database.User,
				Password:   cfg.Database.Password,
				DBName:     cfg.Database.Name,
				SSLMode:    cfg.Database.SSLMode,
				SQLitePath: cfg.Database.SQLitePath,
				Logger:     log,
			})
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info("schema migrated", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
