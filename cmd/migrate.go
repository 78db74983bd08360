package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opencourselab/lecture-api/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply the database schema for the Lecture Quiz API.

Connects to the configured database and runs the schema migrations for the
ingestion job queue, lecture chunks, lecture summaries and quizzes. On
Postgres this also ensures the pgvector extension is installed.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	fmt.Println("Running database migrations...")

	db, err := database.InitializeWithMigrations()
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	fmt.Println("Migrations applied:")
	fmt.Println("  • ingestion_jobs")
	fmt.Println("  • lecture_chunks")
	fmt.Println("  • lecture_chunk_vectors")
	fmt.Println("  • lecture_summary_embeddings")
	fmt.Println("  • lecture_quizzes")

	return nil
}
