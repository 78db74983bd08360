package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencourselab/lecture-api/internal/database"
	"github.com/opencourselab/lecture-api/internal/services/lectures"
	"github.com/opencourselab/lecture-api/internal/services/summaries"
	"github.com/opencourselab/lecture-api/pkg/config"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

var (
	storeInputPath    string
	storeCourseID     string
	storeLectureID    string
	storeUserID       string
	storeSummary      string
	storeCourseTitle  string
	storeSectionTitle string
	storeLectureTitle string
)

// storeLectureCmd represents the store-lecture command
var storeLectureCmd = &cobra.Command{
	Use:   "store-lecture",
	Short: "Summarize and store a transcript file",
	Long: `Read a transcript JSON file, summarize it (unless a summary is supplied),
embed the summary and store the lecture record.

Example:
  lecture-api store-lecture --input lecture1.json --course-id algo101 --lecture-id 1 --user-id prof-kim
  lecture-api store-lecture -i lecture1.json --course-id algo101 --lecture-id 1 --user-id prof-kim --summary "Covers BFS and DFS."`,
	RunE: runStoreLecture,
}

func init() {
	rootCmd.AddCommand(storeLectureCmd)

	storeLectureCmd.Flags().StringVarP(&storeInputPath, "input", "i", "", "transcript JSON file path")
	storeLectureCmd.Flags().StringVar(&storeCourseID, "course-id", "", "course ID")
	storeLectureCmd.Flags().StringVar(&storeLectureID, "lecture-id", "", "lecture ID")
	storeLectureCmd.Flags().StringVar(&storeUserID, "user-id", "", "user ID")
	storeLectureCmd.Flags().StringVarP(&storeSummary, "summary", "s", "", "pre-made summary (skips the summarization call)")
	storeLectureCmd.Flags().StringVar(&storeCourseTitle, "course-title", "", "course title, included in the summary prompt")
	storeLectureCmd.Flags().StringVar(&storeSectionTitle, "section-title", "", "section title")
	storeLectureCmd.Flags().StringVar(&storeLectureTitle, "lecture-title", "", "lecture title")

	_ = storeLectureCmd.MarkFlagRequired("input")
	_ = storeLectureCmd.MarkFlagRequired("course-id")
	_ = storeLectureCmd.MarkFlagRequired("lecture-id")
	_ = storeLectureCmd.MarkFlagRequired("user-id")
}

func runStoreLecture(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(storeInputPath)
	if err != nil {
		return fmt.Errorf("reading transcript file: %w", err)
	}
	var content transcript.Transcript
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("parsing transcript file: %w", err)
	}

	db, err := database.InitializeWithMigrations()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close() }()

	llmClient := buildLLMClient()
	summaryService := summaries.NewService(llmClient, config.GetInt("summary.max_transcript_chars"))
	lectureService := lectures.NewService(lectures.NewRepository(db.DB), llmClient, summaryService)

	summary, err := lectureService.Store(context.Background(), lectures.StoreParams{
		CourseID:     storeCourseID,
		LectureID:    storeLectureID,
		UserID:       storeUserID,
		Content:      &content,
		Summary:      storeSummary,
		CourseTitle:  storeCourseTitle,
		SectionTitle: storeSectionTitle,
		LectureTitle: storeLectureTitle,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Stored lecture %s/%s for user %s\n", storeCourseID, storeLectureID, storeUserID)
	fmt.Printf("Summary: %s\n", summary)
	return nil
}
