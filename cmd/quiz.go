package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencourselab/lecture-api/pkg/quiz"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

var (
	quizInputPath     string
	quizOutputPath    string
	quizNumQuestions  int
	quizQuestionTypes []string
	quizLanguage      string
	quizDifficulty    string
	quizMaxChars      int
)

// quizCmd represents the quiz command
var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a quiz from a transcript file",
	Long: `Generate a quiz directly from a transcript JSON file, without storing
anything in the database.

The transcript's segments are formatted with timestamps and sent to the model;
a response that fails schema validation is repaired with one retry.

Example:
  lecture-api quiz --input lecture1.json
  lecture-api quiz -i lecture1.json -n 10 --types multiple_choice,true_false --language ko`,
	RunE: runQuiz,
}

func init() {
	rootCmd.AddCommand(quizCmd)

	quizCmd.Flags().StringVarP(&quizInputPath, "input", "i", "", "transcript JSON file path")
	quizCmd.Flags().StringVarP(&quizOutputPath, "output", "o", "", "write the quiz JSON to this file instead of stdout")
	quizCmd.Flags().IntVarP(&quizNumQuestions, "num-questions", "n", 5, "number of questions (1-30)")
	quizCmd.Flags().StringSliceVar(&quizQuestionTypes, "types", []string{"multiple_choice"}, "question types: multiple_choice, true_false, short_answer")
	quizCmd.Flags().StringVar(&quizLanguage, "language", "ko", "quiz language tag")
	quizCmd.Flags().StringVar(&quizDifficulty, "difficulty", "medium", "difficulty: easy, medium, hard")
	quizCmd.Flags().IntVar(&quizMaxChars, "max-chars", 0, "cap the formatted transcript at this many characters (0 = no limit)")

	_ = quizCmd.MarkFlagRequired("input")
}

func runQuiz(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(quizInputPath)
	if err != nil {
		return fmt.Errorf("reading transcript file: %w", err)
	}
	var content transcript.Transcript
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("parsing transcript file: %w", err)
	}

	questionTypes := make([]quiz.QuestionType, 0, len(quizQuestionTypes))
	for _, name := range quizQuestionTypes {
		qt := quiz.QuestionType(name)
		if !quiz.ValidQuestionType(qt) {
			return fmt.Errorf("unknown question type: %s", name)
		}
		questionTypes = append(questionTypes, qt)
	}

	generator := quiz.NewGenerator(buildLLMClient())
	result, err := generator.Generate(context.Background(), quiz.Request{
		Segments:           content.Segments,
		NumQuestions:       quizNumQuestions,
		QuestionTypes:      questionTypes,
		Language:           quizLanguage,
		Difficulty:         quizDifficulty,
		MaxTranscriptChars: quizMaxChars,
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding quiz: %w", err)
	}

	if quizOutputPath != "" {
		if err := os.WriteFile(quizOutputPath, encoded, 0o644); err != nil {
			return fmt.Errorf("writing quiz file: %w", err)
		}
		fmt.Printf("Quiz written to %s\n", quizOutputPath)
		return nil
	}

	fmt.Println(string(encoded))
	return nil
}
