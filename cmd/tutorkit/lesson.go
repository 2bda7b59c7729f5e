package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skosovsky/tutorkit/lesson"
)

var errInvalidLesson = errors.New("lesson document is invalid")

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Work with lesson documents",
}

var lessonValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a lesson document and list every problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseLessonFile(cmd, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d blocks)\n", args[0], len(doc.Blocks))
		return nil
	},
}

var lessonFormatCmd = &cobra.Command{
	Use:   "fmt <file>",
	Short: "Print a lesson document in canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := parseLessonFile(cmd, args[0])
		if err != nil {
			return err
		}
		out, err := lesson.Serialize(*doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

// parseLessonFile prints every problem to stderr and returns errInvalidLesson when
// there are any.
func parseLessonFile(cmd *cobra.Command, path string) (*lesson.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lesson: %w", err)
	}
	doc, problems := lesson.Parse(string(data))
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, p)
		}
		return nil, fmt.Errorf("%w: %d problems", errInvalidLesson, len(problems))
	}
	return doc, nil
}

func init() {
	lessonCmd.AddCommand(lessonValidateCmd, lessonFormatCmd)
	rootCmd.AddCommand(lessonCmd)
}
