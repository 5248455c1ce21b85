package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kontext-dev/kontext/internal/classifier"
	"github.com/kontext-dev/kontext/internal/domain"
	"github.com/kontext-dev/kontext/internal/tagger"
)

type classifyOutput struct {
	Type       domain.KnowledgeType `json:"knowledge_type"`
	Confidence float64              `json:"confidence"`
	Tags       []domain.Tag         `json:"tags"`
}

// ClassifyCmd returns the classify command. It runs the knowledge-type
// classifier and tag generator locally, without touching the database.
func ClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [content]",
		Short: "Classify a note without saving it",
		Long:  "Run the knowledge-type classifier and tag generator on content from the argument or stdin and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClassify,
	}

	cmd.Flags().IntP("max-tags", "t", 0, "Maximum number of tags to generate (0 uses the default)")

	return cmd
}

func runClassify(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 1 {
		content = args[0]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = string(raw)
	}

	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("no content provided (pass an argument or pipe to stdin)")
	}

	maxTags, _ := cmd.Flags().GetInt("max-tags")

	knowledgeType, confidence := classifier.New().Classify(content)
	tags := tagger.New().Generate(content, maxTags)

	out := classifyOutput{
		Type:       knowledgeType,
		Confidence: confidence,
		Tags:       tags,
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
