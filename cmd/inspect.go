package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/extractors"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/intents"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/learner"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/agent/repo"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [message]",
	Short: "Show the inferred context and rule-based routing for a message without calling any service",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		return runInspect(cmd, userID, strings.Join(args, " "))
	},
}

func init() {
	inspectCmd.Flags().String("user", "student123", "Sample user id to infer the educational context for")
}

type inspection struct {
	UserID             string                    `json:"user_id"`
	Message            string                    `json:"message"`
	EducationalContext model.EducationalContext  `json:"educational_context"`
	Intent             model.Intent              `json:"intent"`
	FallbackParameters model.ExtractedParameters `json:"fallback_parameters,omitempty"`
}

func runInspect(cmd *cobra.Command, userID, message string) error {
	profiles := repo.NewMemoryProfileRepository(model.SampleProfiles()...)
	profile, err := profiles.GetProfile(context.Background(), userID)
	if err != nil {
		return err
	}

	intent := intents.ClassifyKeywords(message)
	out := inspection{
		UserID:             userID,
		Message:            message,
		EducationalContext: learner.Infer(message, *profile),
		Intent:             intent,
	}
	if intent.IsTool() {
		out.FallbackParameters = extractors.Fallback(intent)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
