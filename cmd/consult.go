package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/complyeu/aiact-cli/internal/advisor"
)

var consultCmd = &cobra.Command{
	Use:   "consult",
	Short: "Run an interactive compliance consultation",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initAdvisor(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		ic := env.Advisor.Config()
		fmt.Println("EU AI Act Compliance Consultation")
		fmt.Printf("Corpus: %d chunks | Interview: %d-%d questions | Confidence threshold: %.2f\n",
			env.Advisor.CorpusSize(), ic.MinQuestions, ic.MaxQuestions, ic.ConfidenceThreshold)
		fmt.Println("Commands: 'reset' restarts, 'retry' re-asks after a failure, 'quit' exits.")
		fmt.Println()
		fmt.Println(advisor.InitialPrompt)
		fmt.Println()

		consultation := env.Advisor.NewConsultation()
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			switch strings.ToLower(input) {
			case "quit", "exit", "q":
				return nil
			case "reset":
				consultation.Reset()
				fmt.Println(advisor.InitialPrompt)
				fmt.Println()
				continue
			}

			turnCtx, cancel := context.WithTimeout(ctx, completionTimeout(cfg.Anthropic))
			var reply advisor.Reply
			if strings.EqualFold(input, "retry") {
				reply, err = consultation.ResumeQuestioning(turnCtx)
			} else {
				reply, err = consultation.Submit(turnCtx, input)
			}
			cancel()

			if err != nil {
				zap.L().Warn("consultation turn failed", zap.Error(err))
				fmt.Println("The assessment service is temporarily unavailable. Check that the completion service is reachable, then type 'retry'.")
				continue
			}

			fmt.Println()
			if consultation.Phase() == advisor.PhaseQuestioning {
				fmt.Printf("[Question %d/%d]\n", reply.Progress.QuestionsAsked+1, reply.Progress.MaxQuestions)
			}
			fmt.Println(reply.Message)
			fmt.Println()

			if reply.Done {
				fmt.Println("Consultation complete. Type 'reset' to assess another system, or 'quit' to exit.")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(consultCmd)
}
