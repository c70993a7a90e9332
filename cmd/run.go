package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single interactive interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run drives one interview session over stdin until it completes.
func run(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the interviewer", zap.String("version", version))

	manager, job, err := buildEngine(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the interview engine", zap.Error(err))
	}
	defer manager.Close()

	id, turn, err := manager.Create(job)
	if err != nil {
		logger.Fatal("creating the session", zap.Error(err))
	}

	logger.Debug("session started", zap.String("session_id", id))

	for !turn.Done {
		fmt.Println()
		fmt.Println(turn.Prompt)

		answer, err := readAnswer()
		if err != nil {
			if cancelErr := manager.Cancel(id); cancelErr != nil {
				logger.Warn("cancelling the session", zap.Error(cancelErr))
			}
			logger.Fatal("reading the answer", zap.Error(err))
		}

		turn, err = manager.SubmitAnswer(id, answer)
		if err != nil {
			logger.Fatal("submitting the answer", zap.Error(err))
		}
	}

	fmt.Println()
	fmt.Println(turn.Report)
}

// readAnswer reads one free-text answer. An empty answer is a valid,
// recordable non-answer; interrupting the prompt cancels the session.
func readAnswer() (string, error) {
	prompt := promptui.Prompt{
		Label:     ">",
		AllowEdit: true,
	}

	return prompt.Run()
}
