package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"leetmentor/client"
	"leetmentor/config"
	"leetmentor/llm"
	"leetmentor/tui/chat"
)

var (
	chatServerURL  string
	chatSlug       string
	chatTitle      string
	chatDifficulty string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat against a running mentoring server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func runChat() error {
	if chatSlug == "" {
		return fmt.Errorf("--slug is required")
	}
	title := chatTitle
	if title == "" {
		title = chatSlug
	}

	cfg := config.Load()
	api := client.New(chatServerURL, cfg.APIPrefix)

	problem := llm.Problem{
		Slug:       chatSlug,
		Title:      title,
		Difficulty: chatDifficulty,
	}

	program := tea.NewProgram(chat.InitialModel(api, problem), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server", "http://localhost:8080", "base URL of the mentoring server")
	chatCmd.Flags().StringVar(&chatSlug, "slug", "", "problem slug to chat about")
	chatCmd.Flags().StringVar(&chatTitle, "title", "", "problem title (defaults to the slug)")
	chatCmd.Flags().StringVar(&chatDifficulty, "difficulty", "Medium", "problem difficulty (Easy, Medium, Hard)")
	rootCmd.AddCommand(chatCmd)
}
