package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/travel-tavern/backend/internal/client"
	"github.com/zhouzirui/travel-tavern/backend/internal/render"
	"github.com/zhouzirui/travel-tavern/backend/internal/tui"
	"github.com/zhouzirui/travel-tavern/backend/internal/widget"
)

var (
	configFlag string
	serverFlag string
	styleFlag  string
	htmlFlag   bool
	widthFlag  int
)

// app is what every command needs after flags and config are merged.
type app struct {
	cfg    cliConfig
	client *client.Client
}

func newApp() (*app, error) {
	cfg, err := loadConfig(configFlag)
	if err != nil {
		return nil, err
	}
	if serverFlag != "" {
		cfg.Server = serverFlag
	}
	if styleFlag != "" {
		cfg.Style = styleFlag
	}

	cl, err := client.New(cfg.Server)
	if err != nil {
		return nil, err
	}
	cl.SetCookies(loadSession(cfg.SessionFile, cl.BaseURL()))

	return &app{cfg: cfg, client: cl}, nil
}

func (a *app) conversation() *widget.Conversation {
	return widget.New(a.client, widget.WithSanitize(a.cfg.sanitize()))
}

func (a *app) persistSession() {
	if err := saveSession(a.cfg.SessionFile, a.client.BaseURL(), a.client.Cookies()); err != nil {
		log.Printf("[travelchat] failed to save session: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "travelchat",
		Short: "Terminal chat widget for the travel assistant",
		Long: `travelchat talks to the travel assistant backend.

Examples:
  travelchat                                  Start the interactive chat
  travelchat ask "I'm Jane, where should I go?"
  travelchat history                          Show this session's transcript
  travelchat reset                            Start over`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.persistSession()

			// The alt screen owns the terminal; keep widget logs out of it.
			log.SetOutput(io.Discard)
			defer log.SetOutput(os.Stderr)

			return tui.Run(cmd.Context(), a.conversation(), tui.Options{Style: a.cfg.Style})
		},
	}

	root.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default "+defaultConfigPath()+")")
	root.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Backend URL (default "+defaultServer+")")
	root.PersistentFlags().StringVar(&styleFlag, "style", "", "Markdown style: auto, dark, light, notty, dracula")

	root.AddCommand(newAskCmd(), newHistoryCmd(), newResetCmd())
	return root
}

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.persistSession()

			conv := a.conversation()
			if !conv.Submit(cmd.Context(), strings.Join(args, " ")) {
				return fmt.Errorf("message is empty")
			}
			return printReply(cmd.OutOrStdout(), conv, a.cfg.Style)
		},
	}
	cmd.Flags().BoolVar(&htmlFlag, "html", false, "Print the chat window as HTML")
	cmd.Flags().IntVarP(&widthFlag, "width", "w", 80, "Wrap width for terminal output")
	return cmd
}

func printReply(w io.Writer, conv *widget.Conversation, style string) error {
	if htmlFlag {
		_, err := io.WriteString(w, conv.Render())
		return err
	}

	entries := conv.Entries()
	last := entries[len(entries)-1]
	if last.Sender != widget.SenderAI {
		return nil
	}

	text := last.Text
	if last.Markdown {
		out, err := render.Terminal(last.Text, style, widthFlag)
		if err == nil {
			text = out
		}
	}
	_, err := fmt.Fprintln(w, text)
	return err
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the transcript of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.persistSession()

			history, err := a.client.History(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load history: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(history.Messages) == 0 {
				fmt.Fprintln(out, "No messages yet.")
				return nil
			}
			for _, m := range history.Messages {
				fmt.Fprintf(out, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04"), m.Sender, m.Content)
			}
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the transcript of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.persistSession()

			if err := a.client.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared.")
			return nil
		},
	}
}

func execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
