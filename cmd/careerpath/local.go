package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muhammadolammi/careerpath/internal/conversation"
	"github.com/muhammadolammi/careerpath/internal/extract"
	"github.com/muhammadolammi/careerpath/internal/generation"
	"github.com/muhammadolammi/careerpath/internal/identity"
	"github.com/muhammadolammi/careerpath/internal/metrics"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		Long: `Starts an interactive session. Type a message and press enter.
/mode <chat|roadmap|resume> switches the active tab, /quit leaves.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			model, err := newModel(cmd.Context(), cfg, metrics.NewCollector("careerpath"), logger)
			if err != nil {
				return err
			}
			conv := conversation.New(model,
				conversation.WithTimeout(cfg.ModelTimeout),
				conversation.WithLogger(logger),
			)
			return chatLoop(cmd.Context(), conv, generation.ParseMode(mode), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "chat", "initial tab (chat, roadmap or resume)")
	return cmd
}

func chatLoop(ctx context.Context, conv *conversation.Conversation, mode generation.Mode, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	fmt.Fprintf(out, "[%s] > ", modeLabel(mode))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case strings.HasPrefix(line, "/mode"):
			mode = generation.ParseMode(strings.TrimPrefix(line, "/mode"))
		case line == "":
		default:
			result, err := conv.Submit(ctx, conversation.Input{Utterance: line, Mode: mode})
			switch {
			case errors.Is(err, generation.ErrTransport):
				fmt.Fprintln(out, conversation.ConnectionErrorText)
			case err != nil:
				return err
			default:
				printResult(out, result)
			}
		}
		fmt.Fprintf(out, "[%s] > ", modeLabel(mode))
	}
	return scanner.Err()
}

func modeLabel(m generation.Mode) string {
	if m == generation.ModeNone {
		return "auto"
	}
	return string(m)
}

func printResult(w io.Writer, result generation.Result) {
	switch {
	case result.Roadmap != nil:
		renderRoadmap(w, *result.Roadmap)
	case result.Critique != nil:
		renderCritique(w, *result.Critique)
	default:
		fmt.Fprintln(w, result.AssistantText())
	}
}

func roadmapCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "roadmap <goal>",
		Short: "Generate a learning roadmap for a target role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			model, err := newModel(cmd.Context(), cfg, metrics.NewCollector("careerpath"), logger)
			if err != nil {
				return err
			}
			goal := strings.Join(args, " ")
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ModelTimeout)
			defer cancel()

			result, err := generation.Run(ctx, model, generation.RoadmapRequest, goal)
			if err != nil {
				if result.Raw != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), result.Raw)
				}
				return err
			}
			plan := *result.Roadmap
			if plan.RoleTitle == "" {
				plan.RoleTitle = goal
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			renderRoadmap(cmd.OutOrStdout(), plan)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}

func resumeCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resume <file>",
		Short: "Critique a PDF, DOCX or plain-text resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			mime := extract.MimeFromName(args[0])
			if mime == "" {
				mime = extract.DetectMIME(data)
			}
			text, err := extract.Text(mime, data)
			if err != nil {
				return err
			}

			model, err := newModel(cmd.Context(), cfg, metrics.NewCollector("careerpath"), logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ModelTimeout)
			defer cancel()

			result, err := generation.Run(ctx, model, generation.ResumeCritiqueRequest, text)
			if err != nil {
				if result.Raw != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), result.Raw)
				}
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), result.Critique)
			}
			renderCritique(cmd.OutOrStdout(), *result.Critique)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the critique as JSON")
	return cmd
}

func tokenCmd() *cobra.Command {
	var email, name string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <uid>",
		Short: "Issue an API token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("empty CAREERPATH_JWT_SECRET in environment")
			}
			verifier, err := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}
			token, err := verifier.Issue(args[0], email, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
