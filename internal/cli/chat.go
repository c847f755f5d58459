package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"pedagoplay/internal/common/config"
	httpkit "pedagoplay/internal/common/http"
	"pedagoplay/internal/common/openrouter"
)

type chatOptions struct {
	prompt      string
	system      string
	baseURL     string
	model       string
	temperature float64
	topP        float64
	maxTokens   int
	stream      bool
	timeout     int
	appName     string
	retries     int
}

var chatOpts chatOptions

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a single prompt to the model",
	Long:  "Send one prompt, with an optional system instruction, and print the raw model reply.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd, chatOpts, cmd.OutOrStdout())
	},
}

func runChat(ctx context.Context, cmd *cobra.Command, opts chatOptions, out io.Writer) error {
	cfg := openrouter.DefaultConfig()
	cfg.URL = opts.baseURL
	cfg.Model = opts.model
	cfg.Temperature = opts.temperature
	cfg.Timeout = time.Duration(opts.timeout) * time.Second
	cfg.Retries = opts.retries
	cfg.AppName = opts.appName
	if cmd != nil && cmd.Flags().Changed("top-p") {
		cfg.TopP = &opts.topP
	}
	if cmd != nil && cmd.Flags().Changed("max-tokens") {
		cfg.MaxTokens = &opts.maxTokens
	}

	client := openrouter.NewClient(cfg,
		openrouter.DefaultCredentials("", ".env"),
		openrouter.WithHTTPClient(httpkit.NewClient(10*time.Second)),
	)

	var messages []openrouter.Message
	if opts.system != "" {
		messages = append(messages, openrouter.Message{Role: openrouter.RoleSystem, Content: opts.system})
	}
	messages = append(messages, openrouter.Message{Role: openrouter.RoleUser, Content: opts.prompt})

	req := openrouter.Request{Messages: messages, Stream: &opts.stream}
	if opts.stream {
		req.OnDelta = func(delta string) { fmt.Fprint(out, delta) }
	}

	text, err := client.Complete(ctx, req)
	if err != nil {
		return err
	}
	if opts.stream {
		fmt.Fprintln(out)
		return nil
	}
	fmt.Fprintln(out, text)
	return nil
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatOpts.prompt, "prompt", "", "user prompt to send to the model")
	f.StringVar(&chatOpts.system, "system", "", "optional system instruction")
	f.StringVar(&chatOpts.baseURL, "base-url", config.DefaultOpenRouterURL, "chat completions endpoint")
	f.StringVar(&chatOpts.model, "model", config.DefaultModel, "model name (see https://openrouter.ai/models)")
	f.Float64Var(&chatOpts.temperature, "temperature", 0.7, "sampling temperature")
	f.Float64Var(&chatOpts.topP, "top-p", 0, "nucleus sampling probability")
	f.IntVar(&chatOpts.maxTokens, "max-tokens", 0, "max tokens to generate")
	f.BoolVar(&chatOpts.stream, "stream", false, "stream tokens as they are generated")
	f.IntVar(&chatOpts.timeout, "timeout", 120, "request timeout in seconds")
	f.StringVar(&chatOpts.appName, "app-name", "", "app name sent as OpenRouter routing metadata")
	f.IntVar(&chatOpts.retries, "retries", 2, "extra attempts after a failed request")
	_ = chatCmd.MarkFlagRequired("prompt")
	rootCmd.AddCommand(chatCmd)
}
