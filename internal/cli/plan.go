package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pedagoplay/internal/common/config"
	httpkit "pedagoplay/internal/common/http"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/markup"
	"pedagoplay/internal/common/openrouter"
	planactivities "pedagoplay/internal/workers/activities/plan-activities"
)

var planHTML bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan activities interactively",
	Long:  "Ask for the children's ages, the weather, the location and any special cases, then print suggested activities.",
	Args:  cobra.NoArgs,
	RunE:  runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := readInputs(cmd.InOrStdin(), cmd.ErrOrStderr())

	formatter := markup.Identity
	if planHTML {
		formatter = markup.NewHTMLFormatter()
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	completer := openrouter.NewClient(
		openrouter.ConfigFromAppConfig(cfg.OpenRouter),
		openrouter.DefaultCredentials(cfg.OpenRouter.APIKey, cfg.OpenRouter.CredentialFile),
		openrouter.WithHTTPClient(httpkit.NewClient(10*time.Second)),
		openrouter.WithFormatter(formatter),
		openrouter.WithLogger(log),
	)

	plannerCfg := planactivities.DefaultConfig()
	plannerCfg.FallbackSeed = cfg.Fallback.Seed
	service := planactivities.NewService(planactivities.ServiceDependencies{
		Logger:    log,
		Completer: completer,
	}, plannerCfg)

	return printPlan(cmd.Context(), service, input, cmd.OutOrStdout())
}

type planner interface {
	Execute(ctx context.Context, input *planactivities.Input) *planactivities.PlanningResult
}

func printPlan(ctx context.Context, p planner, input *planactivities.Input, out io.Writer) error {
	result := p.Execute(ctx, input)
	if !result.Output.Success {
		if result.Output.Error != nil {
			return fmt.Errorf("%s", *result.Output.Error)
		}
		return fmt.Errorf("activity planning failed")
	}
	fmt.Fprintln(out, result.Output.Activities)
	return nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// readInputs prompts on w and reads answers from r. Blank or unparsable
// answers fall back to defaults.
func readInputs(r io.Reader, w io.Writer) *planactivities.Input {
	scanner := bufio.NewScanner(r)
	ask := func(prompt string) string {
		fmt.Fprint(w, prompt)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	input := &planactivities.Input{NumChildren: 1, Ages: []int{4}}

	if n, err := strconv.Atoi(ask("Enter the number of children: ")); err == nil && n > 0 {
		input.NumChildren = n
	}
	if ages, ok := parseAges(ask("Enter the ages of the children separated by ',' (ex.: 4,5,6): ")); ok {
		input.Ages = ages
	}

	input.Weather = ask("How is the weather? (sunny, rainy, snowy): ")
	if input.Weather == "" {
		input.Weather = "sunny"
	}
	input.Location = ask("Enter your location: ")
	if input.Location == "" {
		input.Location = "Yverdon-les-Bains"
	}
	input.SpecialCases = ask("Mention any special cases if you have any: ")
	if input.SpecialCases == "" {
		input.SpecialCases = planactivities.DefaultSpecialCase
	}
	return input
}

func parseAges(raw string) ([]int, bool) {
	var ages []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		age, err := strconv.Atoi(part)
		if err != nil || age < 0 {
			return nil, false
		}
		ages = append(ages, age)
	}
	return ages, len(ages) > 0
}

func init() {
	planCmd.Flags().BoolVar(&planHTML, "html", false, "render the model reply as HTML")
	rootCmd.AddCommand(planCmd)
}
