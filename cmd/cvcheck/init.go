package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/cvcheck/internal/ai"
	"github.com/steveyegge/cvcheck/internal/config"
)

var (
	initYes   bool
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file for cvcheck",
	Long: `Write a config file (` + config.DefaultPath + ` unless --config is given),
asking for the provider, model, and chunking settings.

API keys are not stored in the file; export ANTHROPIC_API_KEY or
GEMINI_API_KEY instead.

Example:
  cvcheck init            # Interactive
  cvcheck init --yes      # Write the defaults`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := config.DefaultConfig()
		if !initYes {
			if err := askConfig(cfg); err != nil {
				return err
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		data, err := cfg.YAML()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%s Wrote %s\n\n", green("✓"), cyan(path))
		fmt.Fprintf(out, "%s Next steps:\n", gray("→"))
		switch cfg.Provider {
		case ai.ProviderAnthropic:
			fmt.Fprintf(out, "  %s\n", gray("export "+config.EnvAnthropicAPIKey+"=..."))
		case ai.ProviderGemini:
			fmt.Fprintf(out, "  %s\n", gray("export "+config.EnvGeminiAPIKey+"=..."))
		}
		fmt.Fprintf(out, "  %s\n\n", gray("cvcheck check --record form.json --document cv.pdf"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Accept all defaults without prompting")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

// askConfig prompts for the settings worth changing and updates cfg in place
func askConfig(cfg *config.Config) error {
	providers := []string{ai.ProviderAnthropic, ai.ProviderGemini, ai.ProviderOllama}
	if err := survey.AskOne(&survey.Select{
		Message: "Model provider:",
		Options: providers,
		Default: cfg.Provider,
	}, &cfg.Provider); err != nil {
		return translateSurveyErr(err)
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Model:",
		Default: defaultModel(cfg.Provider),
	}, &cfg.Model); err != nil {
		return translateSurveyErr(err)
	}
	if cfg.Model == defaultModel(cfg.Provider) {
		cfg.Model = ""
	}

	if cfg.Provider == ai.ProviderOllama {
		if err := survey.AskOne(&survey.Input{
			Message: "Ollama URL:",
			Default: ai.DefaultOllamaURL,
		}, &cfg.BaseURL); err != nil {
			return translateSurveyErr(err)
		}
	}

	if err := askInt("Chunk size (characters):", "Larger chunks mean fewer calls; keep them within the model's context.", 1, &cfg.ChunkSize); err != nil {
		return err
	}
	if err := askInt("Chunk overlap (characters):", "Must be smaller than the chunk size.", 0, &cfg.Overlap); err != nil {
		return err
	}
	if err := askInt("Chunks compared at once:", "Stay within your provider's rate limits.", 1, &cfg.Concurrency); err != nil {
		return err
	}

	if err := survey.AskOne(&survey.Confirm{
		Message: "Fail when a chunk cannot be compared?",
		Help:    "Otherwise the report is best-effort and marked INCOMPLETE.",
		Default: cfg.FailOnChunkError,
	}, &cfg.FailOnChunkError); err != nil {
		return translateSurveyErr(err)
	}

	if err := survey.AskOne(&survey.Input{
		Message: "PDF text service URL (blank for default):",
		Default: cfg.PDFServiceURL,
	}, &cfg.PDFServiceURL); err != nil {
		return translateSurveyErr(err)
	}
	return nil
}

func askInt(message, help string, least int, dest *int) error {
	var answer string
	err := survey.AskOne(&survey.Input{
		Message: message,
		Help:    help,
		Default: strconv.Itoa(*dest),
	}, &answer, survey.WithValidator(func(ans interface{}) error {
		s, _ := ans.(string)
		n, err := strconv.Atoi(s)
		if err != nil || n < least {
			return fmt.Errorf("enter a whole number of at least %d", least)
		}
		return nil
	}))
	if err != nil {
		return translateSurveyErr(err)
	}
	*dest, _ = strconv.Atoi(answer)
	return nil
}

func defaultModel(provider string) string {
	switch provider {
	case ai.ProviderGemini:
		return ai.DefaultGeminiModel
	case ai.ProviderOllama:
		return ai.DefaultOllamaModel
	default:
		return ai.DefaultAnthropicModel
	}
}

var errAborted = errors.New("aborted")

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errAborted
	}
	return err
}
