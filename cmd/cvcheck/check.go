package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/cvcheck/internal/ai"
	"github.com/steveyegge/cvcheck/internal/config"
	"github.com/steveyegge/cvcheck/internal/events"
	"github.com/steveyegge/cvcheck/internal/extract"
	"github.com/steveyegge/cvcheck/internal/pipeline"
	"github.com/steveyegge/cvcheck/internal/schema"
)

var (
	checkRecord          string
	checkDocument        string
	checkSchema          string
	checkSchemaComponent string
	checkJSON            bool
	checkWatch           bool
	checkQuiet           bool

	// Overrides for config values
	checkProvider         string
	checkModel            string
	checkChunkSize        int
	checkOverlap          int
	checkConcurrency      int
	checkFailOnChunkError bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare a record with a document and report disagreements",
	Long: `Compare a record with a document and report every field the document
disagrees with.

The record is a JSON or YAML file. The document may be plain text, Markdown,
HTML, or PDF (PDFs are sent to the text service at pdf_service_url).

Exit status is 0 when the record PASSED, 1 when it FAILED or the comparison
was INCOMPLETE, and 1 on any error.

Example:
  cvcheck check --record form.json --document cv.pdf
  cvcheck check --record form.yaml --document cv.txt --schema form.schema.yaml
  cvcheck check --record form.json --document cv.html --json
  cvcheck check --record form.json --document cv.md --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyCheckFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// The capability is built once and shared by every run
		capability, err := ai.New(ctx, cfg.ProviderConfig())
		if err != nil {
			return err
		}

		opts := checkOptions{
			RecordPath:      checkRecord,
			DocumentPath:    checkDocument,
			SchemaPath:      checkSchema,
			SchemaComponent: checkSchemaComponent,
			JSON:            checkJSON,
			ShowEvents:      !checkQuiet && !checkJSON,
		}
		out := cmd.OutOrStdout()

		if !checkWatch {
			report, err := runCheck(ctx, out, cfg, capability, opts)
			return checkExit(report, err)
		}

		return watchFiles(ctx, []string{checkRecord, checkDocument}, func() {
			report, err := runCheck(ctx, out, cfg, capability, opts)
			if err := checkExit(report, err); err != nil {
				var exit *exitError
				if !errors.As(err, &exit) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			}
			fmt.Fprintf(out, "\nWatching %s and %s for changes (Ctrl-C to stop)\n", checkRecord, checkDocument)
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVarP(&checkRecord, "record", "r", "", "Record file (JSON or YAML)")
	checkCmd.Flags().StringVarP(&checkDocument, "document", "d", "", "Document file (.txt, .md, .html, .pdf)")
	checkCmd.Flags().StringVar(&checkSchema, "schema", "", "Validate the record against this schema first (JSON Schema or OpenAPI, JSON or YAML)")
	checkCmd.Flags().StringVar(&checkSchemaComponent, "schema-component", "", "Schema name under components.schemas when --schema is an OpenAPI document")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-run whenever the record or document changes")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Hide progress events")

	checkCmd.Flags().StringVar(&checkProvider, "provider", "", "Capability provider: anthropic, gemini, or ollama")
	checkCmd.Flags().StringVar(&checkModel, "model", "", "Model name")
	checkCmd.Flags().IntVar(&checkChunkSize, "chunk-size", 0, "Chunk size in characters")
	checkCmd.Flags().IntVar(&checkOverlap, "overlap", 0, "Characters shared by consecutive chunks")
	checkCmd.Flags().IntVar(&checkConcurrency, "concurrency", 0, "Chunks compared at once")
	checkCmd.Flags().BoolVar(&checkFailOnChunkError, "fail-on-chunk-error", false, "Fail instead of reporting best-effort results when a chunk fails")

	_ = checkCmd.MarkFlagRequired("record")
	_ = checkCmd.MarkFlagRequired("document")
}

// applyCheckFlags copies explicitly set flags over the loaded config
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = checkProvider
	}
	if flags.Changed("model") {
		cfg.Model = checkModel
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = checkChunkSize
	}
	if flags.Changed("overlap") {
		cfg.Overlap = checkOverlap
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = checkConcurrency
	}
	if flags.Changed("fail-on-chunk-error") {
		cfg.FailOnChunkError = checkFailOnChunkError
	}
}

type checkOptions struct {
	RecordPath      string
	DocumentPath    string
	SchemaPath      string
	SchemaComponent string
	JSON            bool
	ShowEvents      bool
}

// runCheck performs one comparison and prints its report to out
func runCheck(ctx context.Context, out io.Writer, cfg *config.Config, capability ai.Capability, opts checkOptions) (*pipeline.Report, error) {
	record, err := loadRecord(opts.RecordPath)
	if err != nil {
		return nil, err
	}

	if opts.SchemaPath != "" {
		if err := validateRecord(ctx, opts.SchemaPath, opts.SchemaComponent, record); err != nil {
			var verr *schema.ValidationError
			if errors.As(err, &verr) {
				printViolations(out, verr)
			}
			return nil, err
		}
	}

	text, err := extract.NewRegistry(cfg.PDFServiceURL).Extract(ctx, opts.DocumentPath)
	if err != nil {
		return nil, err
	}

	sinks := []events.Sink{events.NewLogSink(logger)}
	if opts.ShowEvents {
		sinks = append(sinks, newEventPrinter(out))
	}
	comparator, err := pipeline.New(capability,
		pipeline.WithLogger(logger),
		pipeline.WithEventSink(events.Multi(sinks...)),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug("starting comparison",
		zap.String("record", opts.RecordPath),
		zap.String("document", opts.DocumentPath),
		zap.Int("document_length", len([]rune(text))),
		zap.Stringer("config", cfg))

	report, compareErr := comparator.Compare(ctx, record, text, cfg.PipelineConfig())
	if report != nil {
		if opts.JSON {
			if err := writeJSONReport(out, report); err != nil {
				return report, err
			}
		} else {
			printReport(out, report)
		}
	}
	return report, compareErr
}

// checkExit turns a report into the command's exit status
func checkExit(report *pipeline.Report, err error) error {
	if err != nil {
		return err
	}
	if report.Status() != pipeline.StatusPassed {
		return &exitError{code: 1}
	}
	return nil
}

// loadRecord reads a JSON or YAML record. Both keep their document key order.
func loadRecord(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing record YAML: %w", err)
		}
		var buf bytes.Buffer
		if err := writeYAMLAsJSON(&buf, &doc); err != nil {
			return nil, fmt.Errorf("converting record to JSON: %w", err)
		}
		return json.RawMessage(buf.Bytes()), nil
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("record %s is not valid JSON", path)
		}
		return json.RawMessage(data), nil
	}
}

// writeYAMLAsJSON emits node as JSON, keeping mapping keys in document order
func writeYAMLAsJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case 0:
		buf.WriteString("null")
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLAsJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return writeYAMLAsJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLAsJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLAsJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		buf.Write(raw)
	default:
		return fmt.Errorf("line %d: unsupported YAML node kind %d", node.Line, node.Kind)
	}
	return nil
}

func validateRecord(ctx context.Context, schemaPath, component string, record json.RawMessage) error {
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	validator, err := schema.Load(ctx, data, component)
	if err != nil {
		return err
	}
	return validator.Validate(record)
}
