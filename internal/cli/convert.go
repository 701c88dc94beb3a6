package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jlfwebstudio/tabela-node-backend/internal/config"
	"github.com/jlfwebstudio/tabela-node-backend/internal/core"
)

// ingestFlags are the command-line overrides for config.IngestConfig.
// Unset flags keep the values loaded from the environment.
type ingestFlags struct {
	encodings   []string
	delimiter   string
	allowEmpty  bool
	nationalID  string
	aliasesFile string
}

func (f *ingestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.encodings, "encoding", nil, "encodings to try, in order (default utf-8,windows-1252)")
	flags.StringVar(&f.delimiter, "delimiter", "", "auto, comma, semicolon, tab or pipe")
	flags.BoolVar(&f.allowEmpty, "allow-empty", false, "print [] instead of failing when the file has no rows")
	flags.StringVar(&f.nationalID, "national-id", "", "CNPJ / CPF cleanup: digits or strip")
	flags.StringVar(&f.aliasesFile, "aliases", "", "YAML or TOML file with extra header aliases")
}

// apply copies the flags that were set onto cfg.
func (f *ingestFlags) apply(cmd *cobra.Command, cfg *config.IngestConfig) {
	flags := cmd.Flags()
	if flags.Changed("encoding") {
		cfg.Encodings = f.encodings
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter = f.delimiter
	}
	if flags.Changed("allow-empty") {
		cfg.EmptyPolicy = string(core.EmptyPolicyReject)
		if f.allowEmpty {
			cfg.EmptyPolicy = string(core.EmptyPolicyAllow)
		}
	}
	if flags.Changed("national-id") {
		cfg.NationalIDMode = f.nationalID
	}
	if flags.Changed("aliases") {
		cfg.AliasesFile = f.aliasesFile
	}
}

// loadIngest reads ingest settings from the environment and applies flag
// overrides on top.
func loadIngest(cmd *cobra.Command, f *ingestFlags) (*config.IngestConfig, error) {
	cfg, err := config.LoadIngest()
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	return cfg, nil
}

func convertCmd() *cobra.Command {
	var (
		ingest ingestFlags
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:     "convert [file]",
		Short:   "Convert a CSV export to a JSON array of rows",
		Example: "csv2json convert ordens.csv --pretty\ncat ordens.csv | csv2json convert --delimiter semicolon",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadIngest(cmd, &ingest)
			if err != nil {
				return err
			}
			pipeline, err := cfg.Pipeline()
			if err != nil {
				return err
			}

			name, data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			ctx := core.ContextWithFileName(cmd.Context(), name)
			res, err := pipeline.Convert(ctx, data)
			if err != nil {
				return fmt.Errorf("%s: %s: %w", name, core.FormatUserError(err), err)
			}

			if output == "" || output == "-" {
				return writeRows(cmd.OutOrStdout(), res.Rows, pretty)
			}
			return writeOutput(output, res.Rows, pretty)
		},
	}

	ingest.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

// readInput returns the named file, or stdin when no file (or "-") is given.
func readInput(stdin io.Reader, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("%s: %w", args[0], core.ErrMissingInput)
		}
		return "", nil, err
	}
	return args[0], data, nil
}

// writeOutput writes rows to the file at path.
func writeOutput(path string, rows []core.Row, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeAndClose(f, rows, pretty)
}

// writeAndClose writes rows to wc and closes it. A failed close is reported
// when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, rows []core.Row, pretty bool) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return writeRows(wc, rows, pretty)
}

func writeRows(w io.Writer, rows []core.Row, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rows)
}

func columnsCmd() *cobra.Command {
	var ingest ingestFlags

	cmd := &cobra.Command{
		Use:   "columns",
		Short: "List the canonical columns in output order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadIngest(cmd, &ingest)
			if err != nil {
				return err
			}
			s, err := cfg.Schema()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < s.Len(); i++ {
				col := s.Column(i)
				if len(col.Aliases) == 0 {
					fmt.Fprintln(out, col.Name)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", col.Name, strings.Join(col.Aliases, ", "))
			}
			return nil
		},
	}

	ingest.register(cmd)
	return cmd
}
