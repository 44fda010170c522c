package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/topsol/fatura-copel/config"
	"github.com/topsol/fatura-copel/dto"
	"github.com/topsol/fatura-copel/service"
	"github.com/topsol/fatura-copel/utils/export"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file>...",
	Short: "Classify one or more COPEL invoices",
	Long: "Classify COPEL invoices given as PDF files, or as already extracted text with --text.\n" +
		"Use - to read text from stdin.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		opts, err := parseOptionsFrom(cmd)
		if err != nil {
			return err
		}
		if (opts.csvPath != "" || opts.xlsxPath != "") && (len(args) != 1 || opts.mode == dto.ModeLegacy) {
			return errors.New("--csv and --xlsx need a single document in full mode")
		}

		svc, closeFn := buildService(cfg, logger)
		defer closeFn()

		responses, err := parseInputs(cmd, svc, args, opts)
		if err != nil {
			return err
		}

		for _, resp := range responses {
			if err := writeResponse(cmd.OutOrStdout(), resp, opts.format); err != nil {
				return err
			}
		}
		if len(responses) == 1 && responses[0].Result != nil {
			return writeExports(responses[0].Result, opts)
		}
		return nil
	},
}

type parseOptions struct {
	text     bool
	mode     dto.ParseMode
	format   string
	password string
	csvPath  string
	xlsxPath string
}

func parseOptionsFrom(cmd *cobra.Command) (parseOptions, error) {
	f := cmd.Flags()
	text, _ := f.GetBool("text")
	mode, _ := f.GetString("mode")
	format, _ := f.GetString("format")
	password, _ := f.GetString("password")
	csvPath, _ := f.GetString("csv")
	xlsxPath, _ := f.GetString("xlsx")

	switch format {
	case "json", "yaml", "pretty", "text":
	default:
		return parseOptions{}, fmt.Errorf("unknown format %q", format)
	}
	return parseOptions{
		text:     text,
		mode:     dto.ParseModeFrom(mode),
		format:   format,
		password: password,
		csvPath:  csvPath,
		xlsxPath: xlsxPath,
	}, nil
}

// parseInputs classifies every input concurrently and returns the responses in
// argument order. The first failure is returned after all inputs finish.
func parseInputs(cmd *cobra.Command, svc *service.InvoiceService, args []string, opts parseOptions) ([]*dto.InvoiceResponse, error) {
	responses := make([]*dto.InvoiceResponse, len(args))
	errs := make([]error, len(args))

	var wg sync.WaitGroup
	for i, arg := range args {
		wg.Add(1)
		go func(i int, arg string) {
			defer wg.Done()

			data, err := readInput(cmd.InOrStdin(), arg)
			if err != nil {
				errs[i] = err
				return
			}

			if opts.text {
				responses[i], errs[i] = svc.ParseText(string(data), opts.mode)
				if responses[i] != nil {
					responses[i].Filename = filepath.Base(arg)
				}
				return
			}
			doc := dto.Document{Filename: filepath.Base(arg), Data: data, Password: opts.password}
			responses[i], errs[i] = svc.ParseDocument(cmd.Context(), doc, opts.mode)
		}(i, arg)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("%s: %w", args[i], err)
		}
	}
	return responses, nil
}

func readInput(stdin io.Reader, arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(arg)
}

func writeResponse(w io.Writer, resp *dto.InvoiceResponse, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	case "pretty":
		printer := pp.New()
		printer.SetOutput(w)
		printer.SetColoringEnabled(false)
		_, err := printer.Println(resp)
		return err
	case "text":
		if resp.Result == nil {
			return errors.New("text format needs full mode")
		}
		if resp.Filename != "" {
			fmt.Fprintf(w, "== %s ==\n", resp.Filename)
		}
		return export.RenderText(w, resp.Result)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
}

func writeExports(result *dto.InvoiceResult, opts parseOptions) error {
	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error { return export.WriteCSV(w, result) }); err != nil {
			return err
		}
	}
	if opts.xlsxPath != "" {
		if err := writeFile(opts.xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, result) }); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	parseCmd.Flags().Bool("text", false, "inputs are plain text instead of PDF")
	parseCmd.Flags().String("mode", string(dto.ModeFull), "response shape: full or legacy")
	parseCmd.Flags().String("format", "json", "output format: json, yaml, pretty or text")
	parseCmd.Flags().String("password", "", "PDF user password")
	parseCmd.Flags().String("csv", "", "write the classified lines to this CSV file")
	parseCmd.Flags().String("xlsx", "", "write a summary workbook to this XLSX file")
}
