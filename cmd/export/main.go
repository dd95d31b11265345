package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-export/pkg/simpleexport"
	"github.com/tendant/simple-export/pkg/simpleexport/config"
	"github.com/tendant/simple-export/pkg/simpleexport/dom"
	fshost "github.com/tendant/simple-export/pkg/simpleexport/host/fs"
)

const version = "0.3.0"

var (
	downloadDir string
	configFile  string
	storeURL    string

	filename string
	mimeType string
	encoding string

	pretty    bool
	indent    int
	delimiter string
	escape    string
	csvJSON   bool
	key       string

	htmlSelector  string
	imageSelector string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "export",
		Short:         "Save text, JSON, tables, markup and remote resources as files",
		Long:          "A tool that turns in-memory data into downloaded files. Input is read from a file argument or stdin; files land in the downloads directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&downloadDir, "dir", "d", "", "Downloads directory (default from EXPORT_DOWNLOAD_DIR or ./downloads)")
	flags.StringVarP(&configFile, "config", "c", "", "TOML configuration file")
	flags.StringVar(&storeURL, "store", "", "Store URL: memory, postgres://..., sqlite://path")
	flags.StringVarP(&filename, "filename", "f", "", "Name of the saved file")
	flags.StringVarP(&mimeType, "mime", "m", "", "MIME type or shortcut (csv, json, txt, html)")
	flags.StringVarP(&encoding, "encoding", "e", "", "Charset of text output")

	textCmd := &cobra.Command{
		Use:   "text [file]",
		Short: "Save raw input",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			e.Save(ctx, data, params())
			return nil
		}),
	}

	dataURLCmd := &cobra.Command{
		Use:   "dataurl [file]",
		Short: "Decode a base64 data-URL and save its bytes",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			return e.SaveDataURL(ctx, strings.TrimSpace(string(data)), params())
		}),
	}

	jsonCmd := &cobra.Command{
		Use:   "json [file]",
		Short: "Save JSON text, reindented with --pretty or --indent",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			return e.SaveJSON(ctx, simpleexport.JSONText(data), params())
		}),
	}
	jsonCmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "Indent the output")
	jsonCmd.Flags().IntVar(&indent, "indent", 0, "Indentation width (implies --pretty)")

	csvCmd := &cobra.Command{
		Use:   "csv [file]",
		Short: "Save CSV text, or render JSON rows with --json",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			var input simpleexport.CSVInput = simpleexport.CSVText(data)
			if csvJSON {
				input, err = simpleexport.ParseCSVJSON(data)
				if err != nil {
					return err
				}
			}
			return e.SaveCSV(ctx, input, params())
		}),
	}
	csvCmd.Flags().StringVar(&delimiter, "delimiter", "", "Field delimiter (default \",\")")
	csvCmd.Flags().StringVar(&escape, "escape", "", "Escape character (default '\"')")
	csvCmd.Flags().BoolVar(&csvJSON, "json", false, "Input is a JSON array of arrays or of objects")

	htmlCmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Save markup, or the inner markup of --selector",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			if htmlSelector == "" {
				return e.SaveHTML(ctx, simpleexport.HTMLText(data), params())
			}
			doc, err := dom.Parse(bytes.NewReader(data))
			if err != nil {
				return err
			}
			el, ok := doc.Query(htmlSelector)
			if !ok {
				return fmt.Errorf("selector %q matched no element", htmlSelector)
			}
			return e.SaveHTML(ctx, simpleexport.HTMLSelection{Element: el}, params())
		}),
	}
	htmlCmd.Flags().StringVarP(&htmlSelector, "selector", "s", "", "CSS selector of the element to save")

	pageCmd := &cobra.Command{
		Use:   "page [file]",
		Short: "Parse a document and save its markup",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			doc, err := readDocument(args)
			if err != nil {
				return err
			}
			return e.With(simpleexport.WithPageSource(doc)).SavePageHTML(ctx, params())
		}),
	}

	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Dump the configured store, or the value under --key, as JSON",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			return e.SaveStore(ctx, params())
		}),
	}
	storeCmd.Flags().StringVarP(&key, "key", "k", "", "Store key (default whole store)")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "Save a script as artoo_script.js",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return err
			}
			provider := simpleexport.ScriptFunc(func(context.Context) (string, error) {
				return string(data), nil
			})
			return e.With(simpleexport.WithScriptProvider(provider)).SaveInstructions(ctx, params())
		}),
	}

	resourceCmd := &cobra.Command{
		Use:   "resource <url>",
		Short: "Fetch a remote resource (http, https, data, s3) and save it",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			e.SaveResource(ctx, args[0], params())
			return nil
		}),
	}

	imageCmd := &cobra.Command{
		Use:   "image [file]",
		Short: "Save the source of the image matched by --selector",
		Args:  cobra.MaximumNArgs(1),
		RunE: run(func(ctx context.Context, e *simpleexport.Exporter, args []string) error {
			doc, err := readDocument(args)
			if err != nil {
				return err
			}
			return e.With(simpleexport.WithQuerier(doc)).SaveImage(ctx, simpleexport.ImageSelector(imageSelector), params())
		}),
	}
	imageCmd.Flags().StringVarP(&imageSelector, "selector", "s", "img", "CSS selector of the image")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("export version %s\n", version)
		},
	}

	rootCmd.AddCommand(textCmd, dataURLCmd, jsonCmd, csvCmd, htmlCmd, pageCmd,
		storeCmd, scriptCmd, resourceCmd, imageCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type action func(ctx context.Context, e *simpleexport.Exporter, args []string) error

// run wires an action to an exporter over the downloads directory and
// reports what was saved.
func run(fn action) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.Load(configOptions()...)
		if err != nil {
			return err
		}

		comps, err := cfg.Build(ctx)
		if err != nil {
			return err
		}
		defer comps.Close()

		logger := &cliLogger{}
		failed := 0
		hooks := &simpleexport.Hooks{
			OnError: []simpleexport.ErrorHook{
				func(hctx *simpleexport.HookContext, operation string, err error) {
					failed++
				},
			},
		}

		e, err := comps.Exporter(nil,
			simpleexport.WithHost(comps.Host, simpleexport.WithTriggerLogger(logger), simpleexport.WithHooks(hooks)),
			simpleexport.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		if registry := e.Trigger().Registry(); registry != nil {
			defer registry.RevokeAll()
		}

		if err := fn(ctx, e, args); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d download(s) failed", failed)
		}

		report(comps.Host)
		return nil
	}
}

func configOptions() []config.Option {
	opts := []config.Option{}
	if configFile != "" {
		opts = append(opts, config.WithFile(configFile))
	}
	opts = append(opts, config.WithEnv(), config.WithHostType("fs"))
	if downloadDir != "" {
		opts = append(opts, config.WithDownloadDir(downloadDir))
	}
	if storeURL != "" {
		opts = append(opts, config.WithStoreURL(storeURL))
	}
	return opts
}

func params() simpleexport.Params {
	return simpleexport.Params{
		Filename:  filename,
		Mime:      mimeType,
		Encoding:  encoding,
		Pretty:    pretty,
		Indent:    indent,
		Delimiter: delimiter,
		Escape:    escape,
		Key:       key,
	}
}

func report(host simpleexport.Host) {
	fs, ok := host.(*fshost.Host)
	if !ok {
		return
	}
	saved := fs.Saved()
	if len(saved) == 0 {
		color.New(color.FgYellow).Println("Nothing saved")
		return
	}
	green := color.New(color.FgGreen)
	for _, path := range saved {
		green.Printf("✓ %s\n", path)
	}
}

// readInput reads the file named by args[0], or stdin when absent or "-"
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func readDocument(args []string) (*dom.Document, error) {
	data, err := readInput(args)
	if err != nil {
		return nil, err
	}
	return dom.Parse(bytes.NewReader(data))
}

// cliLogger implements simpleexport.Logger with colored terminal output.
type cliLogger struct{}

func (l *cliLogger) Error(msg string, args ...any) {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", b.String())
}
