package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"elnino/internal/config"
	"elnino/internal/diag"
	"elnino/internal/diagfmt"
	"elnino/internal/fixpoint"
	"elnino/internal/observ"
	"elnino/internal/query"
	"elnino/internal/records"
	"elnino/internal/resolve"
	"elnino/internal/sink"
	"elnino/internal/target"
	"elnino/internal/trace"
)

var loadCmd = &cobra.Command{
	Use:   "load [flags] <stream...>",
	Short: "Resolve the types of one or more record streams",
	Long: `Decode record streams (.json, .mp), merge them in argument order and
resolve every struct, union and enum they define. Diagnostics are written to
stdout; the type database and C header are written only when the load
finishes without a fatal error.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runLoad,
}

func init() {
	loadCmd.Flags().String("arch", "", "target architecture, overrides the stream's (x86|x86_64|arm|arm64)")
	loadCmd.Flags().Int("pointer-width", 0, "pointer width in bytes (0 = from arch)")
	loadCmd.Flags().Bool("strict", false, "treat unknown leaf kinds as fatal")
	loadCmd.Flags().String("format", "", "diagnostics format (pretty|json|short)")
	loadCmd.Flags().String("db", "", "write the type database (.mp|.msgpack|.json)")
	loadCmd.Flags().String("header", "", "write resolved types as a C header")
	loadCmd.Flags().String("json-out", "", "write a JSON export of the type database")
	loadCmd.Flags().String("query", "", "jq program to run over the resolved types")
	loadCmd.Flags().Bool("raw", false, "print string query results without quotes")
	loadCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	loadCmd.Flags().Bool("fail-unresolved", false, "exit with status 1 when aggregates stay unresolved")
	loadCmd.Flags().Int("jobs", 0, "max parallel stream decoders (0=auto)")
}

type loadOptions struct {
	cfg            config.Config
	manifest       string // path of elnino.toml, "" when none was found
	archFlag       bool   // --arch given explicitly
	format         diagfmt.Format
	ui             uiMode
	jsonOut        string
	query          *query.Query
	raw            bool
	failUnresolved bool
	jobs           int
	quiet          bool
	timings        bool
	color          bool
}

func runLoad(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic()

	opts, err := readLoadOptions(cmd)
	if err != nil {
		return err
	}
	code, err := executeLoad(cmd.Context(), args, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// readLoadOptions layers the command-line flags over elnino.toml.
func readLoadOptions(cmd *cobra.Command) (loadOptions, error) {
	var opts loadOptions

	wd, err := os.Getwd()
	if err != nil {
		return opts, err
	}
	manifest, _, err := config.Discover(wd)
	if err != nil {
		return opts, err
	}
	opts.cfg = manifest.Config
	opts.manifest = manifest.Path

	flags := cmd.Flags()
	if flags.Changed("arch") {
		arch, err := flags.GetString("arch")
		if err != nil {
			return opts, fmt.Errorf("failed to get arch flag: %w", err)
		}
		if _, err := target.Lookup(arch); err != nil {
			return opts, err
		}
		opts.cfg.Resolve.Arch = arch
		opts.archFlag = true
	}
	if flags.Changed("pointer-width") {
		width, err := flags.GetInt("pointer-width")
		if err != nil {
			return opts, fmt.Errorf("failed to get pointer-width flag: %w", err)
		}
		if width < 0 {
			return opts, fmt.Errorf("invalid --pointer-width %d", width)
		}
		opts.cfg.Resolve.PointerWidth = width
	}
	if flags.Changed("strict") {
		if opts.cfg.Resolve.Strict, err = flags.GetBool("strict"); err != nil {
			return opts, fmt.Errorf("failed to get strict flag: %w", err)
		}
	}
	if flags.Changed("format") {
		if opts.cfg.Output.Format, err = flags.GetString("format"); err != nil {
			return opts, fmt.Errorf("failed to get format flag: %w", err)
		}
	}
	if flags.Changed("db") {
		if opts.cfg.Output.Database, err = flags.GetString("db"); err != nil {
			return opts, fmt.Errorf("failed to get db flag: %w", err)
		}
	}
	if flags.Changed("header") {
		if opts.cfg.Output.Header, err = flags.GetString("header"); err != nil {
			return opts, fmt.Errorf("failed to get header flag: %w", err)
		}
	}
	root := cmd.Root().PersistentFlags()
	if root.Changed("max-diagnostics") {
		if opts.cfg.Output.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
			return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}

	if opts.format, err = diagfmt.ParseFormat(opts.cfg.Output.Format); err != nil {
		return opts, err
	}
	if opts.cfg.Output.Database != "" {
		if _, err := records.FormatForPath(opts.cfg.Output.Database); err != nil {
			return opts, fmt.Errorf("--db: %w", err)
		}
	}
	if opts.jsonOut, err = flags.GetString("json-out"); err != nil {
		return opts, fmt.Errorf("failed to get json-out flag: %w", err)
	}
	if opts.jsonOut != "" {
		if f, err := records.FormatForPath(opts.jsonOut); err != nil || f != records.FormatJSON {
			return opts, fmt.Errorf("--json-out: %q is not a .json path", opts.jsonOut)
		}
	}

	src, err := flags.GetString("query")
	if err != nil {
		return opts, fmt.Errorf("failed to get query flag: %w", err)
	}
	if src != "" {
		if opts.query, err = query.Parse(src); err != nil {
			return opts, err
		}
	}
	if opts.raw, err = flags.GetBool("raw"); err != nil {
		return opts, fmt.Errorf("failed to get raw flag: %w", err)
	}

	uiValue, err := flags.GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	if opts.failUnresolved, err = flags.GetBool("fail-unresolved"); err != nil {
		return opts, fmt.Errorf("failed to get fail-unresolved flag: %w", err)
	}
	if opts.jobs, err = flags.GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.color, err = useColor(cmd, stdoutFile(cmd)); err != nil {
		return opts, err
	}
	return opts, nil
}

// executeLoad runs one load and returns the process exit status. The error
// is reserved for failures to produce any output at all.
func executeLoad(ctx context.Context, paths []string, opts loadOptions, stdout, stderr io.Writer) (int, error) {
	var timer *observ.Timer
	if opts.timings {
		timer = observ.NewTimer()
	}

	span, ctx := trace.Start(ctx, trace.ScopeDriver, "load")
	span.WithExtra("files", fmt.Sprint(len(paths)))

	bag := diag.NewBag(opts.cfg.Output.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	if opts.manifest != "" {
		diag.ReportInfo(reporter, diag.LoadInfo, opts.manifest, "using configuration").Emit()
	}

	idx := timer.Begin("decode")
	stream, err := records.LoadAll(ctx, paths, opts.jobs)
	timer.End(idx, fmt.Sprintf("%d file(s)", len(paths)))
	if err != nil {
		diag.ReportError(reporter, diag.LoadStreamError, "", err.Error()).Emit()
		span.End("decode failed")
		return 1, finishLoad(bag, opts, timer, stdout, stderr)
	}
	timer.Count("records", len(stream.Records))

	enums, aggregates := stream.Definitions()
	if len(enums)+len(aggregates) == 0 {
		diag.ReportWarning(reporter, diag.LoadEmptyStream, strings.Join(paths, ", "), "no struct, union or enum definitions").Emit()
	}

	profile, err := selectProfile(opts.cfg.Resolve, opts.archFlag, stream.Arch, reporter)
	if err != nil {
		span.End("bad profile")
		return 0, err
	}
	span.WithExtra("arch", profile.Name)

	memory := sink.NewMemory()
	sinks := []fixpoint.Sink{memory}
	if opts.cfg.Output.Database != "" {
		db, err := sink.NewFileSink(opts.cfg.Output.Database, profile)
		if err != nil {
			return 0, err
		}
		sinks = append(sinks, db)
	}
	if opts.jsonOut != "" {
		export, err := sink.NewFileSink(opts.jsonOut, profile)
		if err != nil {
			return 0, err
		}
		sinks = append(sinks, export)
	}
	if opts.cfg.Output.Header != "" {
		sinks = append(sinks, sink.NewHeaderFile(opts.cfg.Output.Header, "generated by elnino from "+strings.Join(paths, ", ")))
	}
	out := sink.Multi(sinks...)

	runOpts := fixpoint.Options{
		Profile:          profile,
		Strict:           opts.cfg.Resolve.Strict,
		AnonymousMarkers: opts.cfg.Resolve.AnonymousMarkers,
		Sink:             out,
		MaxDiagnostics:   opts.cfg.Output.MaxDiagnostics,
	}
	idx = timer.Begin("resolve")
	var result *fixpoint.Result
	if shouldUseTUI(opts.ui, opts.format != diagfmt.FormatPretty) {
		result, err = runFixpointWithUI(ctx, "resolving "+strings.Join(paths, ", "), stream, runOpts)
	} else {
		result, err = fixpoint.Run(ctx, stream, runOpts)
	}
	timer.End(idx, "")
	if result != nil {
		bag.Merge(result.Bag)
		timer.Count("passes", result.Stats.Passes)
		timer.Count("defined", result.Stats.EnumsParsed+result.Stats.AggregatesParsed)
		timer.Count("unresolved", result.Stats.AggregatesUnresolved)
	}
	if err != nil {
		reportFatal(reporter, err)
		span.End(err.Error())
		return 1, finishLoad(bag, opts, timer, stdout, stderr)
	}

	idx = timer.Begin("write")
	if err := out.Close(); err != nil {
		diag.ReportError(reporter, diag.SinkWriteError, "", err.Error()).Emit()
		timer.End(idx, "failed")
		span.End("write failed")
		return 1, finishLoad(bag, opts, timer, stdout, stderr)
	}
	timer.End(idx, "")

	if opts.query != nil {
		results, err := opts.query.RunDatabase(ctx, memory.Database(profile))
		if err != nil {
			span.End("query failed")
			return 0, err
		}
		if err := query.Write(stdout, results, opts.raw); err != nil {
			return 0, err
		}
	}

	span.End(result.Stats.String())
	if !opts.quiet {
		fmt.Fprintf(stderr, "elnino: %s (%s)\n", result.Stats, profile.Name)
	}
	status := 0
	if opts.failUnresolved && len(result.Unresolved) > 0 {
		status = 1
	}
	if err := finishLoad(bag, opts, timer, stdout, stderr); err != nil {
		return 0, err
	}
	if bag.HasErrors() {
		status = 1
	}
	return status, nil
}

// selectProfile picks the architecture: --arch wins, then the stream's own
// declaration, then elnino.toml.
func selectProfile(cfg config.ResolveConfig, archFlag bool, streamArch string, r diag.Reporter) (target.Profile, error) {
	var (
		p   target.Profile
		err error
	)
	switch {
	case archFlag:
		p, err = target.Lookup(cfg.Arch)
		if err != nil {
			return target.Profile{}, err
		}
		if streamArch != "" {
			if declared, lerr := target.Lookup(streamArch); lerr != nil || declared.Name != p.Name {
				diag.ReportInfo(r, diag.LoadArchOverride, streamArch, "stream architecture overridden by --arch "+p.Name).Emit()
			}
		}
	case streamArch != "":
		p, err = target.Lookup(streamArch)
		if err != nil {
			diag.ReportWarning(r, diag.LoadUnknownArch, streamArch, "unknown stream architecture, using "+cfg.Arch).Emit()
			if p, err = target.Lookup(cfg.Arch); err != nil {
				return target.Profile{}, err
			}
		}
	default:
		if p, err = target.Lookup(cfg.Arch); err != nil {
			return target.Profile{}, err
		}
	}
	return p.WithPointerWidth(cfg.PointerWidth), nil
}

// reportFatal turns a scheduler error into an error diagnostic.
func reportFatal(r diag.Reporter, err error) {
	var (
		rerr *resolve.Error
		serr *fixpoint.SinkError
	)
	switch {
	case errors.As(err, &rerr):
		diag.ReportError(r, rerr.Kind.Code(), rerr.Subject, rerr.Error()).Emit()
	case errors.As(err, &serr):
		diag.ReportError(r, diag.SinkWriteError, serr.Name, serr.Err.Error()).Emit()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		diag.ReportError(r, diag.LoadInfo, "", "load interrupted: "+err.Error()).Emit()
	default:
		diag.ReportError(r, diag.UnknownCode, "", err.Error()).Emit()
	}
}

// finishLoad prints the diagnostics and, with --timings, the phase table.
func finishLoad(bag *diag.Bag, opts loadOptions, timer *observ.Timer, stdout, stderr io.Writer) error {
	if timer != nil {
		report := timer.Report()
		b := diag.ReportInfo(diag.BagReporter{Bag: bag}, diag.ObsTimings, "", fmt.Sprintf("load took %.1f ms", report.TotalMS))
		for _, p := range report.Phases {
			b.WithNote(p.Name, fmt.Sprintf("%.2f ms", p.DurationMS))
		}
		for _, c := range report.Counters {
			b.WithNote(c.Name, fmt.Sprint(c.Value))
		}
		b.Emit()
		if opts.format == diagfmt.FormatPretty {
			fmt.Fprint(stderr, timer.Summary())
		}
	}
	if opts.quiet {
		bag.Filter(diag.SevWarning)
	}
	bag.Sort()
	return diagfmt.Write(stdout, bag, opts.format, opts.color)
}
