package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rmax-ai/fluxlord/pkg/analysis"
	"github.com/rmax-ai/fluxlord/pkg/client"
	"github.com/rmax-ai/fluxlord/pkg/engine"
	"github.com/rmax-ai/fluxlord/pkg/expression"
	"github.com/rmax-ai/fluxlord/pkg/graph"
	"github.com/rmax-ai/fluxlord/pkg/mcp"
	"github.com/rmax-ai/fluxlord/pkg/model"
	"github.com/rmax-ai/fluxlord/pkg/reports"
	"github.com/rmax-ai/fluxlord/pkg/screen"
	"github.com/rmax-ai/fluxlord/pkg/store"
)

var (
	Version   = "v1.0.0"
	Commit    = "unknown"
	BuildTime = "unknown"
)

const usage = `Usage: fluxlord <command> [options]

Commands:
  solve <method> <model.json>   run an analysis (fba|pfba|fva|moma|eflux|gimme|imat|made)
  fva <model.json>              shorthand for solve fva
  screen <model.json>           single-gene deletion screen
  check <model.json>            network topology diagnostics
  info <model.json>             summarize a model
  upload <model.json>           store a model in the daemon's model store
  models                        list or delete stored models
  runs                          list, summarize or prune the daemon archive
  ping                          check daemon health
  mcp                           serve the MCP stdio interface
  version                       print version information

The daemon endpoint defaults to http://127.0.0.1:8990 and can be set
with FLUXLORD_ENDPOINT or the -endpoint flag.`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "solve":
		err = cmdSolve(os.Args[2:], "")
	case "fva":
		err = cmdSolve(os.Args[2:], "fva")
	case "screen":
		err = cmdScreen(os.Args[2:])
	case "check":
		err = cmdCheck(os.Args[2:])
	case "info":
		err = cmdInfo(os.Args[2:])
	case "upload":
		err = cmdUpload(os.Args[2:])
	case "models":
		err = cmdModels(os.Args[2:])
	case "runs":
		err = cmdRuns(os.Args[2:])
	case "ping":
		err = cmdPing(os.Args[2:])
	case "mcp":
		err = cmdMCP(os.Args[2:])
	case "version":
		fmt.Printf("fluxlord %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("unknown command: %s\n\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fluxlord: %v\n", err)
		os.Exit(1)
	}
}

func endpoint() string {
	if v := os.Getenv("FLUXLORD_ENDPOINT"); v != "" {
		return v
	}
	return ""
}

func loadModel(path string) (*model.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	var m model.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	return &m, nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func cmdSolve(args []string, methodName string) error {
	flags := flag.NewFlagSet("solve", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint (empty with -local solves in-process)")
	flagLocal := flags.Bool("local", false, "solve in-process instead of calling the daemon")
	flagObjective := flags.String("objective", "", "objective reaction id")
	flagKnockouts := flags.String("knockouts", "", "comma-separated gene ids to knock out")
	flagFraction := flags.Float64("fraction", 0, "fraction of optimum (pfba, fva)")
	flagOptions := flags.String("options", "", "path to a JSON options document")
	flagExpression := flags.String("expression", "", "expression profile file (json|csv|tsv)")
	flagCondition := flags.String("condition", "", "expression condition to select")
	flagFormat := flags.String("format", "json", "output format: json|csv")
	flagTimeout := flags.Duration("timeout", 2*time.Minute, "solve deadline")
	if err := flags.Parse(args); err != nil {
		return err
	}
	positional := flags.Args()
	if methodName == "" {
		if len(positional) < 2 {
			return fmt.Errorf("usage: fluxlord solve <method> <model.json>")
		}
		methodName, positional = positional[0], positional[1:]
	}
	if len(positional) < 1 {
		return fmt.Errorf("usage: fluxlord %s <model.json>", methodName)
	}

	method, err := analysis.ParseMethod(methodName)
	if err != nil {
		return err
	}
	m, err := loadModel(positional[0])
	if err != nil {
		return err
	}

	var opts analysis.Options
	if *flagOptions != "" {
		data, err := os.ReadFile(*flagOptions)
		if err != nil {
			return fmt.Errorf("reading options: %w", err)
		}
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("parsing options: %w", err)
		}
	}
	if *flagObjective != "" {
		opts.Objective = *flagObjective
	}
	if *flagKnockouts != "" {
		for _, g := range strings.Split(*flagKnockouts, ",") {
			if g = strings.TrimSpace(g); g != "" {
				opts.Knockouts = append(opts.Knockouts, g)
			}
		}
	}
	if *flagFraction > 0 {
		opts.FractionOfOptimum = *flagFraction
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	if *flagExpression != "" {
		profile, err := expression.NewFileProvider(*flagExpression).Fetch(ctx, *flagCondition)
		if err != nil {
			return err
		}
		opts.Expression = profile.Levels
	}

	var sol analysis.Solution
	if *flagLocal {
		worker := engine.NewWorker()
		defer worker.Close()
		sol, err = engine.NewDispatcher(worker, nil).Solve(ctx, method, m, opts)
	} else {
		sol, err = client.NewClient(*flagEndpoint).Solve(ctx, method, m, opts)
	}
	if err != nil {
		return err
	}
	if *flagFormat == "csv" {
		report, err := reports.ForSolution(sol)
		if err != nil {
			return err
		}
		return printCSV(report)
	}
	return printJSON(sol)
}

func printCSV(g reports.Generator) error {
	reader, err := g.Generate()
	if err != nil {
		return err
	}
	_, err = io.Copy(os.Stdout, reader)
	return err
}

func cmdScreen(args []string) error {
	flags := flag.NewFlagSet("screen", flag.ExitOnError)
	flagMethod := flags.String("method", "fba", "analysis per knockout: fba|moma")
	flagGenes := flags.String("genes", "", "comma-separated gene ids (default: all)")
	flagWorkers := flags.Int("workers", screen.DefaultWorkers, "concurrent knockout solves")
	flagFraction := flags.Float64("essential-fraction", screen.DefaultEssentialFraction, "growth ratio below which a gene is essential")
	flagTimeout := flags.Duration("timeout", 10*time.Minute, "screen deadline")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: fluxlord screen <model.json>")
	}

	method, err := analysis.ParseMethod(*flagMethod)
	if err != nil {
		return err
	}
	m, err := loadModel(flags.Arg(0))
	if err != nil {
		return err
	}

	s := screen.Screen{
		Method:            method,
		Workers:           *flagWorkers,
		EssentialFraction: *flagFraction,
	}
	if *flagGenes != "" {
		for _, g := range strings.Split(*flagGenes, ",") {
			if g = strings.TrimSpace(g); g != "" {
				s.Genes = append(s.Genes, g)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	worker := engine.NewWorker()
	defer worker.Close()
	res, err := screen.Run(ctx, engine.NewDispatcher(worker, nil), m, s)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func cmdCheck(args []string) error {
	flags := flag.NewFlagSet("check", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: fluxlord check <model.json>")
	}
	m, err := loadModel(flags.Arg(0))
	if err != nil {
		return err
	}
	report := graph.Diagnose(m)
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Clean() {
		os.Exit(1)
	}
	return nil
}

func cmdUpload(args []string) error {
	flags := flag.NewFlagSet("upload", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: fluxlord upload <model.json>")
	}
	m, err := loadModel(flags.Arg(0))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	digest, err := client.NewClient(*flagEndpoint).UploadModel(ctx, m)
	if err != nil {
		return err
	}
	fmt.Println(digest)
	return nil
}

func cmdInfo(args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return fmt.Errorf("usage: fluxlord info <model.json>")
	}
	m, err := loadModel(flags.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(m.Info())
}

func cmdModels(args []string) error {
	flags := flag.NewFlagSet("models", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint")
	flagDelete := flags.String("delete", "", "delete the model with this digest")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := client.NewClient(*flagEndpoint)
	if *flagDelete != "" {
		if err := c.DeleteModel(ctx, *flagDelete); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *flagDelete)
		return nil
	}
	digests, err := c.Models(ctx)
	if err != nil {
		return err
	}
	for _, digest := range digests {
		fmt.Println(digest)
	}
	return nil
}

func cmdRuns(args []string) error {
	flags := flag.NewFlagSet("runs", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint")
	flagLimit := flags.Int("limit", 20, "maximum runs to list")
	flagFormat := flags.String("format", "json", "output format: json|csv")
	flagStats := flags.Bool("stats", false, "print run counts by solver status")
	flagPrune := flags.Duration("prune", 0, "delete runs older than this age (e.g. 720h)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c := client.NewClient(*flagEndpoint)
	if *flagPrune > 0 {
		pruned, err := c.PruneRuns(ctx, *flagPrune)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d runs\n", pruned)
		return nil
	}
	if *flagStats {
		counts, err := c.RunStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(counts)
	}
	runs, err := c.Runs(ctx, *flagLimit)
	if err != nil {
		return err
	}
	if *flagFormat == "csv" {
		rows := make([]store.Run, len(runs))
		for i, r := range runs {
			rows[i] = store.Run(r)
		}
		return printCSV(reports.NewRunsReport(rows))
	}
	return printJSON(runs)
}

func cmdPing(args []string) error {
	flags := flag.NewFlagSet("ping", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := client.NewClient(*flagEndpoint).Ping(ctx)
	if err != nil {
		return err
	}
	return printJSON(status)
}

func cmdMCP(args []string) error {
	flags := flag.NewFlagSet("mcp", flag.ExitOnError)
	flagEndpoint := flags.String("endpoint", endpoint(), "daemon endpoint")
	if err := flags.Parse(args); err != nil {
		return err
	}
	return mcp.NewServer(*flagEndpoint).Serve()
}
