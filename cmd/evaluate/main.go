package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"hservice/internal/app"
	"hservice/internal/config"
	"hservice/internal/evaluation"
	"hservice/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "prepare":
		err = cmdPrepare(os.Args[2:])
	case "predict":
		err = cmdPredict(os.Args[2:])
	case "score":
		err = cmdScore(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdPrepare(args []string) error {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	in := fs.String("in", "", "labeled CSV with an intent column")
	out := fs.String("out", "-", "output CSV, - for stdout")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	ds, err := readDataset(*in)
	if err != nil {
		return err
	}
	unknown, err := evaluation.Prepare(ds)
	if err != nil {
		return err
	}
	for _, label := range unknown {
		fmt.Fprintf(os.Stderr, "unknown intent label %q left empty\n", label)
	}
	return writeOutput(*out, ds.Write)
}

func cmdPredict(args []string) error {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv(config.EnvConfigPath), "config file (default config.json)")
	in := fs.String("in", "", "labeled CSV with instruction and intent columns")
	out := fs.String("out", "-", "output CSV, - for stdout")
	workers := fs.Int("workers", evaluation.DefaultWorkers, "concurrent classifications")
	sample := fs.Int("sample", 0, "classify a shuffled sample of N rows (0 = all rows)")
	seed := fs.Int64("seed", 42, "shuffle seed for -sample")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(logger.Config{Env: cfg.BasicConfig.Env, Level: cfg.BasicConfig.LogLevel}, os.Stderr)

	ds, err := readDataset(*in)
	if err != nil {
		return err
	}
	if *sample > 0 {
		ds = ds.Sample(*sample, *seed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repo, closeCatalog, err := app.OpenCatalog(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCatalog()
	processor, err := app.BuildProcessor(ctx, cfg, repo, log)
	if err != nil {
		return err
	}

	log.Info().Int("rows", ds.Len()).Str("processor", cfg.BasicConfig.Processor).Msg("classifying dataset")
	predictor := evaluation.NewPredictor(processor, evaluation.WithWorkers(*workers), evaluation.WithLogger(log))
	failed, err := predictor.Annotate(ctx, ds)
	if err != nil {
		return err
	}
	if failed > 0 {
		log.Warn().Int("failed", failed).Msg("some rows have no prediction")
	}

	return writeOutput(*out, ds.Write)
}

func cmdScore(args []string) error {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	in := fs.String("in", "", "CSV with intent and predicted_intent columns")
	fs.Parse(args)

	path := *in
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return fmt.Errorf("usage: evaluate score -in <predictions.csv>")
	}

	ds, err := readDataset(path)
	if err != nil {
		return err
	}
	report, err := evaluation.Score(ds)
	if err != nil {
		return err
	}
	return report.Write(os.Stdout)
}

func readDataset(path string) (*evaluation.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return evaluation.ReadDataset(f)
}

func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" || path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printUsage() {
	fmt.Println("evaluate: intent classification accuracy tool")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  prepare -in data.csv [-out out.csv]")
	fmt.Println("          add an intent_enum column with normalized intent names")
	fmt.Println("  predict -in data.csv [-out out.csv] [-workers N] [-sample N -seed S]")
	fmt.Println("          classify each instruction with the configured processor")
	fmt.Println("  score -in out.csv")
	fmt.Println("          accuracy, contingency table and per-intent precision/recall/F1")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  HSERVICE_CONFIG   config file used by predict (default config.json)")
}
