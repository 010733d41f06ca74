package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v3"

	"leetdrip/internal/app"
	"leetdrip/internal/catalog"
	"leetdrip/internal/config"
	"leetdrip/internal/delivery"
	"leetdrip/internal/health"
	"leetdrip/internal/schedule"
)

const usage = `Usage: leetdrip <command> [flags]

Commands:
  init-data    load a problem catalog file into storage
  run-once     trigger one delivery run now and report the outcome
  scheduler    start the daily cadence loop
  test         probe all collaborators without writing history
  show-config  print the effective configuration with secrets redacted
  subscribe    register or reactivate a subscriber
  unsubscribe  deactivate a subscriber (history is kept)
  subscribers  list subscribers with delivery tallies

Run 'leetdrip <command> -h' for command flags.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Secrets may live in a local .env during development.
	_ = godotenv.Load()

	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cmd {
	case "init-data":
		return cmdInitData(ctx, rest)
	case "run-once":
		return cmdRunOnce(ctx, rest)
	case "scheduler":
		return cmdScheduler(ctx, rest)
	case "test":
		return cmdTest(ctx, rest)
	case "show-config":
		return cmdShowConfig(rest)
	case "subscribe":
		return cmdSubscribe(ctx, rest)
	case "unsubscribe":
		return cmdUnsubscribe(ctx, rest)
	case "subscribers":
		return cmdSubscribers(ctx, rest)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

func newApp(ctx context.Context, cfgPath string) (*app.App, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, &cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, &cfg, nil
}

func fatal(err error) int {
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}

func cmdInitData(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("init-data", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	file := fs.String("file", "", "catalog file (default: catalog.path from config)")
	_ = fs.Parse(args)

	a, cfg, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	path := *file
	if path == "" {
		path = cfg.Catalog.Path
	}
	added, total, err := catalog.ImportFile(ctx, a.Store, path, a.Log)
	if err != nil {
		return fatal(err)
	}
	fmt.Printf("imported %s: %d problems in file, %d new\n", path, total, added)
	return 0
}

func cmdRunOnce(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("run-once", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	_ = fs.Parse(args)

	a, _, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	report, err := a.Scheduler.TriggerNow(ctx)
	if err != nil {
		// Systemic failure: no report was produced.
		return fatal(err)
	}

	success, failure, noContent, notAttempted := report.Counts()
	fmt.Printf("run %s finished in %s: %d success, %d failure, %d no-content, %d not-attempted\n",
		report.RunID, report.Duration().Round(time.Millisecond), success, failure, noContent, notAttempted)
	for _, e := range report.Entries {
		if e.Outcome == delivery.OutcomeSuccess {
			continue
		}
		fmt.Printf("  %-30s %-13s %s\n", e.SubscriberID, e.Outcome, e.Reason)
	}
	// Partial content failure is an expected, isolated outcome.
	return 0
}

func cmdScheduler(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("scheduler", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	at := fs.String("at", "", "override schedule time as HH:MM")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fatal(err)
	}
	if *at != "" {
		h, m, err := schedule.ParseHHMM(*at)
		if err != nil {
			return fatal(err)
		}
		cfg.Schedule.Hour, cfg.Schedule.Minute = h, m
	}

	a, err := app.New(ctx, &cfg)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	if err := a.RunScheduler(ctx); err != nil {
		return fatal(err)
	}
	return 0
}

func cmdTest(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	to := fs.String("to", "", "send a test message to this recipient (optional)")
	_ = fs.Parse(args)

	a, _, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	results := health.Run(ctx, health.Options{
		Store:         a.Store,
		Generator:     a.Generator,
		Sender:        a.Sender,
		TestRecipient: *to,
	}, a.Log)

	for _, r := range results {
		if r.OK {
			fmt.Printf("  ok    %-10s %s\n", r.Name, r.Info)
		} else {
			fmt.Printf("  FAIL  %-10s %v\n", r.Name, r.Err)
		}
	}
	if !health.AllOK(results) {
		return 1
	}
	return 0
}

func cmdShowConfig(args []string) int {
	fs := flag.NewFlagSet("show-config", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fatal(err)
	}
	red := cfg.Redacted()
	// Round-trip through JSON so the printed keys match the config file keys.
	j, err := json.Marshal(red)
	if err != nil {
		return fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(j, &m); err != nil {
		return fatal(err)
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		return fatal(err)
	}
	os.Stdout.Write(out)
	return 0
}

func cmdSubscribe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("subscribe", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	id := fs.String("id", "", "subscriber identity (email address or tg:<chat-id>)")
	language := fs.String("language", "python", "preferred language")
	difficulty := fs.String("difficulty", "any", "preferred difficulty (easy|medium|hard|any)")
	_ = fs.Parse(args)

	a, _, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	sub, err := a.Subscribe(ctx, *id, *language, *difficulty)
	if err != nil {
		return fatal(err)
	}
	fmt.Printf("subscribed %s (%s, %s)\n", sub.ID, sub.Language, sub.Difficulty)
	return 0
}

func cmdUnsubscribe(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("unsubscribe", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	id := fs.String("id", "", "subscriber identity")
	_ = fs.Parse(args)

	a, _, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	if err := a.Unsubscribe(ctx, *id); err != nil {
		return fatal(err)
	}
	fmt.Printf("unsubscribed %s\n", *id)
	return 0
}

func cmdSubscribers(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("subscribers", flag.ExitOnError)
	cfgPath := fs.String("config", "./config.yaml", "path to config file")
	_ = fs.Parse(args)

	a, _, err := newApp(ctx, *cfgPath)
	if err != nil {
		return fatal(err)
	}
	defer a.Close()

	infos, err := a.ListSubscribers(ctx)
	if err != nil {
		return fatal(err)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDENTITY\tLANGUAGE\tDIFFICULTY\tACTIVE\tDELIVERED\tFAILED")
	for _, s := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d\n",
			s.ID, s.Language, s.Difficulty, s.Active, s.Delivered, s.Failed)
	}
	_ = w.Flush()
	return 0
}
