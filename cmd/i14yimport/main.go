package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"i14yimport/internal"
	"i14yimport/internal/catalog"
	"i14yimport/internal/config"
	"i14yimport/internal/connectors"
	"i14yimport/internal/listener"
	"i14yimport/internal/logger"
	"i14yimport/internal/pipeline"
	"i14yimport/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	if cmd == "codelists:show" {
		showCodeList(ctx, cfg, os.Args[2:])
		return
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	switch cmd {
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "input .xlsx path")
		token := fs.String("token", cfg.APIToken, "API token, with or without the Bearer prefix")
		org := fs.String("org", cfg.OrganizationID, "organization id")
		publisher := fs.String("publisher", cfg.PublisherIdentifier, "publisher identifier")
		out := fs.String("out", "", "optional row report .xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}

		creds := pipeline.Credentials{
			APIToken:            pipeline.BearerToken(*token),
			OrganizationID:      strings.TrimSpace(*org),
			PublisherIdentifier: strings.TrimSpace(*publisher),
		}
		outcome, err := pipeline.NewImporter(cfg, db).ImportFile(ctx, *file, creds)
		must(err)
		printOutcome(outcome, cfg.CatalogLinkBase)
		if strings.TrimSpace(*out) != "" && len(outcome.Rows) > 0 {
			must(pipeline.ExportRowsToXLSX(outcome.Rows, *out))
			fmt.Printf("row report written to %s\n", *out)
		}
	case "runs:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListImports(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%s  %-22s ok=%d failed=%d total=%d  %s  %s\n", r.RunID, r.Status, r.SuccessCount, r.ErrorCount, r.TotalCount, r.StartedAt, r.Source)
			warnings, err := db.GetImportWarnings(r.RunID)
			must(err)
			for _, w := range warnings {
				fmt.Printf("    warning: %s\n", w)
			}
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.String("runId", "", "import run id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*runID) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--runId and --out are required"))
		}
		_, err := db.MustImport(*runID)
		must(err)
		rows, err := db.GetImportRows(*runID)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no rows recorded for runId=%s", *runID))
		}
		must(pipeline.ExportRowsToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := connectors.New(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(ctx, *label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		reports := fs.String("reports", filepath.Join(cfg.OutputDir, "mail"), "row report directory, empty to disable")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewMailProcessor(db, pipeline.NewImporter(cfg, db), cfg, *reports)
		if strings.TrimSpace(*messageID) != "" {
			res, err := processor.ProcessByProviderMessageID(ctx, *provider, *messageID)
			must(err)
			printMailResult(res, cfg.CatalogLinkBase)
			return
		}
		results, err := processor.ProcessPending(ctx, *batch, *provider)
		must(err)
		for _, res := range results {
			printMailResult(res, cfg.CatalogLinkBase)
		}
		fmt.Printf("processed pending emails=%d\n", len(results))
	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func showCodeList(ctx context.Context, cfg config.Config, args []string) {
	fs := flag.NewFlagSet("codelists:show", flag.ExitOnError)
	vocab := fs.String("vocab", "theme", "theme|license|accessRights")
	_ = fs.Parse(args)

	resolver := catalog.NewResolver(catalog.NewClient(cfg), cfg)
	mapping, err := resolver.Mapping(ctx, catalog.Vocabulary(*vocab))
	if err != nil {
		logger.Warn("%v", err)
	}
	labels := make([]string, 0, len(mapping))
	for label := range mapping {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("%-40s %s\n", label, mapping[label])
	}
}

func printOutcome(outcome internal.ImportOutcome, linkBase string) {
	fmt.Println(outcome.Message)
	fmt.Printf("run=%s status=%s total=%d successful=%d failed=%d\n", outcome.RunID, outcome.Status(), outcome.TotalCount, outcome.SuccessCount, outcome.ErrorCount)
	for _, w := range outcome.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, row := range outcome.Rows {
		if row.Status == internal.RowFailed {
			fmt.Printf("  row %d %s: %s\n", row.RowNumber, row.Identifier, row.Error)
		}
	}
	for _, link := range pipeline.CatalogLinks(outcome, linkBase) {
		fmt.Printf("  %s  %s\n", link.Title, link.Link)
	}
}

func printMailResult(res pipeline.MailResult, linkBase string) {
	fmt.Printf("email id=%d status=%s imports=%d\n", res.EmailID, res.Status, len(res.Outcomes))
	for _, outcome := range res.Outcomes {
		printOutcome(outcome, linkBase)
	}
	for _, path := range res.Reports {
		fmt.Printf("  report %s\n", path)
	}
}

func usage() {
	fmt.Println("usage: i14yimport <command>")
	fmt.Println("commands:")
	fmt.Println("  import --file=datasets.xlsx [--token=...] [--publisher=...] [--org=...] [--out=report.xlsx]")
	fmt.Println("  codelists:show --vocab=theme|license|accessRights")
	fmt.Println("  runs:list [--limit=20]")
	fmt.Println("  export:xlsx --runId=... --out=./out/result.xlsx")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:process --provider=gmail|imap [--messageId=...] [--batch=20] [--reports=dir]")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
