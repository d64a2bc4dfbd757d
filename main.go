package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/insightdelivered/voucher-importer/internal/api"
	"github.com/insightdelivered/voucher-importer/internal/dedup"
	"github.com/insightdelivered/voucher-importer/internal/extractor"
	"github.com/insightdelivered/voucher-importer/internal/logging"
	"github.com/insightdelivered/voucher-importer/internal/models"
	"github.com/insightdelivered/voucher-importer/internal/rules"
	"github.com/insightdelivered/voucher-importer/internal/sales"
	"github.com/insightdelivered/voucher-importer/internal/voucher"
	"github.com/insightdelivered/voucher-importer/internal/writer"
)

const version = "1.0.0"

// envConfig holds settings read from the environment. Flags override these.
type envConfig struct {
	BankLedger string `koanf:"BANK_LEDGER"`
	OutputDir  string `koanf:"OUTPUT_DIR"`
	LogLevel   string `koanf:"LOG_LEVEL"`
}

func main() {
	rulesFlag := flag.String("rules", "./rules/description_rules.json", "Path to the classification rule file (JSON)")
	ledgerFlag := flag.String("ledger", "", "Bank ledger name vouchers are posted against (default from BANK_LEDGER env)")
	dedupFlag := flag.String("dedup", "", "Path to a prior ledger export used to skip already-imported contra vouchers")
	outFlag := flag.String("out", "", "Output directory (default ./output, or OUTPUT_DIR env)")
	salesFlag := flag.Bool("sales", false, "Treat the input as a sales workbook and generate Journal vouchers")
	reviewFlag := flag.Bool("review", false, "Write the extracted statement for review and wait for confirmation")
	serveFlag := flag.String("serve", "", "Run the HTTP conversion API on this address (e.g. :8080) instead of converting a file")
	jsonLogsFlag := flag.Bool("json-logs", false, "Emit logs as JSON")
	versionFlag := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank Statement to Voucher Converter
by Insight Delivered

Converts bank statement PDFs and sales workbooks into Payment, Receipt,
Contra, and Journal vouchers ready for import into the accounting package,
skipping contra entries already present in a prior ledger export.

Usage:
  voucher-importer [flags] <statement.pdf>
  voucher-importer -sales [flags] <sales.xlsx>
  voucher-importer -serve :8080

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert a statement with rules and dedup against last month's export
  voucher-importer -ledger "HDFC Current A/c" -dedup export.json statement.pdf

  # Generate Journal vouchers from a sales workbook
  voucher-importer -sales "Sales JAN26.xlsx"

  # Run the upload API
  voucher-importer -serve :8080
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("voucher-importer v%s\n", version)
		os.Exit(0)
	}

	cfg := loadEnvConfig()
	logCfg := logging.DefaultConfig()
	if cfg.LogLevel != "" {
		logCfg.Level = logging.ParseLevel(cfg.LogLevel)
	}
	logCfg.JSON = *jsonLogsFlag
	logging.Setup(logCfg)

	bankLedger := *ledgerFlag
	if bankLedger == "" {
		bankLedger = cfg.BankLedger
	}
	if bankLedger == "" {
		bankLedger = "494"
	}

	outputDir := *outFlag
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir == "" {
		outputDir = "./output"
	}

	if *serveFlag != "" {
		runServer(*serveFlag, bankLedger)
		return
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fatalf("Failed to create output directory %s: %v\n", outputDir, err)
	}

	inputPath := flag.Arg(0)
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		fatalf("Input file not found: %s\n", inputPath)
	}

	if *salesFlag {
		if err := processSales(inputPath, outputDir); err != nil {
			fatalf("Error processing %s: %v\n", inputPath, err)
		}
		return
	}

	opts := statementOptions{
		rulesPath:  *rulesFlag,
		dedupPath:  *dedupFlag,
		bankLedger: bankLedger,
		outputDir:  outputDir,
		review:     *reviewFlag,
	}
	if err := processStatement(inputPath, opts); err != nil {
		fatalf("Error processing %s: %v\n", inputPath, err)
	}
}

func loadEnvConfig() envConfig {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		slog.Warn("loading environment config", "error", err)
	}
	var cfg envConfig
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		slog.Warn("unmarshaling environment config", "error", err)
	}
	return cfg
}

type statementOptions struct {
	rulesPath  string
	dedupPath  string
	bankLedger string
	outputDir  string
	review     bool
}

func processStatement(inputPath string, opts statementOptions) error {
	if ext := strings.ToLower(filepath.Ext(inputPath)); ext != ".pdf" {
		return fmt.Errorf("expected .pdf statement, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	rows, stats, err := extractor.ExtractStatement(inputPath)
	if err != nil {
		return err
	}

	fmt.Printf("  Tables accepted: %d\n", stats.TablesAccepted)
	fmt.Printf("  Tables ignored : %d\n", stats.TablesIgnored)
	if stats.UsedFallback {
		fmt.Println("  Used text-based fallback extraction")
	}
	fmt.Printf("  Extracted %d statement row(s)\n", len(rows))

	if opts.review {
		reviewPath := filepath.Join(opts.outputDir, "bank_statement.xlsx")
		if err := writer.WriteStatement(reviewPath, rows); err != nil {
			return err
		}
		fmt.Printf("  Review file: %s\n", reviewPath)
		if !confirm("Please review the extracted statement before proceeding.") {
			fmt.Println("Stopped after statement extraction.")
			return nil
		}
	}

	ruleEngine, err := rules.Load(opts.rulesPath)
	if err != nil {
		return err
	}
	slog.Debug("rules loaded", "count", ruleEngine.Len())

	var existing dedup.Set
	if opts.dedupPath != "" {
		existing, err = dedup.LoadExisting(opts.dedupPath)
		if err != nil {
			return err
		}
		fmt.Printf("  Loaded %d existing contra key(s)\n", len(existing))
	}

	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, models.NewTransaction(row))
	}

	engine := voucher.NewEngine(ruleEngine, opts.bankLedger, existing)
	part := engine.Process(transactions)

	if len(part.Vouchers) > 0 {
		voucherPath := filepath.Join(opts.outputDir, "statement_import_ready.xlsx")
		if err := writer.WriteVouchers(voucherPath, part.Vouchers); err != nil {
			return err
		}
		fmt.Printf("  Vouchers: %d -> %s\n", len(part.Vouchers), voucherPath)
	} else {
		fmt.Println("  No vouchers generated.")
	}

	if len(part.Duplicates) > 0 {
		duplicatePath := filepath.Join(opts.outputDir, "duplicate_entries.xlsx")
		if err := writer.WriteDuplicates(duplicatePath, part.Duplicates); err != nil {
			return err
		}
		fmt.Printf("  Duplicate contra vouchers skipped: %d -> %s\n", len(part.Duplicates), duplicatePath)
	}

	if len(part.Unclassified) > 0 {
		unclassifiedPath := filepath.Join(opts.outputDir, "unclassified.xlsx")
		if err := writer.WriteUnclassified(unclassifiedPath, part.Unclassified); err != nil {
			return err
		}
		fmt.Printf("  Unclassified transactions: %d -> %s\n", len(part.Unclassified), unclassifiedPath)
	}

	fmt.Println("  Done.")
	return nil
}

func processSales(inputPath, outputDir string) error {
	fmt.Printf("Processing sales workbook: %s\n", inputPath)

	vouchers, err := sales.BuildVouchers(inputPath, sales.DefaultOptions())
	if err != nil {
		return err
	}
	if len(vouchers) == 0 {
		fmt.Println("  No sales vouchers generated.")
		return nil
	}

	outPath := filepath.Join(outputDir, "sales_import_ready.xlsx")
	if err := writer.WriteVouchers(outPath, vouchers); err != nil {
		return err
	}

	fmt.Printf("  Rows exported: %d\n", len(vouchers))
	fmt.Printf("  Output file  : %s\n", outPath)
	return nil
}

func runServer(addr, bankLedger string) {
	app := api.New(bankLedger)
	fmt.Printf("voucher-importer v%s listening on %s\n", version, addr)
	if err := app.Listen(addr); err != nil {
		fatalf("Server failed: %v\n", err)
	}
}

func confirm(message string) bool {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Print("Continue? (Y/N): ")

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "y")
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
