// Recipe cost CLI
//
// Usage:
//   recipecost cost --recipe recipe.txt [--country GBR] [--servings 6]
//   recipecost parse --recipe recipe.txt
//   recipecost prices seed
//   recipecost prices list --country USA
//   recipecost serve --port 8080
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"recipe-cost/api"
	"recipe-cost/costing/format"
	"recipe-cost/costing/parse"
	"recipe-cost/costing/pricing"
	"recipe-cost/costing/standardize"
	"recipe-cost/costing/units"
	"recipe-cost/db/history"
	"recipe-cost/db/postgres"
	"recipe-cost/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Missing .env is fine; flags and real env still apply.
	_ = godotenv.Load()

	app := &cli.App{
		Name:    "recipecost",
		Usage:   "Recipe ingredient parsing, standardization, and cost estimation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"RECIPECOST_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "postgres-dsn",
				Usage:   "PostgreSQL DSN; when empty, an in-memory seeded store is used",
				EnvVars: []string{"RECIPECOST_POSTGRES_DSN"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-host",
				Value:   "localhost",
				Usage:   "ClickHouse host for report history",
				EnvVars: []string{"CLICKHOUSE_HOST"},
			},
			&cli.IntFlag{
				Name:    "clickhouse-port",
				Value:   9000,
				Usage:   "ClickHouse native port",
				EnvVars: []string{"CLICKHOUSE_PORT"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-database",
				Value:   "recipecost",
				Usage:   "ClickHouse database",
				EnvVars: []string{"CLICKHOUSE_DATABASE"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-user",
				Value:   "default",
				Usage:   "ClickHouse user",
				EnvVars: []string{"CLICKHOUSE_USER"},
			},
			&cli.StringFlag{
				Name:    "clickhouse-password",
				Value:   "",
				Usage:   "ClickHouse password",
				EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			},
		},

		Commands: []*cli.Command{
			costCommand(),
			parseCommand(),
			pricesCommand(),
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// STORE WIRING
// =============================================================================

// stores bundles whichever backends the flags selected.
type stores struct {
	catalog api.PriceCatalog
	dir     standardize.Directory
	pg      *postgres.Store // nil when running in-memory
}

func (s *stores) Close() {
	if s.pg != nil {
		s.pg.Close()
	}
}

// openStores connects to PostgreSQL when a DSN is configured, and otherwise
// builds an in-memory store seeded with the curated US prices.
func openStores(c *cli.Context) (*stores, error) {
	if dsn := c.String("postgres-dsn"); dsn != "" {
		pg, err := postgres.NewStoreFromDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return &stores{catalog: pg, dir: pg, pg: pg}, nil
	}

	dir := standardize.NewMemoryDirectory()
	mem := pricing.NewMemoryStore()
	if _, err := pricing.SeedStandardPrices(dir, mem.Put); err != nil {
		return nil, fmt.Errorf("failed to seed prices: %w", err)
	}
	return &stores{catalog: mem, dir: dir}, nil
}

// readRecipeLines loads one recipe line per input line, from a file or stdin
// when path is "-".
func readRecipeLines(path string) ([]string, error) {
	var in *os.File
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open recipe: %w", err)
		}
		defer f.Close()
		in = f
	}

	var lines []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return lines, nil
}

// =============================================================================
// COST COMMAND
// =============================================================================

func costCommand() *cli.Command {
	return &cli.Command{
		Name:  "cost",
		Usage: "Estimate the cost of a recipe",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "recipe",
				Aliases:  []string{"r"},
				Usage:    "Path to a recipe file, one ingredient line per line ('-' for stdin)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "country",
				Aliases: []string{"c"},
				Value:   pricing.BaseCountry,
				Usage:   "ISO 3166-1 alpha-3 country code for pricing",
			},
			&cli.IntFlag{
				Name:    "servings",
				Aliases: []string{"s"},
				Value:   pricing.DefaultServings,
				Usage:   "Number of servings",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, markdown)",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Recipe name for the report archive",
			},
			&cli.BoolFlag{
				Name:  "archive",
				Value: false,
				Usage: "Archive the report in ClickHouse history",
			},
		},
		Action: runCost,
	}
}

func runCost(c *cli.Context) error {
	ctx := context.Background()

	raws, err := readRecipeLines(c.String("recipe"))
	if err != nil {
		return err
	}

	st, err := openStores(c)
	if err != nil {
		return err
	}
	defer st.Close()

	std := standardize.New()
	lines, err := pricing.BuildLines(raws, std, st.dir)
	if err != nil {
		return fmt.Errorf("failed to resolve ingredients: %w", err)
	}

	engine := pricing.NewEngine(st.catalog, units.NewTable())
	if st.pg != nil {
		engine = engine.WithSink(st.pg)
	}

	report, err := engine.ComputeCost(ctx, lines, c.String("country"), c.Int("servings"))
	if err != nil {
		return fmt.Errorf("costing failed: %w", err)
	}

	if c.Bool("archive") {
		hist, err := history.NewStore(&history.Config{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer hist.Close()
		if err := hist.SaveReport(ctx, c.String("name"), report); err != nil {
			return fmt.Errorf("failed to archive report: %w", err)
		}
	}

	switch c.String("format") {
	case "json":
		return outputJSON(report)
	case "markdown":
		return outputMarkdown(report)
	default:
		return outputTable(report)
	}
}

// =============================================================================
// OUTPUT FORMATTERS
// =============================================================================

func outputJSON(report *pricing.CostReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func outputTable(report *pricing.CostReport) error {
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      RECIPE COST REPORT                      ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  Country:               %-37s ║\n", report.CountryCode)
	fmt.Printf("║  Total Cost:            %-37s ║\n", format.Price(report.TotalCost, report.Currency))
	fmt.Printf("║  Cost per Serving:      %-37s ║\n",
		fmt.Sprintf("%s (%d servings)", format.Price(report.CostPerServing, report.Currency), report.Servings))
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")
	fmt.Println("║  INGREDIENTS                                                 ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════╣")

	for _, item := range report.IngredientCosts {
		name := truncate(format.IngredientName(item.Ingredient), 38)
		fmt.Printf("║  %-38s %20s  ║\n", name, format.Price(item.Cost, item.Currency))
	}

	if len(report.Missing) > 0 {
		fmt.Println("╠══════════════════════════════════════════════════════════════╣")
		fmt.Println("║  NOT PRICED                                                  ║")
		fmt.Println("╠══════════════════════════════════════════════════════════════╣")
		for _, miss := range report.Missing {
			label := miss.RawText
			if label == "" {
				label = format.IngredientName(miss.Ingredient)
			}
			fmt.Printf("║  %-38s %20s  ║\n", truncate(label, 38), miss.Reason)
		}
	}

	for _, warning := range report.Warnings {
		fmt.Println("╠══════════════════════════════════════════════════════════════╣")
		fmt.Printf("║  ! %-58s ║\n", truncate(warning, 58))
	}

	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	return nil
}

func outputMarkdown(report *pricing.CostReport) error {
	fmt.Println("## Recipe Cost Report")
	fmt.Println()
	fmt.Println("| Metric | Value |")
	fmt.Println("|--------|-------|")
	fmt.Printf("| **Country** | %s |\n", report.CountryCode)
	fmt.Printf("| **Total Cost** | %s |\n", format.Price(report.TotalCost, report.Currency))
	fmt.Printf("| **Cost per Serving** | %s |\n", format.Price(report.CostPerServing, report.Currency))
	fmt.Printf("| **Servings** | %d |\n", report.Servings)
	fmt.Println()
	fmt.Println("### Ingredients")
	fmt.Println()
	fmt.Println("| Ingredient | Cost | Price Basis |")
	fmt.Println("|------------|------|-------------|")
	for _, item := range report.IngredientCosts {
		fmt.Printf("| %s | %s | %s |\n",
			format.IngredientName(item.Ingredient),
			format.Price(item.Cost, item.Currency),
			item.PriceBasis)
	}

	if len(report.Missing) > 0 {
		fmt.Println()
		fmt.Println("### Not Priced")
		fmt.Println()
		for _, miss := range report.Missing {
			label := miss.RawText
			if label == "" {
				label = format.IngredientName(miss.Ingredient)
			}
			note := string(miss.Reason)
			if miss.Note != "" {
				note += ": " + miss.Note
			}
			fmt.Printf("- **%s** (%s)\n", label, note)
		}
	}

	for _, warning := range report.Warnings {
		fmt.Println()
		fmt.Printf("> %s\n", warning)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// =============================================================================
// PARSE COMMAND
// =============================================================================

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Parse and standardize recipe lines without pricing them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "recipe",
				Aliases:  []string{"r"},
				Usage:    "Path to a recipe file ('-' for stdin)",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Value: false,
				Usage: "Emit JSON instead of a table",
			},
		},
		Action: runParse,
	}
}

type parsedLineOutput struct {
	Raw        string `json:"raw"`
	Parsed     bool   `json:"parsed"`
	Reason     string `json:"reason,omitempty"`
	Amount     string `json:"amount,omitempty"`
	Unit       string `json:"unit,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
	Canonical  string `json:"canonical,omitempty"`
}

func runParse(c *cli.Context) error {
	raws, err := readRecipeLines(c.String("recipe"))
	if err != nil {
		return err
	}

	std := standardize.New()
	out := make([]parsedLineOutput, 0, len(raws))
	for _, raw := range raws {
		result := parse.Line(raw)
		entry := parsedLineOutput{Raw: raw, Parsed: result.Parsed, Reason: result.Reason}
		if result.Parsed {
			unit := units.Resolve(firstWord(result.UnitText))
			entry.Amount = format.Amount(result.Amount)
			entry.Unit = string(unit)
			entry.Ingredient = result.IngredientText
			entry.Canonical = std.Standardize(result.IngredientText)
		}
		out = append(out, entry)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	parsed := 0
	for _, entry := range out {
		if !entry.Parsed {
			fmt.Printf("%-40s  (unparsed: %s)\n", truncate(entry.Raw, 40), entry.Reason)
			continue
		}
		parsed++
		qty := entry.Amount
		if entry.Unit != string(units.Each) {
			qty += " " + entry.Unit
		}
		fmt.Printf("%-40s  %-12s %s\n", truncate(entry.Raw, 40), qty, entry.Canonical)
	}
	fmt.Printf("\nParsed %d of %d lines\n", parsed, len(out))
	return nil
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}

// =============================================================================
// PRICES COMMAND
// =============================================================================

func pricesCommand() *cli.Command {
	return &cli.Command{
		Name:  "prices",
		Usage: "Manage ingredient prices",
		Subcommands: []*cli.Command{
			{
				Name:  "seed",
				Usage: "Load the curated US price estimates into the store",
				Action: func(c *cli.Context) error {
					dsn := c.String("postgres-dsn")
					if dsn == "" {
						return fmt.Errorf("prices seed requires --postgres-dsn")
					}
					pg, err := postgres.NewStoreFromDSN(dsn)
					if err != nil {
						return fmt.Errorf("failed to connect to postgres: %w", err)
					}
					defer pg.Close()

					ctx := context.Background()
					if err := pg.InitSchema(ctx); err != nil {
						return err
					}
					n, err := pricing.SeedStandardPrices(pg, func(rec pricing.PriceRecord) {
						if err := pg.UpsertPrice(ctx, rec); err != nil {
							fmt.Fprintf(os.Stderr, "failed to store price for %s: %v\n", rec.IngredientID, err)
						}
					})
					if err != nil {
						return err
					}
					fmt.Printf("Seeded %d US price records\n", n)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List stored prices for a country",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "country",
						Aliases: []string{"c"},
						Value:   pricing.BaseCountry,
						Usage:   "ISO 3166-1 alpha-3 country code",
					},
				},
				Action: func(c *cli.Context) error {
					st, err := openStores(c)
					if err != nil {
						return err
					}
					defer st.Close()

					country := strings.ToUpper(c.String("country"))
					records, err := st.catalog.ListByCountry(context.Background(), country)
					if err != nil {
						return fmt.Errorf("failed to list prices: %w", err)
					}
					if len(records) == 0 {
						fmt.Printf("No prices stored for %s\n", country)
						return nil
					}
					fmt.Printf("%d prices for %s:\n", len(records), country)
					for _, rec := range records {
						fmt.Printf("  %-40s %s\n", rec.IngredientID,
							format.PriceBasis(rec.Price, rec.Currency, rec.BasisQuantity, units.Resolve(rec.Unit)))
					}
					return nil
				},
			},
		},
	}
}

// =============================================================================
// SERVE COMMAND (API SERVER)
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the recipe cost API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "API server port",
				EnvVars: []string{"RECIPECOST_PORT"},
			},
			&cli.StringFlag{
				Name:    "cors-origins",
				Value:   "*",
				Usage:   "Comma-separated list of allowed CORS origins",
				EnvVars: []string{"RECIPECOST_CORS_ORIGINS"},
			},
			&cli.BoolFlag{
				Name:    "archive",
				Value:   false,
				Usage:   "Archive computed reports in ClickHouse history",
				EnvVars: []string{"RECIPECOST_ARCHIVE"},
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	log := buildLogger(c.String("log-level"))
	defer log.Sync()

	st, err := openStores(c)
	if err != nil {
		return err
	}
	defer st.Close()

	if st.pg != nil {
		if err := st.pg.InitSchema(context.Background()); err != nil {
			return err
		}
	}

	engine := pricing.NewEngine(st.catalog, units.NewTable())
	if st.pg != nil {
		engine = engine.WithSink(st.pg)
	}

	corsOrigins := strings.Split(c.String("cors-origins"), ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}

	cfg := api.DefaultConfig()
	cfg.Port = c.Int("port")
	cfg.CORSOrigins = corsOrigins

	server := api.NewServer(st.catalog, st.dir, engine, log, cfg)

	if st.pg != nil {
		server.WithUpserter(st.pg).WithPinger(st.pg)
	} else if mem, ok := st.catalog.(*pricing.MemoryStore); ok {
		server.WithUpserter(mem)
	}

	if c.Bool("archive") {
		hist, err := history.NewStore(&history.Config{
			Host:     c.String("clickhouse-host"),
			Port:     c.Int("clickhouse-port"),
			Database: c.String("clickhouse-database"),
			Username: c.String("clickhouse-user"),
			Password: c.String("clickhouse-password"),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		defer hist.Close()
		server.WithArchive(hist)
	}

	return server.StartWithGracefulShutdown()
}

func buildLogger(level string) *zap.Logger {
	return logging.New(level, false)
}
