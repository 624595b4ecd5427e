// cmd/tools/benchmark-importer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"readiness-scorer/internal/benchmarks"
	"readiness-scorer/internal/common/config"
	"readiness-scorer/internal/common/database"
	"readiness-scorer/internal/readiness"
)

func main() {
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	setCmd := flag.NewFlagSet("set", flag.ExitOnError)

	// Import command flags
	importFile := importCmd.String("file", "", "Benchmark table YAML to load into PostgreSQL")
	importTable := importCmd.String("table", "", "Target table (default benchmarks.postgres_table)")

	// Export command flags
	exportOut := exportCmd.String("out", "", "Write the stored table to this YAML file (default stdout)")
	exportTable := exportCmd.String("table", "", "Source table (default benchmarks.postgres_table)")

	// Validate command flags
	validateFile := validateCmd.String("file", "", "Benchmark table YAML to check")

	// Set command flags
	setFile := setCmd.String("file", "", "Benchmark table YAML to edit")
	setIndustry := setCmd.String("industry", "", "Cohort industry (e.g., Healthcare)")
	setSize := setCmd.String("size", "", "Cohort size band (e.g., 51-200)")
	setScore := setCmd.Int("score", -1, "Typical readiness score, 0..100")
	setVersion := setCmd.String("version", "", "New table version (required)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			fmt.Println("Error: -file is required for import.")
			importCmd.Usage()
			os.Exit(1)
		}
		table, err := benchmarks.LoadFile(*importFile)
		if err != nil {
			fail("Error reading table", err)
		}
		loader, closeDB := openLoader(*importTable)
		defer closeDB()
		if err := importBenchmarks(ctx, loader, table); err != nil {
			fail("Error importing table", err)
		}
		fmt.Printf("Imported %d cohorts (version %s)\n", table.Len(), table.Version())

	case "export":
		exportCmd.Parse(os.Args[2:])
		loader, closeDB := openLoader(*exportTable)
		defer closeDB()
		data, err := exportBenchmarks(ctx, loader)
		if err != nil {
			fail("Error exporting table", err)
		}
		if *exportOut == "" {
			os.Stdout.Write(data)
			return
		}
		if err := writeFile(*exportOut, data); err != nil {
			fail("Error writing table", err)
		}
		fmt.Printf("Exported table to %s\n", *exportOut)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if *validateFile == "" {
			fmt.Println("Error: -file is required for validate.")
			validateCmd.Usage()
			os.Exit(1)
		}
		report, err := validateBenchmarks(*validateFile)
		if err != nil {
			fail("Benchmark table validation failed", err)
		}
		fmt.Println(report)

	case "set":
		setCmd.Parse(os.Args[2:])
		if *setFile == "" || *setIndustry == "" || *setSize == "" || *setScore < 0 || *setVersion == "" {
			fmt.Println("Error: file, industry, size, score, and version are required for set.")
			setCmd.Usage()
			os.Exit(1)
		}
		rec := readiness.BenchmarkRecord{Industry: *setIndustry, SizeBand: *setSize, TypicalScore: *setScore}
		if err := setCohort(*setFile, *setVersion, rec); err != nil {
			fail("Error updating cohort", err)
		}
		fmt.Printf("Set %s/%s to %d in %s\n", rec.Industry, rec.SizeBand, rec.TypicalScore, *setFile)

	case "help":
		fallthrough
	default:
		help()
	}
}

func openLoader(table string) (*benchmarks.PostgresLoader, func()) {
	cfg, err := config.Load()
	if err != nil {
		fail("Error loading config", err)
	}
	if table == "" {
		table = cfg.Benchmarks.PostgresTable
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fail("Error connecting to PostgreSQL", err)
	}
	loader, err := benchmarks.NewPostgresLoader(pg, table)
	if err != nil {
		pg.Close()
		fail("Error preparing loader", err)
	}
	return loader, func() { pg.Close() }
}

// benchmarkSink is the part of PostgresLoader the commands use.
type benchmarkSink interface {
	Load(ctx context.Context) (*benchmarks.Table, error)
	Save(ctx context.Context, t *benchmarks.Table) error
}

func importBenchmarks(ctx context.Context, sink benchmarkSink, table *benchmarks.Table) error {
	if err := sink.Save(ctx, table); err != nil {
		return err
	}
	// Read back what the workers will load.
	stored, err := sink.Load(ctx)
	if err != nil {
		return fmt.Errorf("verify import: %w", err)
	}
	if stored.Len() != table.Len() || stored.Version() != table.Version() {
		return fmt.Errorf("verify import: stored %d cohorts (version %s), expected %d (version %s)",
			stored.Len(), stored.Version(), table.Len(), table.Version())
	}
	return nil
}

func exportBenchmarks(ctx context.Context, sink benchmarkSink) ([]byte, error) {
	table, err := sink.Load(ctx)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(table)
}

func validateBenchmarks(path string) (string, error) {
	table, err := benchmarks.LoadFile(path)
	if err != nil {
		return "", err
	}

	rules := readiness.DefaultRules()
	var missing []string
	for _, size := range rules.Vocabulary.CompanySizes {
		if _, ok := table.Cohort(rules.Benchmark.FallbackIndustry, size); !ok {
			missing = append(missing, size)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("no %s cohort for size bands %s", rules.Benchmark.FallbackIndustry, strings.Join(missing, ", "))
	}

	return fmt.Sprintf("Benchmark table %s is valid: %d cohorts, reference score %d.",
		table.Version(), table.Len(), table.ReferenceScore()), nil
}

// setCohort adds or replaces one cohort and bumps the table version.
func setCohort(path, version string, rec readiness.BenchmarkRecord) error {
	table, err := benchmarks.LoadFile(path)
	if err != nil {
		return err
	}

	records := table.Records()
	replaced := false
	for i := range records {
		if readiness.CohortKey(records[i].Industry, records[i].SizeBand) == readiness.CohortKey(rec.Industry, rec.SizeBand) {
			rec.CohortMetadata = records[i].CohortMetadata
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}

	next, err := benchmarks.NewTable(version, table.ReferenceScore(), records)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal table: %w", err)
	}
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write table file: %w", err)
	}
	return nil
}

func fail(msg string, err error) {
	fmt.Printf("%s: %v\n", msg, err)
	os.Exit(1)
}

func help() {
	fmt.Println(`
Usage: benchmark-importer <command> [flags]

Commands:
  import    Replace the PostgreSQL benchmark cohorts with a YAML table
  export    Write the stored PostgreSQL cohorts as YAML
  validate  Check a YAML table, including fallback cohorts for every size band
  set       Add or change one cohort in a YAML table
  help      Show this help message

Examples:
  benchmark-importer validate -file configs/benchmarks.yaml
  benchmark-importer set -file configs/benchmarks.yaml -industry Healthcare -size 51-200 -score 47 -version 2025.2
  benchmark-importer import -file configs/benchmarks.yaml
  benchmark-importer export -out backup/benchmarks.yaml

Use 'benchmark-importer <command> -h' for more information about a command.
`)
}
