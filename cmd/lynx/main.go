// Package main provides the lynx CLI entry point.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/orneryd/lynxcore/pkg/config"
	"github.com/orneryd/lynxcore/pkg/graph"
	"github.com/orneryd/lynxcore/pkg/logging"
	"github.com/orneryd/lynxcore/pkg/procedure"
	"github.com/orneryd/lynxcore/pkg/runner"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var configPath string
	var storeFlag string
	var dataDirFlag string

	rootCmd := &cobra.Command{
		Use:   "lynx",
		Short: "lynx - a Cypher query engine core",
		Long: `lynx parses and executes Cypher queries against an in-process or
disk-backed graph, without a server, a wire protocol, or a fixed
on-disk schema.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file path")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "", "graph store: memory or badger (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "badger data directory (overrides config)")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		if storeFlag != "" {
			cfg.Store = config.Store(storeFlag)
		}
		if dataDirFlag != "" {
			cfg.DataDir = dataDirFlag
		}
		return cfg, nil
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lynx v%s (%s)\n", version, commit)
		},
	})

	runCmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run every statement in a Cypher script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runScript(cfg, args[0])
		},
	}
	rootCmd.AddCommand(runCmd)

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive Cypher shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runShell(cfg)
		},
	}
	rootCmd.AddCommand(shellCmd)

	var importFormat string
	importCmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Load nodes/relationships into the store from a Neo4j export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runImport(cfg, args[0], importFormat)
		},
	}
	importCmd.Flags().StringVar(&importFormat, "format", "neo4j-dir", "import format: neo4j-dir or neo4j-export")
	rootCmd.AddCommand(importCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

// openModel opens the graph.Model named by cfg.Store, returning a
// close function that is a no-op for the in-memory backend.
func openModel(cfg config.Config) (graph.Model, func() error, error) {
	switch cfg.Store {
	case config.StoreBadger:
		b, err := graph.NewBadger(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("opening badger store at %s: %w", cfg.DataDir, err)
		}
		return b, b.Close, nil
	case config.StoreMemory, "":
		return graph.NewMemory(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func buildRunner(cfg config.Config, model graph.Model) *runner.Runner {
	procs := procedure.StandardLibrary().Merge(procedure.APOC(model))
	log := logging.New(cfg.LogLevel, os.Stderr)
	return runner.New(model, procs, runner.WithLogger(log))
}

func runScript(cfg config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	model, closeModel, err := openModel(cfg)
	if err != nil {
		return err
	}
	defer closeModel()
	r := buildRunner(cfg, model)

	for _, stmt := range splitStatements(string(data)) {
		res, err := r.Run(context.Background(), stmt, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", preview(stmt), err)
		}
		res.Show(0, os.Stdout)
	}
	return nil
}

func runShell(cfg config.Config) error {
	model, closeModel, err := openModel(cfg)
	if err != nil {
		return err
	}
	defer closeModel()
	r := buildRunner(cfg, model)

	fmt.Println(color.CyanString("lynx shell") + " — Cypher queries, ';' to run, 'exit' to quit")
	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	prompt := "lynx> "
	fmt.Print(prompt)
	for scanner.Scan() {
		line := scanner.Text()
		if buf.Len() == 0 && (line == "exit" || line == "quit") {
			return nil
		}
		buf.WriteString(line)
		buf.WriteString("\n")
		if strings.HasSuffix(strings.TrimSpace(line), ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(buf.String()), ";")
			buf.Reset()
			if strings.TrimSpace(stmt) != "" {
				res, err := r.Run(context.Background(), stmt, nil)
				if err != nil {
					fmt.Println(color.RedString("error: %v", err))
				} else {
					res.Show(0, os.Stdout)
				}
			}
			fmt.Print(prompt)
			continue
		}
		fmt.Print("    -> ")
	}
	fmt.Println()
	return nil
}

func runImport(cfg config.Config, path string, format string) error {
	model, closeModel, err := openModel(cfg)
	if err != nil {
		return err
	}
	defer closeModel()

	w := model.NewWriter()
	switch format {
	case "neo4j-dir":
		err = graph.LoadFromNeo4jJSON(w, path)
	case "neo4j-export":
		err = graph.LoadFromNeo4jExport(w, path)
	default:
		return fmt.Errorf("unknown import format %q", format)
	}
	if err != nil {
		w.Discard()
		return err
	}
	if err := w.Commit(); err != nil {
		return err
	}
	fmt.Println(color.GreenString("import complete"))
	return nil
}

// splitStatements breaks a script into individual Cypher statements on
// top-level ';' characters, tracking single/double-quote state so a
// ';' inside a string literal doesn't end the statement early.
func splitStatements(src string) []string {
	var stmts []string
	var cur strings.Builder
	var quote rune
	for _, r := range src {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == ';':
			if s := strings.TrimSpace(cur.String()); s != "" {
				stmts = append(stmts, s)
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		stmts = append(stmts, s)
	}
	return stmts
}

func preview(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
