// ask-local drives the deterministic analysis pipeline against a dataset
// file without starting the server or configuring an AI provider. Useful for
// checking how the classifier and executor handle a real dashboard export.
//
// Usage:
//
//	go run ./scripts/ask-local -dataset export.json "How many projects have status Red?"
//	go run ./scripts/ask-local -dataset fixtures/projects.yaml
//
// With no question arguments it reads questions interactively from stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dashlytics/insight-engine/pkg/models"
	"github.com/dashlytics/insight-engine/pkg/services"
)

func main() {
	datasetPath := flag.String("dataset", "", "Path to a dataset file (.json, .yaml, or .yml)")
	flag.Parse()

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ask-local -dataset <file> [question ...]")
		os.Exit(2)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer logger.Sync()

	dataset, err := loadDataset(*datasetPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load dataset: %v\n", err)
		os.Exit(1)
	}

	schema := services.NewSchemaService(logger).Introspect(context.Background(), dataset)

	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Dataset: %s (%d rows, %d columns)\n", *datasetPath, dataset.RowCount(), dataset.ColumnCount())
	for _, col := range schema {
		fmt.Printf("  - %s (%s)\n", col.Name, col.Role)
	}
	fmt.Println(strings.Repeat("=", 80))

	questions := flag.Args()
	if len(questions) > 0 {
		for _, q := range questions {
			askOne(q, dataset, schema)
		}
		return
	}

	// Interactive mode.
	fmt.Println("Type a question, or press Ctrl-D to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("\n> ")
	for scanner.Scan() {
		q := strings.TrimSpace(scanner.Text())
		if q != "" {
			askOne(q, dataset, schema)
		}
		fmt.Print("\n> ")
	}
	fmt.Println()
}

func askOne(question string, dataset *models.Dataset, schema []models.ColumnDescriptor) {
	fmt.Printf("\nQ: %s\n%s\n", question, strings.Repeat("-", 80))

	answer := services.AnswerLocally(question, dataset, schema)

	fmt.Println(answer.Text)
	if answer.Chart != nil {
		fmt.Printf("\n[chart] %s: x=%s y=%s", answer.Chart.Kind, answer.Chart.X, answer.Chart.Y)
		if answer.Chart.Color != "" {
			fmt.Printf(" color=%s", answer.Chart.Color)
		}
		fmt.Printf(" title=%q\n", answer.Chart.Title)
	}
}

// loadDataset reads a dataset export. YAML files are converted through JSON
// so cell values decode the same way they do on the wire.
func loadDataset(path string) (*models.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		raw, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert YAML: %w", err)
		}
	}

	var dataset models.Dataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	if dataset.IsEmpty() {
		return nil, fmt.Errorf("dataset has no columns or rows")
	}
	return &dataset, nil
}
