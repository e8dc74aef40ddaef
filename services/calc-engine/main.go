package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"dcf_valuation/pkg/core/report"
	"dcf_valuation/pkg/core/sensitivity"
	"dcf_valuation/pkg/core/settings"
	"dcf_valuation/pkg/core/valuation"
)

// Payload is the -data argument. Params fields that are left out keep the configured defaults.
type Payload struct {
	Ticker    string                    `json:"ticker"`
	BaseValue float64                   `json:"base_value"`
	Price     float64                   `json:"price"`
	Params    valuation.ModelParameters `json:"params"`
}

func main() {
	godotenv.Load()

	mode := flag.String("mode", "dcf", "Mode: dcf, implied, grid or report")
	dataStr := flag.String("data", "", "JSON data payload")
	settingsPath := flag.String("settings", settings.DefaultPath, "Settings file")
	flag.Parse()

	if *dataStr == "" {
		fmt.Println("Error: No data provided")
		os.Exit(1)
	}

	cfg, err := settings.Load(*settingsPath)
	if err != nil {
		fmt.Printf("Error loading settings: %v\n", err)
		os.Exit(1)
	}

	data := Payload{Params: cfg.Params()}
	if err := json.Unmarshal([]byte(*dataStr), &data); err != nil {
		fmt.Printf("Error unmarshaling data: %v\n", err)
		os.Exit(1)
	}
	if _, err := valuation.Evaluate(data.BaseValue, data.Params); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	out, err := run(*mode, data, cfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func run(mode string, data Payload, cfg settings.Settings) (string, error) {
	solver := cfg.NewSolver()
	gen := sensitivity.NewGenerator(sensitivity.WithSolver(solver), sensitivity.WithWorkers(cfg.Grid.Workers))

	switch mode {
	case "dcf":
		res, err := valuation.Evaluate(data.BaseValue, data.Params)
		if err != nil {
			return "", err
		}
		return encode(res)
	case "implied":
		if data.Price <= 0 {
			return "", fmt.Errorf("price must be positive for implied growth")
		}
		return encode(solver.Solve(data.Price, data.BaseValue, data.Params))
	case "grid":
		valueGrid, err := gen.ValueMatrix(data.BaseValue, data.Price, data.Params)
		if err != nil {
			return "", err
		}
		grids := []*sensitivity.Grid{valueGrid}
		// the implied-growth matrix needs a market price to invert
		if data.Price > 0 {
			impliedGrid, err := gen.ImpliedGrowthMatrix(data.BaseValue, data.Price, data.Params)
			if err != nil {
				return "", err
			}
			grids = append(grids, impliedGrid)
		}
		return encode(grids)
	case "report":
		title := data.Ticker
		if title == "" {
			title = "Valuation"
		}
		res, err := valuation.Evaluate(data.BaseValue, data.Params)
		if err != nil {
			return "", err
		}
		valueGrid, err := gen.ValueMatrix(data.BaseValue, data.Price, data.Params)
		if err != nil {
			return "", err
		}
		md := report.Valuation(title, data.Price, data.Params, res) + "\n" +
			report.Grid("Intrinsic value: discount rate x growth rate", valueGrid)
		if data.Price > 0 {
			impliedGrid, err := gen.ImpliedGrowthMatrix(data.BaseValue, data.Price, data.Params)
			if err != nil {
				return "", err
			}
			md += "\n" + report.Grid("Implied growth: discount rate x terminal", impliedGrid)
		}
		return md, nil
	}
	return "", fmt.Errorf("unknown mode: %s", mode)
}

func encode(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(b), nil
}
