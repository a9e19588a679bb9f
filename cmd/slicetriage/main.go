package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"slicetriage/pkg/artifacts"
	"slicetriage/pkg/config"
	"slicetriage/pkg/evaluation"
	"slicetriage/pkg/impact"
	"slicetriage/pkg/selection"
	"slicetriage/pkg/uncertainty"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: slicetriage <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  uncertainty   Compute per-slice uncertainty via stochastic sampling")
	fmt.Fprintln(os.Stderr, "  impact        Compute per-slice volumetric impact scores")
	fmt.Fprintln(os.Stderr, "  select        Rank slices and write a selection for one patient")
	fmt.Fprintln(os.Stderr, "  evaluate      Run the full strategy x budget comparison")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "uncertainty":
		runUncertainty(os.Args[2:])
	case "impact":
		runImpact(os.Args[2:])
	case "select":
		runSelect(os.Args[2:])
	case "evaluate":
		runEvaluate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
	}
}

// newStore builds the artifact store rooted at dataDir using the fixed
// per-phase directory layout.
func newStore(dataDir string) *artifacts.Store {
	return &artifacts.Store{
		GroundTruthDir: filepath.Join(dataDir, "ground_truth"),
		PredictionsDir: filepath.Join(dataDir, "predictions"),
		UncertaintyDir: filepath.Join(dataDir, "uncertainty"),
		ImpactDir:      filepath.Join(dataDir, "impact"),
		SelectionsDir:  filepath.Join(dataDir, "selections"),
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runUncertainty(args []string) {
	fs := flag.NewFlagSet("uncertainty", flag.ExitOnError)
	dataDir := fs.String("data", "data", "Artifact root directory")
	configPath := fs.String("config", "slicetriage.yaml", "Configuration file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	store := newStore(*dataDir)

	predictor, err := uncertainty.NewBlurPredictor(cfg.Sampling.DropRate)
	if err != nil {
		log.Fatalf("Failed to create predictor: %v", err)
	}
	estimator, err := uncertainty.NewEstimator(predictor, uncertainty.Params{
		NumSamples:          cfg.Sampling.NumSamples,
		Seed:                cfg.Sampling.Seed,
		ForegroundThreshold: cfg.Sampling.ForegroundThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to create estimator: %v", err)
	}

	ids, err := store.GroundTruthPatients()
	if err != nil {
		log.Fatalf("Failed to list patients: %v", err)
	}
	if len(ids) == 0 {
		log.Fatalf("No patient datasets found under %s", store.GroundTruthDir)
	}

	fmt.Printf("Estimating uncertainty for %d patients (%d samples per slice)...\n",
		len(ids), cfg.Sampling.NumSamples)
	startTime := time.Now()
	for _, id := range ids {
		patient, err := store.LoadGroundTruth(id)
		if err != nil {
			log.Fatalf("Failed to load patient %s: %v", id, err)
		}
		unc, err := estimator.EstimateVolume(patient)
		if err != nil {
			log.Fatalf("Uncertainty estimation failed for patient %s: %v", id, err)
		}
		if err := store.SaveUncertainty(unc); err != nil {
			log.Fatalf("Failed to save uncertainty for patient %s: %v", id, err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Patient %s: %d slices scored\n", id, len(unc.Slices))
		}
	}
	fmt.Printf("Uncertainty estimation completed in %.2f seconds\n", time.Since(startTime).Seconds())
}

func runImpact(args []string) {
	fs := flag.NewFlagSet("impact", flag.ExitOnError)
	dataDir := fs.String("data", "data", "Artifact root directory")
	configPath := fs.String("config", "slicetriage.yaml", "Configuration file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	store := newStore(*dataDir)

	estimator := impact.NewEstimator(cfg.Impact.UseConnectivity, cfg.Impact.UseSqrtTransform)

	ids, err := store.PredictionPatients()
	if err != nil {
		log.Fatalf("Failed to list patients: %v", err)
	}
	if len(ids) == 0 {
		log.Fatalf("No prediction artifacts found under %s", store.PredictionsDir)
	}

	fmt.Printf("Computing impact scores for %d patients...\n", len(ids))
	for _, id := range ids {
		preds, err := store.LoadPredictions(id)
		if err != nil {
			log.Fatalf("Failed to load predictions for patient %s: %v", id, err)
		}
		imp, err := estimator.Compute(preds)
		if err != nil {
			log.Fatalf("Impact computation failed for patient %s: %v", id, err)
		}
		if err := store.SaveImpact(imp); err != nil {
			log.Fatalf("Failed to save impact for patient %s: %v", id, err)
		}
		if cfg.Output.Verbose {
			fmt.Printf("Patient %s: %d slices scored\n", id, len(imp.Slices))
		}
	}
	fmt.Println("Impact computation completed")
}

func runSelect(args []string) {
	fs := flag.NewFlagSet("select", flag.ExitOnError)
	dataDir := fs.String("data", "data", "Artifact root directory")
	configPath := fs.String("config", "slicetriage.yaml", "Configuration file")
	patientID := fs.String("patient", "", "Patient ID to select slices for")
	budget := fs.Int("budget", 0, "Number of slices the annotator may correct")
	fs.Parse(args)

	if *patientID == "" || *budget < 0 {
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	store := newStore(*dataDir)

	unc, err := store.LoadUncertainty(*patientID)
	if err != nil {
		log.Fatalf("Failed to load uncertainty for patient %s: %v", *patientID, err)
	}
	imp, err := store.LoadImpact(*patientID)
	if err != nil {
		log.Fatalf("Failed to load impact for patient %s: %v", *patientID, err)
	}
	sig, err := selection.SignalsFromArtifacts(unc, imp)
	if err != nil {
		log.Fatalf("Signal assembly failed: %v", err)
	}

	fused, err := selection.NewFused("IWUO", cfg.Selection.Alpha)
	if err != nil {
		log.Fatalf("Failed to create selector: %v", err)
	}

	if cfg.Output.Verbose {
		mean, std, min, max, err := fused.ScoreStats(sig)
		if err != nil {
			log.Fatalf("Score computation failed: %v", err)
		}
		fmt.Printf("Joint scores (alpha=%.2f): mean=%.4f std=%.4f min=%.4f max=%.4f\n",
			fused.Alpha(), mean, std, min, max)
	}

	sel, err := fused.Select(sig, *budget)
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	if err := store.SaveSelection(sel); err != nil {
		log.Fatalf("Failed to save selection: %v", err)
	}

	fmt.Printf("Patient %s: selected %d of %d slices for correction\n",
		*patientID, len(sel.SliceIDs), len(sig.SliceIDs))
	fmt.Printf("Slice IDs: %v\n", sel.SliceIDs)
}

func runEvaluate(args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	dataDir := fs.String("data", "data", "Artifact root directory")
	configPath := fs.String("config", "slicetriage.yaml", "Configuration file")
	outputDir := fs.String("output", "results", "Directory for result reports")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	store := newStore(*dataDir)

	fmt.Println("================================")
	fmt.Println("BUDGET-CONSTRAINED SLICE SELECTION FOR SEGMENTATION REVIEW")
	fmt.Println("Strategy comparison under simulated perfect correction")
	fmt.Println("================================")

	strategies, err := buildRoster(cfg)
	if err != nil {
		log.Fatalf("Failed to build strategy roster: %v", err)
	}

	orch, err := evaluation.NewOrchestrator(store, strategies,
		cfg.Evaluation.BudgetFractions, cfg.Evaluation.NumWorkers, cfg.Output.Verbose)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	fmt.Println("Starting evaluation with parallel patient processing...")
	startTime := time.Now()
	result, err := orch.Run(context.Background())
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}
	fmt.Printf("\nEvaluation completed in %.2f seconds\n", time.Since(startTime).Seconds())

	resultPath := filepath.Join(*outputDir, "results.msgpack")
	if err := artifacts.SaveResult(resultPath, result); err != nil {
		log.Fatalf("Failed to save result artifact: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "results.csv")
	if err := evaluation.WriteCSV(csvPath, result); err != nil {
		log.Fatalf("Failed to write CSV report: %v", err)
	}
	xlsxPath := filepath.Join(*outputDir, "results.xlsx")
	if err := evaluation.WriteXLSX(xlsxPath, result); err != nil {
		log.Fatalf("Failed to write XLSX report: %v", err)
	}

	fmt.Printf("Reports written to: %s\n", *outputDir)
	evaluation.PrintSummary(os.Stdout, result)
}

// buildRoster assembles the strategy roster every budget is evaluated with:
// the no-correction and chance baselines, the single-signal ablations, the
// fused policy at the configured alpha, and optionally the oracle upper
// bound.
func buildRoster(cfg *config.Config) ([]selection.Strategy, error) {
	uncOnly, err := selection.NewFused("Uncertainty-Only", 1.0)
	if err != nil {
		return nil, err
	}
	impOnly, err := selection.NewFused("Impact-Only", 0.0)
	if err != nil {
		return nil, err
	}
	fused, err := selection.NewFused("IWUO", cfg.Selection.Alpha)
	if err != nil {
		return nil, err
	}

	strategies := []selection.Strategy{
		selection.NewNoCorrection(),
		selection.NewRandom(cfg.Selection.RandomSeed),
		selection.NewUniform(),
		uncOnly,
		impOnly,
		fused,
	}
	if cfg.Evaluation.IncludeOracle {
		strategies = append(strategies, selection.NewOracle())
	}
	return strategies, nil
}
