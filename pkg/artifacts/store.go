// Package artifacts persists per-patient pipeline artifacts as MessagePack
// files, one file per patient per artifact kind. The directory layout
// mirrors the pipeline phases: ground truth, predictions, uncertainty,
// impact and selections each live in their own directory, keyed by patient
// ID.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"slicetriage/internal/models"
)

// Ext is the artifact file extension.
const Ext = ".msgpack"

// Store reads and writes patient artifacts under a fixed directory layout.
type Store struct {
	GroundTruthDir string
	PredictionsDir string
	UncertaintyDir string
	ImpactDir      string
	SelectionsDir  string
}

// save marshals v to path, creating the parent directory if needed.
func save(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// load unmarshals the artifact at path into v.
func load(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", filepath.Base(path), err)
	}
	return nil
}

// patientPath returns dir/<patientID>.msgpack.
func patientPath(dir, patientID string) string {
	return filepath.Join(dir, patientID+Ext)
}

// listPatients returns the sorted patient IDs present in a directory.
func listPatients(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), Ext))
	}
	sort.Strings(ids)
	return ids, nil
}

// GroundTruthPatients lists patients with a ground-truth artifact.
func (s *Store) GroundTruthPatients() ([]string, error) {
	return listPatients(s.GroundTruthDir)
}

// PredictionPatients lists patients with a prediction artifact.
func (s *Store) PredictionPatients() ([]string, error) {
	return listPatients(s.PredictionsDir)
}

// PatientIDs implements evaluation.PatientStore: the sorted intersection of
// patients that carry all four required artifacts. Patients missing any
// artifact are simply absent here; the caller decides whether to warn.
func (s *Store) PatientIDs() ([]string, error) {
	dirs := []string{s.GroundTruthDir, s.PredictionsDir, s.UncertaintyDir, s.ImpactDir}
	counts := make(map[string]int)
	for _, dir := range dirs {
		ids, err := listPatients(dir)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			counts[id]++
		}
	}
	var common []string
	for id, n := range counts {
		if n == len(dirs) {
			common = append(common, id)
		}
	}
	sort.Strings(common)
	return common, nil
}

// LoadGroundTruth implements evaluation.PatientStore.
func (s *Store) LoadGroundTruth(patientID string) (models.PatientSlices, error) {
	var out models.PatientSlices
	if err := load(patientPath(s.GroundTruthDir, patientID), &out); err != nil {
		return models.PatientSlices{}, err
	}
	return out, nil
}

// LoadPredictions implements evaluation.PatientStore.
func (s *Store) LoadPredictions(patientID string) (models.PatientPredictions, error) {
	var out models.PatientPredictions
	if err := load(patientPath(s.PredictionsDir, patientID), &out); err != nil {
		return models.PatientPredictions{}, err
	}
	return out, nil
}

// LoadUncertainty implements evaluation.PatientStore.
func (s *Store) LoadUncertainty(patientID string) (models.PatientUncertainty, error) {
	var out models.PatientUncertainty
	if err := load(patientPath(s.UncertaintyDir, patientID), &out); err != nil {
		return models.PatientUncertainty{}, err
	}
	return out, nil
}

// LoadImpact implements evaluation.PatientStore.
func (s *Store) LoadImpact(patientID string) (models.PatientImpact, error) {
	var out models.PatientImpact
	if err := load(patientPath(s.ImpactDir, patientID), &out); err != nil {
		return models.PatientImpact{}, err
	}
	return out, nil
}

// SaveGroundTruth writes a patient's slice dataset artifact.
func (s *Store) SaveGroundTruth(p models.PatientSlices) error {
	return save(patientPath(s.GroundTruthDir, p.PatientID), p)
}

// SavePredictions writes a patient's prediction artifact.
func (s *Store) SavePredictions(p models.PatientPredictions) error {
	return save(patientPath(s.PredictionsDir, p.PatientID), p)
}

// SaveUncertainty writes a patient's uncertainty artifact.
func (s *Store) SaveUncertainty(p models.PatientUncertainty) error {
	return save(patientPath(s.UncertaintyDir, p.PatientID), p)
}

// SaveImpact writes a patient's impact artifact.
func (s *Store) SaveImpact(p models.PatientImpact) error {
	return save(patientPath(s.ImpactDir, p.PatientID), p)
}

// SaveSelection writes one selection artifact, keyed by patient, strategy
// and budget so repeated runs at other budgets never collide.
func (s *Store) SaveSelection(sel models.Selection) error {
	name := fmt.Sprintf("%s_%s_b%03d%s", sel.PatientID, slug(sel.Strategy), sel.Budget, Ext)
	return save(filepath.Join(s.SelectionsDir, name), sel)
}

// SaveResult writes a full evaluation result artifact.
func SaveResult(path string, result models.EvaluationResult) error {
	return save(path, result)
}

// LoadResult reads a previously saved evaluation result artifact.
func LoadResult(path string) (models.EvaluationResult, error) {
	var out models.EvaluationResult
	if err := load(path, &out); err != nil {
		return models.EvaluationResult{}, err
	}
	return out, nil
}

// slug lowercases a strategy name for use in filenames.
func slug(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "-")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			return r
		}
		return -1
	}, name)
}
