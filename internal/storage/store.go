package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/iqcert/internal/iqc"
)

// Store persists analysis runs under a base directory, one subdirectory
// per run holding metadata.json and the bisection trace as trace.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Timestamp time.Time `json:"timestamp"`

	// Performance is the certified bound; 0 with Valid false when the
	// search gave up (JSON cannot carry NaN).
	Performance float64 `json:"performance"`
	Valid       bool    `json:"valid"`

	Solves   int     `json:"solves"`
	GammaTol float64 `json:"gamma_tol"`
	Elapsed  float64 `json:"elapsed_seconds"`
}

func (s *Store) Save(scenario string, gammaTol float64, elapsed time.Duration, result *iqc.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	perf := result.Performance
	if math.IsNaN(perf) {
		perf = 0
	}
	meta := RunMetadata{
		ID:          runID,
		Scenario:    scenario,
		Timestamp:   time.Now(),
		Performance: perf,
		Valid:       result.Valid,
		Solves:      len(result.Gammas),
		GammaTol:    gammaTol,
		Elapsed:     elapsed.Seconds(),
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "trace.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"solve", "gamma", "feasible"}); err != nil {
		return "", err
	}
	for i, gamma := range result.Gammas {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(gamma, 'f', 6, 64),
			strconv.FormatBool(result.Feasible[i]),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrace reads back the bisection trace in solve order.
func (s *Store) LoadTrace(runID string) ([]float64, []bool, error) {
	csvPath := filepath.Join(s.baseDir, runID, "trace.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, []bool{}, nil
	}

	gammas := make([]float64, 0, len(records)-1)
	feasible := make([]bool, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 3 {
			continue
		}

		gamma, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		ok, err := strconv.ParseBool(record[2])
		if err != nil {
			continue
		}
		gammas = append(gammas, gamma)
		feasible = append(feasible, ok)
	}

	return gammas, feasible, nil
}
