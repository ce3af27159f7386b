package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/odestep/internal/dynamo"
	"github.com/san-kum/odestep/internal/stepper"
)

const metadataFile = "metadata.json"

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
	ID         string             `json:"id"`
	Problem    string             `json:"problem"`
	Label      string             `json:"label"`
	Timestamp  time.Time          `json:"timestamp"`
	Components int                `json:"components"`
	EndTime    float64            `json:"end_time"`
	Method     string             `json:"method"`
	Tolerance  float64            `json:"tolerance"`
	FixedStep  bool               `json:"fixed_step"`
	Params     map[string]float64 `json:"params,omitempty"`
	Report     *stepper.Report    `json:"report,omitempty"`
}

// Run is an open run directory. It receives samples from the stepper.
type Run struct {
	dir  string
	meta RunMetadata
	file *os.File
	w    *csv.Writer
	row  []string
}

// Create opens a new run directory holding <label>.csv and metadata.json.
func (s *Store) Create(label string, meta RunMetadata) (*Run, error) {
	if meta.Components <= 0 {
		return nil, fmt.Errorf("%w: run needs at least one component", dynamo.ErrInvalidConfig)
	}

	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d", label, now.UnixNano())
	meta.Label = label
	meta.Timestamp = now

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Create(filepath.Join(dir, label+".csv"))
	if err != nil {
		return nil, err
	}

	r := &Run{
		dir:  dir,
		meta: meta,
		file: file,
		w:    csv.NewWriter(file),
		row:  make([]string, 1+2*meta.Components),
	}

	header := r.row[:0]
	header = append(header, "time")
	for i := 0; i < meta.Components; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	for i := 0; i < meta.Components; i++ {
		header = append(header, fmt.Sprintf("f%d", i))
	}
	if err := r.w.Write(header); err != nil {
		file.Close()
		return nil, err
	}
	if err := r.writeMetadata(); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *Run) ID() string  { return r.meta.ID }
func (r *Run) Dir() string { return r.dir }

// WriteSample appends one row. It implements stepper.SampleSink.
func (r *Run) WriteSample(s stepper.Sample) error {
	n := r.meta.Components
	if len(s.U) != n || len(s.F) != n {
		return dynamo.ErrDimensionMismatch
	}
	r.row[0] = strconv.FormatFloat(s.Time, 'g', -1, 64)
	for i := 0; i < n; i++ {
		r.row[1+i] = strconv.FormatFloat(s.U[i], 'g', -1, 64)
		r.row[1+n+i] = strconv.FormatFloat(s.F[i], 'g', -1, 64)
	}
	return r.w.Write(r.row)
}

// Close flushes the samples and records the final report.
func (r *Run) Close(report stepper.Report) error {
	r.w.Flush()
	err := r.w.Error()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	r.meta.Report = &report
	return r.writeMetadata()
}

func (r *Run) writeMetadata() error {
	metaFile, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(r.meta)
}

// List returns the runs in the store, oldest first.
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads back the samples of a run.
func (s *Store) LoadSamples(runID string) ([]stepper.Sample, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, meta.Label+".csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	n := meta.Components
	if len(records) == 0 || len(records[0]) != 1+2*n {
		return nil, fmt.Errorf("%s: %w", runID, dynamo.ErrDimensionMismatch)
	}

	samples := make([]stepper.Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", runID, line+2, err)
			}
			vals[j] = v
		}
		samples = append(samples, stepper.Sample{
			Time: vals[0],
			U:    dynamo.State(vals[1 : 1+n]),
			F:    dynamo.State(vals[1+n:]),
		})
	}

	return samples, nil
}
