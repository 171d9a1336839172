package match

import (
	"sync"
	"time"

	"github.com/bhulekh-reconcile/internal/normalize"
)

// fullScanThreshold is the index-pass score below which the search
// widens to every record. Identifier collisions are the dominant
// signal for true matches, so the index avoids an all-pairs scan in
// the common case while the fallback guarantees the true best match
// is never missed when identifiers differ by transcription error.
// Changing this value alters matching behavior observably.
const fullScanThreshold = 80.0

// Engine runs candidate search: for each spatial parcel it locates the
// best-scoring textual record, classifies the winning score and
// aggregates run statistics. An Engine is immutable after creation and
// safe for concurrent use.
type Engine struct {
	scorer     *Scorer
	classifier *Classifier
	workers    int
}

// NewEngine creates an engine. A worker count below 2 runs the search
// sequentially.
func NewEngine(scorer *Scorer, classifier *Classifier, workers int) *Engine {
	if scorer == nil {
		scorer = DefaultScorer()
	}
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{scorer: scorer, classifier: classifier, workers: workers}
}

// Run reconciles every spatial parcel against the textual record pool
// and returns one classified candidate per parcel, in parcel order.
// An empty record pool yields zero candidates and no error. Parcels
// are independent, so with workers > 1 the per-parcel searches fan out
// across goroutines; results are reassociated by parcel index.
func (e *Engine) Run(parcels []SpatialParcel, records []TextualRecord) Result {
	start := time.Now()

	result := Result{
		Summary: Summary{
			TotalParcels: len(parcels),
			TotalRecords: len(records),
			ByStatus:     make(map[Status]int),
		},
	}

	if len(parcels) == 0 || len(records) == 0 {
		result.Summary.ProcessingTime = time.Since(start)
		return result
	}

	index := buildIndex(records)
	candidates := make([]Candidate, len(parcels))

	if e.workers > 1 {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < e.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					candidates[i] = e.bestFor(parcels[i], records, index)
				}
			}()
		}
		for i := range parcels {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	} else {
		for i := range parcels {
			candidates[i] = e.bestFor(parcels[i], records, index)
		}
	}

	for i := range candidates {
		status, confidence := e.classifier.Classify(candidates[i].TotalScore)
		candidates[i].Status = status
		candidates[i].Confidence = confidence
		result.Summary.ByStatus[status]++
	}

	result.Candidates = candidates
	result.Summary.ProcessingTime = time.Since(start)
	return result
}

// buildIndex maps normalized plot identifier to the indices of the
// records carrying it; multiple records may share an identifier.
func buildIndex(records []TextualRecord) map[string][]int {
	index := make(map[string][]int, len(records))
	for i, r := range records {
		key := normalize.Identifier(r.PlotID)
		index[key] = append(index[key], i)
	}
	return index
}

// bestFor finds the best-scoring record for one parcel. It first
// scores only the records sharing the parcel's normalized identifier;
// if none are indexed or the best of that pass stays below the
// full-scan threshold, it widens to every record, keeping the best
// score seen across both passes. Ties keep the record encountered
// first in scan order.
func (e *Engine) bestFor(parcel SpatialParcel, records []TextualRecord, index map[string][]int) Candidate {
	bestIdx := -1
	var bestScores Scores

	consider := func(i int) {
		scores := e.scorer.Score(parcel, records[i])
		if bestIdx == -1 || scores.TotalScore > bestScores.TotalScore {
			bestIdx = i
			bestScores = scores
		}
	}

	if indexed, ok := index[normalize.Identifier(parcel.PlotID)]; ok {
		for _, i := range indexed {
			consider(i)
		}
	}

	if bestIdx == -1 || bestScores.TotalScore < fullScanThreshold {
		for i := range records {
			consider(i)
		}
	}

	return Candidate{
		SpatialID: parcel.ID,
		TextualID: records[bestIdx].ID,
		Scores:    bestScores,
	}
}
