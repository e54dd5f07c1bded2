package analyzer

import "phpmetrics/internal/models"

// Aggregator fans every event out to a file's own counters and the run
// total. Both sinks see the same events in the same order.
type Aggregator struct {
	file  *models.CounterSet
	total *models.CounterSet
	sinks []models.Sink
}

func NewAggregator(file, total *models.CounterSet) *Aggregator {
	return &Aggregator{
		file:  file,
		total: total,
		sinks: []models.Sink{file, total},
	}
}

// Apply implements models.Sink.
func (a *Aggregator) Apply(e models.Event) {
	for _, sink := range a.sinks {
		sink.Apply(e)
	}
}

// FinalizePerFile detaches the file counters and returns them. Later
// events only reach the total.
func (a *Aggregator) FinalizePerFile() *models.CounterSet {
	a.sinks = []models.Sink{a.total}
	return a.file
}

func (a *Aggregator) FinalizeTotal() *models.CounterSet {
	return a.total
}
