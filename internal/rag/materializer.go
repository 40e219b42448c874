package rag

import (
	"fmt"

	"github.com/upb/logistics-assistant/models"
)

// Materialize renders each record as a Document, preserving length and order.
// A record with a NULL avg_dist or trip_count fails the whole call with
// *FieldMissingError; skipping it would shift every later document. A NULL
// avg_cost renders as "N/A".
func Materialize(records []models.LocationMetric) ([]Document, error) {
	docs := make([]Document, len(records))
	for i, r := range records {
		text, err := renderRecord(r)
		if err != nil {
			if fm, ok := err.(*FieldMissingError); ok {
				fm.Index = i
			}
			return nil, err
		}
		docs[i] = Document{LocationID: r.LocationID, Text: text}
	}
	return docs, nil
}

func renderRecord(r models.LocationMetric) (string, error) {
	switch {
	case r.AvgDist == nil:
		return "", &FieldMissingError{LocationID: r.LocationID, Field: "avg_dist"}
	case r.TripCount == nil:
		return "", &FieldMissingError{LocationID: r.LocationID, Field: "trip_count"}
	}

	cost := missingCost
	if r.AvgCost != nil {
		cost = fmt.Sprintf("$%.2f", *r.AvgCost)
	}

	return fmt.Sprintf(
		"Location ID %d stats: Avg Dist: %.2f miles. Trips: %d. Avg Cost: %s.",
		r.LocationID, *r.AvgDist, *r.TripCount, cost,
	), nil
}

const missingCost = "N/A"

// Texts returns the text of each document in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}
