// Package understanding scores multiple-choice understanding records.
package understanding

import (
	"sort"

	"github.com/signalnine/genbench/internal/dataset"
)

type CategoryAccuracy struct {
	Category string  `json:"category"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

type Report struct {
	Correct    int                `json:"correct"`
	Total      int                `json:"total"`
	Accuracy   float64            `json:"accuracy"`
	Categories []CategoryAccuracy `json:"categories"`
}

// Accuracy compares each record's output with its answer. Empty outputs
// count as incorrect. Categories are sorted by name.
func Accuracy(records []dataset.Record) Report {
	var rep Report
	byCat := map[string]*CategoryAccuracy{}
	for _, rec := range records {
		out := rec.Output.Path
		correct := out != "" && out == rec.Answer

		c, ok := byCat[string(rec.Category)]
		if !ok {
			c = &CategoryAccuracy{Category: string(rec.Category)}
			byCat[string(rec.Category)] = c
		}
		c.Total++
		rep.Total++
		if correct {
			c.Correct++
			rep.Correct++
		}
	}
	rep.Accuracy = ratio(rep.Correct, rep.Total)
	for _, c := range byCat {
		c.Accuracy = ratio(c.Correct, c.Total)
		rep.Categories = append(rep.Categories, *c)
	}
	sort.Slice(rep.Categories, func(i, j int) bool {
		return rep.Categories[i].Category < rep.Categories[j].Category
	})
	return rep
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
