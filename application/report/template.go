package report

import (
	"io"
	"sort"
	"text/template"

	"clip-curator/domain/clip"
)

// reportData contains all the fields available for report rendering
type reportData struct {
	TotalClips  int
	AvgDuration float64
	Tags        []tagCount
}

type tagCount struct {
	Tag   string
	Count int
}

// reportTemplate is the markdown layout of the collection report
var reportTemplate = template.Must(template.New("report").Parse(`# Cinematic Dataset Collection Report

## Summary

- **Total Clips Collected:** {{.TotalClips}}
- **Average Clip Duration:** {{printf "%.2f" .AvgDuration}} seconds

## Clips per Tag

| Tag | Number of Clips |
|-----|-----------------|
{{range .Tags}}| ` + "`{{.Tag}}`" + ` | {{.Count}} |
{{end}}`))

// RenderReport writes the markdown report for the given clip records.
func RenderReport(w io.Writer, records []clip.ClipRecord) error {
	data := reportData{TotalClips: len(records)}

	counts := make(map[string]int)
	var totalDuration float64
	for _, r := range records {
		counts[r.Tag]++
		totalDuration += r.Duration
	}
	if len(records) > 0 {
		data.AvgDuration = totalDuration / float64(len(records))
	}

	for tag, count := range counts {
		data.Tags = append(data.Tags, tagCount{Tag: tag, Count: count})
	}
	sort.Slice(data.Tags, func(i, j int) bool {
		if data.Tags[i].Count != data.Tags[j].Count {
			return data.Tags[i].Count > data.Tags[j].Count
		}
		return data.Tags[i].Tag < data.Tags[j].Tag
	})

	return reportTemplate.Execute(w, data)
}
