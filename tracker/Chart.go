package tracker

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders the training curves (episodic return, score, and
// episode length, one point per completed episode) to an HTML file at
// path
func WriteChart(path string, s *Statistics) error {
	episodes := make([]string, s.Episodes())
	for i := range episodes {
		episodes[i] = fmt.Sprintf("%d", i+1)
	}

	rewards := make([]opts.LineData, s.Episodes())
	scores := make([]opts.LineData, s.Episodes())
	lengths := make([]opts.LineData, s.Episodes())
	for i := 0; i < s.Episodes(); i++ {
		rewards[i] = opts.LineData{Value: s.Rewards[i]}
		scores[i] = opts.LineData{Value: s.Scores[i]}
		lengths[i] = opts.LineData{Value: s.Lengths[i]}
	}

	returnLine := charts.NewLine()
	returnLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Episodic return"}),
	)
	returnLine.SetXAxis(episodes).AddSeries("return", rewards)

	scoreLine := charts.NewLine()
	scoreLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Score and episode length"}),
	)
	scoreLine.SetXAxis(episodes).
		AddSeries("score", scores).
		AddSeries("steps", lengths)

	page := components.NewPage()
	page.AddCharts(returnLine, scoreLine)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writechart: could not create %v: %v", path, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("writechart: could not render chart: %v", err)
	}

	return nil
}
