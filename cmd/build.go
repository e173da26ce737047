package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Build a BVH for the scene, validate it and display build statistics.
func BuildScene(ctx *cli.Context) error {
	setupLogging(ctx)

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	if err = sc.index.Validate(); err != nil {
		return err
	}

	displayBuildStats(sc)
	return nil
}

func displayBuildStats(sc *loadedScene) {
	stats := sc.stats
	bounds := sc.index.Bounds()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.AppendBulk([][]string{
		{"Payloads", fmt.Sprintf("%d", sc.index.Len())},
		{"Nodes", fmt.Sprintf("%d", stats.NodeCount)},
		{"Leafs", fmt.Sprintf("%d", stats.LeafCount)},
		{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)},
		{"Payloads per leaf", fmt.Sprintf("%d - %d", stats.MinLeafPayloads, stats.MaxLeafPayloads)},
		{"SAH cost", fmt.Sprintf("%.3f", sc.index.SAHCost())},
		{"Bounds", fmt.Sprintf("%v - %v", bounds.Min, bounds.Max)},
	})
	table.SetFooter([]string{"Build time", stats.BuildTime.String()})
	table.Render()
	logger.Noticef("BVH statistics\n%s", buf.String())
}
