package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/studyplan/internal/config"
	"github.com/dgallion1/studyplan/internal/parser"
	"github.com/dgallion1/studyplan/internal/plan"
	"github.com/dgallion1/studyplan/internal/segment"
	"github.com/dgallion1/studyplan/internal/weight"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	output    string
	rulesFile string
	strategy  string
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Turn a syllabus into a day-by-day study plan",
		Long: `planctl extracts topics from a syllabus document and spreads them across
a number of study days, weighting harder topics more heavily.

Supported inputs: .txt, .md, .html, .csv, .docx, .pdf and images (via OCR).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&g.output, "output", "o", "yaml",
		"output format: yaml, json, text, markdown or html")
	root.PersistentFlags().StringVar(&g.rulesFile, "rules", "",
		"YAML file with segmentation rules and keyword weights")
	root.PersistentFlags().StringVar(&g.strategy, "strategy", weight.Keyword,
		"weighting strategy: keyword or length")

	root.AddCommand(
		newSegmentCmd(g),
		newGenerateCmd(g),
		newAdjustCmd(g),
		newChatCmd(g),
	)
	return root
}

// generator builds the segment and weight pipeline from the global flags.
func (g *globals) generator() (*plan.Generator, error) {
	rules, err := config.LoadRules(g.rulesFile)
	if err != nil {
		return nil, err
	}
	seg, err := segment.New(rules.Segment)
	if err != nil {
		return nil, err
	}
	strategy, err := weight.ForName(g.strategy, rules.Keywords)
	if err != nil {
		return nil, err
	}
	return plan.NewGenerator(seg, strategy), nil
}

// extract reads and concatenates the text of every named file.
func extract(paths []string) (string, error) {
	sources := make([]parser.Source, 0, len(paths))
	for _, p := range paths {
		f, err := openFile(p)
		if err != nil {
			return "", err
		}
		defer f.Close()
		sources = append(sources, parser.Source{Name: p, R: f})
	}
	return parser.ExtractAll(sources, parser.DefaultOptions())
}
