package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/studyplan/internal/chat"
	"github.com/dgallion1/studyplan/internal/plan"
)

type topicRow struct {
	Topic  string  `json:"topic" yaml:"topic"`
	Weight float64 `json:"weight" yaml:"weight"`
}

func newSegmentCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "segment FILE...",
		Short: "List the topics found in a syllabus with their weights",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := g.generator()
			if err != nil {
				return err
			}
			text, err := extract(args)
			if err != nil {
				return err
			}
			topics := gen.Topics(text)
			if g.output == "text" {
				for _, t := range topics {
					fmt.Fprintf(cmd.OutOrStdout(), "%g\t%s\n", t.Weight, t.Name)
				}
				return nil
			}
			rows := make([]topicRow, len(topics))
			for i, t := range topics {
				rows[i] = topicRow{Topic: t.Name, Weight: t.Weight}
			}
			return writeData(cmd.OutOrStdout(), g.output, rows)
		},
	}
}

func newGenerateCmd(g *globals) *cobra.Command {
	var (
		days  int
		hours float64
	)
	cmd := &cobra.Command{
		Use:   "generate FILE...",
		Short: "Build a study plan from one or more syllabus files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := g.generator()
			if err != nil {
				return err
			}
			text, err := extract(args)
			if err != nil {
				return err
			}
			p, err := gen.Generate(text, days, hours)
			if errors.Is(err, plan.ErrNoTopics) {
				return errors.New(plan.NoTopicsMessage)
			}
			if err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), g.output, p)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of study days")
	cmd.Flags().Float64Var(&hours, "hours", 4, "study hours per day")
	return cmd
}

func newAdjustCmd(g *globals) *cobra.Command {
	var (
		day   int
		hours float64
	)
	cmd := &cobra.Command{
		Use:   "adjust PLAN_FILE",
		Short: "Rescale one day of a saved plan to a new hour budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPlan(args[0])
			if err != nil {
				return err
			}
			if err := plan.Adjust(p, day-1, hours); err != nil {
				return err
			}
			return writePlan(cmd.OutOrStdout(), g.output, p)
		},
	}
	cmd.Flags().IntVar(&day, "day", 0, "day number to adjust, starting at 1")
	cmd.Flags().Float64Var(&hours, "hours", 0, "new hour budget for the day")
	cmd.MarkFlagRequired("day")
	cmd.MarkFlagRequired("hours")
	return cmd
}

func newChatCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "chat PLAN_FILE MESSAGE...",
		Short: `Apply a chat command such as "busy on day 2, available 1 hour"`,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := readPlan(args[0])
			if err != nil {
				return err
			}
			resp := chat.Interpret(strings.Join(args[1:], " "), p)
			out := cmd.OutOrStdout()
			if g.output == "yaml" || g.output == "json" {
				return writeData(out, g.output, resp)
			}
			fmt.Fprintln(out, resp.Response)
			if resp.UpdatedPlan == nil {
				return nil
			}
			fmt.Fprintln(out)
			return writePlan(out, g.output, resp.UpdatedPlan)
		},
	}
}
