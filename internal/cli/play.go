package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/spf13/cobra"
)

// NewPlayCmd runs one quiz session on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		mode     string
		category string
		count    int
		fansOnly bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.shutdown(context.Background())

			opts := app.StartOptions{Count: count, FansOnly: fansOnly}
			var snap app.Snapshot
			switch domain.Mode(mode) {
			case domain.ModeDaily:
				snap, err = rt.engine.StartDaily(ctx)
			case domain.ModeRandom:
				snap, err = rt.engine.StartRandom(ctx, opts)
			case domain.ModeCategory:
				snap, err = rt.engine.StartCategory(ctx, domain.Category(category), opts)
			default:
				return fmt.Errorf("unknown mode %q", mode)
			}
			if err != nil {
				return err
			}
			return playSession(ctx, rt.engine, snap, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeRandom), "daily, random or category")
	cmd.Flags().StringVar(&category, "category", "", "category for --mode category")
	cmd.Flags().IntVar(&count, "count", 0, "questions per session (defaults to the saved setting)")
	cmd.Flags().BoolVar(&fansOnly, "fans-only", false, "prefer harder questions")
	return cmd
}

func playSession(ctx context.Context, engine *app.Engine, snap app.Snapshot, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		q := snap.Current
		fmt.Fprintf(out, "\n[%d/%d] %s\n", snap.Pointer+1, snap.Total, q.Prompt)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}
		if q.Type == domain.TypeMultiple {
			fmt.Fprintln(out, "(kilka odpowiedzi, np. 1,3)")
		}

		var correct bool
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return err
				}
				engine.Reset()
				return errors.New("input closed; session abandoned")
			}
			selected, err := parseSelection(scanner.Text(), len(q.Options))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if correct, err = engine.Answer(q.ID, selected); err != nil {
				return err
			}
			break
		}
		if correct {
			fmt.Fprintln(out, "Dobrze!")
		} else {
			fmt.Fprintf(out, "Źle. Poprawna odpowiedź: %s\n", joinOptions(q))
		}
		if q.Explanation != "" {
			fmt.Fprintln(out, q.Explanation)
		}

		if snap.IsLast {
			break
		}
		next, err := engine.Next()
		if err != nil {
			return err
		}
		snap = next
	}

	outcome, err := engine.Finish(ctx)
	if err != nil {
		return err
	}
	r := outcome.Result
	fmt.Fprintf(out, "\nWynik: %d/%d (%d%%), punkty %d/%d\n", r.CorrectCount, r.TotalQuestions, r.Percent, r.EarnedPoints, r.TotalPoints)
	fmt.Fprintf(out, "%s %s\n", outcome.Title.Icon, outcome.Title.Title)
	if outcome.NewBest {
		fmt.Fprintln(out, "Nowy rekord!")
	}
	fmt.Fprintf(out, "Punkty fana: +%d (razem %d)\n", outcome.FanPointsEarned, outcome.FanPointsTotal)
	if outcome.RankedUp {
		fmt.Fprintf(out, "Awans! %s %s\n", outcome.RankAfter.Icon, outcome.RankAfter.Title)
	}
	fmt.Fprintf(out, "\n%s\n", engine.ShareText(outcome, outcome.Mode == domain.ModeDaily))
	return nil
}

// parseSelection reads 1-based option numbers separated by commas or spaces.
func parseSelection(line string, options int) ([]int, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return nil, errors.New("podaj numer odpowiedzi")
	}
	selected := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 || n > options {
			return nil, fmt.Errorf("niepoprawna odpowiedź %q", f)
		}
		selected = append(selected, n-1)
	}
	return selected, nil
}

func joinOptions(q *domain.Question) string {
	names := make([]string, 0, len(q.CorrectAnswers))
	for _, idx := range q.CorrectAnswers {
		names = append(names, q.Options[idx])
	}
	return strings.Join(names, ", ")
}

// NewDailyCmd prints today's daily question set without starting it.
func NewDailyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Show today's daily challenge questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.shutdown(context.Background())

			questions, err := rt.bank.Questions(ctx)
			if err != nil {
				return err
			}
			today := rt.progress.Today()
			out := cmd.OutOrStdout()
			status := "do zagrania"
			if rt.progress.IsDailyCompleted() {
				status = "ukończony"
			}
			fmt.Fprintf(out, "Quiz Dnia %s (%s)\n", today, status)
			for i, q := range app.SampleDaily(questions, today, app.DailyQuestionCount) {
				fmt.Fprintf(out, "%2d. [%s/%s] %s\n", i+1, q.Category, q.Difficulty, q.ID)
			}
			return nil
		},
	}
}

// NewProgressCmd prints fan points, rank, best scores and history stats.
func NewProgressCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Print saved progress as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.shutdown(context.Background())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rt.engine.Progress())
		},
	}
}

// NewResetCmd wipes progress. Settings are kept.
func NewResetCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear fan points, best scores, daily status and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			rt.engine.ClearProgress()
			if err := rt.shutdown(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "progress cleared")
			return nil
		},
	}
}
