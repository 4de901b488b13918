package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"booking-service/internal/config"
	"booking-service/internal/model"
	"booking-service/internal/repository"
	"booking-service/internal/schedule"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func loadSchedule(cfg *config.Config) (schedule.Catalogue, []model.WeeklyScheduleRule, error) {
	catalogue, err := cfg.Catalogue()
	if err != nil {
		return nil, nil, err
	}
	rules, err := cfg.Rules(catalogue)
	if err != nil {
		return nil, nil, err
	}
	return catalogue, rules, nil
}

func newRulesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Validate and print the weekly schedule rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			_, rules, err := loadSchedule(cfg)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "START\tEND\tDAYS\tINTERVAL\tSESSION TYPE")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.Start, r.End, r.Days, r.IntervalMinutes, r.SessionType)
			}
			return tw.Flush()
		},
	}
}

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var (
		dateFlag     string
		sessionType  string
		withBookings bool
	)

	c := &cobra.Command{
		Use:   "slots",
		Short: "Show the slots offered on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := model.ParseDate(dateFlag)
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			catalogue, rules, err := loadSchedule(cfg)
			if err != nil {
				return err
			}
			if sessionType != "" {
				if _, ok := catalogue.Lookup(model.SessionType(sessionType)); !ok {
					return fmt.Errorf("unknown session type %q", sessionType)
				}
			}

			slots := schedule.NewResolver(rules).ResolveType(date, model.SessionType(sessionType))

			if withBookings && len(slots) > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
				defer cancel()

				db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DatabaseURL())
				if err != nil {
					return fmt.Errorf("connect database: %w", err)
				}
				defer db.Close()

				bookings, err := repository.NewPostgresBookingRepository(db).ListByDate(ctx, date)
				if err != nil {
					return err
				}
				slots = schedule.Merge(slots, bookings)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", date, date.Weekday())
			if len(slots) == 0 {
				fmt.Fprintln(out, "no slots offered")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "START\tEND\tSESSION TYPE\tSTATUS")
			for _, s := range slots {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.StartTime, s.EndTime, s.SessionType, s.Status)
			}
			return tw.Flush()
		},
	}
	c.Flags().StringVar(&dateFlag, "date", "", "date as YYYY-MM-DD")
	c.Flags().StringVar(&sessionType, "type", "", "only this session type")
	c.Flags().BoolVar(&withBookings, "with-bookings", false, "mark booked slots using the database")
	_ = c.MarkFlagRequired("date")
	return c
}
