package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/salondesk/libs/config"
	"github.com/md-rashed-zaman/salondesk/libs/db"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/storage"
	"github.com/spf13/cobra"
)

type listFlags struct {
	tenant   int64
	start    string
	end      string
	viewMode string
	staffID  int64
	status   string
	search   string
}

func (f listFlags) filter() (model.Filter, error) {
	start, err := time.Parse(model.DateLayout, f.start)
	if err != nil {
		return model.Filter{}, fmt.Errorf("invalid --start %q: %w", f.start, err)
	}
	end, err := time.Parse(model.DateLayout, f.end)
	if err != nil {
		return model.Filter{}, fmt.Errorf("invalid --end %q: %w", f.end, err)
	}
	out := model.Filter{
		TenantID: f.tenant,
		Start:    start,
		End:      end,
		ViewMode: model.ParseViewMode(f.viewMode),
		Status:   f.status,
		Search:   f.search,
	}
	if f.staffID != 0 {
		staffID := f.staffID
		out.StaffID = &staffID
	}
	out = out.Normalized()
	return out, out.Validate()
}

func openRepo(ctx context.Context) (*storage.AppointmentRepository, func(), error) {
	dsn, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.Open(ctx, dsn, db.Options{MaxConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return storage.NewAppointmentRepository(pool), pool.Close, nil
}

func appointmentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "Inspect appointments",
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's appointments in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := lf.filter()
			if err != nil {
				return err
			}
			repo, closeFn, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			appts, err := repo.ListRange(cmd.Context(), f)
			if err != nil {
				return err
			}
			return writeAppointments(cmd.OutOrStdout(), appts)
		},
	}
	list.Flags().Int64Var(&lf.tenant, "tenant", 0, "tenant id")
	list.Flags().StringVar(&lf.start, "start", "", "first date (YYYY-MM-DD)")
	list.Flags().StringVar(&lf.end, "end", "", "last date (YYYY-MM-DD)")
	list.Flags().StringVar(&lf.viewMode, "view-mode", "", "month, week or day")
	list.Flags().Int64Var(&lf.staffID, "staff-id", 0, "only this staff member")
	list.Flags().StringVar(&lf.status, "status", "", "only this status")
	list.Flags().StringVar(&lf.search, "search", "", "customer name, email or phone")
	_ = list.MarkFlagRequired("tenant")
	_ = list.MarkFlagRequired("start")
	_ = list.MarkFlagRequired("end")
	cmd.AddCommand(list)
	return cmd
}

func writeAppointments(w io.Writer, appts []model.Appointment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tSTART\tEND\tSTATUS\tCUSTOMER\tSERVICE\tSTAFF")
	for _, a := range appts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Date.Format(model.DateLayout), a.StartTime, a.EndTime, a.Status,
			model.DisplayName(a.CustomerFirstName, a.CustomerLastName), a.ServiceName, a.StaffName)
	}
	return tw.Flush()
}

func staffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Inspect staff",
	}

	var tenant int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List a tenant's staff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenant <= 0 {
				return fmt.Errorf("--tenant must be positive")
			}
			repo, closeFn, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			staff, err := repo.ListStaff(cmd.Context(), tenant)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, s := range staff {
				fmt.Fprintf(tw, "%d\t%s\n", s.ID, s.Name)
			}
			return tw.Flush()
		},
	}
	list.Flags().Int64Var(&tenant, "tenant", 0, "tenant id")
	cmd.AddCommand(list)
	return cmd
}
