package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/apiclient"
	"github.com/movement-pass/passctl/internal/catalog"
	"github.com/movement-pass/passctl/internal/config"
	"github.com/movement-pass/passctl/internal/deploy"
	"github.com/movement-pass/passctl/internal/domain"
	"github.com/movement-pass/passctl/internal/forms"
	"github.com/movement-pass/passctl/internal/list"
)

func newRootCommand(cfg *config.Config, logger *zap.Logger, client *apiclient.Client) *cobra.Command {
	root := &cobra.Command{
		Use:           "passctl",
		Short:         "Apply for and track movement passes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var culture string
	root.PersistentFlags().StringVar(&culture, "culture", "en", "display language (en or bn)")
	cultureOf := func() catalog.Culture { return catalog.Culture(culture) }

	root.AddCommand(
		newLoginCommand(client),
		newRegisterCommand(client),
		newLogoutCommand(client),
		newWhoamiCommand(client),
		newApplyCommand(client),
		newPhotoCommand(client),
		newPassesCommand(client, logger, cultureOf),
		newPassCommand(client, cultureOf),
		newDistrictsCommand(cultureOf),
		newReasonsCommand(cultureOf),
		newDeployCommand(cfg, logger),
	)
	return root
}

// reportDraftFailure prints validation or server feedback from a failed
// form submission and returns a terminal error for cobra.
func reportDraftFailure(cmd *cobra.Command, err error, fieldErrors map[string]string, banner string) error {
	if errors.Is(err, forms.ErrDraftInvalid) {
		fields := make([]string, 0, len(fieldErrors))
		for field := range fieldErrors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, fieldErrors[field])
		}
		return errors.New("validation failed")
	}
	if banner != "" {
		return errors.New(banner)
	}
	return err
}

func newLoginCommand(client *apiclient.Client) *cobra.Command {
	var mobile, dob string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with mobile phone and date of birth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := forms.NewLoginDraft()
			draft.SetMobilePhone(mobile)
			draft.SetDateOfBirth(dob)

			if err := draft.Submit(cmd.Context(), client); err != nil {
				return reportDraftFailure(cmd, err, draft.Errors(), draft.Banner())
			}

			user, err := client.User(cmd.Context())
			if err != nil || user == nil {
				return errors.New("login succeeded but session could not be read")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&mobile, "mobile", "", "mobile phone number (01XXXXXXXXX)")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth as ddmmyyyy")
	_ = cmd.MarkFlagRequired("mobile")
	_ = cmd.MarkFlagRequired("dob")
	return cmd
}

func newRegisterCommand(client *apiclient.Client) *cobra.Command {
	var (
		name, mobile, dob, gender, idType, idNumber, photo string
		district, thana                                    int
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new applicant account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := forms.NewRegisterDraft()
			draft.SetName(name)
			draft.SetMobilePhone(mobile)
			draft.SetDistrict(district)
			draft.SetThana(thana)
			if dob != "" {
				parsed, err := time.Parse("2006-01-02", dob)
				if err != nil {
					return fmt.Errorf("invalid --dob, want YYYY-MM-DD: %w", err)
				}
				draft.SetDateOfBirth(parsed)
			}
			draft.SetGender(gender)
			draft.SetIDType(idType)
			draft.SetIDNumber(idNumber)
			draft.SetPhotoPath(photo)

			if err := draft.Submit(cmd.Context(), client); err != nil {
				return reportDraftFailure(cmd, err, draft.Errors(), draft.Banner())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registered and logged in")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&mobile, "mobile", "", "mobile phone number (01XXXXXXXXX)")
	cmd.Flags().IntVar(&district, "district", 0, "district id")
	cmd.Flags().IntVar(&thana, "thana", 0, "thana id")
	cmd.Flags().StringVar(&dob, "dob", "", "date of birth as YYYY-MM-DD")
	cmd.Flags().StringVar(&gender, "gender", "", "gender (F, M or O)")
	cmd.Flags().StringVar(&idType, "id-type", "", "identification type (nid, dl, pp, br, sc or ec)")
	cmd.Flags().StringVar(&idNumber, "id-number", "", "identification number")
	cmd.Flags().StringVar(&photo, "photo", "", "path to a png or jpeg photo, at most 2MB")
	return cmd
}

func newLogoutCommand(client *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the local session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(client *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := client.User(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Name, user.ID)
			return nil
		},
	}
}

func newApplyCommand(client *apiclient.Client) *cobra.Command {
	var (
		from, to, at, passType, reason, vehicleNo, driverName, driverLicense string
		district, thana, hours                                               int
		includeVehicle, selfDriven                                           bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply for a movement pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft := forms.NewApplyDraft()
			draft.SetFromLocation(from)
			draft.SetToLocation(to)
			draft.SetDistrict(district)
			draft.SetThana(thana)
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at, want RFC3339: %w", err)
				}
				draft.SetDateTime(parsed)
			}
			if cmd.Flags().Changed("hours") {
				draft.SetDurationInHour(hours)
			}
			draft.SetType(passType)
			draft.SetReason(reason)
			draft.SetIncludeVehicle(includeVehicle)
			if includeVehicle {
				draft.SetVehicleNo(vehicleNo)
				draft.SetSelfDriven(selfDriven)
				if !selfDriven {
					draft.SetDriver(driverName, driverLicense)
				}
			}

			id, err := draft.Submit(cmd.Context(), client)
			if err != nil {
				return reportDraftFailure(cmd, err, draft.Errors(), draft.Banner())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pass applied: %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "starting location")
	cmd.Flags().StringVar(&to, "to", "", "destination location")
	cmd.Flags().IntVar(&district, "district", 0, "destination district id")
	cmd.Flags().IntVar(&thana, "thana", 0, "destination thana id")
	cmd.Flags().StringVar(&at, "at", "", "start time as RFC3339, between 1 hour and 1 day from now")
	cmd.Flags().IntVar(&hours, "hours", 1, "duration in hours")
	cmd.Flags().StringVar(&passType, "type", "R", "pass type (R round trip, O one way)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason for movement")
	cmd.Flags().BoolVar(&includeVehicle, "vehicle", false, "a vehicle is involved")
	cmd.Flags().StringVar(&vehicleNo, "vehicle-no", "", "vehicle registration number")
	cmd.Flags().BoolVar(&selfDriven, "self-driven", true, "applicant drives the vehicle")
	cmd.Flags().StringVar(&driverName, "driver-name", "", "driver name when not self-driven")
	cmd.Flags().StringVar(&driverLicense, "driver-license", "", "driver license number when not self-driven")
	return cmd
}

func newPhotoCommand(client *apiclient.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <file>",
		Short: "Upload a photo and print its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var contentType string
			switch strings.ToLower(filepath.Ext(path)) {
			case ".png":
				contentType = "image/png"
			case ".jpg", ".jpeg":
				contentType = "image/jpeg"
			default:
				return errors.New("photo must be a png or jpeg file")
			}

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.Size() > forms.MaxPhotoSize {
				return errors.New("photo cannot exceed 2MB in size")
			}

			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close() //nolint:errcheck

			url, err := client.UploadPhoto(cmd.Context(), contentType, filepath.Base(path), file)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newPassesCommand(client *apiclient.Client, logger *zap.Logger, cultureOf func() catalog.Culture) *cobra.Command {
	var (
		sortBy string
		desc   bool
		pages  int
	)

	cmd := &cobra.Command{
		Use:   "passes",
		Short: "List your movement passes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			col := list.Column(sortBy)
			if !list.KnownColumn(col) {
				return fmt.Errorf("unknown sort column %q", sortBy)
			}

			sync := list.NewSynchronizer(client.Passes, logger, list.WithQuiescence(30*time.Millisecond))
			defer sync.Close()

			if err := sync.LoadInitial(cmd.Context()); err != nil {
				return err
			}
			for p := 1; p < pages && !sync.Exhausted(); p++ {
				if !fetchNextPage(cmd.Context(), sync) {
					break
				}
			}

			applySort(sync, col, desc)
			printPasses(cmd, sync.Records(), cultureOf())
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(list.ColumnEndAt), "sort column (toLocation, thana, startAt, endAt, type or status)")
	cmd.Flags().BoolVar(&desc, "desc", true, "sort descending")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to fetch")
	return cmd
}

// fetchNextPage simulates a scroll to the bottom of the listing and waits
// for the resulting page to merge. Returns false when no page arrived.
func fetchNextPage(ctx context.Context, sync *list.Synchronizer) bool {
	before := len(sync.Records())
	content := float64((before + 1) * list.RowHeight)
	sync.Scroll(list.Viewport{
		ScrollTop:      content - list.RowHeight,
		ViewportHeight: list.RowHeight,
		ContentHeight:  content,
	})

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return false
		}
		if len(sync.Records()) > before || sync.Exhausted() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func applySort(sync *list.Synchronizer, col list.Column, desc bool) {
	if cur, _ := sync.ActiveSort(); cur != col {
		sync.SortBy(col)
	}
	if _, d := sync.ActiveSort(); d != desc {
		sync.SortBy(col)
	}
}

func printPasses(cmd *cobra.Command, records []domain.Pass, culture catalog.Culture) {
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes yet")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTO\tTHANA\tSTART\tEND\tTYPE\tSTATUS")
	for _, p := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID,
			p.ToLocation,
			catalog.ThanaName(p.District, p.Thana, culture),
			p.StartAt.Local().Format("2006-01-02 15:04"),
			p.EndAt.Local().Format("2006-01-02 15:04"),
			catalog.TypeName(p.Type, culture),
			p.Status)
	}
	_ = w.Flush()
}

func newPassCommand(client *apiclient.Client, cultureOf func() catalog.Culture) *cobra.Command {
	return &cobra.Command{
		Use:   "pass <id>",
		Short: "Show one movement pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := client.Pass(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			culture := cultureOf()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pass %s (%s)\n", pass.ID, pass.Status)
			fmt.Fprintf(out, "  Applicant: %s\n", pass.Applicant.Name)
			fmt.Fprintf(out, "  From:      %s\n", pass.FromLocation)
			fmt.Fprintf(out, "  To:        %s, %s, %s\n",
				pass.ToLocation,
				catalog.ThanaName(pass.District, pass.Thana, culture),
				catalog.DistrictName(pass.District, culture))
			fmt.Fprintf(out, "  When:      %s to %s\n",
				pass.StartAt.Local().Format(time.RFC1123),
				pass.EndAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "  Type:      %s\n", catalog.TypeName(pass.Type, culture))
			fmt.Fprintf(out, "  Reason:    %s\n", pass.Reason)
			if pass.IncludeVehicle {
				fmt.Fprintf(out, "  Vehicle:   %s\n", pass.VehicleNo)
				if pass.SelfDriven {
					fmt.Fprintln(out, "  Driver:    self")
				} else {
					fmt.Fprintf(out, "  Driver:    %s (%s)\n", pass.DriverName, pass.DriverLicenseNo)
				}
			}
			return nil
		},
	}
}

func newDistrictsCommand(cultureOf func() catalog.Culture) *cobra.Command {
	var withThanas bool

	cmd := &cobra.Command{
		Use:   "districts",
		Short: "List district and thana ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			culture := cultureOf()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, d := range catalog.Districts() {
				fmt.Fprintf(w, "%d\t%s\n", d.ID, d.In(culture))
				if withThanas {
					for _, t := range d.Thanas {
						fmt.Fprintf(w, "  %d\t  %s\n", t.ID, t.In(culture))
					}
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&withThanas, "thanas", false, "include thanas under each district")
	return cmd
}

func newReasonsCommand(cultureOf func() catalog.Culture) *cobra.Command {
	return &cobra.Command{
		Use:   "reasons",
		Short: "List accepted movement reasons",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(catalog.Reasons(cultureOf()), "\n"))
			return nil
		},
	}
}

func newDeployCommand(cfg *config.Config, logger *zap.Logger) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Publish a built site directory to S3 and invalidate CloudFront",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("site directory: %w", err)
			}

			deployer, err := deploy.New(cmd.Context(), cfg.Deploy, logger)
			if err != nil {
				return err
			}
			if err := deployer.Deploy(cmd.Context(), dir); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deployed %s to %s\n", dir, cfg.Deploy.Bucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "build", "built site directory")
	return cmd
}
