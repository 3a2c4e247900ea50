package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mwantia/fdatracker/internal/importer"
	"github.com/mwantia/fdatracker/internal/remote"
	"github.com/mwantia/fdatracker/pkg/approval"
	"github.com/mwantia/fdatracker/pkg/filter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewDataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Work with approval datasets",
		Long:  "Filter, fingerprint, deduplicate and import approval datasets locally or against a running agent.",
	}

	cmd.PersistentFlags().String("server", "http://localhost:8080", "agent base URL")
	cmd.PersistentFlags().String("token", "", "bearer token for the agent")
	viper.BindPFlag("client.server", cmd.PersistentFlags().Lookup("server"))
	viper.BindPFlag("client.token", cmd.PersistentFlags().Lookup("token"))

	cmd.AddCommand(NewDataFilterCommand())
	cmd.AddCommand(NewDataFingerprintCommand())
	cmd.AddCommand(NewDataDedupCommand())
	cmd.AddCommand(NewDataImportCommand())
	cmd.AddCommand(NewDataPullCommand())

	return cmd
}

func NewDataFilterCommand() *cobra.Command {
	criteria := filter.Default()
	var dateRange, now string

	cmd := &cobra.Command{
		Use:   "filter <file|->",
		Short: "Filter a JSON dataset",
		Long:  "Applies the dashboard filters to a JSON array of approvals and prints the matching records.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}

			criteria.DateRange = filter.DateRange(dateRange)
			if !criteria.DateRange.Valid() {
				return fmt.Errorf("unknown date range %q", dateRange)
			}

			reference := time.Now()
			if now != "" {
				t, ok := approval.ParseApprovalDate(now)
				if !ok {
					return fmt.Errorf("invalid --now %q", now)
				}
				reference = t
			}

			return writeJSON(cmd.OutOrStdout(), filter.Apply(records, criteria, reference))
		},
	}

	cmd.Flags().StringVar(&dateRange, "range", string(filter.RangeAll), "date range (all, custom, 1m, 3m, 6m, 1y, 2y)")
	cmd.Flags().StringVar(&criteria.StartDate, "start", "", "custom range start date")
	cmd.Flags().StringVar(&criteria.EndDate, "end", "", "custom range end date (inclusive)")
	cmd.Flags().StringVar(&criteria.ApplicationType, "type", filter.All, "application type")
	cmd.Flags().StringVar(&criteria.Sponsor, "sponsor", filter.All, "sponsor")
	cmd.Flags().StringVar(&criteria.TherapeuticArea, "area", filter.All, "therapeutic area")
	cmd.Flags().StringVar(&criteria.IsOncology, "oncology", filter.All, "oncology flag (all, true, false)")
	cmd.Flags().StringVar(&criteria.IsBiosimilar, "biosimilar", filter.All, "biosimilar flag (all, true, false)")
	cmd.Flags().StringVar(&criteria.IsNovelDrug, "novel", filter.All, "novel drug flag (all, true, false)")
	cmd.Flags().StringVar(&criteria.IsOrphanDrug, "orphan", filter.All, "orphan drug flag (all, true, false)")
	cmd.Flags().StringVar(&now, "now", "", "reference date for relative ranges (default is the current time)")

	return cmd
}

func NewDataFingerprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <file|->",
		Short: "Print the fingerprint of a JSON dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), approval.Fingerprint(records))
			return nil
		},
	}
}

func NewDataDedupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup <file|->",
		Short: "Drop duplicate approvals from a JSON dataset",
		Long:  "Keeps the first record of every identity key (application number, approval date, supplement) and prints the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readDataset(cmd, args[0])
			if err != nil {
				return err
			}

			deduped := approval.Deduplicate(records)
			fmt.Fprintf(cmd.ErrOrStderr(), "Removed %d duplicate(s)\n", len(records)-len(deduped))
			return writeJSON(cmd.OutOrStdout(), deduped)
		},
	}
}

func NewDataImportCommand() *cobra.Command {
	var (
		push  bool
		notes string
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv|->",
		Short: "Convert a CSV upload, optionally pushing it to the agent",
		Long: `Parses a CSV export (English or Korean headers) into approvals.

Without --push the records are printed as JSON. With --push they are merged
into the latest published dataset of the agent and saved as a new version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFn, err := open(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := importer.Parse(in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Accepted %d, rejected %d row(s)\n", result.Accepted, result.Rejected)

			if !push {
				return writeJSON(cmd.OutOrStdout(), result.Records)
			}

			client := newRemoteClient()
			snapshot, err := client.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load current dataset: %w", err)
			}

			var existing []approval.DrugApproval
			if snapshot != nil {
				existing = snapshot.Records
			}

			merged, added := approval.MergeIncoming(existing, result.Records)
			if added == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing new to import")
				return nil
			}

			version, err := client.Save(cmd.Context(), merged, notes)
			if err != nil {
				return fmt.Errorf("failed to save dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d record(s), saved version %d\n", added, version)
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "merge into the agent's dataset and save a new version")
	cmd.Flags().StringVar(&notes, "notes", "", "notes stored with the new version")

	return cmd
}

func NewDataPullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Print the latest published dataset of the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot, err := newRemoteClient().Load(cmd.Context())
			if err != nil {
				return err
			}
			if snapshot == nil {
				return fmt.Errorf("no published version")
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Version %d, %d record(s), updated %s\n",
				snapshot.Version, len(snapshot.Records), snapshot.UpdatedAt.Format(time.RFC3339))
			return writeJSON(cmd.OutOrStdout(), snapshot.Records)
		},
	}
}

func newRemoteClient() *remote.Client {
	return remote.NewClient(viper.GetString("client.server"), viper.GetString("client.token"), 60*time.Second)
}

func open(cmd *cobra.Command, path string) (io.Reader, func() error, error) {
	if path == "-" {
		return cmd.InOrStdin(), func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, f.Close, nil
}

func readDataset(cmd *cobra.Command, path string) ([]approval.DrugApproval, error) {
	in, closeFn, err := open(cmd, path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var records []approval.DrugApproval
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return records, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
