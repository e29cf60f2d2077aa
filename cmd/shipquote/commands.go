package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
	"gopkg.in/yaml.v3"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
	"github.com/hapkiduki/shipping-quote/internal/application/service"
	"github.com/hapkiduki/shipping-quote/internal/domain/shipping"
	"github.com/hapkiduki/shipping-quote/internal/domain/valueobject"
	"github.com/hapkiduki/shipping-quote/internal/infrastructure/observability"
	"github.com/hapkiduki/shipping-quote/pkg/logger"
)

// Output formats.
const (
	outputJSON = "json"
	outputText = "text"
)

// options holds the flags shared by every subcommand.
type options struct {
	weight   float64
	dims     string
	from     string
	to       string
	service  string
	declared int64
	file     string
	output   string
	verbose  bool
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "shipquote",
		Short:        "Price parcel shipments",
		Long:         `Computes shipping quotes for parcels between US ZIP codes.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.Float64Var(&opts.weight, "weight", 0, "actual weight in kg")
	flags.StringVar(&opts.dims, "dims", "", "dimensions in cm as LxWxH (e.g., 30x20x15)")
	flags.StringVar(&opts.from, "from", "", "origin ZIP code")
	flags.StringVar(&opts.to, "to", "", "destination ZIP code")
	flags.StringVar(&opts.service, "service", valueobject.ServiceStandard.String(), "service type: standard, express or overnight")
	flags.Int64Var(&opts.declared, "declared", 0, "declared value in cents")
	flags.StringVarP(&opts.file, "file", "f", "", "read the shipment from a YAML or JSON file")
	flags.StringVarP(&opts.output, "output", "o", outputText, "output format: text or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newQuoteCmd(opts), newCompareCmd(opts))
	return root
}

// =============================================================================
// QUOTE COMMAND
// =============================================================================

func newQuoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quote",
		Short: "Quote one shipment at one service level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, req, err := prepare(cmd, opts)
			if err != nil {
				return err
			}

			resp, err := svc.Quote(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}

			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return writeQuoteText(cmd.OutOrStdout(), resp)
		},
	}
}

// =============================================================================
// COMPARE COMMAND
// =============================================================================

func newCompareCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compare",
		Short: "Quote one shipment at every service level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, req, err := prepare(cmd, opts)
			if err != nil {
				return err
			}

			resp, err := svc.Compare(cmd.Context(), req)
			if err != nil {
				return describe(err)
			}

			if opts.output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			return writeCompareText(cmd.OutOrStdout(), resp)
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func prepare(cmd *cobra.Command, opts *options) (*service.QuoteService, dto.QuoteRequest, error) {
	if opts.output != outputJSON && opts.output != outputText {
		return nil, dto.QuoteRequest{}, fmt.Errorf("unknown output format %q: want %s or %s", opts.output, outputText, outputJSON)
	}

	req, err := buildRequest(cmd, opts)
	if err != nil {
		return nil, dto.QuoteRequest{}, err
	}

	svc, err := newQuoteService(cmd.ErrOrStderr(), opts.verbose)
	if err != nil {
		return nil, dto.QuoteRequest{}, err
	}

	if cmd.Context() == nil {
		cmd.SetContext(context.Background())
	}
	return svc, req, nil
}

// buildRequest reads the optional file and applies explicitly set flags on top.
func buildRequest(cmd *cobra.Command, opts *options) (dto.QuoteRequest, error) {
	var req dto.QuoteRequest

	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return req, fmt.Errorf("read shipment file: %w", err)
		}
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("parse shipment file %s: %w", opts.file, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("weight") {
		req.WeightKg = &opts.weight
	}
	if flags.Changed("dims") {
		d, err := valueobject.ParseDimensions(opts.dims)
		if err != nil {
			return req, fmt.Errorf("--dims: %w", err)
		}
		req.Dimensions = &dto.DimensionsRequest{Length: &d.Length, Width: &d.Width, Height: &d.Height}
	}
	if flags.Changed("from") {
		req.OriginPostalCode = &opts.from
	}
	if flags.Changed("to") {
		req.DestinationPostalCode = &opts.to
	}
	if flags.Changed("service") || req.ServiceType == nil {
		req.ServiceType = &opts.service
	}
	if flags.Changed("declared") {
		req.DeclaredValueCents = &opts.declared
	}
	return req, nil
}

func newQuoteService(stderr io.Writer, verbose bool) (*service.QuoteService, error) {
	cfg := logger.DefaultConfig()
	cfg.Level = "error"
	if verbose {
		cfg.Level = "debug"
	}
	cfg.Format = "console"
	cfg.Output = stderr

	log, err := logger.New(cfg)
	if err != nil {
		return nil, err
	}

	return service.NewQuoteService(
		shipping.NewCalculator(),
		observability.NewLoggerAdapter(log),
		observability.NewPrometheusMetrics("shipquote", prometheus.NewRegistry()),
		observability.NewOtelTracer(noop.NewTracerProvider(), "shipquote"),
		service.DefaultConfig(),
	), nil
}

// describe turns service errors into one-line CLI messages.
func describe(err error) error {
	apiErr := dto.NewAPIError(err)
	if apiErr.Code != dto.CodeValidationError || len(apiErr.ValidationErrors) == 0 {
		return err
	}
	if len(apiErr.ValidationErrors) == 1 {
		v := apiErr.ValidationErrors[0]
		return fmt.Errorf("invalid %s: %s", v.Field, v.Message)
	}
	return fmt.Errorf("invalid request: %w", err)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cents(c int64) string {
	return valueobject.USD(c).Format()
}

func writeQuoteText(w io.Writer, q *dto.QuoteResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Quote ID\t%s\n", q.QuoteID)
	fmt.Fprintf(tw, "Service\t%s (%s)\n", q.ServiceLevel, q.ServiceType)
	fmt.Fprintf(tw, "Base rate\t%s\n", cents(q.BaseRateCents))
	fmt.Fprintf(tw, "Fuel surcharge\t%s\n", cents(q.FuelSurchargeCents))
	fmt.Fprintf(tw, "Insurance\t%s\n", cents(q.InsuranceFeeCents))
	fmt.Fprintf(tw, "Total\t%s\n", q.TotalCost)
	fmt.Fprintf(tw, "Estimated days\t%d\n", q.EstimatedDays)
	fmt.Fprintf(tw, "Effective weight\t%.2f kg\n", q.EffectiveWeightKg)
	fmt.Fprintf(tw, "Route\t%s (%.1f mi)\n", q.RouteBand, q.DistanceMiles)
	return tw.Flush()
}

func writeCompareText(w io.Writer, c *dto.CompareResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tLEVEL\tTOTAL\tDAYS")
	for _, q := range c.Quotes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", q.ServiceType, q.ServiceLevel, q.TotalCost, q.EstimatedDays)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nCheapest: %s  Fastest: %s\n", c.Cheapest, c.Fastest)
	return err
}
