package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"ecframe-go/aggr"
	"ecframe-go/config"
	"ecframe-go/dataframe"
	"ecframe-go/output"
	"ecframe-go/record"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
	format     string
	limit      int

	sumCols   []string
	minCols   []string
	maxCols   []string
	avgCols   []string
	countCols []string
	groupBy   []string
)

var rootCmd = &cobra.Command{
	Use:   "ecframe",
	Short: "Load, aggregate and render data frames",
	Long: `ecframe loads CSV, Parquet or Arrow IPC files, local or from s3://bucket/key, into a data frame
and prints it, aggregates it or converts it to Parquet or Arrow IPC.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a file as a data frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := record.LoadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), df)
	},
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate <file>",
	Short: "Aggregate columns of a file, optionally grouped",
	Example: `  ecframe aggregate sales.csv --sum Amount --avg Price --by Region
  ecframe aggregate s3://bucket/sales.parquet --min Price --max Price --format table`,
	Args: cobra.ExactArgs(1),
	RunE: runAggregate,
}

var convertCmd = &cobra.Command{
	Use:   "convert <file> <out.parquet|out.arrow>",
	Short: "Write a file as Parquet or as an Arrow IPC stream",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		df, err := record.LoadFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := os.Create(args[1])
		if err != nil {
			return err
		}
		write := record.WriteParquet
		if strings.HasSuffix(args[1], ".arrow") {
			write = record.WriteIPC
		}
		if err := write(out, df); err != nil {
			out.Close()
			return err
		}
		log.Printf("wrote %d rows to %s", df.RowCount(), args[1])
		return out.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "file holding S3 credentials")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "csv", "output format: csv or table")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "l", -1, "maximum rows to print, 0 for all (default from config)")

	aggregateCmd.Flags().StringSliceVar(&sumCols, "sum", nil, "columns to sum")
	aggregateCmd.Flags().StringSliceVar(&minCols, "min", nil, "columns to take the minimum of")
	aggregateCmd.Flags().StringSliceVar(&maxCols, "max", nil, "columns to take the maximum of")
	aggregateCmd.Flags().StringSliceVar(&avgCols, "avg", nil, "columns to average")
	aggregateCmd.Flags().StringSliceVar(&countCols, "count", nil, "columns to count non-null values of")
	aggregateCmd.Flags().StringSliceVar(&groupBy, "by", nil, "group by columns")

	rootCmd.AddCommand(showCmd, aggregateCmd, convertCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		if err := config.Decode(configPath); err != nil {
			return err
		}
	}
	return config.LoadSecrets(envFile)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	fns := aggregateFunctions()
	if len(fns) == 0 {
		return fmt.Errorf("nothing to aggregate, pass at least one of --sum, --min, --max, --avg or --count")
	}
	df, err := record.LoadFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	result, err := aggr.DefaultEngine().AggregateBy(df, fns, groupBy)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), result)
}

func aggregateFunctions() []aggr.AggregateFunction {
	var fns []aggr.AggregateFunction
	add := func(columns []string, build func(string) aggr.AggregateFunction) {
		for _, c := range columns {
			if c = strings.TrimSpace(c); c != "" {
				fns = append(fns, build(c))
			}
		}
	}
	add(sumCols, aggr.Sum)
	add(minCols, aggr.Min)
	add(maxCols, aggr.Max)
	add(avgCols, aggr.Avg)
	add(countCols, aggr.Count)
	return fns
}

func render(w io.Writer, df *dataframe.DataFrame) error {
	cfg := config.GetConfig().Output
	rows := limit
	if rows < 0 {
		rows = cfg.CSVRowLimit
	}
	switch format {
	case "csv":
		return output.WriteCSV(w, df, rows)
	case "table":
		return output.RenderTable(w, df, cfg.TableStyle, rows)
	}
	return fmt.Errorf("unknown output format %q, expected csv or table", format)
}
