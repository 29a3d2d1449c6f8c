package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"oraconnect/internal/store/oracle"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var maxRows int

var queryCmd = &cobra.Command{
	Use:   "query SQL",
	Short: "Run one statement through the cursor and print the rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&maxRows, "max-rows", 100, "Maximum number of rows to print (0 = all)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := oracle.Connect(ctx, oracle.ParamsFromConfig(cfg), connectOpts...)
	if err != nil {
		return err
	}
	defer s.Close()

	rs, err := s.Cursor.FetchAll(ctx, args[0])
	if err != nil {
		return err
	}
	log.Debug().Int("rows", len(rs.Rows)).Msg("query done")
	return writeResultSet(cmd.OutOrStdout(), rs, maxRows)
}

// writeResultSet prints a tab-separated header and rows. NULLs print empty.
func writeResultSet(w io.Writer, rs *oracle.ResultSet, limit int) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, strings.Join(rs.Columns, "\t"))
	for i, row := range rs.Rows {
		if limit > 0 && i >= limit {
			fmt.Fprintf(bw, "... %d more row(s)\n", len(rs.Rows)-limit)
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(bw, strings.Join(cells, "\t"))
	}
	return bw.Flush()
}
