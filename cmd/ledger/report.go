package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kjk/ledger/log"
	"github.com/kjk/ledger/txstore"
	"github.com/kjk/ledger/u"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"github.com/toon-format/toon-go"
)

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show sum of incomes minus sum of expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			b := txstore.Balance(s.List(false))
			fmt.Fprintln(cmd.OutOrStdout(), b.StringFixed(txstore.AmountScale))
			return nil
		},
	}
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals and time since first and last transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			sum := txstore.Summarize(s.List(false), a.now(), a.loc)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, row := range sum.Rows(a.loc) {
				fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
			}
			return tw.Flush()
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that data and index files are consistent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if err = s.Verify(); err != nil {
				return err
			}
			if err = s.Recovered(); err != nil {
				return err
			}
			dataPath, indexPath := s.Paths()
			fmt.Fprintf(cmd.OutOrStdout(), "ok, %d records, data: %s, index: %s\n", s.Len(), u.FormatSize(u.FileSize(dataPath)), u.FormatSize(u.FileSize(indexPath)))
			return nil
		},
	}
}

type exportedTransaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Deleted     bool   `json:"deleted,omitempty"`
}

func toExported(txs []*txstore.Transaction) []exportedTransaction {
	res := make([]exportedTransaction, 0, len(txs))
	for _, tx := range txs {
		res = append(res, exportedTransaction{
			ID:          tx.ID.String(),
			Date:        tx.OccurredAt.UTC().Format(time.RFC3339),
			Type:        tx.Kind.String(),
			Category:    tx.Category.String(),
			Amount:      tx.Amount.StringFixed(txstore.AmountScale),
			Description: tx.Description,
			Deleted:     tx.Deleted,
		})
	}
	return res
}

func exportJSON(account string, txs []*txstore.Transaction) ([]byte, error) {
	v := struct {
		Account      string                `json:"account"`
		Transactions []exportedTransaction `json:"transactions"`
	}{
		Account:      account,
		Transactions: toExported(txs),
	}
	d, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(d), nil
}

// toon is most compact for uniform rows so each transaction is a map
// with the same keys
func exportToon(account string, txs []*txstore.Transaction) ([]byte, error) {
	var rows []map[string]any
	for _, e := range toExported(txs) {
		rows = append(rows, map[string]any{
			"id":          e.ID,
			"date":        e.Date,
			"type":        e.Type,
			"category":    e.Category,
			"amount":      e.Amount,
			"description": e.Description,
			"deleted":     e.Deleted,
		})
	}
	m := map[string]any{
		"account":      account,
		"transactions": rows,
	}
	d, err := toon.Marshal(m)
	if err != nil {
		return nil, err
	}
	if len(d) > 0 && d[len(d)-1] != '\n' {
		d = append(d, '\n')
	}
	return d, nil
}

func newExportCmd(a *app) *cobra.Command {
	var format, outPath string
	var deleted bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as json or toon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			txs := s.List(false)
			if deleted {
				txs = append(txs, s.List(true)...)
			}
			var d []byte
			switch format {
			case "json":
				d, err = exportJSON(s.Name(), txs)
			case "toon":
				d, err = exportToon(s.Name(), txs)
			default:
				return fmt.Errorf("unknown format '%s', must be json or toon", format)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), outPath, d)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", "json", "json or toon")
	flags.StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	flags.BoolVar(&deleted, "deleted", false, "also export deleted transactions")
	return cmd
}

func writeOutput(w io.Writer, path string, d []byte) error {
	if path == "" {
		_, err := w.Write(d)
		return err
	}
	if err := os.WriteFile(path, d, 0644); err != nil {
		return err
	}
	log.Verbosef("wrote '%s'\n", path)
	return nil
}
