package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kjk/ledger/txstore"
	"github.com/spf13/cobra"
)

const timeFormat = "2006-01-02 15:04:05"

// txFlags are shared by add and update
type txFlags struct {
	kind        string
	category    string
	amount      string
	description string
	date        string
}

func (f *txFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.kind, "type", "t", "", "income or expense")
	flags.StringVarP(&f.category, "category", "c", "", "one of: food, salary, rent, transport, entertainment, other")
	flags.StringVarP(&f.amount, "amount", "a", "", "amount, e.g. 12.50")
	flags.StringVarP(&f.description, "description", "d", "", "description")
	flags.StringVar(&f.date, "date", "", "'yyyy-MM-dd HH:mm[:ss]' (default now)")
}

func newAddCmd(a *app) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := txstore.ParseKind(f.kind)
			if err != nil {
				return err
			}
			category, err := txstore.ParseCategory(f.category)
			if err != nil {
				return err
			}
			amount, err := txstore.ParseAmount(f.amount)
			if err != nil {
				return err
			}
			occurredAt := a.now()
			if f.date != "" {
				if occurredAt, err = txstore.ParseTime(f.date, a.loc); err != nil {
					return err
				}
			}
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			tx := txstore.NewTransaction(kind, category, amount, strings.TrimSpace(f.description), occurredAt)
			if err = s.Add(tx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tx.ID)
			return nil
		},
	}
	f.register(cmd)
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("amount")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a transaction",
		Long: `Change fields of a transaction. Only fields given as flags are changed.
An empty description leaves the description unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := &txstore.Update{}
			flags := cmd.Flags()
			if flags.Changed("type") {
				kind, err := txstore.ParseKind(f.kind)
				if err != nil {
					return err
				}
				upd.Kind = &kind
			}
			if flags.Changed("category") {
				category, err := txstore.ParseCategory(f.category)
				if err != nil {
					return err
				}
				upd.Category = &category
			}
			if flags.Changed("amount") {
				amount, err := txstore.ParseAmount(f.amount)
				if err != nil {
					return err
				}
				upd.Amount = &amount
			}
			if flags.Changed("description") {
				upd.Description = &f.description
			}
			if flags.Changed("date") {
				t, err := txstore.ParseTime(f.date, a.loc)
				if err != nil {
					return err
				}
				upd.OccurredAt = &t
			}
			if upd.IsEmpty() {
				return fmt.Errorf("nothing to update, use at least one of --type, --category, --amount, --description, --date")
			}
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			tx, err := s.Update(args[0], upd)
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), tx, a.loc)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var deleted bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			printTransactions(cmd.OutOrStdout(), s.List(deleted), a.loc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&deleted, "deleted", false, "list deleted transactions")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			tx, err := s.GetByID(args[0])
			if err != nil {
				return err
			}
			printTransaction(cmd.OutOrStdout(), tx, a.loc)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Mark a transaction as deleted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			if err = s.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove deleted transactions from data files",
		Long: `Remove deleted transactions from data files and reclaim their space.
With --all removes all transactions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openLedger()
			if err != nil {
				return err
			}
			before := countAll(s)
			if err = s.Clear(all); err != nil {
				return err
			}
			after := countAll(s)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d, kept %d\n", before-after, after)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "remove all transactions")
	return cmd
}

func formatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timeFormat)
}

func printTransactions(w io.Writer, txs []*txstore.Transaction, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", tx.ID, formatTime(tx.OccurredAt, loc), tx.Kind, tx.Category, tx.Amount.StringFixed(txstore.AmountScale), tx.Description)
	}
	tw.Flush()
}

func printTransaction(w io.Writer, tx *txstore.Transaction, loc *time.Location) {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", tx.ID)
	fmt.Fprintf(tw, "date:\t%s\n", formatTime(tx.OccurredAt, loc))
	fmt.Fprintf(tw, "type:\t%s\n", tx.Kind)
	fmt.Fprintf(tw, "category:\t%s\n", tx.Category)
	fmt.Fprintf(tw, "amount:\t%s\n", tx.Amount.StringFixed(txstore.AmountScale))
	fmt.Fprintf(tw, "description:\t%s\n", tx.Description)
	if tx.Deleted {
		fmt.Fprintf(tw, "deleted:\t%v\n", tx.Deleted)
	}
	tw.Flush()
}
