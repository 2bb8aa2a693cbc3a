package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kjk/ledger/config"
	"github.com/kjk/ledger/log"
	"github.com/kjk/ledger/txstore"
	"github.com/spf13/cobra"
)

// app holds state shared by all commands
type app struct {
	configPath string
	envPath    string
	dataDir    string
	account    string
	verbose    bool
	// changes are made to an in-memory copy and not saved
	dryRun bool

	cfg *config.Config
	// times are parsed and shown in loc
	loc *time.Location
	now func() time.Time
}

func newApp() *app {
	return &app{
		loc: time.Local,
		now: time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledger",
		Short: "Personal ledger of incomes and expenses",
		Long: `ledger records incomes and expenses of an account in a pair of
files: <account>.dat with records and <account>.idx with their offsets.

Example:
  ledger -U alice add -t expense -c food -a 12.50 -d lunch
  ledger -U alice list
  ledger -U alice summary`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "ledger.yaml", "config file")
	flags.StringVar(&a.envPath, "env", "", "file with environment variables (default is .env)")
	flags.StringVar(&a.dataDir, "data-dir", "", "directory with data files")
	flags.StringVarP(&a.account, "account", "U", "", "name of the account")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")
	flags.BoolVar(&a.dryRun, "dry-run", false, "show results of a command without changing data files")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newClearCmd(a),
		newBalanceCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newVerifyCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
	)
	return root
}

// setup loads config, flags override config
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, a.envPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("account") {
		cfg.Account = a.account
	}
	if a.verbose {
		cfg.Verbose = true
	}
	a.cfg = cfg

	log.Verbose = cfg.Verbose
	if cfg.LogDir != "" {
		log.Init(&log.Config{Dir: cfg.LogDir})
	}
	return nil
}

func (a *app) openStore() (*txstore.Store, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	s := &txstore.Store{
		DataDir:   a.cfg.DataDir,
		Account:   a.cfg.Account,
		SyncWrite: a.cfg.SyncWrite,
	}
	if err := txstore.OpenStore(s); err != nil {
		return nil, fmt.Errorf("failed to open store in '%s': %w", filepath.Join(s.DataDir, s.Account), err)
	}
	if err := s.Recovered(); err != nil {
		log.Logf("warning: %s\n", err)
	}
	return s, nil
}

// openLedger opens the store. With --dry-run, records are copied to a
// MemStore so that commands run against a copy.
func (a *app) openLedger() (txstore.Ledger, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if !a.dryRun {
		return s, nil
	}
	m := txstore.NewMemStore(s.Name())
	for _, deleted := range []bool{false, true} {
		for _, tx := range s.List(deleted) {
			if err = m.Add(tx); err != nil {
				return nil, err
			}
		}
	}
	log.Verbosef("dry run: loaded %d records into memory\n", countAll(m))
	return m, nil
}

// countAll returns number of records, including deleted
func countAll(l txstore.Ledger) int {
	return len(l.List(false)) + len(l.List(true))
}

func main() {
	cmd := newRootCmd(newApp())
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		log.Close()
		os.Exit(1)
	}
}
