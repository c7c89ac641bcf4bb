package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wlfwifi/wlfwifi/internal/attack"
	"github.com/wlfwifi/wlfwifi/internal/config"
	"github.com/wlfwifi/wlfwifi/internal/iface"
	"github.com/wlfwifi/wlfwifi/internal/result"
	"github.com/wlfwifi/wlfwifi/internal/scan"
	"github.com/wlfwifi/wlfwifi/internal/session"
	"github.com/wlfwifi/wlfwifi/internal/telemetry"
	"github.com/wlfwifi/wlfwifi/internal/tools"
	"github.com/wlfwifi/wlfwifi/pkg/wifi"
	"github.com/wlfwifi/wlfwifi/ui"
)

const banner = `
            .;'                     '.;
          .;'  ,;'             '.;.  '.;
         .;'  ,;'  ,;'     '.;.  '.;  '.;
         ::   ::   :   ( )   :   ::   ::
         ':.  ':.  ':. /_\ ,:'  ,:'  ,:'
          ':.  ':.    /___\    ,:'  ,:'
           ':.       /_____\      ,:'
                    /       \     wlfwifi
`

// Execute builds the command tree and runs it.
func Execute(version string) error {
	cfg := config.DefaultConfig()
	var configPath string
	var resume bool

	rootCmd := &cobra.Command{
		Use:   "wlfwifi",
		Short: "Automated wireless network auditor",
		Long:  banner + "\n  wlfwifi v" + version + " - WEP, WPA handshake and WPS auditing\n",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				if err := loadConfigFile(cmd, configPath, cfg); err != nil {
					return err
				}
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), cfg, version, resume)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "JSON settings file (tool names, paths)")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose diagnostic logging")
	pf.StringVar(&cfg.Output.ResultsDB, "results-db", cfg.Output.ResultsDB, "SQLite database of cracked networks")
	pf.StringVar(&cfg.TempDir, "tempdir", cfg.TempDir, "Directory for intermediate capture files")

	f := rootCmd.Flags()
	f.StringVarP(&cfg.Interface, "interface", "i", "", "Wireless interface to use")
	f.IntVarP(&cfg.Channel, "channel", "c", 0, "Wireless channel to scan (default: all)")
	f.BoolVar(&cfg.MAC.DoNotChange, "keep-mac", false, "Do not randomize the interface MAC address")
	f.StringVarP(&cfg.Wordlist, "wordlist", "w", cfg.Wordlist, "Wordlist for WPA handshake cracking")

	// Target selection
	f.DurationVar(&cfg.Scan.Timeout, "scan-timeout", cfg.Scan.Timeout, "Scan duration, 0 to scan until a target is picked")
	f.StringVarP(&cfg.BSSID, "bssid", "b", "", "Attack only this BSSID")
	f.StringVarP(&cfg.ESSID, "essid", "e", "", "Attack only this ESSID")
	f.BoolVar(&cfg.ClientsOnly, "clients-only", false, "Only attack targets with associated clients")
	f.BoolVarP(&cfg.Pillage, "pillage", "p", false, "Attack every target after the scan without asking")

	// Attack kinds
	f.BoolVar(&cfg.Attack.WPADisable, "no-wpa", false, "Skip WPA handshake attacks")
	f.BoolVar(&cfg.Attack.WPSDisable, "no-wps", false, "Skip WPS attacks")
	f.BoolVar(&cfg.Attack.WEPDisable, "no-wep", false, "Skip WEP attacks")

	// WPA
	f.DurationVar(&cfg.Attack.WPA.HandshakeTimeout, "hs-timeout", cfg.Attack.WPA.HandshakeTimeout, "Handshake capture timeout")
	f.DurationVar(&cfg.Attack.WPA.DeauthInterval, "deauth-interval", cfg.Attack.WPA.DeauthInterval, "Time between deauth rounds")
	f.IntVar(&cfg.Attack.WPA.DeauthCount, "deauth-count", cfg.Attack.WPA.DeauthCount, "Deauth frames per round")
	f.StringVar(&cfg.Output.HandshakeDir, "hs-dir", cfg.Output.HandshakeDir, "Where captured handshakes are saved")

	// WPS
	f.BoolVar(&cfg.Attack.WPS.PixieDust, "pixie", cfg.Attack.WPS.PixieDust, "Try Pixie-Dust before the PIN search")
	f.DurationVar(&cfg.Attack.WPS.PixieTimeout, "pixie-timeout", cfg.Attack.WPS.PixieTimeout, "Pixie-Dust timeout")
	f.DurationVar(&cfg.Attack.WPS.PINTimeout, "wps-timeout", cfg.Attack.WPS.PINTimeout, "WPS PIN search timeout")

	// WEP
	f.IntVar(&cfg.Attack.WEP.IVThreshold, "wep-ivs", cfg.Attack.WEP.IVThreshold, "IVs to collect before cracking")
	f.DurationVar(&cfg.Attack.WEP.Timeout, "wep-timeout", cfg.Attack.WEP.Timeout, "WEP attack timeout")

	// Session
	f.StringVar(&cfg.Output.SessionFile, "session", cfg.Output.SessionFile, "Session file used for --resume")
	f.StringVar(&cfg.Output.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics here on exit")
	f.BoolVar(&resume, "resume", false, "Skip targets attacked in the saved session")

	rootCmd.AddCommand(crackedCmd(cfg))
	rootCmd.AddCommand(depsCmd(cfg))
	rootCmd.AddCommand(wpsCmd(cfg))
	rootCmd.AddCommand(checkCmd(cfg))
	rootCmd.AddCommand(cleanCmd(cfg))

	return rootCmd.ExecuteContext(context.Background())
}

// loadConfigFile overlays the settings file on cfg while keeping the flags
// given on the command line.
func loadConfigFile(cmd *cobra.Command, path string, cfg *config.Config) error {
	explicit := make(map[string]string)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})
	if err := config.LoadFile(path, cfg); err != nil {
		return err
	}
	for name, val := range explicit {
		if err := cmd.Flags().Set(name, val); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

func runMain(ctx context.Context, cfg *config.Config, version string, resume bool) error {
	fmt.Print(banner)
	fmt.Printf("  wlfwifi v%s\n\n", version)
	console := ui.NewConsole(os.Stdout)

	deps := tools.NewDependencyChecker(cfg.Tools)
	if cfg.Verbose {
		fmt.Println("  Dependency Check:")
		fmt.Print(tools.FormatStatus(deps.CheckAll()))
		fmt.Println()
	}

	if !iface.IsLinux() {
		return fmt.Errorf("attacks require Linux with a monitor-mode capable adapter.\n" +
			"  These commands still work here:\n" +
			"    wlfwifi cracked    - view cracked networks\n" +
			"    wlfwifi wps        - check a capture for WPS access points\n" +
			"    wlfwifi deps       - check tool availability")
	}
	if os.Geteuid() != 0 {
		return fmt.Errorf("wlfwifi must be run as root (try: sudo wlfwifi)")
	}
	if missing := deps.MissingRequired(); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %v\n  Install with: %s", missing, tools.InstallHint())
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mgr := iface.NewManager()
	wi, err := mgr.SelectInterface(cfg.Interface)
	if err != nil {
		return fmt.Errorf("interface selection: %w", err)
	}
	console.Good("using interface %s (%s)", wi.Name, wi.Driver)

	monIface, err := mgr.EnableMonitorMode(ctx, wi)
	if err != nil {
		return fmt.Errorf("monitor mode: %w", err)
	}
	defer func() {
		console.Printf("[+] disabling monitor mode on %s...", monIface)
		if err := mgr.DisableMonitorMode(context.Background()); err != nil {
			console.Fail("disabling monitor mode: %v", err)
		}
	}()
	console.Good("monitor interface %s", monIface)

	if cfg.Channel > 0 {
		if err := iface.SetChannel(ctx, monIface, cfg.Channel); err != nil {
			console.Warn("could not lock %s to channel %d: %v", monIface, cfg.Channel, err)
		}
	}

	sess, err := openSession(cfg, monIface, resume)
	if err != nil {
		return err
	}
	sess.MonitorIface = monIface

	store, err := result.Open(cfg.Output.ResultsDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ifconfig := tools.NewIfconfig(cfg.Tools.Ifconfig, tools.ExecRunner{})
	identity := iface.NewIdentityManager(ifconfig, cfg.MAC.DoNotChange, cfg.Verbose)
	identity.Status = console.Printf

	telemetry.InitMetrics()
	defer func() {
		if err := telemetry.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			console.Warn("%v", err)
		}
	}()

	err = sess.Guard(ctx, identity, monIface, func(ctx context.Context) error {
		return auditSession(ctx, cfg, console, sess, store, monIface)
	})
	switch {
	case errors.Is(err, session.ErrRestore), errors.Is(err, attack.ErrNotImplemented):
		return err
	case errors.Is(err, ui.ErrAborted):
		console.Warn("no targets selected")
		return nil
	case errors.Is(err, context.Canceled):
		console.Warn("interrupted")
		return nil
	}
	return err
}

func openSession(cfg *config.Config, monIface string, resume bool) (*session.Session, error) {
	if !resume {
		return session.NewSession(monIface, cfg.Output.SessionFile), nil
	}
	sess, err := session.Load(cfg.Output.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("resume: %w", err)
	}
	return sess, nil
}

// auditSession scans, picks targets and attacks them one at a time.
func auditSession(ctx context.Context, cfg *config.Config, console *ui.Console, sess *session.Session, store *result.Store, monIface string) error {
	tshark := tools.NewTshark(cfg.Tools.Tshark, tools.ExecRunner{}, cfg.Verbose)
	discovery := scan.NewDiscovery(cfg, tools.NewAirodumpNG(cfg.Tools.Airodump), scan.NewWPSDetector(tshark, cfg.Verbose))
	db := discovery.DB()

	targets, err := discover(ctx, cfg, console, discovery, monIface)
	if err != nil {
		return err
	}
	targets = scan.FilterTargets(db, targets, scan.Filter{
		BSSID:       cfg.BSSID,
		ESSID:       cfg.ESSID,
		WPSOnly:     cfg.Attack.WPADisable && !cfg.Attack.WPSDisable,
		ClientsOnly: cfg.ClientsOnly,
	})
	if len(targets) == 0 {
		console.Fail("no targets to attack")
		return nil
	}

	env := &attack.Env{
		Config:  cfg,
		Iface:   monIface,
		Tools:   attack.NewToolbox(cfg),
		Clients: db.Clients,
		Status:  console.Attack,
	}
	orch := attack.NewOrchestrator(cfg)
	attack.RegisterDefaults(orch, env)
	orch.Tracker = sess
	orch.Results = store
	orch.Status = console.Attack

	results, err := orch.AttackAll(ctx, targets)
	for _, r := range results {
		switch {
		case r.Key != "":
			console.Good("%s (%s): key %q", r.ESSID, r.BSSID, r.Key)
		case r.PIN != "":
			console.Good("%s (%s): WPS PIN %s", r.ESSID, r.BSSID, r.PIN)
		case r.HandshakeFile != "":
			console.Good("%s (%s): handshake saved to %s", r.ESSID, r.BSSID, r.HandshakeFile)
		}
	}
	return err
}

// discover runs the scan. Without --pillage or a BSSID/ESSID the operator
// picks targets while the scan runs, and the picked targets are only
// returned once the scan has stopped and WPS detection has finished.
func discover(ctx context.Context, cfg *config.Config, console *ui.Console, d *scan.Discovery, monIface string) ([]*wifi.Target, error) {
	scanCtx, stopScan := context.WithCancel(ctx)
	defer stopScan()

	db := d.DB()
	db.OnNewTarget(func(t *wifi.Target) {
		if cfg.BSSID != "" && t.Is(cfg.BSSID) {
			stopScan()
		}
	})

	interactive := !cfg.Pillage && cfg.BSSID == "" && cfg.ESSID == ""
	if !interactive {
		console.Good("scanning on %s for %s...", monIface, ui.DurationHMS(cfg.Scan.Timeout))
		return d.Run(scanCtx, monIface)
	}

	type scanResult struct {
		targets []*wifi.Target
		err     error
	}
	done := make(chan scanResult, 1)
	go func() {
		t, err := d.Run(scanCtx, monIface)
		done <- scanResult{t, err}
	}()

	picker := ui.NewPicker(monIface, db.Snapshot, func(bssid string) int { return len(db.Clients(bssid)) })
	chosen, pickErr := ui.Pick(ctx, picker)
	stopScan()
	res := <-done
	if pickErr != nil {
		return nil, pickErr
	}
	if res.err != nil {
		return nil, res.err
	}

	targets := make([]*wifi.Target, 0, len(chosen))
	for _, c := range chosen {
		if t := db.GetTarget(c.BSSID); t != nil {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// crackedCmd shows previously cracked networks.
func crackedCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "cracked",
		Short: "Show previously cracked networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := result.Open(cfg.Output.ResultsDB)
			if err != nil {
				return err
			}
			defer store.Close()
			cracked, err := store.Cracked()
			if err != nil {
				return err
			}
			fmt.Println("\n  Cracked Networks:")
			fmt.Println()
			fmt.Print(result.FormatCracked(cracked))
			return nil
		},
	}
}

// depsCmd shows dependency status.
func depsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check tool dependencies",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("\n  Dependency Check:")
			deps := tools.NewDependencyChecker(cfg.Tools)
			fmt.Print(tools.FormatStatus(deps.CheckAll()))
		},
	}
}

// wpsCmd classifies the access points of an airodump-ng capture.
func wpsCmd(cfg *config.Config) *cobra.Command {
	var csvPath string
	cmd := &cobra.Command{
		Use:   "wps <cap-file> [bssid...]",
		Short: "Report which access points in a capture advertise WPS",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capFile := args[0]
			db := scan.NewTargetDB(cfg.Verbose)
			if csvPath != "" {
				if err := db.MergeAirodumpCSV(csvPath); err != nil {
					return err
				}
			}
			for _, b := range args[1:] {
				db.UpdateTarget(wifi.NewTarget(b, "", 0, wifi.EncWPA2, false))
			}
			targets := db.Targets()
			if len(targets) == 0 {
				return fmt.Errorf("no targets: pass BSSIDs or --csv")
			}

			tshark := tools.NewTshark(cfg.Tools.Tshark, tools.ExecRunner{}, cfg.Verbose)
			if !scan.NewWPSDetector(tshark, cfg.Verbose).CheckTargets(cmd.Context(), targets, capFile) {
				return fmt.Errorf("WPS detection did not run (is %s installed and %s readable?)", cfg.Tools.Tshark, capFile)
			}
			for _, t := range targets {
				wps := "no"
				if t.WPS {
					wps = "yes"
				}
				fmt.Printf("  %-19s %-24s WPS: %s\n", t.BSSID, t.ESSID, wps)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "airodump-ng CSV listing the targets")
	return cmd
}

// checkCmd counts the complete handshakes in a capture file.
func checkCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "check <cap-file> <bssid>",
		Short: "Check a capture file for complete handshakes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tshark := tools.NewTshark(cfg.Tools.Tshark, tools.ExecRunner{}, cfg.Verbose)
			if !tshark.Available() {
				return fmt.Errorf("%s is required to check captures", cfg.Tools.Tshark)
			}
			cf := wifi.NewCapFile(args[0])
			n, err := tshark.CountHandshakes(cmd.Context(), cf.Path, args[1])
			if err != nil {
				return err
			}
			cf.AddHandshakes(n)
			if cf.HasHandshake() {
				fmt.Printf("  %s: %s handshake(s) for %s\n", cf.Path, ui.AddCommas(cf.Handshakes), args[1])
			} else {
				fmt.Printf("  %s: no complete handshake for %s\n", cf.Path, args[1])
			}
			return nil
		},
	}
}

// cleanCmd removes capture files left behind by an interrupted run.
func cleanCmd(cfg *config.Config) *cobra.Command {
	var withSession bool
	cmd := &cobra.Command{
		Use:   "clean [prefix...]",
		Short: "Remove leftover capture files",
		RunE: func(cmd *cobra.Command, args []string) error {
			prefixes := args
			if len(prefixes) == 0 {
				for _, name := range []string{"wlfwifi", "wpa", "wep"} {
					prefixes = append(prefixes, filepath.Join(cfg.TempDir, name))
				}
			}
			for _, p := range prefixes {
				tools.CleanupArtifacts(p, cfg.TempDir)
			}
			if withSession {
				session.NewSession("", cfg.Output.SessionFile).Clean()
			}
			fmt.Printf("  cleaned %s\n", strings.Join(prefixes, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSession, "session", false, "Also remove the saved session file")
	return cmd
}
