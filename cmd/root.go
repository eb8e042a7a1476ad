package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/veil/internal/store"
)

// Options holds the shared configuration parsed from flags.
type Options struct {
	Output      string
	Threshold   float64
	MaskScale   float64
	ReplaceWith string
	EnableBoxes bool
	EnableEnum  bool
	DisableGUI  bool
	Backend     string
	Cascade     string
	Scale       string // inference downscale, "WxH"
	ExtFilter   string
}

var (
	opts Options
	// DB is the optional audit store, connected only when a connection
	// string is available.
	DB    *store.Store
	dbURL string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "veil [input]",
	Short: "Video and image anonymization by face detection",
	Long: `veil detects faces in images, videos, live cameras, and directory trees
and overwrites them with a blur, a solid fill, or nothing at all.

The input may be a file, a directory (processed recursively), or a camera
device spec like "<video0>".`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		input := "<video0>" // default to the first camera device
		if len(args) > 0 {
			input = args[0]
		}
		return runAnonymize(cmd.Context(), input, opts)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The audit store is opt-in: connect only when --db or the
		// POSTGRES_* environment provides a target.
		if dbURL == "" {
			if host := os.Getenv("POSTGRES_HOST"); host != "" {
				user := os.Getenv("POSTGRES_USER")
				pass := os.Getenv("POSTGRES_PASSWORD")
				name := os.Getenv("POSTGRES_DB")
				port := os.Getenv("POSTGRES_PORT")
				if port == "" {
					port = "5432"
				}
				dbURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
			}
		}
		if dbURL == "" {
			return nil
		}

		var err error
		DB, err = store.New(cmd.Context(), dbURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Background because the main context may already be cancelled
			// (Ctrl+C) and the connection still has to close cleanly.
			DB.Close(context.Background())
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string for the optional run audit log")

	rootCmd.Flags().StringVarP(&opts.Output, "output", "o", "", `Output file name (defaults to input path + "_anonymized")`)
	rootCmd.Flags().Float64VarP(&opts.Threshold, "thresh", "t", 0.2, "Detection threshold (trade-off between false positives and false negatives)")
	rootCmd.Flags().Float64Var(&opts.MaskScale, "mask-scale", 1.3, "Scale factor for face masks, to make sure masks cover the complete face")
	rootCmd.Flags().StringVar(&opts.ReplaceWith, "replacewith", "blur", "Anonymization filter mode for face regions: blur, solid, none")
	rootCmd.Flags().BoolVar(&opts.EnableBoxes, "enable-boxes", false, "Use boxes instead of ellipse masks")
	rootCmd.Flags().BoolVarP(&opts.EnableEnum, "enable-enum", "e", false, "Draw detection numbers and scores into the output")
	rootCmd.Flags().BoolVarP(&opts.DisableGUI, "disable-gui", "q", false, "Disable the preview window (only applies to single video/camera inputs)")
	rootCmd.Flags().StringVar(&opts.Backend, "backend", "auto", "Detector execution backend: auto, pigo")
	rootCmd.Flags().StringVar(&opts.Cascade, "cascade", "cascade/facefinder", "Path to the face detection cascade file")
	rootCmd.Flags().StringVarP(&opts.Scale, "scale", "s", "", "Downscale frames for detection to this size (format: WxH, example: 640x360)")
	rootCmd.Flags().StringVar(&opts.ExtFilter, "ext", "*", "Filter by file extension (only applies if the input is a directory)")
}
