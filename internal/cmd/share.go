package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/toritoma/playbridge/internal/config"
	"github.com/toritoma/playbridge/internal/share"
	"github.com/toritoma/playbridge/internal/simulator"
)

var (
	shareImage     string
	shareLink      string
	shareInstalled bool
)

var shareCmd = &cobra.Command{
	Use:   "share <text>",
	Short: "Build and dispatch a share against the simulated target",
	Long: `Build a share payload for text and an optional image, then hand it to the
simulated share target. When the target is not installed (the default) the
browser fallback URL is opened instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

func init() {
	shareCmd.Flags().StringVar(&shareImage, "image", "", "image file to attach")
	shareCmd.Flags().StringVar(&shareLink, "link", "", "link to include in the browser fallback")
	shareCmd.Flags().BoolVar(&shareInstalled, "installed", false, "pretend the share target is installed")
}

func runShare(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := createLogger(cfg)
	defer logger.Close()

	target := simulator.NewShareTarget(shareInstalled, logger)
	builder := share.NewBuilder(
		share.NewFileStager(afero.NewOsFs(), cfg.Share.ResolveStagingDir()),
		target,
		share.WithTargetPackage(cfg.Share.TargetPackage),
		share.WithWebShareURL(cfg.Share.WebURL),
		share.WithLogger(logger),
		share.WithDiagnostics(func(err error) {
			fmt.Fprintln(errOut, failureStyle.Render("image not attached: "+err.Error()))
		}),
	)

	req, err := builder.Share(args[0], shareLink, shareImage)
	if err != nil {
		return err
	}

	p := req.Payload
	fmt.Fprintln(out, headerStyle.Render("payload "+p.ID()))
	fmt.Fprintf(out, "  text:     %s\n", p.Text())
	if p.HasImage() {
		fmt.Fprintf(out, "  image:    %s (%s)\n", p.ImageURI(), p.ImageType())
	} else {
		fmt.Fprintln(out, "  image:    none")
	}
	fmt.Fprintf(out, "  target:   %s\n", req.TargetPackage)
	fmt.Fprintf(out, "  fallback: %s\n", req.FallbackURL)
	for _, d := range target.Dispatches() {
		fmt.Fprintf(out, "  sent:     %s\n", d)
	}
	return nil
}
