package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"sealant/internal/bundle"
	"sealant/internal/dcache"
	"sealant/internal/patch"
	"sealant/internal/pipeline"
)

var sealCmd = &cobra.Command{
	Use:   "seal [flags] [bundle.json]",
	Short: "Inject integrity digests into bundler output",
	Long:  "Inject subresource integrity digests into bundler output, using sealant.toml or an explicit bundle metadata path.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  sealExecution,
}

func sealExecution(cmd *cobra.Command, args []string) error {
	modeValue, err := cmd.Flags().GetString("mode")
	if err != nil {
		return err
	}
	algorithms, err := cmd.Flags().GetStringSlice("algorithms")
	if err != nil {
		return err
	}
	allowRehash, err := cmd.Flags().GetBool("rehash")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	manifest, manifestFound, err := loadProjectManifest(".")
	if err != nil {
		return err
	}

	var metadataPath string
	if len(args) > 0 {
		metadataPath = args[0]
	} else if manifestFound {
		metadataPath = manifest.metadataPath()
	} else {
		return errors.New(noSealantTomlMessage)
	}

	// flags win; the manifest supplies defaults for what was not set
	if manifestFound {
		if !cmd.Flags().Changed("mode") && manifest.Config.Integrity.Mode != "" {
			modeValue = manifest.Config.Integrity.Mode
		}
		if !cmd.Flags().Changed("algorithms") && len(manifest.Config.Integrity.Algorithms) > 0 {
			algorithms = manifest.Config.Integrity.Algorithms
		}
		if !cmd.Flags().Changed("rehash") {
			allowRehash = manifest.Config.Integrity.Rehash
		}
	}

	mode, err := patch.ParseMode(modeValue)
	if err != nil {
		return err
	}

	snapshot, err := bundle.LoadMetadata(metadataPath)
	if err != nil {
		return err
	}
	if snapshot.Output.CrossOrigin == "" && manifestFound {
		snapshot.Output.CrossOrigin = manifest.Config.Output.CrossOrigin
	}
	if err := snapshot.LoadAssets(); err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	var cache *dcache.Cache
	if !noCache {
		cache, err = dcache.Open("sealant")
		if err != nil {
			// a broken cache dir never blocks a seal
			cache = nil
		}
	}

	req := pipeline.Request{
		Snapshot:       snapshot,
		Algorithms:     algorithms,
		Mode:           mode,
		AllowRehash:    allowRehash,
		MaxDiagnostics: maxDiagnostics,
		Cache:          cache,
		WriteAssets:    !dryRun,
	}

	useTUI := shouldUseTUI(uiModeValue) && !quiet
	assets := assetList(snapshot)

	var result pipeline.Result
	if useTUI && len(assets) > 0 {
		result, err = runSealWithUI(cmd.Context(), "sealant seal", assets, &req)
	} else {
		result, err = pipeline.Run(cmd.Context(), &req)
	}
	if err != nil {
		printStageTimings(os.Stdout, result.Timings, false)
		return err
	}

	if !quiet {
		printDiagnostics(os.Stdout, result.Bag)
	}
	if showTimings {
		printStageTimings(os.Stdout, result.Timings, !dryRun)
	}
	if !quiet {
		summary := fmt.Sprintf("sealed %d assets, %d tags", result.Stats.AssetsHashed, result.TagsInjected)
		if dryRun {
			summary += " (dry run)"
		}
		if _, err := fmt.Fprintln(os.Stdout, summary); err != nil {
			return err
		}
	}

	if result.Bag != nil && result.Bag.HasErrors() {
		return fmt.Errorf("integrity pass reported errors")
	}
	return nil
}

func assetList(snapshot *bundle.Snapshot) []string {
	names := make([]string, 0, len(snapshot.Assets))
	for name := range snapshot.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// displayPath shortens a path relative to the working directory when it
// stays inside it.
func displayPath(path string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil || len(rel) >= len(path) {
		return path
	}
	return filepath.ToSlash(rel)
}

func init() {
	sealCmd.Flags().String("mode", string(patch.ModeEager), "patch mode (eager|lazy)")
	sealCmd.Flags().StringSlice("algorithms", []string{"sha384"}, "digest algorithms (sha256, sha384, sha512)")
	sealCmd.Flags().Bool("rehash", false, "allow later build steps to revise recorded digests")
	sealCmd.Flags().Bool("no-cache", false, "disable the persistent digest cache")
	sealCmd.Flags().Bool("dry-run", false, "report without writing assets or records")
	sealCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
}
