package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealant/internal/bundle"
	"sealant/internal/dcache"
	"sealant/internal/pipeline"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] [dir]",
	Short: "Check sealed assets against their recorded digests",
	Long:  "Re-hash every asset named in the records file of a sealed output directory and report any whose bytes have drifted.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  verifyExecution,
}

func verifyExecution(cmd *cobra.Command, args []string) error {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	dir, err := resolveVerifyDir(args)
	if err != nil {
		return err
	}

	records, err := dcache.ReadRecords(dir)
	if err != nil {
		return fmt.Errorf("%s: no usable records file: %w", displayPath(dir), err)
	}

	mismatches, err := pipeline.Verify(cmd.Context(), dir, records)
	if err != nil {
		return err
	}

	if len(mismatches) == 0 {
		if !quiet {
			_, err = fmt.Fprintf(os.Stdout, "verified %d assets in %s\n", len(records.Entries), displayPath(dir))
			if err != nil {
				return err
			}
		}
		return nil
	}

	for _, m := range mismatches {
		if m.Got == "" {
			fmt.Fprintf(os.Stdout, "%s: unreadable (recorded %s)\n", m.Name, m.Want)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: digest drift\n  recorded: %s\n  current:  %s\n", m.Name, m.Want, m.Got)
	}
	return fmt.Errorf("%d of %d assets failed verification", len(mismatches), len(records.Entries))
}

// resolveVerifyDir picks the sealed output directory: an explicit
// argument wins, otherwise the bundle metadata named by sealant.toml
// supplies it.
func resolveVerifyDir(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	manifest, manifestFound, err := loadProjectManifest(".")
	if err != nil {
		return "", err
	}
	if !manifestFound {
		return "", errors.New(noSealantTomlMessage)
	}
	snapshot, err := bundle.LoadMetadata(manifest.metadataPath())
	if err != nil {
		return "", err
	}
	return snapshot.Output.Dir, nil
}
