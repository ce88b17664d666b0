// sdrf2mzml fills the sampleList of an mzML document from the SDRF rows that
// describe its data file. It is meant to sit in a pipe after a raw-file
// converter:
//
//	msconvert run1.raw --stdout | sdrf2mzml --sdrf project.sdrf.tsv > run1.mzML
package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/mzsdrf"
	"github.com/carbocation/mzsdrf/annotate"
	"github.com/carbocation/mzsdrf/compileinfo"
	_ "github.com/carbocation/mzsdrf/compileinfoprint"
	"github.com/carbocation/mzsdrf/cvmap"
	"github.com/carbocation/mzsdrf/sdrf"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "sdrf2mzml",
		Short: "Write SDRF sample annotations into an mzML sampleList",
		Long: `sdrf2mzml reads an mzML document and an SDRF table, selects the SDRF rows
whose comment[data file] names the document's data file, and writes the
document back out with one sample per SDRF sample in its sampleList.

Every setting can also come from a YAML file (--config) or from an
environment variable named MZSDRF_<SETTING>, e.g. MZSDRF_SDRF.`,
		Version:       compileinfo.Get().Short(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				log.Println(err)
				return err
			}

			if err := run(cmd.Context(), cfg); err != nil {
				log.Printf("%s: %v\n", annotate.ErrorKind(err), err)
				return err
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "YAML file with default settings")
	f.String("sdrf", "", "SDRF table. Optionally, may be a google storage URL (gs://)")
	f.String("input", "-", "mzML or indexedmzML document; - reads stdin. Optionally, may be a google storage URL (gs://)")
	f.String("output", "-", "Where to write the annotated document; - writes stdout")
	f.String("target", "", "Data file to select SDRF rows for. Defaults to the first sourceFile of the document")
	f.String("rules", "", "Extra tab-delimited classification rules, consulted before the built-in ones")
	f.StringSlice("identity", nil, "Columns that together identify a sample (default source name, assay name, comment[label])")
	f.StringSlice("names", nil, "Columns tried in order for a sample's name (default source name, assay name)")
	f.String("delimiter", "tab", "SDRF delimiter: tab, comma or auto")
	f.Bool("allow-empty", false, "Write an empty sampleList instead of failing when no SDRF row matches")
	f.String("report", "", "Also write a tab-delimited listing of every encoded param to this path")
	f.Bool("debug", false, "Dump the classification rules and the encoded samples to stderr")

	return cmd
}

func run(ctx context.Context, cfg *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var client *storage.Client
	if mzsdrf.IsGoogleStorage(cfg.SDRF) ||
		mzsdrf.IsGoogleStorage(cfg.Input) ||
		mzsdrf.IsGoogleStorage(cfg.Output) ||
		mzsdrf.IsGoogleStorage(cfg.Rules) ||
		mzsdrf.IsGoogleStorage(cfg.Report) {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	table, err := readSDRF(ctx, cfg, client)
	if err != nil {
		return err
	}
	log.Printf("Read %d SDRF rows with %d columns from %s\n", len(table.Rows), len(table.Columns), cfg.SDRF)

	classifier, err := newClassifier(ctx, cfg, client)
	if err != nil {
		return err
	}
	if cfg.Debug {
		spew.Fdump(os.Stderr, classifier.Rules())
	}

	policy := sdrf.DefaultGroupPolicy
	if len(cfg.Identity) > 0 {
		policy.IdentityColumns = cfg.Identity
	}
	if len(cfg.Names) > 0 {
		policy.NameColumns = cfg.Names
	}

	ann := annotate.New(table, classifier, policy)
	ann.AllowEmpty = cfg.AllowEmpty

	in, err := mzsdrf.OpenInput(ctx, cfg.Input, client)
	if err != nil {
		return err
	}
	defer in.Close()

	prepared, err := ann.Prepare(in, cfg.Target)
	if err != nil {
		return err
	}

	samples := prepared.Samples()
	log.Printf("Built %d samples for data file %s\n", len(samples), prepared.Target())
	if prepared.Replaces() {
		log.Println("Replacing the document's existing sampleList")
	}
	if dropped := prepared.DroppedSampleIDs(); len(dropped) > 0 {
		log.Printf("Warning: replaced sample ids %s are gone; any sampleRef naming them will dangle\n", strings.Join(dropped, ", "))
	}
	if cvs := prepared.UndeclaredCVs(); len(cvs) > 0 {
		log.Printf("Warning: the samples reference CVs %s, which the document's cvList does not declare\n", strings.Join(cvs, ", "))
	}
	if cfg.Debug {
		spew.Fdump(os.Stderr, samples)
	}

	// Nothing is opened for writing until the document and the samples are known
	// to be good.
	out, err := mzsdrf.CreateOutput(ctx, cfg.Output, client)
	if err != nil {
		return err
	}

	w := bufio.NewWriterSize(out, 1<<20)
	n, err := prepared.WriteTo(w)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		// Nothing is left at the output path
		mzsdrf.Abort(out)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Printf("Wrote %d bytes to %s\n", n, cfg.Output)

	if cfg.Report != "" {
		if err := writeReport(ctx, cfg.Report, client, prepared); err != nil {
			return err
		}
	}

	return nil
}

func readSDRF(ctx context.Context, cfg *Config, client *storage.Client) (*sdrf.Table, error) {
	f, err := mzsdrf.OpenInput(ctx, cfg.SDRF, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// SDRF files are small; reading them whole lets the delimiter be sniffed
	// from a stream that cannot seek.
	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	comma := '\t'
	switch cfg.Delimiter {
	case "comma":
		comma = ','
	case "auto":
		comma = mzsdrf.DetermineDelimiter(bytes.NewReader(fileBytes), '\t', '\t', ',')
		log.Printf("Detected %q as the SDRF delimiter\n", comma)
	}

	table, err := sdrf.ReadTable(bytes.NewReader(fileBytes), comma)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.SDRF, err)
	}

	return table, nil
}

func newClassifier(ctx context.Context, cfg *Config, client *storage.Client) (*cvmap.Classifier, error) {
	if cfg.Rules == "" {
		return cvmap.NewDefault()
	}

	f, err := mzsdrf.OpenInput(ctx, cfg.Rules, client)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	extra, err := cvmap.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Rules, err)
	}
	log.Printf("Loaded %d classification rules from %s\n", len(extra), cfg.Rules)

	return cvmap.NewDefault(extra...)
}

func writeReport(ctx context.Context, path string, client *storage.Client, prepared *annotate.Prepared) error {
	out, err := mzsdrf.CreateOutput(ctx, path, client)
	if err != nil {
		return err
	}

	if err := annotate.WriteReport(out, prepared.Samples()); err != nil {
		mzsdrf.Abort(out)
		return err
	}

	return out.Close()
}
