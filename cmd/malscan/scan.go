package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Spl0itable/wordfence-cli/pkg/banner"
	"github.com/Spl0itable/wordfence-cli/pkg/filter"
	"github.com/Spl0itable/wordfence-cli/pkg/matcher"
	"github.com/Spl0itable/wordfence-cli/pkg/pathsource"
	"github.com/Spl0itable/wordfence-cli/pkg/scanner"
	"github.com/Spl0itable/wordfence-cli/pkg/signature"
	"github.com/Spl0itable/wordfence-cli/pkg/sigcache"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

var (
	scanWorkers             int
	scanChunkSize           int
	scanSignaturesPath      string
	scanIncludeFiles        []string
	scanIncludePattern      []string
	scanExcludeFiles        []string
	scanExcludePattern      []string
	scanImages              bool
	scanGitignore           string
	scanMatchAll            bool
	scanScannedContentLimit int64
	scanReadTimeout         time.Duration
	scanRuleTimeout         time.Duration
	scanStdinPaths          bool
	scanCachePath           string
	scanFollowSymlinks      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Scan one or more filesystem paths for malware signatures",
	Args:  cobra.MinimumNArgs(0),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 1, "number of concurrent scan workers")
	scanCmd.Flags().IntVar(&scanChunkSize, "chunk-size", scanner.DefaultChunkSize, "bytes read per chunk while scanning a file")
	scanCmd.Flags().StringVar(&scanSignaturesPath, "signatures", "", "path to a YAML signature file (default: embedded builtin set)")
	scanCmd.Flags().StringSliceVar(&scanIncludeFiles, "include", nil, "exact basenames to include (repeatable)")
	scanCmd.Flags().StringSliceVar(&scanIncludePattern, "include-pattern", nil, "regex patterns to include, matched against full path (repeatable)")
	scanCmd.Flags().StringSliceVar(&scanExcludeFiles, "exclude", nil, "exact basenames to exclude (repeatable)")
	scanCmd.Flags().StringSliceVar(&scanExcludePattern, "exclude-pattern", nil, "regex patterns to exclude, matched against full path (repeatable)")
	scanCmd.Flags().BoolVar(&scanImages, "images", false, "also scan common image extensions")
	scanCmd.Flags().StringVar(&scanGitignore, "gitignore", "", "path to a .gitignore-style file of additional exclusions")
	scanCmd.Flags().BoolVar(&scanMatchAll, "match-all", false, "continue scanning a file past its first match to find every signature that matches")
	scanCmd.Flags().Int64Var(&scanScannedContentLimit, "scanned-content-limit", 0, "stop reading a file after this many bytes (0 = unlimited)")
	scanCmd.Flags().DurationVar(&scanReadTimeout, "read-timeout", scanner.DefaultReadTimeout, "work-queue read timeout liveness safety net")
	scanCmd.Flags().DurationVar(&scanRuleTimeout, "rule-timeout", matcher.DefaultRuleTimeout, "default per-signature CPU budget")
	scanCmd.Flags().BoolVar(&scanStdinPaths, "stdin-paths", false, "additionally read newline-separated root paths from standard input")
	scanCmd.Flags().StringVar(&scanCachePath, "cache", "", "path to a signature cache database (default: no caching)")
	scanCmd.Flags().BoolVar(&scanFollowSymlinks, "follow-symlinks", false, "follow symlinked files and directories during traversal")
}

func runScan(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}
	if !quiet {
		banner.Print(cmd.OutOrStdout(), version)
	}

	sigset, err := loadSignatures()
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}

	fileFilter, err := filter.NewFromOptions(filter.Options{
		IncludeFiles:        scanIncludeFiles,
		IncludeFilesPattern: scanIncludePattern,
		ExcludeFiles:        scanExcludeFiles,
		ExcludeFilesPattern: scanExcludePattern,
		Images:              scanImages,
		GitignorePath:       scanGitignore,
	})
	if err != nil {
		return fmt.Errorf("building file filter: %w", err)
	}

	opts := scanner.Options{
		Paths:               args,
		Signatures:          sigset,
		Workers:             scanWorkers,
		ChunkSize:           scanChunkSize,
		ScannedContentLimit: uint64(scanScannedContentLimit),
		FileFilter:          fileFilter,
		FollowSymlinks:      scanFollowSymlinks,
		MatchAll:            scanMatchAll,
		RuleTimeout:         scanRuleTimeout,
		ReadTimeout:         scanReadTimeout,
		Logger:              scanner.StdLogger{},
	}
	if scanStdinPaths {
		opts.PathSource = pathsource.NewDefault(cmd.InOrStdin())
	}

	s, err := scanner.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	interrupted := make(chan struct{})
	go func() {
		<-sigCh
		cancel()
		select {
		case <-sigCh:
			os.Exit(130)
		case <-interrupted:
		}
	}()

	out := cmd.OutOrStdout()
	matchCount := 0
	err = s.Scan(ctx, func(r *types.ScanResult) {
		if r.HasMatches() {
			matchCount++
			fmt.Fprintf(out, "MATCH %s (%d signature(s))\n", r.Path, len(r.Matches))
			for id, excerpt := range r.Matches {
				fmt.Fprintf(out, "  signature %d: %s\n", id, excerpt)
			}
		}
	}, func(u *types.ScanProgressUpdate) {
		if !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "\rscanned %d file(s), %d byte(s), %s elapsed",
				u.Metrics.TotalCount(), u.Metrics.TotalBytes(), u.ElapsedTime.Round(time.Second))
		}
	}, nil)
	close(interrupted)

	if err != nil {
		if ctx.Err() != nil {
			return &exitCodeError{code: 130, err: err}
		}
		return &exitCodeError{code: 1, err: err}
	}
	if !quiet {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	return nil
}

func loadSignatures() (*types.SignatureSet, error) {
	load := func() (*types.SignatureSet, error) {
		if scanSignaturesPath == "" {
			return signature.NewLoader().LoadBuiltin()
		}
		return signature.NewLoader().LoadFile(scanSignaturesPath)
	}
	if scanCachePath == "" {
		return load()
	}

	cache, err := sigcache.Open(scanCachePath)
	if err != nil {
		return nil, err
	}
	defer cache.Close()

	return cache.GetOrLoad(signatureCacheKey(), load)
}

// signatureCacheKey identifies the configured signature source (builtin or
// a file path plus its content) so a later invocation with a changed
// signature file doesn't return a stale cached set.
func signatureCacheKey() string {
	if scanSignaturesPath == "" {
		return "builtin"
	}
	data, err := os.ReadFile(scanSignaturesPath)
	if err != nil {
		return "file:" + scanSignaturesPath
	}
	sum := sha256.Sum256(data)
	return "file:" + scanSignaturesPath + ":" + hex.EncodeToString(sum[:])
}
