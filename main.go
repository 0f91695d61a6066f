package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var USER_AGENT = "beat-saber-tools/0.1"

type State struct {
	CWD      string
	CacheDir string
	APIURL   string
	// talks to the BeatSaver API, responses cached beneath `CacheDir` when set.
	Client *http.Client
	// fetches zips, never cached.
	ZipClient *http.Client
	Pool      *Pool
}

func NewState() *State {
	return &State{}
}

// -- globals

var STATE *State

var LOG_LEVEL = new(slog.LevelVar)

// -- flags shared by commands

var (
	flag_debug     bool
	flag_cache_dir string
	flag_api_url   string
	flag_jobs      int

	flag_levels string
	flag_output string
	flag_hashes string
	flag_db     string
)

// flags every command accepts.
func state_flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("state", pflag.ExitOnError)
	fs.BoolVar(&flag_debug, "debug", false, "log debug messages")
	fs.StringVar(&flag_cache_dir, "cache-dir", "", "cache BeatSaver API responses here (default: $BSTOOLS_CACHE_DIR, no caching if unset)")
	fs.StringVar(&flag_api_url, "api", "", "BeatSaver API base URL (default: $BSTOOLS_BEATSAVER_API or "+DEFAULT_API_URL+")")
	fs.IntVarP(&flag_jobs, "jobs", "j", DEFAULT_POOL_WIDTH, "number of levels processed at once")
	return fs
}

func levels_flag() *pflag.FlagSet {
	fs := pflag.NewFlagSet("levels", pflag.ExitOnError)
	fs.StringVarP(&flag_levels, "levels", "i", "", "CustomLevels directory (default: $BS_CUSTOM_LEVEL_PATH)")
	return fs
}

func db_flag() *pflag.FlagSet {
	fs := pflag.NewFlagSet("db", pflag.ExitOnError)
	fs.StringVar(&flag_db, "db", "", "level index database (default: $BSTOOLS_DB or ~/.bstools/levels.db)")
	return fs
}

// the CustomLevels directory from the first positional argument, `--levels` or the environment.
func levels_path(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	path := config_value(flag_levels, "BS_CUSTOM_LEVEL_PATH", "")
	die(path == "", "no CustomLevels directory given, pass it as an argument, with --levels or set BS_CUSTOM_LEVEL_PATH")
	return path
}

func db_path() string {
	home, _ := os.UserHomeDir()
	return config_value(flag_db, "BSTOOLS_DB", filepath.Join(home, ".bstools", "levels.db"))
}

func init_state() *State {
	state := NewState()

	cwd, err := os.Getwd()
	die(err != nil, "failed to find the current working directory", "error", err)
	state.CWD = cwd

	state.CacheDir = config_value(flag_cache_dir, "BSTOOLS_CACHE_DIR", "")
	state.APIURL = config_value(flag_api_url, "BSTOOLS_BEATSAVER_API", DEFAULT_API_URL)

	state.Client = &http.Client{}
	state.Client.Transport = &FileCachingRequest{Dir: state.CacheDir}
	state.ZipClient = &http.Client{}

	state.Pool = NewPool(flag_jobs)

	return state
}

// --- commands

func find_duplicates_cmd() *cobra.Command {
	var as_json bool
	cmd := &cobra.Command{
		Use:   "find-duplicates [CustomLevels]",
		Short: "List levels that have identical content",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := levels_path(args)
			slog.Info("scanning for duplicates", "path", root)
			dupe_list, report, err := find_duplicates(cmd.Context(), STATE.Pool, root)
			die(err != nil, "failed to find duplicates", "error", err)
			slog.Info("scan complete", "scanned", report.Scanned, "skipped", report.Skipped, "failed", report.Failed, "duplicates", len(dupe_list))

			out := cmd.OutOrStdout()
			if as_json {
				pprint(out, dupe_list)
				return
			}
			for _, dupe := range dupe_list {
				fmt.Fprintf(out, "%s %s\n", dupe.Hash, dupe.Name)
				for _, path := range dupe.Paths {
					fmt.Fprintf(out, "  %s\n", basename(path))
				}
			}
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	cmd.Flags().BoolVar(&as_json, "json", false, "print duplicates as JSON")
	return cmd
}

func remove_duplicates_cmd() *cobra.Command {
	var dry_run bool
	cmd := &cobra.Command{
		Use:   "remove-duplicates [CustomLevels]",
		Short: "Remove duplicate levels, keeping the best named directory of each",
		Long: `Sometimes there are duplicate beat saber levels like this:
37483 (Pleo - Moon Halo) <- in-game downloader's name format
37483 (Moon Halo - Pleo) <- other downloader's name format

This unifies the levels to the other downloader's name format.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := levels_path(args)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanning for duplicates in: %s\n", root)

			dupe_list, _, err := find_duplicates(cmd.Context(), STATE.Pool, root)
			die(err != nil, "failed to find duplicates", "error", err)

			if len(dupe_list) == 0 {
				fmt.Fprintln(out, "No duplicate levels found.")
				return
			}
			fmt.Fprintf(out, "Found %d duplicate groups:\n\n", len(dupe_list))

			total := remove_duplicates(out, dupe_list, dry_run)
			if dry_run {
				fmt.Fprintf(out, "Dry run complete. Would remove %d duplicate levels.\n", total)
			} else {
				fmt.Fprintf(out, "Removed %d duplicate levels.\n", total)
			}
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	cmd.Flags().BoolVar(&dry_run, "dry-run", false, "show what would be deleted without deleting anything")
	return cmd
}

func rename_cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path>...",
		Short: "Rename Quest levels (custom_level_<hash>) to '<id> (<song> - <mapper>)'",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			failed := rename_levels(cmd.Context(), cmd.OutOrStdout(), args)
			die(failed > 0, "some levels could not be renamed", "failed", failed)
		},
	}
}

func download_cmd() *cobra.Command {
	var extract bool
	cmd := &cobra.Command{
		Use:   "download <ids.txt>",
		Short: "Download the maps listed by id, one per line",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id_text, err := os.ReadFile(args[0])
			die(err != nil, "failed to read ids", "path", args[0], "error", err)
			id_list := extract_map_ids(string(id_text))

			fn := download_map
			if extract {
				levels_dir := levels_path(nil)
				fn = func(ctx context.Context, id string) (DownloadedMap, error) {
					return extract_map(ctx, id, levels_dir)
				}
			}

			out := cmd.OutOrStdout()
			result_list, err := download_all(cmd.Context(), NewPool(DOWNLOAD_POOL_WIDTH), id_list, fn)
			for _, result := range result_list {
				if result.Err != nil {
					slog.Error("download failed", "error", result.Err)
					continue
				}
				if extract {
					fmt.Fprintf(out, "%s extract success\n", result.Name)
					continue
				}
				_, err := save_map(result, config_value(flag_output, "", STATE.CWD))
				if err != nil {
					slog.Error("failed to save map", "id", result.ID, "error", err)
					continue
				}
				fmt.Fprintf(out, "%s save success\n", result.Name)
			}
			die(err != nil, "downloads interrupted", "error", err)
		},
	}
	cmd.Flags().BoolVar(&extract, "extract", false, "extract each map into the CustomLevels directory instead of saving the zip")
	cmd.Flags().StringVarP(&flag_output, "output", "o", "", "directory to save zips to (default: current directory)")
	cmd.Flags().AddFlagSet(levels_flag())
	return cmd
}

func sort_bpm_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sort-bpm [CustomLevels]",
		Short: "List levels by BPM",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := levels_path(args)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sorting levels by BPM in: %s\n", root)

			level_list, err := read_level_bpms(root)
			die(err != nil, "failed to read levels", "error", err)
			if len(level_list) == 0 {
				fmt.Fprintln(out, "No valid Beat Saber levels found.")
				return
			}

			sort_by_bpm(level_list)
			fmt.Fprintf(out, "Found %d levels, sorted by BPM:\n\n", len(level_list))
			for _, level := range level_list {
				fmt.Fprintln(out, format_level_bpm(level))
			}
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	return cmd
}

func id_to_name_cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id-to-name <ids.txt>",
		Short: "Look up the song and mapper of each map id, appending them to <ids.txt>.tsv",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id_text, err := os.ReadFile(args[0])
			die(err != nil, "failed to read ids", "path", args[0], "error", err)

			fh, err := os.OpenFile(args[0]+".tsv", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
			die(err != nil, "failed to open output file", "error", err)
			defer fh.Close()

			err = ids_to_names(cmd.Context(), read_id_lines(string(id_text)), fh)
			die(err != nil, "failed to look up map names", "error", err)
		},
	}
}

func sph_hashes_cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sph-hashes <SongPlayData.json>",
		Short: "Print the level of every record in a SongPlayHistory file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := os.ReadFile(args[0])
			die(err != nil, "failed to read SongPlayData", "error", err)
			hash_list, err := sph_played_hashes(string(data))
			die(err != nil, "failed to parse SongPlayData", "error", err)
			for _, hash := range unique(hash_list) {
				fmt.Fprintln(cmd.OutOrStdout(), hash)
			}
		},
	}
}

func filter_played_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter-played",
		Short: "Move levels whose hash isn't in the known hashes file to another directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			input := levels_path(nil)
			output := config_value(flag_output, "BS_UNKNOWN_OUTPUT_PATH", "")
			hashes := config_value(flag_hashes, "BS_KNOWN_HASH_PATH", "")
			die(output == "" || hashes == "", "usage: filter-played -i <input> -o <output> -k <hash>")

			known, err := read_known_hashes(hashes)
			die(err != nil, "failed to read known hashes", "error", err)

			played, not_played, err := partition_played(cmd.Context(), STATE.Pool, input, known)
			die(err != nil, "failed to scan levels", "error", err)
			slog.Info("levels partitioned", "played", len(played), "not-played", len(not_played))

			move_levels(cmd.OutOrStdout(), not_played, output)
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	cmd.Flags().StringVarP(&flag_output, "output", "o", "", "directory to move unplayed levels to (default: $BS_UNKNOWN_OUTPUT_PATH)")
	cmd.Flags().StringVarP(&flag_hashes, "hash", "k", "", "file of known level hashes (default: $BS_KNOWN_HASH_PATH)")
	return cmd
}

func validate_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [CustomLevels]",
		Short: "Check the info file of every level",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			invalid_list, checked, err := validate_levels(levels_path(args))
			die(err != nil, "failed to validate levels", "error", err)
			out := cmd.OutOrStdout()
			for _, invalid := range invalid_list {
				fmt.Fprintf(out, "%s: %v\n", basename(invalid.Path), invalid.Err)
			}
			fmt.Fprintf(out, "%d of %d levels invalid.\n", len(invalid_list), checked)
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	return cmd
}

func index_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [CustomLevels]",
		Short: "Record every level's hash and metadata in the level index",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			root := levels_path(args)
			idx, err := NewLevelIndex(db_path())
			die(err != nil, "failed to open level index", "error", err)
			defer idx.Close()

			scan_id, report, err := index_levels(cmd.Context(), STATE.Pool, idx, root)
			die(err != nil, "failed to index levels", "error", err)
			slog.Info("levels indexed", "scan", scan_id, "scanned", report.Scanned, "skipped", report.Skipped, "failed", report.Failed)
			fmt.Fprintln(cmd.OutOrStdout(), scan_id)
		},
	}
	cmd.Flags().AddFlagSet(levels_flag())
	cmd.Flags().AddFlagSet(db_flag())
	return cmd
}

func lookup_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <hash>",
		Short: "Print the indexed levels with the given content hash",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			idx, err := NewLevelIndex(db_path())
			die(err != nil, "failed to open level index", "error", err)
			defer idx.Close()

			level_list, err := idx.LevelsByHash(cmd.Context(), args[0])
			die(err != nil, "failed to look up levels", "error", err)
			pprint(cmd.OutOrStdout(), level_list)
		},
	}
	cmd.Flags().AddFlagSet(db_flag())
	return cmd
}

func root_cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bstools",
		Short: "Utilities for managing Beat Saber custom levels",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flag_debug {
				LOG_LEVEL.Set(slog.LevelDebug)
			}
			STATE = init_state()
		},
	}
	cmd.PersistentFlags().AddFlagSet(state_flags())
	cmd.AddCommand(
		find_duplicates_cmd(),
		remove_duplicates_cmd(),
		rename_cmd(),
		download_cmd(),
		sort_bpm_cmd(),
		id_to_name_cmd(),
		sph_hashes_cmd(),
		filter_played_cmd(),
		validate_cmd(),
		index_cmd(),
		lookup_cmd(),
	)
	return cmd
}

// --- bootstrap

func init() {
	if is_testing() {
		return
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: LOG_LEVEL})))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := root_cmd().ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
