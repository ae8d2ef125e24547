package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gonzalop/asyncftp"
)

var (
	longListing bool
	parallel    = 8
)

func init() {
	lsCommand.Flags().BoolVarP(&longListing, "long", "l", false, "Show kind, size and modification time")
	rmCommand.Flags().IntVarP(&parallel, "parallel", "j", parallel, "Number of deletes queued at once")
}

var lsCommand = &cobra.Command{
	Use:   "ls ftp://host/path",
	Short: "List a remote directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return withClient(cmd.Context(), t, func(c *asyncftp.Client) error {
			if !longListing {
				names, err := c.NameList(cmd.Context(), t.path)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			entries, err := c.ListParsed(cmd.Context(), t.path)
			if err != nil {
				return err
			}
			for _, e := range entries {
				printEntry(out, e)
			}
			return nil
		})
	},
}

func printEntry(w io.Writer, e *asyncftp.Entry) {
	if e.Kind == asyncftp.KindUnknown {
		fmt.Fprintln(w, e.Raw)
		return
	}
	modTime := "-"
	if !e.ModTime.IsZero() {
		modTime = e.ModTime.Format("2006-01-02 15:04")
	}
	name := e.Name
	if e.Target != "" {
		name += " -> " + e.Target
	}
	fmt.Fprintf(w, "%c %12d %s %s\n", e.Kind, e.Size, modTime, name)
}

var getCommand = &cobra.Command{
	Use:   "get ftp://host/file [local]",
	Short: "Download a file",
	Long: `Download a file. Without a local name the file is saved under its
remote base name in the current directory. A local name of "-" writes to
standard output.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		local := path.Base(t.path)
		if len(args) == 2 {
			local = args[1]
		}
		return withClient(cmd.Context(), t, func(c *asyncftp.Client) error {
			if local == "-" {
				return c.RetrieveTo(cmd.Context(), t.path, cmd.OutOrStdout())
			}
			return c.DownloadFile(cmd.Context(), t.path, local)
		})
	},
}

var putCommand = &cobra.Command{
	Use:   "put local ftp://host/file",
	Short: "Upload a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTarget(args[1])
		if err != nil {
			return err
		}
		if strings.HasSuffix(t.path, "/") || t.path == "" {
			t.path = path.Join(t.path, path.Base(args[0]))
		}
		return withClient(cmd.Context(), t, func(c *asyncftp.Client) error {
			if args[0] == "-" {
				return c.Store(cmd.Context(), t.path, os.Stdin)
			}
			return c.UploadFile(cmd.Context(), args[0], t.path)
		})
	},
}

var rmCommand = &cobra.Command{
	Use:   "rm ftp://host/file...",
	Short: "Delete files",
	Long: `Delete files. All files must be on the same server. The deletes share
one control connection and are pipelined: each DELE is written as soon as
the previous one is answered.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := parseTargets(args)
		if err != nil {
			return err
		}
		paths := make([]string, len(targets))
		for i, t := range targets {
			paths[i] = t.path
		}
		return withClient(cmd.Context(), targets[0], func(c *asyncftp.Client) error {
			return deleteAll(cmd.Context(), c, paths, parallel)
		})
	},
}

type deleter interface {
	Delete(ctx context.Context, remotePath string) error
}

// deleteAll issues one DELE per path, at most limit in the queue at once.
// A failed delete leaves ctx alive, so the rest still run. Every failure is
// returned.
func deleteAll(ctx context.Context, c deleter, paths []string, limit int) error {
	errs := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(max(limit, 1))
	for i, p := range paths {
		g.Go(func() error {
			if err := c.Delete(ctx, p); err != nil {
				errs[i] = fmt.Errorf("%s: %w", p, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

var mvCommand = &cobra.Command{
	Use:   "mv ftp://host/from to",
	Short: "Rename a remote file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		to := args[1]
		if dest, err := parseTarget(to); err == nil {
			if dest.server != t.server {
				return fmt.Errorf("%q: cannot move between servers", to)
			}
			to = dest.path
		}
		return withClient(cmd.Context(), t, func(c *asyncftp.Client) error {
			return c.Rename(cmd.Context(), t.path, to)
		})
	},
}

var statCommand = &cobra.Command{
	Use:   "stat ftp://host[/path]",
	Short: "Show server or file status using STAT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := parseTarget(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return withClient(cmd.Context(), t, func(c *asyncftp.Client) error {
			if t.path == "" || t.path == "/" {
				lines, err := c.Status(cmd.Context(), "")
				if err != nil {
					return err
				}
				for _, l := range lines {
					fmt.Fprintln(out, strings.TrimSpace(l))
				}
				return nil
			}
			e, err := c.StatEntry(cmd.Context(), t.path)
			if err != nil {
				return err
			}
			printEntry(out, e)
			return nil
		})
	},
}
