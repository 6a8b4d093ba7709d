package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/registry"
	"github.com/alfredjeanlab/admatrix/internal/sheet"
	admxsync "github.com/alfredjeanlab/admatrix/internal/sync"
	"github.com/spf13/cobra"
)

// buildResult is printed with --json.
type buildResult struct {
	Output       string   `json:"output,omitempty"`
	Dependencies int      `json:"dependencies"`
	Activities   []string `json:"activities"`
	Bytes        int      `json:"bytes"`
	Destinations int      `json:"destinations"`
}

var buildCmd = &cobra.Command{
	Use:     "build",
	Short:   "Build " + matrix.Filename + " from a dependency sheet",
	GroupID: "local",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		output, _ := cmd.Flags().GetString("output")

		var (
			s   *sheet.Sheet
			err error
		)
		if file == "-" {
			s, err = sheet.Decode(cmd.InOrStdin())
		} else {
			s, err = sheet.DecodeFile(file)
		}
		if err != nil {
			return err
		}

		reg := registry.New()
		if err := s.Apply(reg); err != nil {
			return err
		}
		data, err := matrix.Render(reg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		dests, err := buildDestinations(ctx, cmd)
		if err != nil {
			return err
		}
		if err := admxsync.WriteAll(ctx, dests, matrix.Filename, data); err != nil {
			return err
		}

		res := buildResult{
			Dependencies: reg.Len(),
			Activities:   reg.Activities(),
			Bytes:        len(data),
			Destinations: len(dests),
		}
		switch output {
		case "-":
			_, err := cmd.OutOrStdout().Write(data)
			return err
		case "":
		default:
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			res.Output = output
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		if res.Output != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d dependencies, %d activities)\n", res.Output, res.Dependencies, len(res.Activities))
		}
		if len(dests) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "copied to %d destination(s)\n", len(dests))
		}
		return nil
	},
}

// buildDestinations returns the extra destinations selected by flags.
func buildDestinations(ctx context.Context, cmd *cobra.Command) ([]admxsync.Destination, error) {
	var dests []admxsync.Destination
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		dests = append(dests, admxsync.NewFileDestination(dir))
	}
	if bucket, _ := cmd.Flags().GetString("s3-bucket"); bucket != "" {
		prefix, _ := cmd.Flags().GetString("s3-prefix")
		region, _ := cmd.Flags().GetString("s3-region")
		endpoint, _ := cmd.Flags().GetString("s3-endpoint")
		d, err := admxsync.NewS3Destination(ctx, bucket, prefix, region, endpoint)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
	}
	if repo, _ := cmd.Flags().GetString("git-repo"); repo != "" {
		dir, _ := cmd.Flags().GetString("git-dir")
		branch, _ := cmd.Flags().GetString("git-branch")
		dests = append(dests, admxsync.NewGitDestination(repo, dir, branch))
	}
	return dests, nil
}

func init() {
	buildCmd.Flags().StringP("file", "f", "", "dependency sheet (.toml), - for stdin")
	buildCmd.Flags().StringP("output", "o", matrix.Filename, "output path, - for stdout, empty to skip")
	buildCmd.Flags().String("dir", "", "also copy into this directory")
	buildCmd.Flags().String("s3-bucket", "", "also upload to this S3 bucket")
	buildCmd.Flags().String("s3-prefix", "", "S3 key prefix")
	buildCmd.Flags().String("s3-region", "us-east-1", "S3 region")
	buildCmd.Flags().String("s3-endpoint", "", "custom S3 endpoint (MinIO)")
	buildCmd.Flags().String("git-repo", "", "also commit into this git clone")
	buildCmd.Flags().String("git-dir", "", "directory within the git clone")
	buildCmd.Flags().String("git-branch", "main", "git branch to push")
	_ = buildCmd.MarkFlagRequired("file")
}
