package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"rxfirebase/internal/domain/entity"
)

func uploadCmd() *cobra.Command {
	var contentType, cacheControl string

	cmd := &cobra.Command{
		Use:   "upload <local file> <object path>",
		Short: "Upload a file, reporting progress",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type, detected from the data when empty")
	cmd.Flags().StringVar(&cacheControl, "cache-control", "", "Cache-Control metadata")

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		out := stdout(cmd)
		ref := rt.session.Storage().Child(args[1])
		return ref.Put(data, &entity.ObjectMetadata{
			ContentType:  contentType,
			CacheControl: cacheControl,
		}).ForEach(ctx, func(ev entity.UploadEvent) error {
			if ev.Completed() {
				return printJSON(out, ev.Metadata)
			}
			fmt.Fprintf(out, "%s: %d/%d bytes (%.0f%%)\n", ref.FullPath(), ev.BytesTransferred, ev.TotalBytes, ev.Fraction()*100)
			return nil
		})
	})
	return cmd
}

func downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <object path> [local file]",
		Short: "Download an object to a local file",
		Args:  cobra.RangeArgs(1, 2),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		ref := rt.session.Storage().Child(args[0])
		localPath := ref.Name()
		if len(args) == 2 {
			localPath = args[1]
		}
		localPath, err := filepath.Abs(localPath)
		if err != nil {
			return err
		}

		if _, err := ref.DownloadTo(localPath).Await(ctx); err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), localPath)
		return nil
	})
	return cmd
}

func urlCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "url <object path>",
		Short: "Print a signed download URL for an object",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "how long the URL stays valid")

	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		url, err := rt.session.Storage().Child(args[0]).DownloadURL(ttl).Await(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout(cmd), url)
		return nil
	})
	return cmd
}

func deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <object path>",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
		_, err := rt.session.Storage().Child(args[0]).Delete().Await(ctx)
		return err
	})
	return cmd
}
