// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/traverse/cmd/traverse/config"
	"github.com/AleutianAI/traverse/cmd/traverse/gcs"
	"github.com/AleutianAI/traverse/pkg/logging"
	"github.com/AleutianAI/traverse/pkg/ux"
)

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// runReportUpload executes the report upload command.
//
// # Description
//
// Pushes a local run-report directory to a GCS bucket, preserving the
// directory layout under the object prefix. The bucket comes from --bucket
// or the config file; the prefix falls back to a timestamped default so
// repeated uploads never collide. --dry-run lists the objects that would be
// written without touching the bucket.
func runReportUpload(cmd *cobra.Command, args []string) {
	cfg := outputCfg()
	log := newCLILogger(cfg.Quiet)
	start := time.Now()

	ctx, cancel := signalContext()
	defer cancel()

	localDir := args[0]
	info, err := os.Stat(localDir)
	if err != nil || !info.IsDir() {
		OutputError(cfg.JSON, "Report directory not found",
			fmt.Errorf("%s is not a readable directory", localDir))
		os.Exit(CLIExitError)
	}

	bucket := reportBucket
	if bucket == "" {
		bucket = config.Global.Report.Bucket
	}
	if bucket == "" {
		OutputError(cfg.JSON, "No bucket configured",
			errors.New("pass --bucket or set report.bucket in the config file"))
		os.Exit(CLIExitError)
	}

	prefix := reportPrefix
	if prefix == "" {
		prefix = config.Global.Report.Prefix
	}
	if prefix == "" {
		prefix = "traverse/" + start.UTC().Format("20060102-150405")
	}

	if reportDryRun {
		objects, err := reportObjects(localDir, prefix)
		if err != nil {
			OutputError(cfg.JSON, "Could not scan the report directory", err)
			os.Exit(CLIExitError)
		}
		if !cfg.JSON && !cfg.Quiet {
			printReportDryRun(bucket, objects)
		}
		result := ReportUploadResult{Bucket: bucket, Prefix: prefix, DryRun: true, Objects: objects}
		os.Exit(OutputResult(cfg, "report upload", start, result, false, nil))
	}

	withSpinner := !cfg.JSON && !cfg.Quiet && ux.ShouldShowProgress()
	uploaded, err := uploadReport(ctx, log, localDir, bucket, prefix, withSpinner)
	if err != nil {
		OutputError(cfg.JSON, "Upload failed", err)
		os.Exit(CLIExitError)
	}

	if !cfg.JSON && !cfg.Quiet {
		ux.Success(fmt.Sprintf("Uploaded %d files to gs://%s/%s", uploaded, bucket, prefix))
	}
	result := ReportUploadResult{Bucket: bucket, Prefix: prefix, Uploaded: uploaded}
	os.Exit(OutputResult(cfg, "report upload", start, result, false, nil))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func uploadReport(ctx context.Context, log *logging.Logger, localDir, bucket, prefix string, withSpinner bool) (int, error) {
	client, err := gcs.NewClient(ctx, reportSAKey, bucket)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	var spin *ux.Spinner
	if withSpinner {
		spin = ux.NewSpinner(fmt.Sprintf("Uploading report to gs://%s/%s", bucket, prefix))
		spin.Start()
	}
	progress := func(object string) {
		log.Debug("uploaded report object", "object", object)
		if spin != nil {
			spin.UpdateMessage(fmt.Sprintf("Uploaded %s", object))
		}
	}

	uploaded, err := client.UploadDir(ctx, localDir, prefix, progress)
	if spin != nil {
		if err != nil {
			spin.StopWithError(fmt.Sprintf("Upload failed after %d files", uploaded))
		} else {
			spin.Stop()
		}
	}
	return uploaded, err
}

// reportObjects enumerates the object paths an upload of localDir would
// create, mirroring the walk the upload itself performs.
func reportObjects(localDir, prefix string) ([]string, error) {
	var objects []string
	err := filepath.Walk(localDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		objects = append(objects, path.Join(prefix, filepath.ToSlash(rel)))
		return nil
	})
	return objects, err
}

func printReportDryRun(bucket string, objects []string) {
	if ux.GetPersonality().Level == ux.PersonalityMachine {
		for _, o := range objects {
			fmt.Printf("%s\n", o)
		}
		return
	}

	ux.Title("Dry run, nothing uploaded")
	for _, o := range objects {
		fmt.Printf("  %s gs://%s/%s\n", ux.IconBullet.Render(), bucket, o)
	}
	fmt.Printf("\n%d files would upload\n", len(objects))
}
