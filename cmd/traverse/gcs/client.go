// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gcs uploads run artifacts to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// uploadConcurrency bounds how many objects UploadDir sends at once.
const uploadConcurrency = 4

// Client wraps a GCS storage client pinned to one bucket.
type Client struct {
	storageClient *storage.Client
	BucketName    string
}

// NewClient builds a client for bucketName. With saKeyPath set the client
// authenticates with that service account key; otherwise it falls back to
// Application Default Credentials.
func NewClient(ctx context.Context, saKeyPath, bucketName string) (*Client, error) {
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &Client{
		storageClient: storageClient,
		BucketName:    bucketName,
	}, nil
}

// Close releases the underlying storage client.
func (c *Client) Close() error {
	if c.storageClient == nil {
		return nil
	}
	return c.storageClient.Close()
}

// UploadFile copies one local file to objectPath in the bucket.
func (c *Client) UploadFile(ctx context.Context, localPath, objectPath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file %s: %w", localPath, err)
	}
	defer localFile.Close()

	obj := c.storageClient.Bucket(c.BucketName).Object(objectPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = contentTypeFor(localPath)
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		return fmt.Errorf("failed to copy %s to GCS object %s: %w", localPath, objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", objectPath, err)
	}
	return nil
}

// UploadDir walks localDir and uploads every regular file under prefix,
// preserving the directory layout. Uploads run a few objects at a time;
// progress, when non-nil, is called with each object path after its upload
// lands, in completion order. Returns the number of files uploaded.
func (c *Client) UploadDir(ctx context.Context, localDir, prefix string, progress func(object string)) (int, error) {
	type job struct {
		localPath  string
		objectPath string
	}
	var jobs []job
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
		jobs = append(jobs, job{localPath: p, objectPath: path.Join(prefix, filepath.ToSlash(rel))})
		return nil
	})
	if err != nil {
		return 0, err
	}

	var (
		mu       sync.Mutex
		uploaded int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, j := range jobs {
		g.Go(func() error {
			if err := c.UploadFile(gCtx, j.localPath, j.objectPath); err != nil {
				return err
			}
			mu.Lock()
			uploaded++
			if progress != nil {
				progress(j.objectPath)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return uploaded, err
	}
	return uploaded, nil
}

// contentTypeFor guesses a content type from the file extension so reports
// open in a browser instead of downloading.
func contentTypeFor(localPath string) string {
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
